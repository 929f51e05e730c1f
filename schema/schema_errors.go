// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package schema

import (
	"fmt"
	"math"
	"strings"
)

// ErrorKind classifies schema errors. Each kind is itself an error value, so
// callers can test for a category with [errors.Is]:
//
//	if errors.Is(err, schema.ConsistencyError) { ... }
type ErrorKind uint8

const (
	_ ErrorKind = iota
	ConsistencyError
	DependencyError
	RangeOverflowError
	UnresolvedSizeError
	CyclicDependencyError
)

var _ error = ConsistencyError

func (k ErrorKind) String() string {
	switch k {
	case ConsistencyError:
		return "ConsistencyError"
	case DependencyError:
		return "DependencyError"
	case RangeOverflowError:
		return "RangeOverflowError"
	case UnresolvedSizeError:
		return "UnresolvedSizeError"
	case CyclicDependencyError:
		return "CyclicDependencyError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

func (k ErrorKind) Error() string {
	return k.String()
}

type Error struct {
	code    uint32
	kind    ErrorKind
	message string
}

var _ error = (*Error)(nil)

// NewError is used by packages layered on the schema model to report errors
// in the same taxonomy.
func NewError(code uint32, kind ErrorKind, message string) *Error {
	return &Error{
		code:    code,
		kind:    kind,
		message: message,
	}
}

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Kind() ErrorKind {
	return err.kind
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == err.kind
}

func errRangeInverted(begin, end string) error {
	return &Error{
		code:    2000,
		kind:    ConsistencyError,
		message: fmt.Sprintf("end: %s is less than begin: %s", end, begin),
	}
}

func errRealOutOfRange(begin, end string) error {
	return &Error{
		code:    2001,
		kind:    RangeOverflowError,
		message: fmt.Sprintf("%s or %s are out of double range", begin, end),
	}
}

func errNullForbidden(where string) error {
	return &Error{
		code: 2002,
		kind: ConsistencyError,
		message: fmt.Sprintf(
			"Unexpected type: NULL (in '%s'). The NULL type is supported by"+
				" the ASN.1 standard but its use is forbidden to avoid any"+
				" confusion in generated artifacts",
			where,
		),
	}
}

func errPosixRangeMismatch(begin, end, alias string) error {
	return &Error{
		code: 2003,
		kind: ConsistencyError,
		message: fmt.Sprintf(
			"Range [%s - %s] doesn't match with the used POSIX definition (%s).",
			begin, end, alias,
		),
	}
}

func errEnumPositions(typeName, detail string) error {
	return &Error{
		code: 2004,
		kind: ConsistencyError,
		message: fmt.Sprintf(
			"Some indices are not present, multiple times or out of bounds"+
				" in '%s': %s",
			typeName, detail,
		),
	}
}

func errEnumEmpty(typeName string) error {
	return &Error{
		code:    2005,
		kind:    ConsistencyError,
		message: fmt.Sprintf("ENUMERATED '%s' has no items", typeName),
	}
}

func errEnumItemConflict(typeName, item string) error {
	return &Error{
		code:    2006,
		kind:    ConsistencyError,
		message: fmt.Sprintf("Item '%s' in '%s' is defined multiple times", item, typeName),
	}
}

func errNoFields(kind DefinitionKind, typeName string) error {
	return &Error{
		code:    2007,
		kind:    ConsistencyError,
		message: fmt.Sprintf("%s '%s' has no fields", kind, typeName),
	}
}

func errFieldKeyConflict(typeName, key string) error {
	return &Error{
		code:    2008,
		kind:    ConsistencyError,
		message: fmt.Sprintf("Key '%s' in '%s' is defined multiple times", key, typeName),
	}
}

func errComponentKeyConflict(key string) error {
	return &Error{
		code:    2009,
		kind:    ConsistencyError,
		message: fmt.Sprintf("WITH COMPONENTS key '%s' is assigned multiple times", key),
	}
}

func errNoComponents() error {
	return &Error{
		code:    2010,
		kind:    ConsistencyError,
		message: "WITH COMPONENTS has no items",
	}
}

func errIntOutOfStdint(begin, end string) error {
	return &Error{
		code: 2011,
		kind: RangeOverflowError,
		message: fmt.Sprintf(
			"One of %s and %s is out of stdint definition",
			begin, end,
		),
	}
}

func errUnresolvedSize(typeName string) error {
	return &Error{
		code: 2012,
		kind: UnresolvedSizeError,
		message: fmt.Sprintf(
			"Bit size of type '%s' is unknown (no physical kind or resolved definition)",
			typeName,
		),
	}
}

func errChoiceSize(typeName string) error {
	return &Error{
		code: 2013,
		kind: UnresolvedSizeError,
		message: fmt.Sprintf(
			"Bit size of CHOICE '%s' depends on the code generator",
			typeName,
		),
	}
}

func errAlreadyBound(typeName, boundTo string) error {
	return &Error{
		code: 2014,
		kind: ConsistencyError,
		message: fmt.Sprintf(
			"Type reference '%s' is already bound to definition '%s'",
			typeName, boundTo,
		),
	}
}

func errBindNameMismatch(typeName, defName string) error {
	return &Error{
		code: 2015,
		kind: ConsistencyError,
		message: fmt.Sprintf(
			"Type reference '%s' cannot be bound to definition '%s'",
			typeName, defName,
		),
	}
}

func errBindString(typeName string) error {
	return &Error{
		code:    2016,
		kind:    ConsistencyError,
		message: fmt.Sprintf("String type '%s' cannot be bound to a definition", typeName),
	}
}

func errModuleAlreadyLinked(module string) error {
	return &Error{
		code:    2017,
		kind:    DependencyError,
		message: fmt.Sprintf("Imported modules of '%s' are already resolved", module),
	}
}

func errCyclicModules(names []string) error {
	return &Error{
		code: 2018,
		kind: CyclicDependencyError,
		message: fmt.Sprintf(
			"Modules {%s} cannot be ordered: their imports form a cycle",
			strings.Join(names, ", "),
		),
	}
}

func errCyclicDefinitions(module string, names []string) error {
	return &Error{
		code: 2019,
		kind: CyclicDependencyError,
		message: fmt.Sprintf(
			"Definitions {%s} in '%s' cannot be ordered: their references"+
				" form a cycle or use undefined types",
			strings.Join(names, ", "), module,
		),
	}
}

func errInvalidStringType(typeName string) error {
	return &Error{
		code:    2020,
		kind:    ConsistencyError,
		message: fmt.Sprintf("'%s' is not a string type", typeName),
	}
}

func errCyclicSize(chain []string) error {
	return &Error{
		code: 2021,
		kind: CyclicDependencyError,
		message: fmt.Sprintf(
			"Bit size of '%s' depends on itself: %s",
			chain[0], strings.Join(chain, " -> "),
		),
	}
}

func errSizeOverflow(what string, bits uint64) error {
	return &Error{
		code: 2022,
		kind: RangeOverflowError,
		message: fmt.Sprintf(
			"Bit size of %s is %d, more than the maximum of %d",
			what, bits, uint64(math.MaxUint32),
		),
	}
}
