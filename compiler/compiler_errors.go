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

package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PTSSpace/APG/schema"
)

type Error struct {
	code    uint32
	kind    schema.ErrorKind
	message string
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Kind() schema.ErrorKind {
	return err.kind
}

func (err *Error) Message() string {
	return err.message
}

// Is matches the error's [schema.ErrorKind].
func (err *Error) Is(target error) bool {
	kind, ok := target.(schema.ErrorKind)
	return ok && kind == err.kind
}

func fmtSet(names []string) string {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	return "{" + strings.Join(sorted, ", ") + "}"
}

func fmtList(names []string) string {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	return "[" + strings.Join(sorted, ", ") + "]"
}

func errDuplicateModules(names []string) error {
	var message string
	if len(names) == 1 {
		message = fmt.Sprintf("The module %s is found multiple times in the bundle", names[0])
	} else {
		message = fmt.Sprintf(
			"The modules %s are found multiple times in the bundle",
			strings.Join(names, ", "),
		)
	}
	return &Error{
		code:    3000,
		kind:    schema.DependencyError,
		message: message,
	}
}

func errUndeclaredDependencies(module string, missing []string) error {
	return &Error{
		code:    3001,
		kind:    schema.DependencyError,
		message: fmt.Sprintf("Module '%s' uses undeclared dependencies %s", module, fmtSet(missing)),
	}
}

func errImportsNotFound(module, dependency string, missing []string) error {
	return &Error{
		code: 3002,
		kind: schema.ConsistencyError,
		message: fmt.Sprintf(
			"Error parsing '%s': Imports %s From '%s' not found.",
			module, fmtSet(missing), dependency,
		),
	}
}

// errDuplicateTypes reports every type name defined more than once. Each
// entry of modules lists the modules defining the name, in bundle order.
func errDuplicateTypes(names []string, modules map[string][]string) error {
	var details []string
	for _, name := range names {
		owners := modules[name]
		if len(owners) == 1 || allEqual(owners) {
			details = append(details, fmt.Sprintf(
				"The type %s was already defined in %s", name, owners[0],
			))
			continue
		}
		details = append(details, fmt.Sprintf(
			"The type %s was already defined in %s and %s",
			name, strings.Join(owners[:len(owners)-1], ", "), owners[len(owners)-1],
		))
	}
	return &Error{
		code:    3003,
		kind:    schema.ConsistencyError,
		message: strings.Join(details, "; "),
	}
}

func allEqual(values []string) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func errTypeUndefined(typeName, defName, module string) error {
	return &Error{
		code: 3004,
		kind: schema.ConsistencyError,
		message: fmt.Sprintf(
			"Type '%s' used in '%s' is not defined in module '%s' or its imports",
			typeName, defName, module,
		),
	}
}

func errComponentsKeyInvalid(key, defName, typeName string) error {
	return &Error{
		code: 3005,
		kind: schema.ConsistencyError,
		message: fmt.Sprintf(
			"'%s' in '%s' is not a valid key (no such field in '%s')",
			key, defName, typeName,
		),
	}
}

func errComponentsTypeUndefined(typeName, defName string) error {
	return &Error{
		code:    3006,
		kind:    schema.ConsistencyError,
		message: fmt.Sprintf("used type '%s' in '%s' is not defined", typeName, defName),
	}
}

func errComponentsTypeNotSequence(typeName string, kind schema.DefinitionKind, defName string) error {
	return &Error{
		code: 3007,
		kind: schema.ConsistencyError,
		message: fmt.Sprintf(
			"used type '%s' in '%s' is a %s, WITH COMPONENTS needs a SEQUENCE",
			typeName, defName, kind,
		),
	}
}

func errExpectedModulesDuplicate(duplicates []string) error {
	return &Error{
		code: 3008,
		kind: schema.ConsistencyError,
		message: fmt.Sprintf(
			"Modules %s are listed multiple times in the expected module list",
			fmtSet(duplicates),
		),
	}
}

func errModulesNotExpected(extra, bundle, expected []string) error {
	var message string
	if len(extra) == 1 {
		message = fmt.Sprintf(
			"Module %s was found in bundle, but was not found in the expected list",
			extra[0],
		)
	} else {
		message = fmt.Sprintf(
			"Modules %s were found in bundle, but were not found in the expected list",
			fmtSet(extra),
		)
	}
	return &Error{
		code: 3009,
		kind: schema.ConsistencyError,
		message: fmt.Sprintf(
			"%s (bundle: %s, expected: %s)",
			message, fmtList(bundle), fmtList(expected),
		),
	}
}

func errModulesNotFound(missing, bundle, expected []string) error {
	var message string
	if len(missing) == 1 {
		message = fmt.Sprintf(
			"Module %s was found in the expected list, but was not found in bundle",
			missing[0],
		)
	} else {
		message = fmt.Sprintf(
			"Modules %s were found in the expected list, but were not found in bundle",
			fmtSet(missing),
		)
	}
	return &Error{
		code: 3010,
		kind: schema.ConsistencyError,
		message: fmt.Sprintf(
			"%s (bundle: %s, expected: %s)",
			message, fmtList(bundle), fmtList(expected),
		),
	}
}

func errAliasCycle(chain []string) error {
	return &Error{
		code: 3011,
		kind: schema.CyclicDependencyError,
		message: fmt.Sprintf(
			"Simple definitions %s alias each other in a cycle",
			fmtSet(chain),
		),
	}
}

func errContainmentCycle(chain []string) error {
	return &Error{
		code: 3012,
		kind: schema.CyclicDependencyError,
		message: fmt.Sprintf(
			"Definition '%s' contains itself: %s",
			chain[0], strings.Join(chain, " -> "),
		),
	}
}
