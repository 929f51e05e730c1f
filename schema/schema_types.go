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
	"math"
	"math/big"
	"strconv"
)

// Range is the declared `(begin..end)` constraint of an INTEGER or REAL
// type. Integer bounds are arbitrary precision so that the full unsigned
// 64-bit range can be expressed.
type Range struct {
	real      bool
	intBegin  *big.Int
	intEnd    *big.Int
	realBegin float64
	realEnd   float64
}

func NewIntRange(begin, end *big.Int) (*Range, error) {
	if end.Cmp(begin) < 0 {
		return nil, errRangeInverted(begin.String(), end.String())
	}
	return &Range{
		intBegin: new(big.Int).Set(begin),
		intEnd:   new(big.Int).Set(end),
	}, nil
}

func NewRealRange(begin, end float64) (*Range, error) {
	if math.IsNaN(begin) || math.IsNaN(end) {
		return nil, errRealOutOfRange(formatReal(begin), formatReal(end))
	}
	if end < begin {
		return nil, errRangeInverted(formatReal(begin), formatReal(end))
	}
	return &Range{
		real:      true,
		realBegin: begin,
		realEnd:   end,
	}, nil
}

func mustIntRange(begin, end *big.Int) *Range {
	r, err := NewIntRange(begin, end)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Range) IsReal() bool {
	return r.real
}

func (r *Range) IntBegin() *big.Int {
	if r.real {
		return nil
	}
	return new(big.Int).Set(r.intBegin)
}

func (r *Range) IntEnd() *big.Int {
	if r.real {
		return nil
	}
	return new(big.Int).Set(r.intEnd)
}

func (r *Range) RealBegin() float64 {
	if !r.real {
		f, _ := new(big.Float).SetInt(r.intBegin).Float64()
		return f
	}
	return r.realBegin
}

func (r *Range) RealEnd() float64 {
	if !r.real {
		f, _ := new(big.Float).SetInt(r.intEnd).Float64()
		return f
	}
	return r.realEnd
}

func (r *Range) BeginString() string {
	if r.real {
		return formatReal(r.realBegin)
	}
	return r.intBegin.String()
}

func (r *Range) EndString() string {
	if r.real {
		return formatReal(r.realEnd)
	}
	return r.intEnd.String()
}

func (r *Range) String() string {
	return r.BeginString() + ".." + r.EndString()
}

func (r *Range) Equal(other *Range) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.real != other.real {
		return false
	}
	if r.real {
		return r.realBegin == other.realBegin && r.realEnd == other.realEnd
	}
	return r.intBegin.Cmp(other.intBegin) == 0 && r.intEnd.Cmp(other.intEnd) == 0
}

func (r *Range) ContainsInt(v *big.Int) bool {
	if r.real {
		f, _ := new(big.Float).SetInt(v).Float64()
		return r.ContainsReal(f)
	}
	return r.intBegin.Cmp(v) <= 0 && v.Cmp(r.intEnd) <= 0
}

func (r *Range) ContainsReal(v float64) bool {
	return r.RealBegin() <= v && v <= r.RealEnd()
}

func formatReal(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'I' || c == 'N' {
			return s
		}
	}
	return s + ".0"
}

// PhysicalKind is the storage representation assigned to a declared type.
type PhysicalKind uint8

const (
	PhysicalKind_UNRESOLVED PhysicalKind = iota
	PhysicalKind_BOOL
	PhysicalKind_UINT
	PhysicalKind_INT
	PhysicalKind_FLOAT
	PhysicalKind_DOUBLE
	PhysicalKind_STRING
)

func (k PhysicalKind) String() string {
	switch k {
	case PhysicalKind_UNRESOLVED:
		return "UNRESOLVED"
	case PhysicalKind_BOOL:
		return "BOOL"
	case PhysicalKind_UINT:
		return "UINT"
	case PhysicalKind_INT:
		return "INT"
	case PhysicalKind_FLOAT:
		return "FLOAT"
	case PhysicalKind_DOUBLE:
		return "DOUBLE"
	case PhysicalKind_STRING:
		return "STRING"
	default:
		return "PhysicalKind(" + strconv.Itoa(int(k)) + ")"
	}
}

const (
	floatMin  = -3.4e38
	floatMax  = 3.4e38
	doubleMin = -math.MaxFloat64
	doubleMax = math.MaxFloat64
)

var predefinedTypes = []string{
	"BOOLEAN",
	"INTEGER",
	"REAL",
	"IA5String",
	"NumericString",
}

// PredefinedTypes returns the type names that are always in scope.
func PredefinedTypes() []string {
	return append([]string(nil), predefinedTypes...)
}

func IsPredefined(typeName string) bool {
	for _, name := range predefinedTypes {
		if name == typeName {
			return true
		}
	}
	return false
}

type posixAlias struct {
	kind PhysicalKind
	bits uint32
	rng  *Range
}

func signedRange(bits uint) *Range {
	end := new(big.Int).Lsh(big.NewInt(1), bits-1)
	begin := new(big.Int).Neg(end)
	return mustIntRange(begin, end.Sub(end, big.NewInt(1)))
}

func unsignedRange(bits uint) *Range {
	end := new(big.Int).Lsh(big.NewInt(1), bits)
	return mustIntRange(big.NewInt(0), end.Sub(end, big.NewInt(1)))
}

var posixAliases = map[string]posixAlias{
	"Int8-t":   {PhysicalKind_INT, 8, signedRange(8)},
	"Int16-t":  {PhysicalKind_INT, 16, signedRange(16)},
	"Int32-t":  {PhysicalKind_INT, 32, signedRange(32)},
	"Int64-t":  {PhysicalKind_INT, 64, signedRange(64)},
	"Uint8-t":  {PhysicalKind_UINT, 8, unsignedRange(8)},
	"Uint16-t": {PhysicalKind_UINT, 16, unsignedRange(16)},
	"Uint32-t": {PhysicalKind_UINT, 32, unsignedRange(32)},
	"Uint64-t": {PhysicalKind_UINT, 64, unsignedRange(64)},
	"Float":    {PhysicalKind_FLOAT, 32, &Range{real: true, realBegin: floatMin, realEnd: floatMax}},
	"Double":   {PhysicalKind_DOUBLE, 64, &Range{real: true, realBegin: doubleMin, realEnd: doubleMax}},
}

// PosixAlias reports whether typeName is one of the reserved fixed-width
// aliases (`Uint8-t`, `Int32-t`, `Float`, ...) and returns its canonical
// physical kind and range.
func PosixAlias(typeName string) (PhysicalKind, *Range, bool) {
	alias, ok := posixAliases[typeName]
	if !ok {
		return PhysicalKind_UNRESOLVED, nil, false
	}
	return alias.kind, alias.rng, true
}

var signedWidths = []string{"Int8-t", "Int16-t", "Int32-t", "Int64-t"}

// PhysicalKindOf maps a declared type name and optional range to its
// physical kind. Fixed string wrappers are not handled here; see
// [NewStringType].
func PhysicalKindOf(typeName string, rng *Range) (PhysicalKind, error) {
	if alias, ok := posixAliases[typeName]; ok {
		return alias.kind, nil
	}
	switch typeName {
	case "INTEGER":
		if rng == nil || rng.real {
			return PhysicalKind_UNRESOLVED, nil
		}
		if rng.intBegin.Sign() >= 0 {
			return PhysicalKind_UINT, nil
		}
		return PhysicalKind_INT, nil
	case "REAL":
		if rng == nil {
			return PhysicalKind_UNRESOLVED, nil
		}
		begin, end := rng.RealBegin(), rng.RealEnd()
		if begin >= floatMin && end <= floatMax {
			return PhysicalKind_FLOAT, nil
		}
		if begin >= doubleMin && end <= doubleMax {
			return PhysicalKind_DOUBLE, nil
		}
		return PhysicalKind_UNRESOLVED, errRealOutOfRange(rng.BeginString(), rng.EndString())
	case "BOOLEAN":
		return PhysicalKind_BOOL, nil
	}
	return PhysicalKind_UNRESOLVED, nil
}

// StorageBits rounds a minimal bit width up to the POSIX storage width that
// holds it. Widths above 64 have no storage type and map to 0.
func StorageBits(bits uint32) uint32 {
	switch {
	case bits <= 8:
		return 8
	case bits <= 16:
		return 16
	case bits <= 32:
		return 32
	case bits <= 64:
		return 64
	}
	return 0
}

// FieldType is a declared type as written in a field or simple definition:
// a type name, an optional range, and at most one of an array wrapper, a
// fixed string wrapper, or (after resolution) a bound definition.
type FieldType struct {
	typeName string
	rng      *Range
	kind     PhysicalKind
	array    *Array
	str      *FixedString
	resolved Definition
}

func NewFieldType(typeName string, rng *Range) (*FieldType, error) {
	kind, err := PhysicalKindOf(typeName, rng)
	if err != nil {
		return nil, err
	}
	return &FieldType{
		typeName: typeName,
		rng:      rng,
		kind:     kind,
	}, nil
}

func NewStringType(typeName string, length uint32) (*FieldType, error) {
	if typeName != "IA5String" && typeName != "NumericString" {
		return nil, errInvalidStringType(typeName)
	}
	return &FieldType{
		typeName: typeName,
		kind:     PhysicalKind_STRING,
		str:      &FixedString{length: length},
	}, nil
}

// NewArrayType wraps element in a fixed-count array. The array carries the
// element's type name.
func NewArrayType(count uint32, element *FieldType) *FieldType {
	return &FieldType{
		typeName: element.typeName,
		kind:     element.kind,
		array: &Array{
			count:   count,
			element: element,
		},
	}
}

func (t *FieldType) TypeName() string {
	return t.typeName
}

func (t *FieldType) Range() *Range {
	return t.rng
}

func (t *FieldType) Kind() PhysicalKind {
	return t.kind
}

func (t *FieldType) Array() *Array {
	return t.array
}

func (t *FieldType) FixedString() *FixedString {
	return t.str
}

// Resolved returns the definition bound to this type reference, or nil for
// primitives, wrappers, and references that have not been resolved.
func (t *FieldType) Resolved() Definition {
	return t.resolved
}

// IsReference reports whether the type names a user definition (or a
// POSIX alias) rather than a primitive or wrapper.
func (t *FieldType) IsReference() bool {
	return t.array == nil && t.str == nil && !IsPredefined(t.typeName)
}

// Bind records the definition that a type reference resolves to. Array types
// bind their element. A reference can be bound once.
func (t *FieldType) Bind(def Definition) error {
	if t.array != nil {
		return t.array.element.Bind(def)
	}
	if t.str != nil {
		return errBindString(t.typeName)
	}
	if def.TypeName() != t.typeName {
		return errBindNameMismatch(t.typeName, def.TypeName())
	}
	if t.resolved != nil {
		return errAlreadyBound(t.typeName, t.resolved.TypeName())
	}
	t.resolved = def
	return nil
}

// IsBound reports whether a reference (or an array's innermost element) has
// been bound.
func (t *FieldType) IsBound() bool {
	if t.array != nil {
		return t.array.element.IsBound()
	}
	return t.resolved != nil
}

// EffectiveRange returns the declared range, falling back to the canonical
// range of a POSIX alias name.
func (t *FieldType) EffectiveRange() *Range {
	if t.rng != nil {
		return t.rng
	}
	if alias, ok := posixAliases[t.typeName]; ok {
		return alias.rng
	}
	return nil
}

type Array struct {
	count   uint32
	element *FieldType
}

func (a *Array) Count() uint32 {
	return a.count
}

func (a *Array) Element() *FieldType {
	return a.element
}

// Innermost unwraps nested arrays down to the first non-array element.
func (a *Array) Innermost() *FieldType {
	elem := a.element
	for elem.array != nil {
		elem = elem.array.element
	}
	return elem
}

type FixedString struct {
	length uint32
}

func (s *FixedString) Length() uint32 {
	return s.length
}
