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

package schema_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/PTSSpace/APG/internal/testutil"
	"github.com/PTSSpace/APG/schema"
)

func intRange(t *testing.T, begin, end int64) *schema.Range {
	t.Helper()
	rng, err := schema.NewIntRange(big.NewInt(begin), big.NewInt(end))
	testutil.AssertNoError(t, err)
	return rng
}

func intType(t *testing.T, begin, end int64) *schema.FieldType {
	t.Helper()
	fieldType, err := schema.NewFieldType("INTEGER", intRange(t, begin, end))
	testutil.AssertNoError(t, err)
	return fieldType
}

func namedType(t *testing.T, typeName string) *schema.FieldType {
	t.Helper()
	fieldType, err := schema.NewFieldType(typeName, nil)
	testutil.AssertNoError(t, err)
	return fieldType
}

func field(t *testing.T, key string, fieldType *schema.FieldType) *schema.Field {
	t.Helper()
	f, err := schema.NewField(key, fieldType, nil, nil)
	testutil.AssertNoError(t, err)
	return f
}

func bitSize(t *testing.T, sized interface{ BitSize() (uint32, error) }) uint32 {
	t.Helper()
	bits, err := sized.BitSize()
	testutil.AssertNoError(t, err)
	return bits
}

func TestPhysicalKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		typeName string
		rng      *schema.Range
		want     schema.PhysicalKind
	}{
		{"INTEGER", intRange(t, 0, 10), schema.PhysicalKind_UINT},
		{"INTEGER", intRange(t, -1, 10), schema.PhysicalKind_INT},
		{"INTEGER", nil, schema.PhysicalKind_UNRESOLVED},
		{"REAL", nil, schema.PhysicalKind_UNRESOLVED},
		{"BOOLEAN", nil, schema.PhysicalKind_BOOL},
		{"Uint16-t", nil, schema.PhysicalKind_UINT},
		{"Int64-t", nil, schema.PhysicalKind_INT},
		{"Double", nil, schema.PhysicalKind_DOUBLE},
		{"Inner", nil, schema.PhysicalKind_UNRESOLVED},
	}
	for _, test := range tests {
		got, err := schema.PhysicalKindOf(test.typeName, test.rng)
		testutil.AssertNoError(t, err)
		testutil.ExpectEq(t, test.want, got)
	}
}

func TestPhysicalKindReal(t *testing.T) {
	t.Parallel()
	single, err := schema.NewRealRange(-1.5, 3e38)
	testutil.AssertNoError(t, err)
	kind, err := schema.PhysicalKindOf("REAL", single)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, schema.PhysicalKind_FLOAT, kind)

	double, err := schema.NewRealRange(-1e300, 1)
	testutil.AssertNoError(t, err)
	kind, err = schema.PhysicalKindOf("REAL", double)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, schema.PhysicalKind_DOUBLE, kind)

	_, err = schema.NewRealRange(1, -1.2)
	testutil.ExpectErrorIs(t, schema.ConsistencyError, err, "end: -1.2 is less than begin: 1.0")
}

func TestBitSize(t *testing.T) {
	t.Parallel()
	testutil.ExpectEq(t, 11, bitSize(t, intType(t, 0, 2047)))
	testutil.ExpectEq(t, 8, bitSize(t, intType(t, -100, 100)))
	testutil.ExpectEq(t, 16, bitSize(t, intType(t, -200, 100)))
	testutil.ExpectEq(t, 1, bitSize(t, namedType(t, "BOOLEAN")))
	testutil.ExpectEq(t, 16, bitSize(t, namedType(t, "Uint16-t")))

	label, err := schema.NewStringType("IA5String", 128)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 1024, bitSize(t, label))

	array := schema.NewArrayType(4, intType(t, 0, 2047))
	testutil.ExpectEq(t, 32, bitSize(t, array))

	seq, err := schema.NewSequence("Seq", []*schema.Field{
		field(t, "a", intType(t, 0, 2047)),
		field(t, "b", namedType(t, "BOOLEAN")),
		field(t, "c", namedType(t, "BOOLEAN")),
	}, nil)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 13, bitSize(t, seq))
}

func TestBitSizeErrors(t *testing.T) {
	t.Parallel()
	_, err := namedType(t, "INTEGER").BitSize()
	testutil.ExpectErrorIs(t, schema.UnresolvedSizeError, err, "INTEGER")

	_, err = namedType(t, "Inner").BitSize()
	testutil.ExpectErrorIs(t, schema.UnresolvedSizeError, err, "Inner")

	huge, err := schema.NewIntRange(
		new(big.Int).Lsh(big.NewInt(-1), 70),
		big.NewInt(0),
	)
	testutil.AssertNoError(t, err)
	fieldType, err := schema.NewFieldType("INTEGER", huge)
	testutil.AssertNoError(t, err)
	_, err = fieldType.BitSize()
	testutil.ExpectErrorIs(t, schema.RangeOverflowError, err)

	choice, err := schema.NewChoice("Either", []*schema.Field{
		field(t, "a", namedType(t, "BOOLEAN")),
	}, nil)
	testutil.AssertNoError(t, err)
	_, err = choice.BitSize()
	testutil.ExpectErrorIs(t, schema.UnresolvedSizeError, err, "Either")
}

func TestBitSizeCycle(t *testing.T) {
	t.Parallel()
	next := namedType(t, "Node")
	node, err := schema.NewSequence("Node", []*schema.Field{
		field(t, "flag", namedType(t, "BOOLEAN")),
		field(t, "next", next),
	}, nil)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, next.Bind(node))
	_, err = node.BitSize()
	testutil.ExpectErrorIs(t, schema.CyclicDependencyError, err, "'Node'", "Node -> Node")

	toB, toA := namedType(t, "B"), namedType(t, "A")
	seqA, err := schema.NewSequence("A", []*schema.Field{field(t, "b", toB)}, nil)
	testutil.AssertNoError(t, err)
	seqB, err := schema.NewSequence("B", []*schema.Field{field(t, "a", toA)}, nil)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, toB.Bind(seqB))
	testutil.AssertNoError(t, toA.Bind(seqA))
	_, err = seqA.BitSize()
	testutil.ExpectErrorIs(t, schema.CyclicDependencyError, err, "A -> B -> A")
	_, err = toA.BitSize()
	testutil.ExpectErrorIs(t, schema.CyclicDependencyError, err, "A -> B -> A")
}

func TestBitSizeAliasCycle(t *testing.T) {
	t.Parallel()
	toBeta, toAlpha := namedType(t, "Beta"), namedType(t, "Alpha")
	alpha, err := schema.NewSimpleDefinition("Alpha", toBeta, nil)
	testutil.AssertNoError(t, err)
	beta, err := schema.NewSimpleDefinition("Beta", toAlpha, nil)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, toBeta.Bind(beta))
	testutil.AssertNoError(t, toAlpha.Bind(alpha))

	_, err = alpha.BitSize()
	testutil.ExpectErrorIs(t, schema.CyclicDependencyError, err, "Alpha -> Beta -> Alpha")
	_, err = toBeta.StorageBits()
	testutil.ExpectErrorIs(t, schema.CyclicDependencyError, err, "Beta -> Alpha -> Beta")
}

func TestBitSizeOverflow(t *testing.T) {
	t.Parallel()
	largest, err := schema.NewStringType("IA5String", math.MaxUint32/8)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 4294967288, bitSize(t, largest))

	tooLarge, err := schema.NewStringType("IA5String", math.MaxUint32/8+1)
	testutil.AssertNoError(t, err)
	_, err = tooLarge.BitSize()
	testutil.ExpectErrorIs(t, schema.RangeOverflowError, err, "string of 536870912 bytes", "4294967296")

	array := schema.NewArrayType(math.MaxUint32/8+1, namedType(t, "BOOLEAN"))
	_, err = array.BitSize()
	testutil.ExpectErrorIs(t, schema.RangeOverflowError, err, "array of 536870912 elements", "4294967296")

	other, err := schema.NewStringType("IA5String", math.MaxUint32/8)
	testutil.AssertNoError(t, err)
	wide, err := schema.NewSequence("Big", []*schema.Field{
		field(t, "a", largest),
		field(t, "b", other),
	}, nil)
	testutil.AssertNoError(t, err)
	_, err = wide.BitSize()
	testutil.ExpectErrorIs(t, schema.RangeOverflowError, err, "'Big'", "8589934576")
}

func TestStorageBits(t *testing.T) {
	t.Parallel()
	testutil.ExpectEq(t, 8, schema.StorageBits(1))
	testutil.ExpectEq(t, 16, schema.StorageBits(11))
	testutil.ExpectEq(t, 64, schema.StorageBits(33))
	testutil.ExpectEq(t, 0, schema.StorageBits(65))

	bits, err := intType(t, 0, 2047).StorageBits()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 16, bits)

	speed, err := schema.NewSimpleDefinition("Speed", intType(t, 0, 300), nil)
	testutil.AssertNoError(t, err)
	ref := namedType(t, "Speed")
	testutil.AssertNoError(t, ref.Bind(speed))
	bits, err = ref.StorageBits()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 16, bits)
	testutil.ExpectEq(t, 9, bitSize(t, ref))
}

func TestBind(t *testing.T) {
	t.Parallel()
	inner, err := schema.NewSimpleDefinition("Inner", intType(t, 0, 7), nil)
	testutil.AssertNoError(t, err)

	ref := namedType(t, "Inner")
	testutil.ExpectTrue(t, ref.IsReference())
	testutil.ExpectFalse(t, ref.IsBound())
	testutil.AssertNoError(t, ref.Bind(inner))
	testutil.ExpectTrue(t, ref.IsBound())
	testutil.ExpectEq(t, 3, bitSize(t, ref))
	testutil.ExpectErrorIs(t, schema.ConsistencyError, ref.Bind(inner), "already")

	other := namedType(t, "Other")
	testutil.ExpectErrorIs(t, schema.ConsistencyError, other.Bind(inner), "Other", "Inner")

	array := schema.NewArrayType(2, namedType(t, "Inner"))
	testutil.AssertNoError(t, array.Bind(inner))
	testutil.ExpectTrue(t, array.IsBound())
	testutil.ExpectTrue(t, array.Array().Innermost().Resolved() == schema.Definition(inner))
}

func TestNullForbidden(t *testing.T) {
	t.Parallel()
	null := namedType(t, "NULL")
	_, err := schema.NewSimpleDefinition("Nothing", null, nil)
	testutil.ExpectErrorIs(t, schema.ConsistencyError, err, "NULL", "Nothing")
	_, err = schema.NewField("nothing", null, nil, nil)
	testutil.ExpectErrorIs(t, schema.ConsistencyError, err, "NULL", "nothing")
}

func TestPosixAlias(t *testing.T) {
	t.Parallel()
	_, err := schema.NewSimpleDefinition("Uint8-t", intType(t, 0, 255), nil)
	testutil.AssertNoError(t, err)

	_, err = schema.NewSimpleDefinition("Uint8-t", intType(t, 0, 300), nil)
	testutil.ExpectErrorIs(t, schema.ConsistencyError, err, "0 - 300", "Uint8-t")

	_, err = schema.NewSimpleDefinition("Int8-t", namedType(t, "INTEGER"), nil)
	testutil.ExpectErrorIs(t, schema.ConsistencyError, err, "None - None", "Int8-t")

	kind, rng, ok := schema.PosixAlias("Int16-t")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, schema.PhysicalKind_INT, kind)
	testutil.ExpectEq(t, "-32768..32767", rng.String())
}

func buildEnum(t *testing.T, positions map[string]int64, order []string) (*schema.Enumerated, error) {
	t.Helper()
	builder := schema.NewEnumeratedBuilder("Color", nil)
	for _, name := range order {
		pos, ok := positions[name]
		if !ok {
			builder.Add(name, nil)
		} else {
			builder.AddAt(name, uint64(pos), nil)
		}
	}
	return builder.Build()
}

func enumNames(e *schema.Enumerated) []string {
	var names []string
	for _, item := range e.Items() {
		names = append(names, item.Name())
	}
	return names
}

func TestEnumeratedAutoPositions(t *testing.T) {
	t.Parallel()
	e, err := buildEnum(t, nil, []string{"red", "green", "blue"})
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{"red", "green", "blue"}, enumNames(e))
	for ii, item := range e.Items() {
		testutil.ExpectEq(t, uint32(ii), item.Position())
	}
	testutil.ExpectEq(t, 2, bitSize(t, e))
}

func TestEnumeratedExplicitPositions(t *testing.T) {
	t.Parallel()
	e, err := buildEnum(t,
		map[string]int64{"red": 2, "green": 0, "blue": 1},
		[]string{"red", "green", "blue"},
	)
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{"green", "blue", "red"}, enumNames(e))

	_, err = buildEnum(t,
		map[string]int64{"a": 0, "b": 0, "c": 1},
		[]string{"a", "b", "c"},
	)
	testutil.ExpectErrorIs(t, schema.ConsistencyError, err, "multiple times", "Color")

	_, err = buildEnum(t,
		map[string]int64{"a": 0, "b": 2},
		[]string{"a", "b"},
	)
	testutil.ExpectErrorIs(t, schema.ConsistencyError, err, "out of bounds", "Color")

	_, err = buildEnum(t,
		map[string]int64{"a": 1, "b": 1},
		[]string{"a", "b", "b"},
	)
	testutil.ExpectErrorIs(t, schema.ConsistencyError, err, "'b'")

	_, err = schema.NewEnumeratedBuilder("Empty", nil).Build()
	testutil.ExpectErrorIs(t, schema.ConsistencyError, err, "Empty")
}

func TestWithComponents(t *testing.T) {
	t.Parallel()
	nested, err := schema.NewWithComponents([]*schema.ComponentsItem{
		schema.NewComponentsItem("valid", schema.BoolValue(false), nil),
	}, nil)
	testutil.AssertNoError(t, err)
	wc, err := schema.NewWithComponents([]*schema.ComponentsItem{
		schema.NewComponentsItem("x", schema.NewIntValue(big.NewInt(-3)), nil),
		schema.NewComponentsItem("y", schema.RealValue(2), nil),
		schema.NewComponentsItem("meta", nested, nil),
	}, nil)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t,
		"WITH COMPONENTS { x (-3), y (2.0), meta (WITH COMPONENTS { valid (FALSE) }) }",
		wc.String())

	_, err = schema.NewWithComponents(nil, nil)
	testutil.ExpectErrorIs(t, schema.ConsistencyError, err)
}

func module(name string, imports []*schema.ImportItem, defs ...schema.Definition) *schema.Module {
	return schema.NewModule(name, imports, defs)
}

func moduleNames(modules []*schema.Module) []string {
	var names []string
	for _, m := range modules {
		names = append(names, m.Name())
	}
	return names
}

func TestOrderModules(t *testing.T) {
	t.Parallel()
	app := module("app", []*schema.ImportItem{
		schema.NewImportItem("types", []string{"A"}, nil),
		schema.NewImportItem("base", []string{"B"}, nil),
	})
	types := module("types", []*schema.ImportItem{
		schema.NewImportItem("base", []string{"C"}, nil),
	})
	base := module("base", []*schema.ImportItem{
		schema.NewImportItem("external", []string{"D"}, nil),
	})
	other := module("other", nil)

	ordered, err := schema.OrderModules([]*schema.Module{app, types, other, base})
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{"other", "base", "types", "app"}, moduleNames(ordered))
}

func TestOrderModulesCycle(t *testing.T) {
	t.Parallel()
	a := module("a", []*schema.ImportItem{schema.NewImportItem("b", []string{"B"}, nil)})
	b := module("b", []*schema.ImportItem{schema.NewImportItem("a", []string{"A"}, nil)})
	c := module("c", nil)
	_, err := schema.OrderModules([]*schema.Module{a, c, b})
	testutil.ExpectErrorIs(t, schema.CyclicDependencyError, err, "a, b")
}

func definitionNames(defs []schema.Definition) []string {
	var names []string
	for _, def := range defs {
		names = append(names, def.TypeName())
	}
	return names
}

func TestDefinitionsOrdered(t *testing.T) {
	t.Parallel()
	outer, err := schema.NewSequence("Outer", []*schema.Field{
		field(t, "inner", namedType(t, "Inner")),
		field(t, "list", schema.NewArrayType(3, namedType(t, "Speed"))),
	}, nil)
	testutil.AssertNoError(t, err)
	inner, err := schema.NewSequence("Inner", []*schema.Field{
		field(t, "point", namedType(t, "Point")),
		field(t, "ok", namedType(t, "BOOLEAN")),
	}, nil)
	testutil.AssertNoError(t, err)
	speed, err := schema.NewSimpleDefinition("Speed", intType(t, 0, 10), nil)
	testutil.AssertNoError(t, err)

	m := module("m", []*schema.ImportItem{
		schema.NewImportItem("geometry", []string{"Point"}, nil),
	}, outer, inner, speed)
	ordered, err := m.DefinitionsOrdered()
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{"Inner", "Speed", "Outer"}, definitionNames(ordered))
}

func TestDefinitionsOrderedCycle(t *testing.T) {
	t.Parallel()
	a, err := schema.NewSequence("A", []*schema.Field{field(t, "b", namedType(t, "B"))}, nil)
	testutil.AssertNoError(t, err)
	b, err := schema.NewSequence("B", []*schema.Field{field(t, "a", namedType(t, "A"))}, nil)
	testutil.AssertNoError(t, err)
	_, err = module("m", nil, a, b).DefinitionsOrdered()
	testutil.ExpectErrorIs(t, schema.CyclicDependencyError, err, "A, B", "'m'")
}

func TestModuleImports(t *testing.T) {
	t.Parallel()
	m := module("m", []*schema.ImportItem{
		schema.NewImportItem("x", []string{"A", "B"}, nil),
		schema.NewImportItem("y", []string{"C"}, nil),
		schema.NewImportItem("x", []string{"B", "D"}, nil),
	})
	testutil.ExpectSliceEq(t, []string{"A", "B", "C", "D"}, m.ImportedNames())
	testutil.ExpectSliceEq(t, []string{"x", "y"}, m.ImportedModuleNames())
	source, ok := m.ImportSource("D")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "x", source)

	testutil.AssertNoError(t, m.SetImportedModules(nil))
	testutil.ExpectTrue(t, m.IsLinked())
	testutil.ExpectErrorIs(t, schema.DependencyError, m.SetImportedModules(nil))
}
