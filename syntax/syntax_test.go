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

package syntax_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/PTSSpace/APG/internal/testutil"
	"github.com/PTSSpace/APG/schema"
	"github.com/PTSSpace/APG/syntax"
)

const telemetrySrc = `-- leading comments are ignored
Module-telemetry DEFINITIONS AUTOMATIC TAGS ::= BEGIN -- ENDIANNESS(LITTLE) [B] house keeping
IMPORTS
	Point, Heading FROM Module-geometry -- shapes
	Uint8-t FROM Module-posix;
-- imports done
Speed ::= INTEGER (0..2047) -- [m/s] ground speed
Gain ::= REAL (-1.5..1.5e3)
Label ::= IA5String (SIZE (16))
Samples ::= SEQUENCE (SIZE (4)) OF INTEGER (-100..100)
Mode ::= ENUMERATED { -- operating mode
	idle,
	active, -- running
	safe
}
Report ::= SEQUENCE {
	speed Speed,
	ok BOOLEAN, -- status flag
	where Point (WITH COMPONENTS { -- fixed origin
		x (0),
		y (-1.25),
		meta (WITH COMPONENTS { valid (TRUE) })
	})
}
Either ::= CHOICE {
	count Uint8-t,
	name Label
}
END
`

func TestParseModule(t *testing.T) {
	t.Parallel()
	m, err := syntax.Parse([]byte(telemetrySrc))
	testutil.AssertNoError(t, err)

	testutil.ExpectEq(t, "telemetry", m.Name())
	testutil.ExpectEq(t, schema.Comment{
		Text:         "house keeping",
		Unit:         "B",
		LittleEndian: true,
	}, *m.Comment())
	testutil.ExpectEq(t, "imports done", m.ImportComment().Text)

	imports := m.Imports()
	testutil.ExpectEq(t, 2, len(imports))
	testutil.ExpectEq(t, "geometry", imports[0].Module())
	testutil.ExpectSliceEq(t, []string{"Point", "Heading"}, imports[0].Names())
	testutil.ExpectEq(t, "shapes", imports[0].Comment().Text)
	testutil.ExpectEq(t, "posix", imports[1].Module())
	testutil.ExpectTrue(t, imports[1].Comment() == nil)

	var names []string
	for _, def := range m.Definitions() {
		names = append(names, fmt.Sprintf("%s:%s", def.Kind(), def.TypeName()))
	}
	testutil.ExpectSliceEq(t, []string{
		"SIMPLE:Speed",
		"SIMPLE:Gain",
		"SIMPLE:Label",
		"SIMPLE:Samples",
		"ENUMERATED:Mode",
		"SEQUENCE:Report",
		"CHOICE:Either",
	}, names)
}

func TestParseEmptyModule(t *testing.T) {
	t.Parallel()
	m, err := syntax.Parse([]byte(`Module-empty DEFINITIONS AUTOMATIC TAGS ::= BEGIN
END
`))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "empty", m.Name())
	testutil.ExpectEq(t, 0, len(m.Definitions()))

	m, err = syntax.Parse([]byte(`Module-relay DEFINITIONS AUTOMATIC TAGS ::= BEGIN
IMPORTS Speed FROM Module-telemetry;
END
`))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 0, len(m.Definitions()))
	testutil.ExpectSliceEq(t, []string{"Speed"}, m.ImportedNames())
}

func TestParseSimpleDefinitions(t *testing.T) {
	t.Parallel()
	m, err := syntax.Parse([]byte(telemetrySrc))
	testutil.AssertNoError(t, err)

	def, _ := m.Definition("Speed")
	speed := def.(*schema.SimpleDefinition)
	testutil.ExpectEq(t, "INTEGER", speed.Type().TypeName())
	testutil.ExpectEq(t, "0..2047", speed.Type().Range().String())
	testutil.ExpectEq(t, schema.PhysicalKind_UINT, speed.Type().Kind())
	testutil.ExpectEq(t, "m/s", speed.Comment().Unit)
	testutil.ExpectEq(t, "ground speed", speed.Comment().Text)

	def, _ = m.Definition("Gain")
	gain := def.(*schema.SimpleDefinition)
	testutil.ExpectTrue(t, gain.Type().Range().IsReal())
	testutil.ExpectEq(t, -1.5, gain.Type().Range().RealBegin())
	testutil.ExpectEq(t, 1500.0, gain.Type().Range().RealEnd())
	testutil.ExpectEq(t, schema.PhysicalKind_FLOAT, gain.Type().Kind())

	def, _ = m.Definition("Label")
	label := def.(*schema.SimpleDefinition)
	testutil.ExpectEq(t, schema.PhysicalKind_STRING, label.Type().Kind())
	testutil.ExpectEq(t, uint32(16), label.Type().FixedString().Length())

	def, _ = m.Definition("Samples")
	samples := def.(*schema.SimpleDefinition)
	array := samples.Type().Array()
	testutil.ExpectTrue(t, array != nil)
	testutil.ExpectEq(t, uint32(4), array.Count())
	testutil.ExpectEq(t, "-100..100", array.Element().Range().String())
	testutil.ExpectEq(t, schema.PhysicalKind_INT, array.Element().Kind())
}

func TestParseEnumerated(t *testing.T) {
	t.Parallel()
	m, err := syntax.Parse([]byte(telemetrySrc))
	testutil.AssertNoError(t, err)

	def, _ := m.Definition("Mode")
	mode := def.(*schema.Enumerated)
	testutil.ExpectEq(t, "operating mode", mode.Comment().Text)
	items := mode.Items()
	testutil.ExpectEq(t, 3, len(items))
	for ii, name := range []string{"idle", "active", "safe"} {
		testutil.ExpectEq(t, name, items[ii].Name())
		testutil.ExpectEq(t, uint32(ii), items[ii].Position())
	}
	testutil.ExpectEq(t, "running", items[1].Comment().Text)
}

func TestParseEnumeratedPositions(t *testing.T) {
	t.Parallel()
	src := `Module-m DEFINITIONS AUTOMATIC TAGS ::= BEGIN
Color ::= ENUMERATED { red (2), green (0), blue (1) }
END`
	m, err := syntax.Parse([]byte(src))
	testutil.AssertNoError(t, err)

	def, _ := m.Definition("Color")
	var got []string
	for _, item := range def.(*schema.Enumerated).Items() {
		got = append(got, fmt.Sprintf("%s=%d", item.Name(), item.Position()))
	}
	testutil.ExpectSliceEq(t, []string{"green=0", "blue=1", "red=2"}, got)
}

func TestParseFields(t *testing.T) {
	t.Parallel()
	m, err := syntax.Parse([]byte(telemetrySrc))
	testutil.AssertNoError(t, err)

	def, _ := m.Definition("Report")
	report := def.(*schema.Sequence)
	fields := report.Fields()
	testutil.ExpectEq(t, 3, len(fields))

	testutil.ExpectEq(t, "speed", fields[0].Key())
	testutil.ExpectEq(t, "Speed", fields[0].Type().TypeName())
	testutil.ExpectTrue(t, fields[0].Type().IsReference())

	testutil.ExpectEq(t, "ok", fields[1].Key())
	testutil.ExpectEq(t, schema.PhysicalKind_BOOL, fields[1].Type().Kind())
	testutil.ExpectEq(t, "status flag", fields[1].Comment().Text)

	where := fields[2]
	testutil.ExpectEq(t, "Point", where.Type().TypeName())
	components := where.Components()
	testutil.ExpectTrue(t, components != nil)
	testutil.ExpectEq(t, "fixed origin", components.Comment().Text)
	testutil.ExpectEq(t,
		"WITH COMPONENTS { x (0), y (-1.25), meta (WITH COMPONENTS { valid (TRUE) }) }",
		components.String())

	def, _ = m.Definition("Either")
	either := def.(*schema.Choice)
	field, ok := either.Field("count")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, schema.PhysicalKind_UINT, field.Type().Kind())
}

func TestParseDiscardComments(t *testing.T) {
	t.Parallel()
	m, err := syntax.Parse([]byte(telemetrySrc), syntax.DiscardComments())
	testutil.AssertNoError(t, err)

	testutil.ExpectTrue(t, m.Comment() == nil)
	def, _ := m.Definition("Speed")
	testutil.ExpectTrue(t, def.Comment() == nil)
}

func TestParseMany(t *testing.T) {
	t.Parallel()
	modules, err := syntax.ParseMany([][]byte{
		[]byte("Module-a DEFINITIONS AUTOMATIC TAGS ::= BEGIN\nA ::= BOOLEAN\nEND\n"),
		[]byte("Module-b DEFINITIONS AUTOMATIC TAGS ::= BEGIN\nIMPORTS A FROM Module-a;\nB ::= A\nEND\n"),
	})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 2, len(modules))
	testutil.ExpectEq(t, "a", modules[0].Name())
	testutil.ExpectSliceEq(t, []string{"a"}, modules[1].ImportedModuleNames())

	_, err = syntax.ParseMany([][]byte{
		[]byte("Module-a DEFINITIONS AUTOMATIC TAGS ::= BEGIN\nA ::= BOOLEAN\nEND\n"),
		[]byte("Module-b DEFINITIONS"),
	})
	testutil.AssertError(t, err)
	testutil.ExpectMatch(t, `^source 1: E1108: `, err.Error())
}

func wrapModule(body string) string {
	return "Module-m DEFINITIONS AUTOMATIC TAGS ::= BEGIN\n" + body + "\nEND\n"
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code uint32
		kind error
	}{
		{"bad module name", "Foo DEFINITIONS AUTOMATIC TAGS ::= BEGIN\nEND", 1111, nil},
		{"missing end", "Module-m DEFINITIONS AUTOMATIC TAGS ::= BEGIN\nA ::= BOOLEAN\n", 1112, nil},
		{"trailing content", wrapModule("A ::= BOOLEAN") + "B", 1116, nil},
		{"camel type name", wrapModule("MyType ::= BOOLEAN"), 1112, nil},
		{"upper field name", wrapModule("A ::= SEQUENCE { Bad BOOLEAN }"), 1113, nil},
		{"comment brackets", wrapModule("A ::= BOOLEAN -- [m] a ] b"), 1118, nil},
		{"comment dashes", wrapModule("A ::= BOOLEAN -- a -- b"), 1118, nil},
		{"comment unit", wrapModule("A ::= BOOLEAN -- [m s] a"), 1118, nil},
		{"string without size", wrapModule("A ::= IA5String"), 1106, nil},
		{"negative enum position", wrapModule("E ::= ENUMERATED { a (-1) }"), 1117, nil},
		{"bad component value", wrapModule("A ::= SEQUENCE { p P (WITH COMPONENTS { x (y) }) }"), 1115, nil},
		{"inverted range", wrapModule("A ::= INTEGER (1..-1)"), 2000, schema.ConsistencyError},
		{"null simple", wrapModule("A ::= NULL"), 2002, schema.ConsistencyError},
		{"null field", wrapModule("A ::= SEQUENCE { n NULL }"), 2002, schema.ConsistencyError},
		{"posix mismatch", wrapModule("Uint8-t ::= INTEGER (0..300)"), 2003, schema.ConsistencyError},
		{"real overflow", wrapModule("A ::= REAL (0..1e400)"), 2001, schema.RangeOverflowError},
		{"duplicate field", wrapModule("A ::= SEQUENCE { a BOOLEAN, a BOOLEAN }"), 2008, schema.ConsistencyError},
		{"enum positions", wrapModule("E ::= ENUMERATED { a (0), b (0), c (1) }"), 2004, schema.ConsistencyError},
		{"duplicate component", wrapModule("A ::= SEQUENCE { p P (WITH COMPONENTS { x (1), x (2) }) }"), 2009, schema.ConsistencyError},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			t.Logf("source: %q", test.src)
			_, err := syntax.Parse([]byte(test.src))
			testutil.AssertError(t, err)
			var syntaxErr *syntax.Error
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("Expected *syntax.Error, got: %#v", err)
			}
			testutil.ExpectEq(t, test.code, syntaxErr.Code())
			if test.kind != nil {
				testutil.ExpectErrorIs(t, test.kind, err)
			}
		})
	}
}

func TestParseErrorSpan(t *testing.T) {
	t.Parallel()
	src := []byte(wrapModule("A ::= BOOLEAN\nB ::= INTEGER (5..1)"))
	_, err := syntax.Parse(src)
	testutil.AssertError(t, err)

	syntaxErr := err.(*syntax.Error)
	testutil.ExpectEq(t, "E2000: end: 1 is less than begin: 5", syntaxErr.Error())
	line, col := syntax.Position(src, syntaxErr.Span())
	testutil.ExpectEq(t, 3, line)
	testutil.ExpectEq(t, 7, col)
}

func TestParsePosixAliasMessage(t *testing.T) {
	t.Parallel()
	_, err := syntax.Parse([]byte(wrapModule("Uint8-t ::= INTEGER (0..300)")))
	testutil.ExpectErrorIs(t, schema.ConsistencyError, err, "0 - 300", "Uint8-t")
}
