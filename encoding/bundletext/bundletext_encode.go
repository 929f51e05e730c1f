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

// Package bundletext renders a compiled bundle as indented text: modules in
// dependency order, definitions in declaration-safe order, and the physical
// kind and bit size of every type.
package bundletext

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PTSSpace/APG/compiler"
	"github.com/PTSSpace/APG/schema"
)

func Encode(bundle *compiler.Bundle) (string, error) {
	var buf strings.Builder
	if err := EncodeTo(bundle, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func EncodeTo(bundle *compiler.Bundle, w io.Writer) error {
	modules, err := bundle.ModulesOrdered()
	if err != nil {
		return err
	}
	e := encoder{w: w}
	for _, m := range modules {
		if err := e.visitModule(m); err != nil {
			return err
		}
	}
	for _, alias := range bundle.SimpleAliases() {
		e.linef("simple_alias %s = [%s]", alias,
			strings.Join(bundle.SimpleAliasUsage()[alias], ", "))
	}
	return e.err
}

type encoder struct {
	w      io.Writer
	indent int
	err    error
}

func (e *encoder) line(s string) {
	if e.err != nil {
		return
	}
	if indent := strings.Repeat("\t", e.indent); indent != "" {
		if _, err := io.WriteString(e.w, indent); err != nil {
			e.err = err
			return
		}
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		e.err = err
		return
	}
	if _, err := io.WriteString(e.w, "\n"); err != nil {
		e.err = err
		return
	}
}

func (e *encoder) linef(format string, a ...any) {
	e.line(fmt.Sprintf(format, a...))
}

func (e *encoder) visitModule(m *schema.Module) error {
	defs, err := m.DefinitionsOrdered()
	if err != nil {
		return err
	}
	e.linef("module %s {", m.Name())
	e.indent += 1
	e.visitComment("comment", m.Comment())
	e.visitComment("import_comment", m.ImportComment())
	for _, item := range m.Imports() {
		e.linef("import %s = [%s]", item.Module(), strings.Join(item.Names(), ", "))
	}
	for _, def := range defs {
		if err := e.visitDefinition(def); err != nil {
			return err
		}
	}
	e.indent -= 1
	e.line("}")
	return nil
}

func (e *encoder) visitDefinition(def schema.Definition) error {
	e.linef("definition %s = %s {", def.TypeName(), def.Kind())
	e.indent += 1
	e.visitComment("comment", def.Comment())
	if def.Kind() != schema.DefinitionKind_SIMPLE {
		if err := e.visitBits(def); err != nil {
			return err
		}
	}
	switch def := def.(type) {
	case *schema.SimpleDefinition:
		if err := e.visitType(def.Type()); err != nil {
			return err
		}
	case *schema.Sequence:
		if err := e.visitFields(def.Fields()); err != nil {
			return err
		}
	case *schema.Choice:
		if err := e.visitFields(def.Fields()); err != nil {
			return err
		}
	case *schema.Enumerated:
		for _, item := range def.Items() {
			e.linef("item %s = %d", item.Name(), item.Position())
			e.indent += 1
			e.visitComment("comment", item.Comment())
			e.indent -= 1
		}
	default:
		panic("unreachable")
	}
	e.indent -= 1
	e.line("}")
	return nil
}

func (e *encoder) visitFields(fields []*schema.Field) error {
	for _, field := range fields {
		e.linef("field %s {", field.Key())
		e.indent += 1
		e.visitComment("comment", field.Comment())
		if err := e.visitType(field.Type()); err != nil {
			return err
		}
		if components := field.Components(); components != nil {
			e.linef("components = %s", components.String())
		}
		e.indent -= 1
		e.line("}")
	}
	return nil
}

func (e *encoder) visitType(fieldType *schema.FieldType) error {
	e.linef("type = %s", fmtType(fieldType))
	e.linef("kind = %s", fieldType.Kind())
	if def := fieldType.Resolved(); def != nil {
		e.linef("resolved = %s %s", def.Kind(), def.TypeName())
	}
	if err := e.visitBits(fieldType); err != nil {
		return err
	}
	storage, err := fieldType.StorageBits()
	if err != nil {
		return unlessUnsized(err)
	}
	if storage != 0 {
		e.linef("storage = %d", storage)
	}
	return nil
}

// visitBits writes the bit size, skipping types whose size is left to the
// code generator.
func (e *encoder) visitBits(sized interface{ BitSize() (uint32, error) }) error {
	bits, err := sized.BitSize()
	if err != nil {
		return unlessUnsized(err)
	}
	e.linef("bits = %d", bits)
	return nil
}

func unlessUnsized(err error) error {
	if errors.Is(err, schema.UnresolvedSizeError) {
		return nil
	}
	return err
}

func (e *encoder) visitComment(name string, comment *schema.Comment) {
	if comment == nil {
		return
	}
	var attrs []string
	if comment.Unit != "" {
		attrs = append(attrs, "unit="+quote(comment.Unit))
	}
	if comment.LittleEndian {
		attrs = append(attrs, "little_endian")
	}
	if len(attrs) == 0 {
		e.linef("%s = %s", name, quote(comment.Text))
		return
	}
	e.linef("%s = %s (%s)", name, quote(comment.Text), strings.Join(attrs, ", "))
}

func fmtType(fieldType *schema.FieldType) string {
	if array := fieldType.Array(); array != nil {
		return fmt.Sprintf("SEQUENCE (SIZE (%d)) OF %s", array.Count(), fmtType(array.Element()))
	}
	if str := fieldType.FixedString(); str != nil {
		return fmt.Sprintf("%s (SIZE (%d))", fieldType.TypeName(), str.Length())
	}
	if rng := fieldType.Range(); rng != nil {
		return fmt.Sprintf("%s (%s)", fieldType.TypeName(), rng)
	}
	return fieldType.TypeName()
}

func quote(text string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, c := range text {
		if c == '\\' || c == '"' {
			buf.WriteByte('\\')
			buf.WriteRune(c)
			continue
		}
		if c == '\t' {
			buf.WriteString("\\t")
			continue
		}
		if c == '\n' {
			buf.WriteString("\\n")
			continue
		}
		if c < 0x20 || c == 0x7F {
			fmt.Fprintf(&buf, "\\x%02X", c)
			continue
		}
		buf.WriteRune(c)
	}
	buf.WriteByte('"')
	return buf.String()
}
