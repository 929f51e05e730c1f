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

package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PTSSpace/APG/codegen"
)

// generate answers a plugin request. Failures are reported through
// [codegen.Response.Error] so the host can print them.
func generate(requestBuf []byte) *codegen.Response {
	req, err := codegen.DecodeRequest(requestBuf)
	if err != nil {
		return &codegen.Response{Error: err.Error()}
	}
	files, err := generateHeaders(req)
	if err != nil {
		return &codegen.Response{Error: err.Error()}
	}
	return &codegen.Response{OutputFiles: files}
}

// generateHeaders emits one C header per module. The "prefix" option is
// prepended to every generated type name.
func generateHeaders(req *codegen.Request) ([]*codegen.OutputFile, error) {
	g := &generator{}
	if prefix := req.Options["prefix"]; prefix != "" {
		g.prefix = identifier(prefix) + "_"
	}
	for _, m := range req.Modules {
		if err := g.emitModule(m); err != nil {
			return nil, err
		}
	}
	return g.files, nil
}

type generator struct {
	prefix string
	buf    strings.Builder
	files  []*codegen.OutputFile
}

func (g *generator) line(s string) {
	g.buf.WriteString(s)
	g.buf.WriteString("\n")
}

func (g *generator) linef(format string, a ...any) {
	g.line(fmt.Sprintf(format, a...))
}

func (g *generator) typeName(name string) string {
	return g.prefix + identifier(name)
}

func (g *generator) emitModule(m *codegen.Module) error {
	g.buf.Reset()
	guard := "APG_" + strings.ToUpper(identifier(m.Name)) + "_H"

	g.line("/* Code generated by apg-codegen-c. DO NOT EDIT. */")
	if m.Comment != nil {
		g.comment("", m.Comment)
	}
	g.line("")
	g.linef("#ifndef %s", guard)
	g.linef("#define %s", guard)
	g.line("")
	g.line("#include <stdbool.h>")
	g.line("#include <stdint.h>")

	var included []string
	for _, item := range m.Imports {
		dep := identifier(item.Module)
		if !slices.Contains(included, dep) {
			included = append(included, dep)
		}
	}
	if len(included) > 0 {
		g.line("")
		for _, dep := range included {
			g.linef("#include \"%s.h\"", dep)
		}
	}

	for _, def := range m.Definitions {
		g.line("")
		if err := g.emitDefinition(def); err != nil {
			return fmt.Errorf("module %s, definition %s: %w", m.Name, def.Name, err)
		}
	}

	g.line("")
	g.linef("#endif /* %s */", guard)
	g.files = append(g.files, &codegen.OutputFile{
		Path:    []string{identifier(m.Name) + ".h"},
		Content: g.buf.String(),
	})
	return nil
}

func (g *generator) emitDefinition(def *codegen.Definition) error {
	if def.Comment != nil {
		g.comment("", def.Comment)
	}
	name := g.typeName(def.Name)
	switch def.Kind {
	case "SIMPLE":
		if def.Type == nil {
			return fmt.Errorf("simple definition has no type")
		}
		decl, err := g.declare(def.Type, name)
		if err != nil {
			return err
		}
		g.linef("typedef %s;", decl)
	case "ENUMERATED":
		g.linef("typedef enum %s {", name)
		for _, item := range def.Items {
			if item.Comment != nil {
				g.comment("\t", item.Comment)
			}
			g.linef("\t%s_%s = %d,", name, identifier(item.Name), item.Position)
		}
		g.linef("} %s;", name)
	case "SEQUENCE":
		g.linef("typedef struct %s {", name)
		if err := g.emitFields("\t", def.Fields); err != nil {
			return err
		}
		g.linef("} %s;", name)
	case "CHOICE":
		g.linef("typedef enum %s_Tag {", name)
		for ii, field := range def.Fields {
			g.linef("\t%s_TAG_%s = %d,", name, identifier(field.Key), ii)
		}
		g.linef("} %s_Tag;", name)
		g.line("")
		g.linef("typedef struct %s {", name)
		g.linef("\t%s_Tag tag;", name)
		g.line("\tunion {")
		if err := g.emitFields("\t\t", def.Fields); err != nil {
			return err
		}
		g.line("\t} value;")
		g.linef("} %s;", name)
	default:
		return fmt.Errorf("unknown definition kind %q", def.Kind)
	}
	if def.Bits != nil {
		g.linef("#define %s_BITS %d", strings.ToUpper(name), *def.Bits)
	}
	return nil
}

func (g *generator) emitFields(indent string, fields []*codegen.Field) error {
	for _, field := range fields {
		if field.Comment != nil {
			g.comment(indent, field.Comment)
		}
		if len(field.Components) > 0 {
			g.linef("%s/* WITH COMPONENTS %s */", indent, formatComponents(field.Components))
		}
		decl, err := g.declare(field.Type, identifier(field.Key))
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Key, err)
		}
		g.linef("%s%s;", indent, decl)
	}
	return nil
}

// declare renders a C declarator for a value of type t named ident.
func (g *generator) declare(t *codegen.Type, ident string) (string, error) {
	switch {
	case t.Array != nil:
		return g.declare(t.Array.Element, fmt.Sprintf("%s[%d]", ident, t.Array.Count))
	case t.Length > 0:
		return fmt.Sprintf("char %s[%d]", ident, t.Length), nil
	case t.Resolved != nil:
		return g.typeName(t.Resolved.Name) + " " + ident, nil
	}
	scalar, err := scalarType(t)
	if err != nil {
		return "", err
	}
	return scalar + " " + ident, nil
}

func scalarType(t *codegen.Type) (string, error) {
	switch t.Kind {
	case "BOOL":
		return "bool", nil
	case "UINT":
		if t.StorageBits != 0 {
			return fmt.Sprintf("uint%d_t", t.StorageBits), nil
		}
	case "INT":
		if t.StorageBits != 0 {
			return fmt.Sprintf("int%d_t", t.StorageBits), nil
		}
	case "FLOAT":
		return "float", nil
	case "DOUBLE":
		return "double", nil
	}
	return "", fmt.Errorf("type %s (%s) has no C representation", t.Name, t.Kind)
}

func (g *generator) comment(indent string, c *codegen.Comment) {
	var parts []string
	if c.Unit != "" {
		parts = append(parts, "["+c.Unit+"]")
	}
	if c.Text != "" {
		parts = append(parts, c.Text)
	}
	if c.LittleEndian {
		parts = append(parts, "(little endian)")
	}
	if len(parts) == 0 {
		return
	}
	text := strings.ReplaceAll(strings.Join(parts, " "), "*/", "* /")
	g.linef("%s/* %s */", indent, text)
}

func formatComponents(items []*codegen.ComponentItem) string {
	var buf strings.Builder
	buf.WriteString("{")
	for ii, item := range items {
		if ii > 0 {
			buf.WriteString(",")
		}
		buf.WriteString(" ")
		buf.WriteString(item.Key)
		buf.WriteString(" ")
		if item.Kind == "COMPONENTS" {
			buf.WriteString(formatComponents(item.Components))
		} else {
			buf.WriteString("(" + item.Value + ")")
		}
	}
	buf.WriteString(" }")
	return buf.String()
}

// identifier maps an ASN.1 name onto a C identifier.
func identifier(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
