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

// Package schema is the typed model of an ASN.1 subset schema: modules,
// imports, definitions and their field types.
//
// Nodes are immutable once constructed, except for two deferred writes made
// by bundle resolution: [FieldType.Bind] and [Module.SetImportedModules].
package schema

import (
	"slices"
)

// Comment is a trailing `--` comment, with the optional `ENDIANNESS(LITTLE)`
// marker and `[unit]` prefix split out.
type Comment struct {
	Text         string
	Unit         string
	LittleEndian bool
}

// ImportItem is one `A, B FROM Module-x` clause.
type ImportItem struct {
	module  string
	names   []string
	comment *Comment
}

func NewImportItem(module string, names []string, comment *Comment) *ImportItem {
	return &ImportItem{
		module:  module,
		names:   slices.Clone(names),
		comment: comment,
	}
}

// Module is the name of the module the symbols are imported from.
func (item *ImportItem) Module() string {
	return item.module
}

func (item *ImportItem) Names() []string {
	return slices.Clone(item.names)
}

func (item *ImportItem) Comment() *Comment {
	return item.comment
}

type Module struct {
	name            string
	comment         *Comment
	importComment   *Comment
	imports         []*ImportItem
	definitions     []Definition
	importedModules []*Module
	linked          bool
}

type ModuleOption interface {
	apply(*Module)
}

type moduleOption func(*Module)

func (f moduleOption) apply(m *Module) { f(m) }

// WithComment sets the comment following `BEGIN`.
func WithComment(comment *Comment) ModuleOption {
	return moduleOption(func(m *Module) {
		m.comment = comment
	})
}

// WithImportComment sets the comment following the `IMPORTS ... ;` clause.
func WithImportComment(comment *Comment) ModuleOption {
	return moduleOption(func(m *Module) {
		m.importComment = comment
	})
}

func NewModule(
	name string,
	imports []*ImportItem,
	definitions []Definition,
	opts ...ModuleOption,
) *Module {
	m := &Module{
		name:        name,
		imports:     slices.Clone(imports),
		definitions: slices.Clone(definitions),
	}
	for _, opt := range opts {
		opt.apply(m)
	}
	return m
}

func (m *Module) Name() string {
	return m.name
}

func (m *Module) Comment() *Comment {
	return m.comment
}

func (m *Module) ImportComment() *Comment {
	return m.importComment
}

func (m *Module) Imports() []*ImportItem {
	return slices.Clone(m.imports)
}

func (m *Module) Definitions() []Definition {
	return slices.Clone(m.definitions)
}

func (m *Module) Definition(typeName string) (Definition, bool) {
	for _, def := range m.definitions {
		if def.TypeName() == typeName {
			return def, true
		}
	}
	return nil, false
}

// ImportedNames returns every name listed in the import clauses, in
// declaration order. Names imported more than once appear once.
func (m *Module) ImportedNames() []string {
	var names []string
	for _, item := range m.imports {
		for _, name := range item.names {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	return names
}

// ImportedModuleNames returns the distinct names of the modules imported
// from, in order of first appearance.
func (m *Module) ImportedModuleNames() []string {
	var names []string
	for _, item := range m.imports {
		if !slices.Contains(names, item.module) {
			names = append(names, item.module)
		}
	}
	return names
}

// ImportSource returns the name of the module that typeName is imported
// from, if any. When several clauses import the same name the first wins.
func (m *Module) ImportSource(typeName string) (string, bool) {
	for _, item := range m.imports {
		if slices.Contains(item.names, typeName) {
			return item.module, true
		}
	}
	return "", false
}

// ImportedModules returns the resolved dependencies. It is empty until the
// module has been linked into a bundle.
func (m *Module) ImportedModules() []*Module {
	return slices.Clone(m.importedModules)
}

func (m *Module) IsLinked() bool {
	return m.linked
}

// SetImportedModules records the resolved dependencies. It may be called
// once per module.
func (m *Module) SetImportedModules(modules []*Module) error {
	if m.linked {
		return errModuleAlreadyLinked(m.name)
	}
	m.importedModules = slices.Clone(modules)
	m.linked = true
	return nil
}
