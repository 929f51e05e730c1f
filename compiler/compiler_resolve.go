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
	"slices"

	"github.com/PTSSpace/APG/schema"
)

// Resolve links modules to the modules they import from and binds every
// type reference to its definition. References that cannot be found are
// left unbound for [Validate] to report.
//
// Resolve links the modules in place, so a module can belong to at most
// one bundle. Links are not undone when Resolve or a later [Validate]
// fails.
func Resolve(modules []*schema.Module) (*Bundle, error) {
	byName := make(map[string]*schema.Module, len(modules))
	var duplicates []string
	for _, m := range modules {
		if _, dup := byName[m.Name()]; dup {
			if !slices.Contains(duplicates, m.Name()) {
				duplicates = append(duplicates, m.Name())
			}
			continue
		}
		byName[m.Name()] = m
	}
	if len(duplicates) > 0 {
		return nil, errDuplicateModules(duplicates)
	}

	for _, m := range modules {
		var missing []string
		for _, dep := range m.ImportedModuleNames() {
			if _, ok := byName[dep]; !ok {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			return nil, errUndeclaredDependencies(m.Name(), missing)
		}
	}

	for _, m := range modules {
		depNames := m.ImportedModuleNames()
		deps := make([]*schema.Module, 0, len(depNames))
		for _, dep := range depNames {
			deps = append(deps, byName[dep])
		}
		if err := m.SetImportedModules(deps); err != nil {
			return nil, err
		}
	}

	bundle := &Bundle{
		modules:    slices.Clone(modules),
		byName:     byName,
		aliasUsage: make(map[string][]string),
	}
	for _, m := range modules {
		for _, def := range m.Definitions() {
			for _, fieldType := range definitionTypes(def) {
				if err := bindReference(byName, m, fieldType); err != nil {
					return nil, err
				}
			}
		}
	}
	for _, m := range modules {
		bundle.recordAliasUsage(m)
	}
	return bundle, nil
}

// definitionTypes returns the declared types of a definition: the aliased
// type of a simple definition, or each field type of a SEQUENCE or CHOICE.
func definitionTypes(def schema.Definition) []*schema.FieldType {
	switch def := def.(type) {
	case *schema.SimpleDefinition:
		return []*schema.FieldType{def.Type()}
	case *schema.Sequence:
		return fieldTypes(def.Fields())
	case *schema.Choice:
		return fieldTypes(def.Fields())
	case *schema.Enumerated:
		return nil
	}
	panic("unreachable")
}

func fieldTypes(fields []*schema.Field) []*schema.FieldType {
	types := make([]*schema.FieldType, 0, len(fields))
	for _, field := range fields {
		types = append(types, field.Type())
	}
	return types
}

// bindReference binds a reference to a definition of the same module, or
// of the module the name is imported from.
func bindReference(
	byName map[string]*schema.Module,
	m *schema.Module,
	fieldType *schema.FieldType,
) error {
	target := fieldType
	if array := fieldType.Array(); array != nil {
		target = array.Innermost()
	}
	if !target.IsReference() || target.IsBound() {
		return nil
	}
	typeName := target.TypeName()
	if def, ok := m.Definition(typeName); ok {
		return target.Bind(def)
	}
	source, ok := m.ImportSource(typeName)
	if !ok {
		return nil
	}
	if def, ok := byName[source].Definition(typeName); ok {
		return target.Bind(def)
	}
	return nil
}

func (b *Bundle) recordAliasUsage(m *schema.Module) {
	for _, def := range m.Definitions() {
		var fields []*schema.Field
		switch def := def.(type) {
		case *schema.Sequence:
			fields = def.Fields()
		case *schema.Choice:
			fields = def.Fields()
		default:
			continue
		}
		for _, field := range fields {
			fieldType := field.Type()
			if fieldType.Array() != nil {
				continue
			}
			alias, ok := fieldType.Resolved().(*schema.SimpleDefinition)
			if !ok {
				continue
			}
			users := b.aliasUsage[alias.TypeName()]
			if !slices.Contains(users, m.Name()) {
				users = append(users, m.Name())
				slices.Sort(users)
				b.aliasUsage[alias.TypeName()] = users
			}
		}
	}
}
