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

// Validate checks a resolved bundle. The passes run in order and the first
// failing pass returns its error:
//
//  1. every imported name is defined by the module it is imported from
//  2. type names are unique across the bundle
//  3. every referenced type is predefined, imported or defined locally
//  4. no definition contains itself, directly or through other definitions
//  5. every WITH COMPONENTS key names a field of the target SEQUENCE
//
// Simple definitions that alias each other in a loop are rejected after
// the reference check, before the containment check.
func Validate(b *Bundle) error {
	if err := checkImports(b); err != nil {
		return err
	}
	if err := checkUniqueTypes(b); err != nil {
		return err
	}
	if err := checkReferences(b); err != nil {
		return err
	}
	if err := checkAliasCycles(b); err != nil {
		return err
	}
	if err := checkContainmentCycles(b); err != nil {
		return err
	}
	return checkComponents(b)
}

func checkImports(b *Bundle) error {
	for _, m := range b.modules {
		for _, dep := range m.ImportedModules() {
			var missing []string
			for _, item := range m.Imports() {
				if item.Module() != dep.Name() {
					continue
				}
				for _, name := range item.Names() {
					if _, ok := dep.Definition(name); ok {
						continue
					}
					if !slices.Contains(missing, name) {
						missing = append(missing, name)
					}
				}
			}
			if len(missing) > 0 {
				return errImportsNotFound(m.Name(), dep.Name(), missing)
			}
		}
	}
	return nil
}

func checkUniqueTypes(b *Bundle) error {
	owners := make(map[string][]string)
	var duplicates []string
	for _, m := range b.modules {
		for _, def := range m.Definitions() {
			name := def.TypeName()
			if len(owners[name]) == 1 {
				duplicates = append(duplicates, name)
			}
			owners[name] = append(owners[name], m.Name())
		}
	}
	if len(duplicates) > 0 {
		return errDuplicateTypes(duplicates, owners)
	}
	return nil
}

func checkReferences(b *Bundle) error {
	for _, m := range b.modules {
		known := make(map[string]struct{})
		for _, name := range schema.PredefinedTypes() {
			known[name] = struct{}{}
		}
		for _, name := range m.ImportedNames() {
			known[name] = struct{}{}
		}
		for _, def := range m.Definitions() {
			known[def.TypeName()] = struct{}{}
		}
		for _, def := range m.Definitions() {
			for _, name := range schema.ReferencedTypeNames(def) {
				if _, ok := known[name]; !ok {
					return errTypeUndefined(name, def.TypeName(), m.Name())
				}
			}
		}
	}
	return nil
}

// maxAliasDepth bounds alias chains, which can never be longer than the
// number of simple definitions in a bundle without repeating.
const maxAliasDepth = 1 << 16

func checkAliasCycles(b *Bundle) error {
	for _, m := range b.modules {
		for _, def := range m.Definitions() {
			simple, ok := def.(*schema.SimpleDefinition)
			if !ok {
				continue
			}
			chain := []string{simple.TypeName()}
			for {
				next, ok := simple.Type().Resolved().(*schema.SimpleDefinition)
				if !ok {
					break
				}
				if slices.Contains(chain, next.TypeName()) {
					return errAliasCycle(chain)
				}
				chain = append(chain, next.TypeName())
				simple = next
			}
		}
	}
	return nil
}

// checkContainmentCycles walks the bound references of every definition,
// depth first, and rejects the first path that returns to a definition
// already on it. Array elements count as contained.
func checkContainmentCycles(b *Bundle) error {
	done := make(map[schema.Definition]struct{})
	var path []string
	var visit func(def schema.Definition) error
	visit = func(def schema.Definition) error {
		if _, ok := done[def]; ok {
			return nil
		}
		if idx := slices.Index(path, def.TypeName()); idx >= 0 {
			return errContainmentCycle(append(slices.Clone(path[idx:]), def.TypeName()))
		}
		path = append(path, def.TypeName())
		for _, fieldType := range definitionTypes(def) {
			if fieldType.Array() != nil {
				fieldType = fieldType.Array().Innermost()
			}
			if next := fieldType.Resolved(); next != nil {
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		done[def] = struct{}{}
		return nil
	}
	for _, m := range b.modules {
		for _, def := range m.Definitions() {
			if err := visit(def); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkComponents(b *Bundle) error {
	for _, m := range b.modules {
		for _, def := range m.Definitions() {
			for _, field := range definitionFields(def) {
				components := field.Components()
				if components == nil {
					continue
				}
				typeName := field.Type().TypeName()
				if err := b.checkComponentsTree(def.TypeName(), typeName, components); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// checkComponentsTree checks the keys of one WITH COMPONENTS level against
// the fields of the SEQUENCE named typeName, recursing into nested trees.
func (b *Bundle) checkComponentsTree(
	defName string,
	typeName string,
	components *schema.WithComponents,
) error {
	if schema.IsPredefined(typeName) {
		return nil
	}
	def, _, ok := b.Definition(typeName)
	if !ok {
		return errComponentsTypeUndefined(typeName, defName)
	}
	seq, ok := def.(*schema.Sequence)
	if !ok {
		return errComponentsTypeNotSequence(typeName, def.Kind(), defName)
	}
	for _, item := range components.Items() {
		field, ok := seq.Field(item.Key())
		if !ok {
			return errComponentsKeyInvalid(item.Key(), defName, typeName)
		}
		nested, ok := item.Value().(*schema.WithComponents)
		if !ok {
			continue
		}
		if err := b.checkComponentsTree(defName, field.Type().TypeName(), nested); err != nil {
			return err
		}
	}
	return nil
}

func definitionFields(def schema.Definition) []*schema.Field {
	switch def := def.(type) {
	case *schema.Sequence:
		return def.Fields()
	case *schema.Choice:
		return def.Fields()
	}
	return nil
}

func checkExpectedModules(b *Bundle, expected []string) error {
	var duplicates []string
	seen := make(map[string]struct{}, len(expected))
	for _, name := range expected {
		if _, dup := seen[name]; dup && !slices.Contains(duplicates, name) {
			duplicates = append(duplicates, name)
		}
		seen[name] = struct{}{}
	}
	if len(duplicates) > 0 {
		return errExpectedModulesDuplicate(duplicates)
	}

	bundleNames := make([]string, 0, len(b.modules))
	for _, m := range b.modules {
		bundleNames = append(bundleNames, m.Name())
	}
	var extra []string
	for _, name := range bundleNames {
		if _, ok := seen[name]; !ok {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		return errModulesNotExpected(extra, bundleNames, expected)
	}
	var missing []string
	for _, name := range expected {
		if _, ok := b.byName[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errModulesNotFound(missing, bundleNames, expected)
	}
	return nil
}
