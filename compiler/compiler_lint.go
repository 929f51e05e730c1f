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
	"github.com/PTSSpace/APG/schema"
)

type importKey struct {
	module string
	name   string
}

func collectWarnings(b *Bundle) []*Warning {
	var warnings []*Warning
	for _, m := range b.modules {
		defs := m.Definitions()
		if len(defs) == 0 {
			warnings = append(warnings, warnEmptyModule(m.Name()))
		}

		used := make(map[string]struct{})
		for _, def := range defs {
			for _, name := range schema.ReferencedTypeNames(def) {
				used[name] = struct{}{}
			}
		}
		seen := make(map[importKey]struct{})
		for _, item := range m.Imports() {
			for _, name := range item.Names() {
				key := importKey{item.Module(), name}
				if _, dup := seen[key]; dup {
					warnings = append(warnings, warnDuplicateImport(m.Name(), item.Module(), name))
					continue
				}
				seen[key] = struct{}{}
				if _, ok := used[name]; !ok {
					warnings = append(warnings, warnUnusedImport(m.Name(), item.Module(), name))
				}
			}
		}

		for _, def := range defs {
			for _, field := range definitionFields(def) {
				if components := field.Components(); components != nil {
					warnings = b.lintComponents(warnings, m.Name(), def.TypeName(), field.Type(), components)
				}
			}
		}
	}
	return warnings
}

// lintComponents checks WITH COMPONENTS literals against the kind and range
// of the fields they set. Key errors are reported by [Validate].
func (b *Bundle) lintComponents(
	warnings []*Warning,
	module string,
	defName string,
	target *schema.FieldType,
	components *schema.WithComponents,
) []*Warning {
	def, _, ok := b.Definition(target.TypeName())
	if !ok {
		return warnings
	}
	seq, ok := def.(*schema.Sequence)
	if !ok {
		return warnings
	}
	for _, item := range components.Items() {
		field, ok := seq.Field(item.Key())
		if !ok {
			continue
		}
		if nested, ok := item.Value().(*schema.WithComponents); ok {
			warnings = b.lintComponents(warnings, module, defName, field.Type(), nested)
			continue
		}
		if warn := lintLiteral(module, defName, item, leafType(field.Type())); warn != nil {
			warnings = append(warnings, warn)
		}
	}
	return warnings
}

func lintLiteral(
	module string,
	defName string,
	item *schema.ComponentsItem,
	fieldType *schema.FieldType,
) *Warning {
	if fieldType.Array() != nil {
		return nil
	}
	kind := fieldType.Kind()
	value := item.Value()
	mismatch := func() *Warning {
		return warnComponentKindMismatch(module, defName, item.Key(), value.String(), kind)
	}
	outOfRange := func(rng *schema.Range) *Warning {
		return warnComponentOutOfRange(module, defName, item.Key(), value.String(), rng.String())
	}
	rng := fieldType.EffectiveRange()

	switch value := value.(type) {
	case schema.IntValue:
		switch kind {
		case schema.PhysicalKind_UINT, schema.PhysicalKind_INT,
			schema.PhysicalKind_FLOAT, schema.PhysicalKind_DOUBLE:
			if rng != nil && !rng.ContainsInt(value.Int()) {
				return outOfRange(rng)
			}
		case schema.PhysicalKind_UNRESOLVED:
			if name := fieldType.TypeName(); name != "INTEGER" && name != "REAL" {
				return mismatch()
			}
		default:
			return mismatch()
		}
	case schema.RealValue:
		switch kind {
		case schema.PhysicalKind_FLOAT, schema.PhysicalKind_DOUBLE:
			if rng != nil && !rng.ContainsReal(float64(value)) {
				return outOfRange(rng)
			}
		case schema.PhysicalKind_UNRESOLVED:
			if fieldType.TypeName() != "REAL" {
				return mismatch()
			}
		default:
			return mismatch()
		}
	case schema.BoolValue:
		if kind != schema.PhysicalKind_BOOL {
			return mismatch()
		}
	}
	return nil
}

// leafType follows simple definition aliases to the type they stand for.
func leafType(fieldType *schema.FieldType) *schema.FieldType {
	for range maxAliasDepth {
		simple, ok := fieldType.Resolved().(*schema.SimpleDefinition)
		if !ok {
			break
		}
		fieldType = simple.Type()
	}
	return fieldType
}
