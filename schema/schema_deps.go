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

// OrderModules returns the modules ordered so that every module comes after
// the modules it imports from. Among modules that are ready at the same time
// the earliest in the input goes first. Imports of modules outside the input
// set are ignored.
func OrderModules(modules []*Module) ([]*Module, error) {
	inSet := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		inSet[m.name] = struct{}{}
	}

	placed := make(map[string]struct{}, len(modules))
	remaining := append([]*Module(nil), modules...)
	ordered := make([]*Module, 0, len(modules))

	ready := func(m *Module) bool {
		for _, dep := range m.ImportedModuleNames() {
			if _, ok := inSet[dep]; !ok {
				continue
			}
			if _, ok := placed[dep]; !ok {
				return false
			}
		}
		return true
	}

	for len(remaining) > 0 {
		next := -1
		for ii, m := range remaining {
			if ready(m) {
				next = ii
				break
			}
		}
		if next < 0 {
			names := make([]string, 0, len(remaining))
			for _, m := range remaining {
				names = append(names, m.name)
			}
			return nil, errCyclicModules(names)
		}
		m := remaining[next]
		remaining = append(remaining[:next], remaining[next+1:]...)
		ordered = append(ordered, m)
		placed[m.name] = struct{}{}
	}
	return ordered, nil
}

// DefinitionsOrdered returns the module's definitions ordered so that each
// SEQUENCE and CHOICE comes after every type its fields use. Simple
// definitions and enumerations are placed as soon as they are reached.
func (m *Module) DefinitionsOrdered() ([]Definition, error) {
	defined := make(map[string]struct{})
	for _, name := range predefinedTypes {
		defined[name] = struct{}{}
	}
	for _, name := range m.ImportedNames() {
		defined[name] = struct{}{}
	}

	remaining := append([]Definition(nil), m.definitions...)
	ordered := make([]Definition, 0, len(remaining))
	for len(remaining) > 0 {
		progress := false
		pending := remaining[:0:0]
		for _, def := range remaining {
			if !definitionReady(def, defined) {
				pending = append(pending, def)
				continue
			}
			ordered = append(ordered, def)
			defined[def.TypeName()] = struct{}{}
			progress = true
		}
		if !progress {
			names := make([]string, 0, len(pending))
			for _, def := range pending {
				names = append(names, def.TypeName())
			}
			return nil, errCyclicDefinitions(m.name, names)
		}
		remaining = pending
	}
	return ordered, nil
}

func definitionReady(def Definition, defined map[string]struct{}) bool {
	var fields []*Field
	switch def := def.(type) {
	case *SimpleDefinition, *Enumerated:
		return true
	case *Sequence:
		fields = def.fields
	case *Choice:
		fields = def.fields
	default:
		panic("unreachable")
	}
	for _, field := range fields {
		if _, ok := defined[field.fieldType.typeName]; !ok {
			return false
		}
	}
	return true
}
