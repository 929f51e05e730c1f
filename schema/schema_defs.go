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
	"fmt"
	"iter"
	"slices"
)

type DefinitionKind uint8

const (
	DefinitionKind_SIMPLE DefinitionKind = iota + 1
	DefinitionKind_SEQUENCE
	DefinitionKind_CHOICE
	DefinitionKind_ENUMERATED
)

func (k DefinitionKind) String() string {
	switch k {
	case DefinitionKind_SIMPLE:
		return "SIMPLE"
	case DefinitionKind_SEQUENCE:
		return "SEQUENCE"
	case DefinitionKind_CHOICE:
		return "CHOICE"
	case DefinitionKind_ENUMERATED:
		return "ENUMERATED"
	}
	panic("unreachable")
}

// Definition is one named top-level type of a module. The set of
// implementations is closed: [*SimpleDefinition], [*Sequence], [*Choice]
// and [*Enumerated].
type Definition interface {
	TypeName() string
	Comment() *Comment
	Kind() DefinitionKind
	BitSize() (uint32, error)

	bitSize(w *sizeWalk) (uint32, error)
	isDefinition()
}

var (
	_ Definition = (*SimpleDefinition)(nil)
	_ Definition = (*Sequence)(nil)
	_ Definition = (*Choice)(nil)
	_ Definition = (*Enumerated)(nil)
)

type SimpleDefinition struct {
	typeName  string
	comment   *Comment
	fieldType *FieldType
}

// NewSimpleDefinition creates `typeName ::= fieldType`. NULL is rejected,
// and a definition named after a POSIX alias must declare exactly the
// alias's canonical range.
func NewSimpleDefinition(
	typeName string,
	fieldType *FieldType,
	comment *Comment,
) (*SimpleDefinition, error) {
	if fieldType.typeName == "NULL" {
		return nil, errNullForbidden(typeName)
	}
	if alias, ok := posixAliases[typeName]; ok {
		if !alias.rng.Equal(fieldType.rng) {
			begin, end := "None", "None"
			if fieldType.rng != nil {
				begin = fieldType.rng.BeginString()
				end = fieldType.rng.EndString()
			}
			return nil, errPosixRangeMismatch(begin, end, typeName)
		}
	}
	return &SimpleDefinition{
		typeName:  typeName,
		comment:   comment,
		fieldType: fieldType,
	}, nil
}

func (*SimpleDefinition) isDefinition() {}

func (d *SimpleDefinition) TypeName() string {
	return d.typeName
}

func (d *SimpleDefinition) Comment() *Comment {
	return d.comment
}

func (*SimpleDefinition) Kind() DefinitionKind {
	return DefinitionKind_SIMPLE
}

func (d *SimpleDefinition) Type() *FieldType {
	return d.fieldType
}

func (d *SimpleDefinition) BitSize() (uint32, error) {
	return d.bitSize(&sizeWalk{})
}

func (d *SimpleDefinition) bitSize(w *sizeWalk) (uint32, error) {
	if err := w.enter(d.typeName); err != nil {
		return 0, err
	}
	defer w.leave()
	return d.fieldType.bitSize(w)
}

// Field is a named member of a SEQUENCE or CHOICE.
type Field struct {
	key        string
	fieldType  *FieldType
	comment    *Comment
	components *WithComponents
}

func NewField(
	key string,
	fieldType *FieldType,
	comment *Comment,
	components *WithComponents,
) (*Field, error) {
	if fieldType.typeName == "NULL" {
		return nil, errNullForbidden(key)
	}
	return &Field{
		key:        key,
		fieldType:  fieldType,
		comment:    comment,
		components: components,
	}, nil
}

func (f *Field) Key() string {
	return f.key
}

func (f *Field) Type() *FieldType {
	return f.fieldType
}

func (f *Field) Comment() *Comment {
	return f.comment
}

// Components returns the WITH COMPONENTS literal overrides, or nil.
func (f *Field) Components() *WithComponents {
	return f.components
}

type fieldList struct {
	typeName string
	comment  *Comment
	fields   []*Field
}

func newFieldList(
	kind DefinitionKind,
	typeName string,
	fields []*Field,
	comment *Comment,
) (fieldList, error) {
	if len(fields) == 0 {
		return fieldList{}, errNoFields(kind, typeName)
	}
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if _, dup := seen[field.key]; dup {
			return fieldList{}, errFieldKeyConflict(typeName, field.key)
		}
		seen[field.key] = struct{}{}
	}
	return fieldList{
		typeName: typeName,
		comment:  comment,
		fields:   slices.Clone(fields),
	}, nil
}

func (l *fieldList) TypeName() string {
	return l.typeName
}

func (l *fieldList) Comment() *Comment {
	return l.comment
}

func (l *fieldList) Fields() []*Field {
	return slices.Clone(l.fields)
}

func (l *fieldList) IterFields() iter.Seq2[int, *Field] {
	return slices.All(l.fields)
}

func (l *fieldList) Field(key string) (*Field, bool) {
	for _, field := range l.fields {
		if field.key == key {
			return field, true
		}
	}
	return nil, false
}

// Sequence is a record of named fields.
type Sequence struct {
	fieldList
}

func NewSequence(typeName string, fields []*Field, comment *Comment) (*Sequence, error) {
	l, err := newFieldList(DefinitionKind_SEQUENCE, typeName, fields, comment)
	if err != nil {
		return nil, err
	}
	return &Sequence{l}, nil
}

func (*Sequence) isDefinition() {}

func (*Sequence) Kind() DefinitionKind {
	return DefinitionKind_SEQUENCE
}

// BitSize is the sum of the field sizes, without padding. A SEQUENCE that
// contains itself has no size.
func (s *Sequence) BitSize() (uint32, error) {
	return s.bitSize(&sizeWalk{})
}

func (s *Sequence) bitSize(w *sizeWalk) (uint32, error) {
	if err := w.enter(s.typeName); err != nil {
		return 0, err
	}
	defer w.leave()
	var total uint64
	for _, field := range s.fields {
		bits, err := field.fieldType.bitSize(w)
		if err != nil {
			return 0, err
		}
		total += uint64(bits)
	}
	return checkedBits(fmt.Sprintf("'%s'", s.typeName), total)
}

// Choice is a union of named fields, exactly one of which is present.
type Choice struct {
	fieldList
}

func NewChoice(typeName string, fields []*Field, comment *Comment) (*Choice, error) {
	l, err := newFieldList(DefinitionKind_CHOICE, typeName, fields, comment)
	if err != nil {
		return nil, err
	}
	return &Choice{l}, nil
}

func (*Choice) isDefinition() {}

func (*Choice) Kind() DefinitionKind {
	return DefinitionKind_CHOICE
}

// BitSize always fails: the layout of a union is chosen by the code
// generator.
func (c *Choice) BitSize() (uint32, error) {
	return 0, errChoiceSize(c.typeName)
}

func (c *Choice) bitSize(*sizeWalk) (uint32, error) {
	return c.BitSize()
}

// ReferencedTypeNames returns the type names a definition depends on, with
// array wrappers unwrapped. Strings contribute their predefined name.
func ReferencedTypeNames(def Definition) []string {
	var names []string
	add := func(t *FieldType) {
		if !slices.Contains(names, t.typeName) {
			names = append(names, t.typeName)
		}
	}
	switch def := def.(type) {
	case *SimpleDefinition:
		add(def.fieldType)
	case *Sequence:
		for _, field := range def.fields {
			add(field.fieldType)
		}
	case *Choice:
		for _, field := range def.fields {
			add(field.fieldType)
		}
	case *Enumerated:
	default:
		panic("unreachable")
	}
	return names
}
