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
	"math/bits"
	"slices"
)

type EnumItem struct {
	name     string
	position uint32
	comment  *Comment
}

func (item *EnumItem) Name() string {
	return item.name
}

func (item *EnumItem) Position() uint32 {
	return item.position
}

func (item *EnumItem) Comment() *Comment {
	return item.comment
}

// Enumerated is a named list of items, ordered by position. Positions always
// form the sequence 0..N-1.
type Enumerated struct {
	typeName string
	comment  *Comment
	items    []*EnumItem
}

func (*Enumerated) isDefinition() {}

func (e *Enumerated) TypeName() string {
	return e.typeName
}

func (e *Enumerated) Comment() *Comment {
	return e.comment
}

func (*Enumerated) Kind() DefinitionKind {
	return DefinitionKind_ENUMERATED
}

func (e *Enumerated) Items() []*EnumItem {
	return slices.Clone(e.items)
}

// BitSize is the bit length of the highest position.
func (e *Enumerated) BitSize() (uint32, error) {
	last := e.items[len(e.items)-1].position
	return uint32(bits.Len32(last)), nil
}

func (e *Enumerated) bitSize(*sizeWalk) (uint32, error) {
	return e.BitSize()
}

// EnumeratedBuilder collects items in declaration order. An item without an
// explicit position counts as position 0, matching the grammar's default.
type EnumeratedBuilder struct {
	typeName string
	comment  *Comment
	decls    []enumItemDecl
}

type enumItemDecl struct {
	name     string
	position uint64
	comment  *Comment
}

func NewEnumeratedBuilder(typeName string, comment *Comment) *EnumeratedBuilder {
	return &EnumeratedBuilder{
		typeName: typeName,
		comment:  comment,
	}
}

func (b *EnumeratedBuilder) Add(name string, comment *Comment) {
	b.decls = append(b.decls, enumItemDecl{
		name:    name,
		comment: comment,
	})
}

func (b *EnumeratedBuilder) AddAt(name string, position uint64, comment *Comment) {
	b.decls = append(b.decls, enumItemDecl{
		name:     name,
		position: position,
		comment:  comment,
	})
}

// Build assigns positions and freezes the enumeration. If every position is
// zero (or omitted) the items are numbered in declaration order. Otherwise
// the positions must cover 0..N-1 exactly once, and the items are reordered
// by position.
func (b *EnumeratedBuilder) Build() (*Enumerated, error) {
	if len(b.decls) == 0 {
		return nil, errEnumEmpty(b.typeName)
	}
	names := make(map[string]struct{}, len(b.decls))
	allZero := true
	for _, decl := range b.decls {
		if _, dup := names[decl.name]; dup {
			return nil, errEnumItemConflict(b.typeName, decl.name)
		}
		names[decl.name] = struct{}{}
		if decl.position != 0 {
			allZero = false
		}
	}

	items := make([]*EnumItem, len(b.decls))
	if allZero {
		for ii, decl := range b.decls {
			items[ii] = &EnumItem{
				name:     decl.name,
				position: uint32(ii),
				comment:  decl.comment,
			}
		}
		return &Enumerated{
			typeName: b.typeName,
			comment:  b.comment,
			items:    items,
		}, nil
	}

	count := uint64(len(b.decls))
	for _, decl := range b.decls {
		if decl.position >= count {
			return nil, errEnumPositions(b.typeName, fmt.Sprintf(
				"index '%d' of '%s' is out of bounds (%d items)",
				decl.position, decl.name, count,
			))
		}
		if prev := items[decl.position]; prev != nil {
			return nil, errEnumPositions(b.typeName, fmt.Sprintf(
				"index '%d' is defined multiple times ('%s' and '%s')",
				decl.position, prev.name, decl.name,
			))
		}
		items[decl.position] = &EnumItem{
			name:     decl.name,
			position: uint32(decl.position),
			comment:  decl.comment,
		}
	}
	return &Enumerated{
		typeName: b.typeName,
		comment:  b.comment,
		items:    items,
	}, nil
}
