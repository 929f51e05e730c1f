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
	"math/big"
	"slices"
	"strings"
)

// WithComponents is a `(WITH COMPONENTS { ... })` tree of literal values
// fixing some fields of a nested SEQUENCE.
type WithComponents struct {
	comment *Comment
	items   []*ComponentsItem
}

func NewWithComponents(items []*ComponentsItem, comment *Comment) (*WithComponents, error) {
	if len(items) == 0 {
		return nil, errNoComponents()
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.key]; dup {
			return nil, errComponentKeyConflict(item.key)
		}
		seen[item.key] = struct{}{}
	}
	return &WithComponents{
		comment: comment,
		items:   slices.Clone(items),
	}, nil
}

func (wc *WithComponents) Comment() *Comment {
	return wc.comment
}

func (wc *WithComponents) Items() []*ComponentsItem {
	return slices.Clone(wc.items)
}

func (*WithComponents) isComponentValue() {}

func (wc *WithComponents) String() string {
	var buf strings.Builder
	buf.WriteString("WITH COMPONENTS {")
	for ii, item := range wc.items {
		if ii > 0 {
			buf.WriteString(",")
		}
		buf.WriteString(" ")
		buf.WriteString(item.key)
		buf.WriteString(" (")
		buf.WriteString(item.value.String())
		buf.WriteString(")")
	}
	buf.WriteString(" }")
	return buf.String()
}

type ComponentsItem struct {
	key     string
	value   ComponentValue
	comment *Comment
}

func NewComponentsItem(key string, value ComponentValue, comment *Comment) *ComponentsItem {
	return &ComponentsItem{
		key:     key,
		value:   value,
		comment: comment,
	}
}

func (item *ComponentsItem) Key() string {
	return item.key
}

func (item *ComponentsItem) Value() ComponentValue {
	return item.value
}

func (item *ComponentsItem) Comment() *Comment {
	return item.comment
}

// ComponentValue is one of [IntValue], [RealValue], [BoolValue] or a nested
// [*WithComponents].
type ComponentValue interface {
	String() string
	isComponentValue()
}

var (
	_ ComponentValue = IntValue{}
	_ ComponentValue = RealValue(0)
	_ ComponentValue = BoolValue(false)
	_ ComponentValue = (*WithComponents)(nil)
)

type IntValue struct {
	value *big.Int
}

func NewIntValue(v *big.Int) IntValue {
	return IntValue{new(big.Int).Set(v)}
}

func (v IntValue) Int() *big.Int {
	return new(big.Int).Set(v.value)
}

func (v IntValue) String() string {
	return v.value.String()
}

func (IntValue) isComponentValue() {}

type RealValue float64

func (v RealValue) String() string {
	return formatReal(float64(v))
}

func (RealValue) isComponentValue() {}

type BoolValue bool

func (v BoolValue) String() string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (BoolValue) isComponentValue() {}
