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

// Package codegen defines the protocol between the compiler and code
// generation plugins.
//
// A [Request] is a JSON snapshot of a validated bundle: modules in
// dependency order, definitions in declaration-safe order, and the
// physical kind and bit size of every type. A plugin answers with a
// [Response] listing the files to write.
package codegen

import (
	"encoding/json"
	"errors"
	"maps"

	"github.com/PTSSpace/APG/compiler"
	"github.com/PTSSpace/APG/schema"
)

type Request struct {
	Modules       []*Module           `json:"modules"`
	SimpleAliases map[string][]string `json:"simple_aliases,omitempty"`
	Options       map[string]string   `json:"options,omitempty"`
}

type Module struct {
	Name          string        `json:"name"`
	Comment       *Comment      `json:"comment,omitempty"`
	ImportComment *Comment      `json:"import_comment,omitempty"`
	Imports       []*Import     `json:"imports,omitempty"`
	Definitions   []*Definition `json:"definitions"`
}

type Import struct {
	Module  string   `json:"module"`
	Names   []string `json:"names"`
	Comment *Comment `json:"comment,omitempty"`
}

type Comment struct {
	Text         string `json:"text"`
	Unit         string `json:"unit,omitempty"`
	LittleEndian bool   `json:"little_endian,omitempty"`
}

// Definition is one top-level type. Type is set for simple definitions,
// Fields for SEQUENCE and CHOICE, Items for ENUMERATED. Bits is omitted when
// the size is left to the plugin.
type Definition struct {
	Name    string      `json:"name"`
	Kind    string      `json:"kind"`
	Comment *Comment    `json:"comment,omitempty"`
	Bits    *uint32     `json:"bits,omitempty"`
	Type    *Type       `json:"type,omitempty"`
	Fields  []*Field    `json:"fields,omitempty"`
	Items   []*EnumItem `json:"items,omitempty"`
}

type Field struct {
	Key        string           `json:"key"`
	Type       *Type            `json:"type"`
	Comment    *Comment         `json:"comment,omitempty"`
	Components []*ComponentItem `json:"components,omitempty"`
}

type EnumItem struct {
	Name     string   `json:"name"`
	Position uint32   `json:"position"`
	Comment  *Comment `json:"comment,omitempty"`
}

// Type is a declared type. At most one of Array, Length and Resolved is set.
type Type struct {
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Range       *Range     `json:"range,omitempty"`
	Array       *Array     `json:"array,omitempty"`
	Length      uint32     `json:"length,omitempty"`
	Resolved    *Reference `json:"resolved,omitempty"`
	Bits        *uint32    `json:"bits,omitempty"`
	StorageBits uint32     `json:"storage_bits,omitempty"`
}

// Range bounds are decimal strings so that 64-bit integer bounds survive
// JSON decoders that read numbers as doubles.
type Range struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
	Real  bool   `json:"real,omitempty"`
}

type Array struct {
	Count   uint32 `json:"count"`
	Element *Type  `json:"element"`
}

// Reference names the definition a type resolves to.
type Reference struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
}

// ComponentItem is one WITH COMPONENTS entry. Value holds the literal text
// of an INT, REAL or BOOL item; Components holds a nested tree.
type ComponentItem struct {
	Key        string           `json:"key"`
	Kind       string           `json:"kind"`
	Value      string           `json:"value,omitempty"`
	Components []*ComponentItem `json:"components,omitempty"`
}

type RequestOption interface {
	apply(*RequestOptions)
}

type requestOption func(*RequestOptions)

func (f requestOption) apply(opts *RequestOptions) { f(opts) }

type RequestOptions struct {
	options map[string]string
}

// WithPluginOptions passes plugin-specific settings through the request.
func WithPluginOptions(options map[string]string) RequestOption {
	return requestOption(func(opts *RequestOptions) {
		if opts.options == nil {
			opts.options = make(map[string]string, len(options))
		}
		maps.Copy(opts.options, options)
	})
}

func NewRequestOptions(opts ...RequestOption) *RequestOptions {
	reqOpts := &RequestOptions{}
	for _, opt := range opts {
		opt.apply(reqOpts)
	}
	return reqOpts
}

func NewRequest(bundle *compiler.Bundle, opts ...RequestOption) (*Request, error) {
	return NewRequestOptions(opts...).NewRequest(bundle)
}

func (opts *RequestOptions) NewRequest(bundle *compiler.Bundle) (*Request, error) {
	modules, err := bundle.ModulesOrdered()
	if err != nil {
		return nil, err
	}
	req := &Request{
		Modules: make([]*Module, 0, len(modules)),
		Options: maps.Clone(opts.options),
	}
	if aliases := bundle.SimpleAliasUsage(); len(aliases) > 0 {
		req.SimpleAliases = aliases
	}
	for _, m := range modules {
		module, err := newModule(bundle, m)
		if err != nil {
			return nil, err
		}
		req.Modules = append(req.Modules, module)
	}
	return req, nil
}

// EncodeRequest renders a request as JSON.
func EncodeRequest(req *Request) ([]byte, error) {
	return json.Marshal(req)
}

func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errRequestInvalid(err)
	}
	return &req, nil
}

func newModule(bundle *compiler.Bundle, m *schema.Module) (*Module, error) {
	defs, err := m.DefinitionsOrdered()
	if err != nil {
		return nil, err
	}
	module := &Module{
		Name:          m.Name(),
		Comment:       newComment(m.Comment()),
		ImportComment: newComment(m.ImportComment()),
		Definitions:   make([]*Definition, 0, len(defs)),
	}
	for _, item := range m.Imports() {
		module.Imports = append(module.Imports, &Import{
			Module:  item.Module(),
			Names:   item.Names(),
			Comment: newComment(item.Comment()),
		})
	}
	for _, def := range defs {
		out, err := newDefinition(bundle, def)
		if err != nil {
			return nil, err
		}
		module.Definitions = append(module.Definitions, out)
	}
	return module, nil
}

func newComment(comment *schema.Comment) *Comment {
	if comment == nil {
		return nil
	}
	return &Comment{
		Text:         comment.Text,
		Unit:         comment.Unit,
		LittleEndian: comment.LittleEndian,
	}
}

func newDefinition(bundle *compiler.Bundle, def schema.Definition) (*Definition, error) {
	out := &Definition{
		Name:    def.TypeName(),
		Kind:    def.Kind().String(),
		Comment: newComment(def.Comment()),
	}
	var err error
	if out.Bits, err = bitSize(def); err != nil {
		return nil, err
	}
	switch def := def.(type) {
	case *schema.SimpleDefinition:
		out.Type, err = newType(bundle, def.Type())
	case *schema.Sequence:
		out.Fields, err = newFields(bundle, def.Fields())
	case *schema.Choice:
		out.Fields, err = newFields(bundle, def.Fields())
	case *schema.Enumerated:
		for _, item := range def.Items() {
			out.Items = append(out.Items, &EnumItem{
				Name:     item.Name(),
				Position: item.Position(),
				Comment:  newComment(item.Comment()),
			})
		}
	default:
		panic("unreachable")
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func newFields(bundle *compiler.Bundle, fields []*schema.Field) ([]*Field, error) {
	out := make([]*Field, 0, len(fields))
	for _, field := range fields {
		fieldType, err := newType(bundle, field.Type())
		if err != nil {
			return nil, err
		}
		out = append(out, &Field{
			Key:        field.Key(),
			Type:       fieldType,
			Comment:    newComment(field.Comment()),
			Components: newComponents(field.Components()),
		})
	}
	return out, nil
}

func newType(bundle *compiler.Bundle, fieldType *schema.FieldType) (*Type, error) {
	out := &Type{
		Name: fieldType.TypeName(),
		Kind: fieldType.Kind().String(),
	}
	if rng := fieldType.Range(); rng != nil {
		out.Range = &Range{
			Begin: rng.BeginString(),
			End:   rng.EndString(),
			Real:  rng.IsReal(),
		}
	}
	if array := fieldType.Array(); array != nil {
		element, err := newType(bundle, array.Element())
		if err != nil {
			return nil, err
		}
		out.Array = &Array{
			Count:   array.Count(),
			Element: element,
		}
	}
	if str := fieldType.FixedString(); str != nil {
		out.Length = str.Length()
	}
	if def := fieldType.Resolved(); def != nil {
		ref := &Reference{
			Name: def.TypeName(),
			Kind: def.Kind().String(),
		}
		if _, m, ok := bundle.Definition(def.TypeName()); ok {
			ref.Module = m.Name()
		}
		out.Resolved = ref
	}
	var err error
	if out.Bits, err = bitSize(fieldType); err != nil {
		return nil, err
	}
	storage, err := fieldType.StorageBits()
	if err != nil && !errors.Is(err, schema.UnresolvedSizeError) {
		return nil, err
	}
	out.StorageBits = storage
	return out, nil
}

func bitSize(sized interface{ BitSize() (uint32, error) }) (*uint32, error) {
	bits, err := sized.BitSize()
	if err != nil {
		if errors.Is(err, schema.UnresolvedSizeError) {
			return nil, nil
		}
		return nil, err
	}
	return &bits, nil
}

func newComponents(wc *schema.WithComponents) []*ComponentItem {
	if wc == nil {
		return nil
	}
	var items []*ComponentItem
	for _, item := range wc.Items() {
		out := &ComponentItem{Key: item.Key()}
		switch value := item.Value().(type) {
		case schema.IntValue:
			out.Kind = "INT"
			out.Value = value.String()
		case schema.RealValue:
			out.Kind = "REAL"
			out.Value = value.String()
		case schema.BoolValue:
			out.Kind = "BOOL"
			out.Value = value.String()
		case *schema.WithComponents:
			out.Kind = "COMPONENTS"
			out.Components = newComponents(value)
		default:
			panic("unreachable")
		}
		items = append(items, out)
	}
	return items
}
