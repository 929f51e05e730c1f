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

package syntax

import (
	"math"

	"github.com/PTSSpace/APG/schema"
)

func parseModule(ctx *parseCtx) *schema.Module {
	ctx.skip()
	name := ctx.moduleName()
	ctx.keyword("DEFINITIONS")
	ctx.keyword("AUTOMATIC")
	ctx.keyword("TAGS")
	ctx.sigil(T_ASSIGN)
	ctx.keyword("BEGIN")

	var opts []schema.ModuleOption
	if comment := ctx.comment(); comment != nil {
		opts = append(opts, schema.WithComment(comment))
	}

	var imports []*schema.ImportItem
	if ctx.tryKeyword("IMPORTS") {
		for ctx.err == nil {
			imports = append(imports, parseImportItem(ctx))
			if ctx.trySigil(T_SEMICOLON) {
				break
			}
		}
		if comment := ctx.comment(); comment != nil {
			opts = append(opts, schema.WithImportComment(comment))
		}
	}

	var defs []schema.Definition
	for ctx.err == nil && !ctx.tryKeyword("END") {
		if def := parseDefinition(ctx); def != nil {
			defs = append(defs, def)
		}
	}
	ctx.atEOF()
	if ctx.err != nil {
		return nil
	}
	return schema.NewModule(name, imports, defs, opts...)
}

func parseImportItem(ctx *parseCtx) *schema.ImportItem {
	names := []string{ctx.typeName()}
	for ctx.trySigil(T_COMMA) {
		names = append(names, ctx.typeName())
	}
	ctx.keyword("FROM")
	module := ctx.moduleName()
	comment := ctx.comment()
	return schema.NewImportItem(module, names, comment)
}

func parseDefinition(ctx *parseCtx) schema.Definition {
	ctx.skip()
	start := ctx.offset
	typeName := ctx.typeName()
	ctx.sigil(T_ASSIGN)
	if ctx.err != nil {
		return nil
	}

	var def schema.Definition
	var err error
	switch {
	case ctx.tryKeyword("SEQUENCE"):
		if !ctx.trySigil(T_OPEN_CURL) {
			fieldType := parseArrayType(ctx)
			def, err = parseSimpleTail(ctx, typeName, fieldType)
			break
		}
		comment, fields := parseFields(ctx)
		if ctx.err == nil {
			def, err = schema.NewSequence(typeName, fields, comment)
		}
	case ctx.tryKeyword("CHOICE"):
		ctx.sigil(T_OPEN_CURL)
		comment, fields := parseFields(ctx)
		if ctx.err == nil {
			def, err = schema.NewChoice(typeName, fields, comment)
		}
	case ctx.tryKeyword("ENUMERATED"):
		ctx.sigil(T_OPEN_CURL)
		def, err = parseEnumerated(ctx, typeName)
	default:
		fieldType := parseType(ctx)
		def, err = parseSimpleTail(ctx, typeName, fieldType)
	}
	if err != nil {
		ctx.failSchema(err, start)
	}
	if ctx.err != nil {
		return nil
	}
	return def
}

func parseSimpleTail(
	ctx *parseCtx,
	typeName string,
	fieldType *schema.FieldType,
) (schema.Definition, error) {
	comment := ctx.comment()
	if ctx.err != nil {
		return nil, nil
	}
	return schema.NewSimpleDefinition(typeName, fieldType, comment)
}

type fieldDecl struct {
	key        string
	fieldType  *schema.FieldType
	comment    *schema.Comment
	components *schema.WithComponents
	start      uint32
}

// parseFields reads the body of a SEQUENCE or CHOICE after its opening
// brace. A comment directly after the brace belongs to the definition.
func parseFields(ctx *parseCtx) (*schema.Comment, []*schema.Field) {
	defComment := ctx.comment()
	var decls []*fieldDecl
	for ctx.err == nil {
		decl := parseField(ctx)
		decls = append(decls, decl)
		if !ctx.trySigil(T_COMMA) {
			break
		}
		if comment := ctx.comment(); decl.comment == nil {
			decl.comment = comment
		}
	}
	ctx.sigil(T_CLOSE_CURL)
	if ctx.err != nil {
		return nil, nil
	}

	fields := make([]*schema.Field, 0, len(decls))
	for _, decl := range decls {
		field, err := schema.NewField(decl.key, decl.fieldType, decl.comment, decl.components)
		if err != nil {
			ctx.failSchema(err, decl.start)
			return nil, nil
		}
		fields = append(fields, field)
	}
	return defComment, fields
}

func parseField(ctx *parseCtx) *fieldDecl {
	ctx.skip()
	decl := &fieldDecl{start: ctx.offset}
	decl.key = ctx.fieldName()
	decl.fieldType = parseType(ctx)
	decl.comment = ctx.comment()
	ctx.skip()
	if ctx.err == nil && ctx.peekComponents() {
		ctx.sigil(T_OPEN_PAREN)
		decl.components = parseComponents(ctx)
		if comment := ctx.comment(); decl.comment == nil {
			decl.comment = comment
		}
	}
	return decl
}

func parseEnumerated(ctx *parseCtx, typeName string) (schema.Definition, error) {
	builder := schema.NewEnumeratedBuilder(typeName, ctx.comment())

	type itemDecl struct {
		name     string
		position uint64
		explicit bool
		comment  *schema.Comment
	}
	var decls []*itemDecl
	for ctx.err == nil {
		decl := &itemDecl{name: ctx.fieldName()}
		ctx.space()
		if ctx.err == nil && ctx.token.Kind == T_OPEN_PAREN {
			ctx.sigil(T_OPEN_PAREN)
			decl.position = ctx.uintLit(math.MaxUint32)
			decl.explicit = true
			ctx.sigil(T_CLOSE_PAREN)
		}
		decl.comment = ctx.comment()
		decls = append(decls, decl)
		if !ctx.trySigil(T_COMMA) {
			break
		}
		if comment := ctx.comment(); decl.comment == nil {
			decl.comment = comment
		}
	}
	ctx.sigil(T_CLOSE_CURL)
	if ctx.err != nil {
		return nil, nil
	}

	for _, decl := range decls {
		if decl.explicit {
			builder.AddAt(decl.name, decl.position, decl.comment)
		} else {
			builder.Add(decl.name, decl.comment)
		}
	}
	return builder.Build()
}

// parseType reads a type reference: a predefined type with its constraint,
// an array, or the name of a user-defined type.
func parseType(ctx *parseCtx) *schema.FieldType {
	ctx.skip()
	if ctx.err != nil {
		return nil
	}
	start := ctx.offset
	token := ctx.readToken()
	if ctx.token.Kind != T_IDENT {
		ctx.fail(errExpectedType(ctx.token.Kind, token, ctx.tokenSpan()))
		return nil
	}
	if !schema.IsPredefined(token) && token != "NULL" && token != "SEQUENCE" &&
		!typeNameRegex.MatchString(token) {
		ctx.fail(errExpectedType(ctx.token.Kind, token, ctx.tokenSpan()))
		return nil
	}
	ctx.consumeToken()

	var fieldType *schema.FieldType
	var err error
	switch token {
	case "SEQUENCE":
		return parseArrayType(ctx)
	case "IA5String", "NumericString":
		length := parseSize(ctx)
		if ctx.err != nil {
			return nil
		}
		fieldType, err = schema.NewStringType(token, length)
	case "INTEGER":
		var rng *schema.Range
		if ctx.space(); ctx.err == nil && ctx.token.Kind == T_OPEN_PAREN && !ctx.peekComponents() {
			ctx.sigil(T_OPEN_PAREN)
			begin := ctx.intLit()
			ctx.sigil(T_RANGE)
			end := ctx.intLit()
			ctx.sigil(T_CLOSE_PAREN)
			if ctx.err != nil {
				return nil
			}
			rng, err = schema.NewIntRange(begin, end)
			if err != nil {
				break
			}
		}
		fieldType, err = schema.NewFieldType(token, rng)
	case "REAL":
		var rng *schema.Range
		if ctx.space(); ctx.err == nil && ctx.token.Kind == T_OPEN_PAREN && !ctx.peekComponents() {
			ctx.sigil(T_OPEN_PAREN)
			begin := ctx.realLit()
			ctx.sigil(T_RANGE)
			end := ctx.realLit()
			ctx.sigil(T_CLOSE_PAREN)
			if ctx.err != nil {
				return nil
			}
			rng, err = schema.NewRealRange(begin, end)
			if err != nil {
				break
			}
		}
		fieldType, err = schema.NewFieldType(token, rng)
	default:
		fieldType, err = schema.NewFieldType(token, nil)
	}
	if err != nil {
		ctx.failSchema(err, start)
		return nil
	}
	return fieldType
}

// parseArrayType reads `(SIZE(n)) OF Type` after the SEQUENCE keyword.
func parseArrayType(ctx *parseCtx) *schema.FieldType {
	count := parseSize(ctx)
	ctx.keyword("OF")
	element := parseType(ctx)
	if ctx.err != nil {
		return nil
	}
	return schema.NewArrayType(count, element)
}

func parseSize(ctx *parseCtx) uint32 {
	ctx.sigil(T_OPEN_PAREN)
	ctx.keyword("SIZE")
	ctx.sigil(T_OPEN_PAREN)
	size := ctx.uintLit(math.MaxUint32)
	ctx.sigil(T_CLOSE_PAREN)
	ctx.sigil(T_CLOSE_PAREN)
	return uint32(size)
}

type componentDecl struct {
	key     string
	value   schema.ComponentValue
	comment *schema.Comment
}

// parseComponents reads `WITH COMPONENTS { ... })` after the opening
// parenthesis.
func parseComponents(ctx *parseCtx) *schema.WithComponents {
	ctx.skip()
	start := ctx.offset
	ctx.keyword("WITH")
	ctx.keyword("COMPONENTS")
	ctx.sigil(T_OPEN_CURL)
	treeComment := ctx.comment()

	var decls []*componentDecl
	for ctx.err == nil {
		decl := &componentDecl{key: ctx.fieldName()}
		ctx.sigil(T_OPEN_PAREN)
		ctx.skip()
		if ctx.err == nil && ctx.token.Kind == T_IDENT && ctx.readToken() == "WITH" {
			decl.value = parseComponents(ctx)
		} else {
			decl.value = parseComponentValue(ctx)
			ctx.sigil(T_CLOSE_PAREN)
		}
		decl.comment = ctx.comment()
		decls = append(decls, decl)
		if !ctx.trySigil(T_COMMA) {
			break
		}
		if comment := ctx.comment(); decl.comment == nil {
			decl.comment = comment
		}
	}
	ctx.sigil(T_CLOSE_CURL)
	ctx.sigil(T_CLOSE_PAREN)
	if ctx.err != nil {
		return nil
	}

	items := make([]*schema.ComponentsItem, 0, len(decls))
	for _, decl := range decls {
		items = append(items, schema.NewComponentsItem(decl.key, decl.value, decl.comment))
	}
	components, err := schema.NewWithComponents(items, treeComment)
	if err != nil {
		ctx.failSchema(err, start)
		return nil
	}
	return components
}

func parseComponentValue(ctx *parseCtx) schema.ComponentValue {
	ctx.skip()
	if ctx.err != nil {
		return nil
	}
	switch ctx.token.Kind {
	case T_INT_LIT:
		return schema.NewIntValue(ctx.intLit())
	case T_REAL_LIT:
		return schema.RealValue(ctx.realLit())
	case T_IDENT:
		switch ctx.readToken() {
		case "TRUE":
			ctx.consumeToken()
			return schema.BoolValue(true)
		case "FALSE":
			ctx.consumeToken()
			return schema.BoolValue(false)
		}
	}
	ctx.fail(errExpectedComponentValue(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan()))
	return nil
}
