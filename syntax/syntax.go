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

// Package syntax parses ASN.1 subset schema text into [schema.Module] values.
//
// The accepted language is a single module per source:
//
//	Module-example DEFINITIONS AUTOMATIC TAGS ::= BEGIN
//	IMPORTS Point FROM Module-geometry;
//	Speed ::= INTEGER (0..2047) -- [m/s] ground speed
//	Report ::= SEQUENCE {
//		speed Speed,
//		where Point (WITH COMPONENTS { x (0), y (0) })
//	}
//	END
//
// A `--` comment attaches to the construct it follows.
package syntax

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/PTSSpace/APG/schema"
)

const modulePrefix = "Module-"

var (
	typeNameRegex  = regexp.MustCompile(`^[A-Z][a-z0-9]*(-[a-z0-9]+)*$`)
	lowerNameRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)
	unitRegex      = regexp.MustCompile(`^[%A-Za-z0-9/^]+$`)
)

type ParseOption interface {
	apply(*ParseOptions)
}

type parseOption func(*ParseOptions)

func (f parseOption) apply(opts *ParseOptions) { f(opts) }

// DiscardComments checks comments for validity but leaves them off the
// parsed model.
func DiscardComments() ParseOption {
	return parseOption(func(opts *ParseOptions) {
		opts.saveComments = false
	})
}

func Parse(src []byte, opts ...ParseOption) (*schema.Module, error) {
	return NewParseOptions(opts...).ParseModule(src)
}

// ParseMany parses each source independently. Modules do not reference each
// other until they are resolved into a bundle.
func ParseMany(srcs [][]byte, opts ...ParseOption) ([]*schema.Module, error) {
	parseOpts := NewParseOptions(opts...)
	modules := make([]*schema.Module, 0, len(srcs))
	for ii, src := range srcs {
		m, err := parseOpts.ParseModule(src)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", ii, err)
		}
		modules = append(modules, m)
	}
	return modules, nil
}

type ParseOptions struct {
	saveComments bool
}

func NewParseOptions(opts ...ParseOption) *ParseOptions {
	parseOpts := &ParseOptions{
		saveComments: true,
	}
	for _, opt := range opts {
		opt.apply(parseOpts)
	}
	return parseOpts
}

func (opts *ParseOptions) ParseModule(src []byte) (*schema.Module, error) {
	ctx, err := newParseCtx(opts, src)
	if err != nil {
		return nil, err
	}
	m := parseModule(ctx)
	if ctx.err != nil {
		return nil, ctx.err
	}
	return m, nil
}

type parseCtx struct {
	src       []byte
	opts      *ParseOptions
	tokens    *Tokens
	haveToken bool
	token     Token
	err       error
	offset    uint32
}

func newParseCtx(opts *ParseOptions, src []byte) (*parseCtx, error) {
	tokens, err := NewTokens(src)
	if err != nil {
		return nil, err
	}
	return &parseCtx{
		src:    src,
		opts:   opts,
		tokens: tokens,
	}, nil
}

func (ctx *parseCtx) ensureToken() error {
	if ctx.err != nil {
		return ctx.err
	}
	if ctx.haveToken {
		return nil
	}
	if err := ctx.tokens.Next(&ctx.token); err != nil {
		ctx.err = err
		return ctx.err
	}
	ctx.haveToken = true
	return nil
}

func (ctx *parseCtx) readToken() string {
	return string(ctx.src[:ctx.token.Len])
}

func (ctx *parseCtx) consumeToken() {
	ctx.src = ctx.src[ctx.token.Len:]
	ctx.offset += uint32(ctx.token.Len)
	ctx.haveToken = false
}

func (ctx *parseCtx) tokenSpan() Span {
	return Span{
		start: ctx.offset,
		len:   uint32(ctx.token.Len),
	}
}

func (ctx *parseCtx) spanFrom(start uint32) Span {
	return Span{
		start: start,
		len:   ctx.offset - start,
	}
}

func (ctx *parseCtx) fail(err error) {
	if ctx.err == nil {
		ctx.err = err
	}
}

func (ctx *parseCtx) failSchema(err error, start uint32) {
	ctx.fail(errSchema(err, ctx.spanFrom(start)))
}

// space skips whitespace and newlines, leaving comments in place.
func (ctx *parseCtx) space() {
	for {
		if err := ctx.ensureToken(); err != nil {
			return
		}
		switch ctx.token.Kind {
		case T_SPACE, T_NEWLINE:
			ctx.consumeToken()
		default:
			return
		}
	}
}

// skip skips whitespace, newlines and comments that have no owner.
func (ctx *parseCtx) skip() {
	for {
		ctx.space()
		if ctx.err != nil || ctx.token.Kind != T_COMMENT {
			return
		}
		ctx.consumeToken()
	}
}

// comment consumes an optional comment following the current construct.
func (ctx *parseCtx) comment() *schema.Comment {
	ctx.space()
	if ctx.err != nil || ctx.token.Kind != T_COMMENT {
		return nil
	}
	span := ctx.tokenSpan()
	comment, err := parseComment(ctx.readToken(), span)
	if err != nil {
		ctx.fail(err)
		return nil
	}
	ctx.consumeToken()
	if !ctx.opts.saveComments {
		return nil
	}
	return comment
}

func parseComment(raw string, span Span) (*schema.Comment, error) {
	body := strings.TrimSpace(strings.TrimPrefix(raw, "--"))
	comment := &schema.Comment{}
	if rest, ok := strings.CutPrefix(body, "ENDIANNESS(LITTLE)"); ok {
		comment.LittleEndian = true
		body = strings.TrimSpace(rest)
	}
	if strings.HasPrefix(body, "[") {
		end := strings.IndexByte(body, ']')
		if end < 0 {
			return nil, errCommentInvalid("unterminated unit", span)
		}
		unit := body[1:end]
		if !unitRegex.MatchString(unit) {
			return nil, errCommentInvalid(fmt.Sprintf("invalid unit %q", unit), span)
		}
		comment.Unit = unit
		body = strings.TrimSpace(body[end+1:])
	}
	if strings.ContainsAny(body, "[]") {
		return nil, errCommentInvalid("text must not contain '[' or ']'", span)
	}
	if strings.Contains(body, "--") {
		return nil, errCommentInvalid("text must not contain '--'", span)
	}
	comment.Text = body
	return comment, nil
}

func (ctx *parseCtx) sigil(kind TokenKind) {
	ctx.skip()
	if ctx.err != nil {
		return
	}
	if ctx.token.Kind != kind {
		ctx.fail(errExpectedSigil(kind, ctx.token.Kind, ctx.readToken(), ctx.tokenSpan()))
		return
	}
	ctx.consumeToken()
}

func (ctx *parseCtx) trySigil(kind TokenKind) bool {
	ctx.skip()
	if ctx.err != nil || ctx.token.Kind != kind {
		return false
	}
	ctx.consumeToken()
	return true
}

func (ctx *parseCtx) keyword(keyword string) {
	if !ctx.tryKeyword(keyword) && ctx.err == nil {
		ctx.fail(errExpectedKeyword(keyword, ctx.token.Kind, ctx.readToken(), ctx.tokenSpan()))
	}
}

func (ctx *parseCtx) tryKeyword(keyword string) bool {
	ctx.skip()
	if ctx.err != nil || ctx.token.Kind != T_IDENT {
		return false
	}
	if ctx.readToken() != keyword {
		return false
	}
	ctx.consumeToken()
	return true
}

// peekComponents reports whether the current token opens a
// `(WITH COMPONENTS ...)` clause rather than a range.
func (ctx *parseCtx) peekComponents() bool {
	if ctx.token.Kind != T_OPEN_PAREN {
		return false
	}
	lookahead := *ctx.tokens
	var token Token
	for {
		rest := lookahead.src
		if err := lookahead.Next(&token); err != nil {
			return false
		}
		switch token.Kind {
		case T_SPACE, T_NEWLINE, T_COMMENT:
			continue
		case T_IDENT:
			return string(rest[:token.Len]) == "WITH"
		default:
			return false
		}
	}
}

// ident reads an identifier and checks it against regex. When the token
// is not an acceptable identifier, expected builds the error.
func (ctx *parseCtx) ident(
	regex *regexp.Regexp,
	expected func(TokenKind, string, Span) error,
) string {
	ctx.skip()
	if ctx.err != nil {
		return ""
	}
	token := ctx.readToken()
	if ctx.token.Kind != T_IDENT || !regex.MatchString(token) {
		ctx.fail(expected(ctx.token.Kind, token, ctx.tokenSpan()))
		return ""
	}
	ctx.consumeToken()
	return token
}

func (ctx *parseCtx) typeName() string {
	return ctx.ident(typeNameRegex, errExpectedTypeName)
}

func (ctx *parseCtx) fieldName() string {
	return ctx.ident(lowerNameRegex, errExpectedFieldName)
}

func (ctx *parseCtx) moduleName() string {
	ctx.skip()
	if ctx.err != nil {
		return ""
	}
	token := ctx.readToken()
	name, ok := strings.CutPrefix(token, modulePrefix)
	if ctx.token.Kind != T_IDENT || !ok || !lowerNameRegex.MatchString(name) {
		ctx.fail(errExpectedModuleName(ctx.token.Kind, token, ctx.tokenSpan()))
		return ""
	}
	ctx.consumeToken()
	return name
}

func (ctx *parseCtx) intLit() *big.Int {
	ctx.skip()
	if ctx.err != nil {
		return nil
	}
	token := ctx.readToken()
	if ctx.token.Kind != T_INT_LIT {
		ctx.fail(errExpectedIntLit(ctx.token.Kind, token, ctx.tokenSpan()))
		return nil
	}
	value, ok := new(big.Int).SetString(token, 10)
	if !ok {
		ctx.fail(errExpectedIntLit(ctx.token.Kind, token, ctx.tokenSpan()))
		return nil
	}
	ctx.consumeToken()
	return value
}

func (ctx *parseCtx) uintLit(limit uint64) uint64 {
	ctx.skip()
	if ctx.err != nil {
		return 0
	}
	token := ctx.readToken()
	if ctx.token.Kind != T_INT_LIT {
		ctx.fail(errExpectedIntLit(ctx.token.Kind, token, ctx.tokenSpan()))
		return 0
	}
	value, err := strconv.ParseUint(token, 10, 64)
	if err != nil || value > limit {
		ctx.fail(errIntLitOutOfRange(token, limit, ctx.tokenSpan()))
		return 0
	}
	ctx.consumeToken()
	return value
}

// realLit reads an integer or real literal as a float64. Literals beyond the
// float64 range become infinities and are rejected by the range checks.
func (ctx *parseCtx) realLit() float64 {
	ctx.skip()
	if ctx.err != nil {
		return 0
	}
	token := ctx.readToken()
	if ctx.token.Kind != T_INT_LIT && ctx.token.Kind != T_REAL_LIT {
		ctx.fail(errExpectedNumLit(ctx.token.Kind, token, ctx.tokenSpan()))
		return 0
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		ctx.fail(errExpectedNumLit(ctx.token.Kind, token, ctx.tokenSpan()))
		return 0
	}
	ctx.consumeToken()
	return value
}

func (ctx *parseCtx) atEOF() {
	ctx.skip()
	if ctx.err != nil {
		return
	}
	if ctx.token.Kind != T_EOF {
		ctx.fail(errTrailingContent(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan()))
	}
}
