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
	"fmt"
	"math"
	"unicode/utf8"
)

const (
	maxSrcLen   = 0x7FFFFFFF // (2**31)-1
	maxTokenLen = int(math.MaxUint16)
)

type Span struct {
	start, len uint32
}

func NewSpan(start, len uint32) Span {
	return Span{start, len}
}

func (s Span) Start() uint32 {
	return s.start
}

func (s Span) End() uint32 {
	return s.start + s.len
}

func (s Span) Len() uint32 {
	return s.len
}

// Position converts the start of a span to a 1-based line and column (in
// bytes) within src.
func Position(src []byte, span Span) (line, column int) {
	line, column = 1, 1
	for ii, c := range src {
		if uint32(ii) >= span.start {
			break
		}
		if c == '\n' {
			line += 1
			column = 1
		} else {
			column += 1
		}
	}
	return line, column
}

type Token struct {
	Len  uint16
	Kind TokenKind
}

type TokenKind uint8

const (
	T_EOF TokenKind = iota

	T_SPACE
	T_NEWLINE
	T_COMMENT

	T_ASSIGN
	T_RANGE
	T_COMMA
	T_SEMICOLON

	T_OPEN_CURL
	T_CLOSE_CURL
	T_OPEN_PAREN
	T_CLOSE_PAREN

	T_INT_LIT
	T_REAL_LIT

	T_IDENT
)

func (k TokenKind) String() string {
	switch k {
	case T_EOF:
		return "EOF"
	case T_SPACE:
		return "SPACE"
	case T_NEWLINE:
		return "NEWLINE"
	case T_COMMENT:
		return "COMMENT"
	case T_ASSIGN:
		return "ASSIGN"
	case T_RANGE:
		return "RANGE"
	case T_COMMA:
		return "COMMA"
	case T_SEMICOLON:
		return "SEMICOLON"
	case T_OPEN_CURL:
		return "OPEN_CURL"
	case T_CLOSE_CURL:
		return "CLOSE_CURL"
	case T_OPEN_PAREN:
		return "OPEN_PAREN"
	case T_CLOSE_PAREN:
		return "CLOSE_PAREN"
	case T_INT_LIT:
		return "INT_LIT"
	case T_REAL_LIT:
		return "REAL_LIT"
	case T_IDENT:
		return "IDENT"
	default:
		return fmt.Sprintf("TokenKind(%d)", uint8(k))
	}
}

type Tokens struct {
	src    []byte
	offset uint32
}

func NewTokens(src []byte) (*Tokens, error) {
	if len(src) > maxSrcLen {
		return nil, errSourceTooLong(len(src))
	}
	if !utf8.Valid(src) {
		return nil, errInvalidUtf8(src)
	}
	return &Tokens{
		src: src,
	}, nil
}

func (t *Tokens) Next(token *Token) error {
	if len(t.src) == 0 {
		*token = Token{
			Kind: T_EOF,
		}
		return nil
	}

	c := t.src[0]
	var kind TokenKind
	switch c {
	case '\t', ' ':
		return t.nextSpace(token)
	case '\n':
		kind = T_NEWLINE
		goto len1
	case ',':
		kind = T_COMMA
		goto len1
	case ';':
		kind = T_SEMICOLON
		goto len1
	case '{':
		kind = T_OPEN_CURL
		goto len1
	case '}':
		kind = T_CLOSE_CURL
		goto len1
	case '(':
		kind = T_OPEN_PAREN
		goto len1
	case ')':
		kind = T_CLOSE_PAREN
		goto len1
	case ':':
		if len(t.src) < 3 || t.src[1] != ':' || t.src[2] != '=' {
			return errUnexpectedCharacter(t.offset, ':')
		}
		return t.emit(token, T_ASSIGN, 3)
	case '.':
		if len(t.src) < 2 || t.src[1] != '.' {
			return errUnexpectedCharacter(t.offset, '.')
		}
		return t.emit(token, T_RANGE, 2)
	case '-':
		if len(t.src) >= 2 && t.src[1] == '-' {
			return t.nextComment(token)
		}
		if len(t.src) >= 2 && isDigit(t.src[1]) {
			return t.nextNumLit(token)
		}
		return errUnexpectedCharacter(t.offset, '-')
	case '\r':
		if len(t.src) < 2 || t.src[1] != '\n' {
			return errForbiddenControlCharacter(t.offset, c)
		}
		return t.emit(token, T_NEWLINE, 2)
	default:
		goto big
	}

len1:
	return t.emit(token, kind, 1)

big:
	if isDigit(c) {
		return t.nextNumLit(token)
	}

	if isLetter(c) {
		return t.nextIdent(token)
	}

	r, _ := utf8.DecodeRune(t.src)
	if r == ' ' {
		return t.nextSpace(token)
	}

	if r < 0x20 || r == 0x7F {
		return errForbiddenControlCharacter(t.offset, c)
	}
	return errUnexpectedCharacter(t.offset, r)
}

func (t *Tokens) emit(token *Token, kind TokenKind, tokenLen int) error {
	checkedLen, err := t.checkTokenLen(tokenLen)
	if err != nil {
		return err
	}
	*token = Token{
		Kind: kind,
		Len:  checkedLen,
	}
	t.offset += uint32(checkedLen)
	t.src = t.src[checkedLen:]
	return nil
}

func (t *Tokens) nextSpace(token *Token) error {
	src := t.src
	for len(src) > 0 {
		if src[0] == ' ' || src[0] == '\t' {
			src = src[1:]
		} else if r, runeLen := utf8.DecodeRune(src); r == ' ' {
			src = src[runeLen:]
		} else {
			break
		}
	}
	return t.emit(token, T_SPACE, len(t.src)-len(src))
}

// nextComment reads a `--` comment up to the end of the line.
func (t *Tokens) nextComment(token *Token) error {
	tokenLen := len(t.src)
	for ii, c := range t.src {
		if c == '\n' || c == '\r' {
			tokenLen = ii
			break
		}
	}
	return t.emit(token, T_COMMENT, tokenLen)
}

// nextNumLit reads `-?[0-9]+` optionally followed by a fraction and an
// exponent. A `.` is only part of the number when a digit follows it, so
// `0..7` lexes as INT RANGE INT.
func (t *Tokens) nextNumLit(token *Token) error {
	src := t.src
	ii := 0
	if src[0] == '-' {
		ii += 1
	}
	for ii < len(src) && isDigit(src[ii]) {
		ii += 1
	}

	kind := T_INT_LIT
	if ii+1 < len(src) && src[ii] == '.' && isDigit(src[ii+1]) {
		kind = T_REAL_LIT
		ii += 1
		for ii < len(src) && isDigit(src[ii]) {
			ii += 1
		}
	}
	if ii < len(src) && (src[ii] == 'e' || src[ii] == 'E') {
		jj := ii + 1
		if jj < len(src) && (src[jj] == '+' || src[jj] == '-') {
			jj += 1
		}
		if jj >= len(src) || !isDigit(src[jj]) {
			return errNumLitInvalid(t.offset, src[:min(jj, len(src))])
		}
		for jj < len(src) && isDigit(src[jj]) {
			jj += 1
		}
		kind = T_REAL_LIT
		ii = jj
	}
	if ii < len(src) && isLetter(src[ii]) {
		end := ii
		for end < len(src) && (isLetter(src[end]) || isDigit(src[end])) {
			end += 1
		}
		return errNumLitInvalid(t.offset, src[:end])
	}
	return t.emit(token, kind, ii)
}

// nextIdent reads `[A-Za-z][A-Za-z0-9]*(-[A-Za-z0-9]+)*`. A hyphen is only
// part of the identifier when an alphanumeric follows it.
func (t *Tokens) nextIdent(token *Token) error {
	src := t.src
	ii := 1
	for ii < len(src) {
		c := src[ii]
		if isLetter(c) || isDigit(c) {
			ii += 1
			continue
		}
		if c == '-' && ii+1 < len(src) && (isLetter(src[ii+1]) || isDigit(src[ii+1])) {
			ii += 2
			continue
		}
		break
	}
	return t.emit(token, T_IDENT, ii)
}

func (t *Tokens) checkTokenLen(len int) (uint16, error) {
	if len > maxTokenLen {
		return 0, errTokenTooLong(t.offset, len)
	}
	return uint16(len), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
