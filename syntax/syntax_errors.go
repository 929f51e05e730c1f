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
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/PTSSpace/APG/schema"
)

// Error is a lexing or parsing failure at a byte span of the source. Errors
// raised by the schema model while building nodes are wrapped, so
// [errors.Is] still matches their [schema.ErrorKind].
type Error struct {
	code    uint32
	message string
	span    Span
	cause   error
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() Span {
	return err.span
}

func (err *Error) Unwrap() error {
	return err.cause
}

func clampLen(n int) uint32 {
	if uint64(n) < math.MaxUint32 {
		return uint32(n)
	}
	return math.MaxUint32
}

func errSourceTooLong(srcLen int) error {
	return &Error{
		code: 1000,
		message: fmt.Sprintf(
			"Source file size (%d bytes) exceeds maximum (%d bytes)",
			srcLen, maxSrcLen,
		),
		span: Span{0, clampLen(srcLen)},
	}
}

func errInvalidUtf8(src []byte) error {
	var off uint32
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		if r == utf8.RuneError {
			break
		}
		off += uint32(size)
		src = src[size:]
	}
	return &Error{
		code:    1001,
		message: "Source file contains invalid UTF-8",
		span:    Span{off, 1},
	}
}

func errUnexpectedCharacter(start uint32, r rune) error {
	return &Error{
		code:    1002,
		message: fmt.Sprintf("Unexpected character '%s' (U+%04X)", string(r), r),
		span:    Span{start, uint32(utf8.RuneLen(r))},
	}
}

func errForbiddenControlCharacter(start uint32, c byte) error {
	return &Error{
		code:    1003,
		message: fmt.Sprintf("Forbidden control character U+%04X", c),
		span:    Span{start, 1},
	}
}

func errTokenTooLong(start uint32, tokenLen int) error {
	return &Error{
		code: 1004,
		message: fmt.Sprintf(
			"Token size (%d bytes) exceeds maximum (%d bytes)",
			tokenLen, maxTokenLen,
		),
		span: Span{start, clampLen(tokenLen)},
	}
}

func errNumLitInvalid(start uint32, token []byte) error {
	return &Error{
		code:    1005,
		message: fmt.Sprintf("Invalid numeric literal %q", token),
		span:    Span{start, clampLen(len(token))},
	}
}

func errExpectedSigil(
	wantKind TokenKind,
	gotKind TokenKind,
	gotToken string,
	span Span,
) error {
	var code uint32
	var want string
	switch wantKind {
	case T_ASSIGN:
		code = 1100
		want = "::="
	case T_RANGE:
		code = 1101
		want = ".."
	case T_COMMA:
		code = 1102
		want = ","
	case T_SEMICOLON:
		code = 1103
		want = ";"
	case T_OPEN_CURL:
		code = 1104
		want = "{"
	case T_CLOSE_CURL:
		code = 1105
		want = "}"
	case T_OPEN_PAREN:
		code = 1106
		want = "("
	case T_CLOSE_PAREN:
		code = 1107
		want = ")"
	default:
		panic("unreachable")
	}
	return &Error{
		code:    code,
		message: fmt.Sprintf("Expected sigil '%s', got (%s %q)", want, gotKind, gotToken),
		span:    span,
	}
}

func errExpectedKeyword(keyword string, gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1108,
		message: fmt.Sprintf("Expected keyword '%s', got (%s %q)", keyword, gotKind, gotToken),
		span:    span,
	}
}

func errExpectedIntLit(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1109,
		message: fmt.Sprintf("Expected integer literal, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedNumLit(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1110,
		message: fmt.Sprintf("Expected numeric literal, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedModuleName(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code: 1111,
		message: fmt.Sprintf(
			"Expected module name of the form 'Module-name', got (%s %q)",
			gotKind, gotToken,
		),
		span: span,
	}
}

func errExpectedTypeName(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1112,
		message: fmt.Sprintf("Expected type name, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedFieldName(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1113,
		message: fmt.Sprintf("Expected field name, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedType(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1114,
		message: fmt.Sprintf("Expected type, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedComponentValue(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1115,
		message: fmt.Sprintf("Expected component value, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errTrailingContent(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    1116,
		message: fmt.Sprintf("Unexpected content after 'END', got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errIntLitOutOfRange(token string, max uint64, span Span) error {
	return &Error{
		code:    1117,
		message: fmt.Sprintf("Integer literal %s out of range (must be in 0..%d)", token, max),
		span:    span,
	}
}

func errCommentInvalid(detail string, span Span) error {
	return &Error{
		code:    1118,
		message: fmt.Sprintf("Invalid comment: %s", detail),
		span:    span,
	}
}

// errSchema attaches a source span to a schema model error, keeping its
// code and message.
func errSchema(cause error, span Span) error {
	err := &Error{
		code:    1200,
		message: cause.Error(),
		span:    span,
		cause:   cause,
	}
	var schemaErr *schema.Error
	if errors.As(cause, &schemaErr) {
		err.code = schemaErr.Code()
		err.message = schemaErr.Message()
	}
	return err
}
