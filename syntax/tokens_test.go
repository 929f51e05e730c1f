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

package syntax_test

import (
	"fmt"
	"testing"

	"github.com/PTSSpace/APG/internal/testutil"
	"github.com/PTSSpace/APG/syntax"
)

type strToken struct {
	kind    string
	content string
}

func lexAll(t *testing.T, src string) ([]strToken, error) {
	t.Helper()
	tokens, err := syntax.NewTokens([]byte(src))
	if err != nil {
		return nil, err
	}
	var got []strToken
	for {
		var token syntax.Token
		if err := tokens.Next(&token); err != nil {
			return got, err
		}
		if token.Kind == syntax.T_EOF {
			return got, nil
		}
		got = append(got, strToken{
			kind:    token.Kind.String(),
			content: src[:token.Len],
		})
		src = src[token.Len:]
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		src  string
		want []strToken
	}{
		{"A ::= INTEGER (0..7)", []strToken{
			{"IDENT", "A"},
			{"SPACE", " "},
			{"ASSIGN", "::="},
			{"SPACE", " "},
			{"IDENT", "INTEGER"},
			{"SPACE", " "},
			{"OPEN_PAREN", "("},
			{"INT_LIT", "0"},
			{"RANGE", ".."},
			{"INT_LIT", "7"},
			{"CLOSE_PAREN", ")"},
		}},
		{"-1.5e3..2", []strToken{
			{"REAL_LIT", "-1.5e3"},
			{"RANGE", ".."},
			{"INT_LIT", "2"},
		}},
		{"(-5..1E+2)", []strToken{
			{"OPEN_PAREN", "("},
			{"INT_LIT", "-5"},
			{"RANGE", ".."},
			{"REAL_LIT", "1E+2"},
			{"CLOSE_PAREN", ")"},
		}},
		{"Int8-t -- [m/s] speed\r\n", []strToken{
			{"IDENT", "Int8-t"},
			{"SPACE", " "},
			{"COMMENT", "-- [m/s] speed"},
			{"NEWLINE", "\r\n"},
		}},
		{"Module-a-b2{x,y};", []strToken{
			{"IDENT", "Module-a-b2"},
			{"OPEN_CURL", "{"},
			{"IDENT", "x"},
			{"COMMA", ","},
			{"IDENT", "y"},
			{"CLOSE_CURL", "}"},
			{"SEMICOLON", ";"},
		}},
		{"\tIA5String\n", []strToken{
			{"SPACE", "\t"},
			{"IDENT", "IA5String"},
			{"NEWLINE", "\n"},
		}},
	}
	for ii, test := range tests {
		t.Run(fmt.Sprintf("expect_ok/%d", ii), func(t *testing.T) {
			t.Parallel()
			t.Logf("source: %q", test.src)
			got, err := lexAll(t, test.src)
			testutil.AssertNoError(t, err)
			testutil.ExpectSliceEq(t, test.want, got)
		})
	}
}

func TestTokensErrors(t *testing.T) {
	tests := []struct {
		src   string
		code  uint32
		start uint32
	}{
		{"1abc", 1005, 0},
		{"A : B", 1002, 2},
		{"x 1e", 1005, 2},
		{"a.b", 1002, 1},
		{"a \x01", 1003, 2},
		{"a - b", 1002, 2},
		{"a\rb", 1003, 1},
	}
	for ii, test := range tests {
		t.Run(fmt.Sprintf("expect_err/%d", ii), func(t *testing.T) {
			t.Parallel()
			t.Logf("source: %q", test.src)
			_, err := lexAll(t, test.src)
			testutil.AssertError(t, err)
			syntaxErr, ok := err.(*syntax.Error)
			if !ok {
				t.Fatalf("Expected *syntax.Error, got: %#v", err)
			}
			testutil.ExpectEq(t, test.code, syntaxErr.Code())
			testutil.ExpectEq(t, test.start, syntaxErr.Span().Start())
		})
	}
}

func TestTokensInvalidUtf8(t *testing.T) {
	_, err := syntax.NewTokens([]byte("ab\xff"))
	testutil.AssertError(t, err)
	syntaxErr := err.(*syntax.Error)
	testutil.ExpectEq(t, 1001, syntaxErr.Code())
	testutil.ExpectEq(t, 2, syntaxErr.Span().Start())
}

func TestPosition(t *testing.T) {
	src := []byte("ab\ncd\n\nef")
	line, col := syntax.Position(src, syntax.NewSpan(4, 1))
	testutil.ExpectEq(t, 2, line)
	testutil.ExpectEq(t, 2, col)

	line, col = syntax.Position(src, syntax.NewSpan(7, 2))
	testutil.ExpectEq(t, 4, line)
	testutil.ExpectEq(t, 1, col)
}
