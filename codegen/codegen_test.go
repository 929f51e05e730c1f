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

package codegen_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/PTSSpace/APG/codegen"
	"github.com/PTSSpace/APG/compiler"
	"github.com/PTSSpace/APG/internal/testutil"
	"github.com/PTSSpace/APG/schema"
)

const baseSrc = `Module-base DEFINITIONS AUTOMATIC TAGS ::= BEGIN
Level ::= INTEGER (0..100) -- [%] fill level
Flag ::= BOOLEAN
END
`

const appSrc = `Module-app DEFINITIONS AUTOMATIC TAGS ::= BEGIN
IMPORTS Level FROM Module-base;
Mode ::= ENUMERATED { off, on }
Status ::= CHOICE {
	level Level,
	mode Mode,
	pairs SEQUENCE (SIZE (2)) OF Pair,
	pair Pair (WITH COMPONENTS { a (1), b (0.5) })
}
Pair ::= SEQUENCE {
	a INTEGER (-1..1),
	b REAL (0.0..2.5)
}
END
`

func u32(v uint32) *uint32 {
	return &v
}

func buildBundle(t *testing.T) *compiler.Bundle {
	t.Helper()
	bundle, err := compiler.BuildBundle([]*schema.Module{
		testutil.ParseModule(t, appSrc),
		testutil.ParseModule(t, baseSrc),
	})
	testutil.AssertNoError(t, err)
	return bundle
}

func TestNewRequest(t *testing.T) {
	t.Parallel()
	req, err := codegen.NewRequest(
		buildBundle(t),
		codegen.WithPluginOptions(map[string]string{"prefix": "tm"}),
	)
	testutil.AssertNoError(t, err)

	pairType := func() *codegen.Type {
		return &codegen.Type{
			Name:     "Pair",
			Kind:     "UNRESOLVED",
			Resolved: &codegen.Reference{Module: "app", Name: "Pair", Kind: "SEQUENCE"},
			Bits:     u32(40),
		}
	}
	want := &codegen.Request{
		Modules: []*codegen.Module{
			{
				Name: "base",
				Definitions: []*codegen.Definition{
					{
						Name:    "Level",
						Kind:    "SIMPLE",
						Comment: &codegen.Comment{Text: "fill level", Unit: "%"},
						Bits:    u32(7),
						Type: &codegen.Type{
							Name:        "INTEGER",
							Kind:        "UINT",
							Range:       &codegen.Range{Begin: "0", End: "100"},
							Bits:        u32(7),
							StorageBits: 8,
						},
					},
					{
						Name: "Flag",
						Kind: "SIMPLE",
						Bits: u32(1),
						Type: &codegen.Type{
							Name:        "BOOLEAN",
							Kind:        "BOOL",
							Bits:        u32(1),
							StorageBits: 8,
						},
					},
				},
			},
			{
				Name: "app",
				Imports: []*codegen.Import{
					{Module: "base", Names: []string{"Level"}},
				},
				Definitions: []*codegen.Definition{
					{
						Name: "Mode",
						Kind: "ENUMERATED",
						Bits: u32(1),
						Items: []*codegen.EnumItem{
							{Name: "off", Position: 0},
							{Name: "on", Position: 1},
						},
					},
					{
						Name: "Pair",
						Kind: "SEQUENCE",
						Bits: u32(40),
						Fields: []*codegen.Field{
							{
								Key: "a",
								Type: &codegen.Type{
									Name:        "INTEGER",
									Kind:        "INT",
									Range:       &codegen.Range{Begin: "-1", End: "1"},
									Bits:        u32(8),
									StorageBits: 8,
								},
							},
							{
								Key: "b",
								Type: &codegen.Type{
									Name:        "REAL",
									Kind:        "FLOAT",
									Range:       &codegen.Range{Begin: "0.0", End: "2.5", Real: true},
									Bits:        u32(32),
									StorageBits: 32,
								},
							},
						},
					},
					{
						Name: "Status",
						Kind: "CHOICE",
						Fields: []*codegen.Field{
							{
								Key: "level",
								Type: &codegen.Type{
									Name:        "Level",
									Kind:        "UNRESOLVED",
									Resolved:    &codegen.Reference{Module: "base", Name: "Level", Kind: "SIMPLE"},
									Bits:        u32(7),
									StorageBits: 8,
								},
							},
							{
								Key: "mode",
								Type: &codegen.Type{
									Name:     "Mode",
									Kind:     "UNRESOLVED",
									Resolved: &codegen.Reference{Module: "app", Name: "Mode", Kind: "ENUMERATED"},
									Bits:     u32(1),
								},
							},
							{
								Key: "pairs",
								Type: &codegen.Type{
									Name: "Pair",
									Kind: "UNRESOLVED",
									Array: &codegen.Array{
										Count:   2,
										Element: pairType(),
									},
									Bits: u32(16),
								},
							},
							{
								Key:  "pair",
								Type: pairType(),
								Components: []*codegen.ComponentItem{
									{Key: "a", Kind: "INT", Value: "1"},
									{Key: "b", Kind: "REAL", Value: "0.5"},
								},
							},
						},
					},
				},
			},
		},
		SimpleAliases: map[string][]string{"Level": {"app"}},
		Options:       map[string]string{"prefix": "tm"},
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("NewRequest() mismatch (-want +got):\n%s", diff)
	}

	data, err := codegen.EncodeRequest(req)
	testutil.AssertNoError(t, err)
	decoded, err := codegen.DecodeRequest(data)
	testutil.AssertNoError(t, err)
	if diff := cmp.Diff(req, decoded); diff != "" {
		t.Errorf("DecodeRequest() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRequestInvalid(t *testing.T) {
	t.Parallel()
	_, err := codegen.DecodeRequest([]byte(`{"modules": 1}`))
	var codegenErr *codegen.Error
	if !errors.As(err, &codegenErr) {
		t.Fatalf("expected *codegen.Error, got %T: %v", err, err)
	}
	testutil.ExpectEq(t, 5000, codegenErr.Code())
}

func TestResponseFrame(t *testing.T) {
	t.Parallel()
	resp := &codegen.Response{
		OutputFiles: []*codegen.OutputFile{
			{Path: []string{"include", "app.h"}, Content: "#pragma once\n"},
		},
	}
	data, err := codegen.EncodeResponse(resp)
	testutil.AssertNoError(t, err)

	frame := codegen.AppendFrame(nil, data)
	testutil.ExpectEq(t, len(data)+4, len(frame))
	got, err := codegen.DecodeResponseFrame(frame)
	testutil.AssertNoError(t, err)
	if diff := cmp.Diff(resp, got); diff != "" {
		t.Errorf("DecodeResponseFrame() mismatch (-want +got):\n%s", diff)
	}
	testutil.ExpectNoError(t, got.Check())

	_, err = codegen.DecodeResponseFrame(frame[:len(frame)-1])
	testutil.ExpectMatch(t, `^E5002: Codegen response truncated: expected \d+ bytes, got \d+$`, err.Error())
	_, err = codegen.DecodeResponseFrame([]byte{1, 0})
	testutil.ExpectEq(t, "E5002: Codegen response truncated: expected 4 bytes, got 2", err.Error())
}

func TestResponseCheck(t *testing.T) {
	t.Parallel()
	file := func(path ...string) *codegen.OutputFile {
		return &codegen.OutputFile{Path: path}
	}
	tests := []struct {
		name string
		resp *codegen.Response
		code uint32
	}{
		{"plugin_error", &codegen.Response{Error: "no backend for REAL\n"}, 5003},
		{"no_files", &codegen.Response{}, 5004},
		{"empty_path", &codegen.Response{OutputFiles: []*codegen.OutputFile{file()}}, 5005},
		{"dot_dot", &codegen.Response{OutputFiles: []*codegen.OutputFile{file("..", "x.h")}}, 5006},
		{"empty_part", &codegen.Response{OutputFiles: []*codegen.OutputFile{file("a", "")}}, 5006},
		{"absolute", &codegen.Response{OutputFiles: []*codegen.OutputFile{file("/etc")}}, 5006},
		{"separator", &codegen.Response{OutputFiles: []*codegen.OutputFile{file("a/b.h")}}, 5006},
		{"duplicate", &codegen.Response{OutputFiles: []*codegen.OutputFile{file("a.h"), file("a.h")}}, 5007},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			err := test.resp.Check()
			var codegenErr *codegen.Error
			if !errors.As(err, &codegenErr) {
				t.Fatalf("expected *codegen.Error, got %T: %v", err, err)
			}
			testutil.ExpectEq(t, test.code, codegenErr.Code())
		})
	}
}

func TestResponseCheckTrimsPluginError(t *testing.T) {
	t.Parallel()
	err := (&codegen.Response{Error: "no backend for REAL\n"}).Check()
	testutil.ExpectEq(t, "E5003: Plugin reported an error: no backend for REAL", err.Error())
}

func TestOutPath(t *testing.T) {
	t.Parallel()
	got, err := codegen.OutPath("gen", []string{"include", "app.h"})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, filepath.Join("gen", "include", "app.h"), got)

	_, err = codegen.OutPath("gen", []string{"include", "."})
	testutil.ExpectEq(t,
		`E5006: Invalid output path ["include" "."]: bad path component "."`,
		err.Error())
}
