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

package testutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"testing"

	"github.com/PTSSpace/APG/schema"
	"github.com/PTSSpace/APG/syntax"
)

// TestdataFS returns the repository's top-level testdata directory.
func TestdataFS() (fs.FS, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("testutil: cannot locate testutil source file")
	}
	root := filepath.Join(filepath.Dir(file), "..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}
	return os.DirFS(root), nil
}

type Diagnostic struct {
	Key     string
	Code    uint32
	Message string
	Pattern *regexp.Regexp
}

// LoadDiagnostics reads a JSON object mapping diagnostic names to their code
// and either an exact message or a message pattern. Keys starting with '_'
// reserve a code without naming a diagnostic.
func LoadDiagnostics(testdata fs.FS, jsonPath string) (map[string]*Diagnostic, error) {
	type raw struct {
		Code    uint32 `json:"code"`
		Message string `json:"message"`
		Pattern string `json:"message_pattern"`
	}

	jsonData, err := fs.ReadFile(testdata, jsonPath)
	if err != nil {
		return nil, err
	}

	var rawDiags map[string]raw
	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.UseNumber()
	if err := decoder.Decode(&rawDiags); err != nil {
		return nil, err
	}

	out := make(map[string]*Diagnostic, len(rawDiags))
	codes := make(map[uint32]struct{}, len(rawDiags))
	for key, raw := range rawDiags {
		if raw.Code == 0 {
			if key[0] == '_' {
				continue
			}
			return nil, fmt.Errorf("diagnostic %q has no code", key)
		}
		if _, conflict := codes[raw.Code]; conflict {
			return nil, fmt.Errorf("duplicate diagnostic code %d", raw.Code)
		}
		codes[raw.Code] = struct{}{}
		if key[0] == '_' {
			continue
		}

		var pattern *regexp.Regexp
		if raw.Pattern != "" {
			pattern, err = regexp.Compile(raw.Pattern)
			if err != nil {
				return nil, err
			}
		}
		out[key] = &Diagnostic{
			Key:     key,
			Code:    raw.Code,
			Message: raw.Message,
			Pattern: pattern,
		}
	}
	return out, nil
}

// ExpectDiagnostic checks a code and message against a loaded diagnostic.
func ExpectDiagnostic(t *testing.T, want *Diagnostic, code uint32, message string) {
	t.Helper()
	ExpectEq(t, want.Code, code)
	if want.Pattern != nil {
		ExpectMatch(t, want.Pattern, message)
	} else if want.Message != "" {
		ExpectEq(t, want.Message, message)
	}
}

// ExpectedError is the content of an expect_err.json file. Message is
// optional and, when set, must match exactly.
type ExpectedError struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func LoadExpectedError(t *testing.T, testdata fs.FS, jsonPath string) *ExpectedError {
	t.Helper()
	jsonData, err := fs.ReadFile(testdata, jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var expect ExpectedError
	if err := json.Unmarshal(jsonData, &expect); err != nil {
		t.Fatal(err)
	}
	return &expect
}

// LoadExpectedWarnings reads the diagnostic names listed in an
// expect_warn.json file.
func LoadExpectedWarnings(t *testing.T, testdata fs.FS, jsonPath string) []string {
	t.Helper()
	jsonData, err := fs.ReadFile(testdata, jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var expect struct {
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(jsonData, &expect); err != nil {
		t.Fatal(err)
	}
	return expect.Warnings
}

// ErrorKind maps a kind name used in test fixtures to its value.
func ErrorKind(t *testing.T, name string) schema.ErrorKind {
	t.Helper()
	for _, kind := range []schema.ErrorKind{
		schema.ConsistencyError,
		schema.DependencyError,
		schema.RangeOverflowError,
		schema.UnresolvedSizeError,
		schema.CyclicDependencyError,
	} {
		if kind.String() == name {
			return kind
		}
	}
	t.Fatalf("unknown error kind %q", name)
	return 0
}

// ParseModules parses every `.asn` file of a testdata directory, in file
// name order.
func ParseModules(t *testing.T, testdata fs.FS, dir string) []*schema.Module {
	t.Helper()
	entries, err := fs.ReadDir(testdata, dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && path.Ext(entry.Name()) == ".asn" {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)

	var modules []*schema.Module
	for _, name := range names {
		srcPath := path.Join(dir, name)
		src, err := fs.ReadFile(testdata, srcPath)
		if err != nil {
			t.Fatal(err)
		}
		m, err := syntax.Parse(src)
		if err != nil {
			t.Fatalf("%s: %v", srcPath, err)
		}
		modules = append(modules, m)
	}
	return modules
}

// ParseModule parses schema text, failing the test on error.
func ParseModule(t *testing.T, src string) *schema.Module {
	t.Helper()
	m, err := syntax.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse error: %v\n%s", err, src)
	}
	return m
}
