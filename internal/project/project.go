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

// Package project loads `apg.hcl` project files.
//
//	schemas = ["${project_dir}/schemas/a.asn", "b.asn"]
//	modules = ["a", "b"]
//
//	codegen "c" {
//	  plugin  = "apg-codegen-c.wasm"
//	  output  = "gen/c"
//	  options = { prefix = "tm" }
//	}
//
// Relative paths resolve against the directory holding the project file.
package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/PTSSpace/APG/internal/ctxlog"
)

type Project struct {
	Dir     string
	Schemas []string
	// Modules is the expected module set, or nil when the file does not
	// set one or sets it empty.
	Modules []string
	Codegen []*Codegen
}

type Codegen struct {
	Language string
	Plugin   string
	Output   string
	Options  map[string]string
}

type fileRoot struct {
	Schemas []string        `hcl:"schemas,optional"`
	Modules []string        `hcl:"modules,optional"`
	Codegen []*codegenBlock `hcl:"codegen,block"`
}

type codegenBlock struct {
	Language string            `hcl:"language,label"`
	Plugin   string            `hcl:"plugin"`
	Output   string            `hcl:"output"`
	Options  map[string]string `hcl:"options,optional"`
	DefRange hcl.Range         `hcl:",def_range"`
}

// Load reads and decodes a project file.
func Load(ctx context.Context, path string) (*Project, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(ctx, src, path)
}

// Parse decodes project file content. The file name locates diagnostics
// and sets the project directory.
func Parse(ctx context.Context, src []byte, filename string) (*Project, error) {
	logger := ctxlog.FromContext(ctx)

	dir, err := filepath.Abs(filepath.Dir(filename))
	if err != nil {
		return nil, err
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse project file %s: %w", filename, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"project_dir": cty.StringVal(dir),
		},
	}
	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode project file %s: %w", filename, diags)
	}

	project := &Project{Dir: dir}
	for _, schema := range root.Schemas {
		project.Schemas = append(project.Schemas, resolvePath(dir, schema))
	}
	if len(root.Modules) > 0 {
		project.Modules = root.Modules
	}

	seen := make(map[string]*codegenBlock, len(root.Codegen))
	for _, block := range root.Codegen {
		if prev, dup := seen[block.Language]; dup {
			return nil, fmt.Errorf("failed to decode project file %s: %w", filename, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Duplicate \"codegen\" block %q", block.Language),
				Detail:   fmt.Sprintf("A codegen block for %q was already declared at %s.", block.Language, prev.DefRange),
				Subject:  &block.DefRange,
			}})
		}
		seen[block.Language] = block
		project.Codegen = append(project.Codegen, &Codegen{
			Language: block.Language,
			Plugin:   resolvePath(dir, block.Plugin),
			Output:   resolvePath(dir, block.Output),
			Options:  block.Options,
		})
	}

	logger.Debug("Loaded project file.",
		"path", filename,
		"schemas", len(project.Schemas),
		"codegen", len(project.Codegen),
	)
	return project, nil
}

// CodegenFor returns the codegen block for a language.
func (p *Project) CodegenFor(language string) (*Codegen, bool) {
	for _, cg := range p.Codegen {
		if cg.Language == language {
			return cg, true
		}
	}
	return nil, false
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}
