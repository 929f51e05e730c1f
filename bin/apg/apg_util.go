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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PTSSpace/APG/compiler"
	"github.com/PTSSpace/APG/internal/ctxlog"
	"github.com/PTSSpace/APG/internal/project"
	"github.com/PTSSpace/APG/schema"
	"github.com/PTSSpace/APG/syntax"
)

func (env *cmdEnv) printErr(err error) {
	fmt.Fprintln(env.stderr, err)
}

// loadProject reads the --project file, if one was given.
func (env *cmdEnv) loadProject(ctx context.Context) (*project.Project, error) {
	if env.projectPath == "" {
		return nil, nil
	}
	return project.Load(ctx, env.projectPath)
}

// buildBundle parses the project's schemas followed by the files named on
// the command line, then builds and validates the bundle. Diagnostics are
// printed to stderr; a nil bundle means the build failed.
func (env *cmdEnv) buildBundle(
	ctx context.Context,
	proj *project.Project,
	argv []string,
) *compiler.Bundle {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	var paths []string
	if proj != nil {
		paths = append(paths, proj.Schemas...)
	}
	paths = append(paths, argv...)
	if len(paths) == 0 {
		fmt.Fprintln(env.stderr, "No schema files given (pass FILE... or set schemas in --project=)")
		return nil
	}

	modules := make([]*schema.Module, 0, len(paths))
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(env.stderr, err)
			return nil
		}
		m, err := syntax.Parse(src)
		if err != nil {
			fmt.Fprintln(env.stderr, formatParseError(path, src, err))
			return nil
		}
		logger.Debug("Parsed schema.", "path", path, "module", m.Name())
		modules = append(modules, m)
	}

	var opts []compiler.BuildOption
	if expected := env.expectedModules(proj); expected != nil {
		opts = append(opts, compiler.WithExpectedModules(expected...))
	}
	bundle, err := compiler.BuildBundle(modules, opts...)
	if err != nil {
		fmt.Fprintln(env.stderr, err)
		return nil
	}
	for _, warn := range bundle.Warnings() {
		fmt.Fprintf(env.stderr, "%s: %v\n", warn.Module(), warn)
	}
	logger.Info("Built bundle.",
		"modules", len(modules),
		"warnings", len(bundle.Warnings()),
		"elapsed", time.Since(start),
	)
	return bundle
}

// expectedModules prefers --modules over the project file.
func (env *cmdEnv) expectedModules(proj *project.Project) []string {
	if len(env.modules) > 0 {
		return env.modules
	}
	if proj != nil {
		return proj.Modules
	}
	return nil
}

// formatParseError prefixes syntax errors with their file:line:col.
func formatParseError(path string, src []byte, err error) string {
	var syntaxErr *syntax.Error
	if !errors.As(err, &syntaxErr) {
		return fmt.Sprintf("%s: %v", path, err)
	}
	line, col := syntax.Position(src, syntaxErr.Span())
	return fmt.Sprintf("%s:%d:%d: %v", path, line, col, err)
}

// locatePlugin returns name if it names an existing file, and otherwise
// searches the directories listed in $APG_CODEGEN_PLUGIN_PATH.
func locatePlugin(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	if filepath.Base(name) != name {
		return "", fmt.Errorf("Codegen plugin %s not found", name)
	}
	searchPath := os.Getenv("APG_CODEGEN_PLUGIN_PATH")
	for _, dir := range filepath.SplitList(searchPath) {
		pluginPath := filepath.Join(dir, name)
		if _, err := os.Stat(pluginPath); err == nil {
			return pluginPath, nil
		}
	}
	return "", fmt.Errorf(
		"Codegen plugin %s not found in $APG_CODEGEN_PLUGIN_PATH",
		name,
	)
}
