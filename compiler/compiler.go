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

// Package compiler links parsed modules into a [Bundle] and validates it.
//
// [BuildBundle] runs [Resolve] and then [Validate]. The returned bundle is
// read-only: backends walk it through [Bundle.ModulesOrdered] and
// [schema.Module.DefinitionsOrdered].
package compiler

import (
	"maps"
	"slices"

	"github.com/PTSSpace/APG/schema"
)

type BuildOption interface {
	apply(*BuildOptions)
}

type buildOption func(*BuildOptions)

func (f buildOption) apply(opts *BuildOptions) { f(opts) }

type BuildOptions struct {
	expectedModules []string
	checkExpected   bool
}

// WithExpectedModules requires the bundle to contain exactly the named
// modules.
func WithExpectedModules(names ...string) BuildOption {
	return buildOption(func(opts *BuildOptions) {
		opts.expectedModules = slices.Clone(names)
		opts.checkExpected = true
	})
}

func NewBuildOptions(opts ...BuildOption) *BuildOptions {
	buildOpts := &BuildOptions{}
	for _, opt := range opts {
		opt.apply(buildOpts)
	}
	return buildOpts
}

// BuildBundle resolves and validates modules. The modules are linked in
// place before validation, so they are consumed even when the build fails;
// parse the sources again to retry.
func BuildBundle(modules []*schema.Module, opts ...BuildOption) (*Bundle, error) {
	return NewBuildOptions(opts...).BuildBundle(modules)
}

func (opts *BuildOptions) BuildBundle(modules []*schema.Module) (*Bundle, error) {
	bundle, err := Resolve(modules)
	if err != nil {
		return nil, err
	}
	if err := Validate(bundle); err != nil {
		return nil, err
	}
	if opts.checkExpected {
		if err := checkExpectedModules(bundle, opts.expectedModules); err != nil {
			return nil, err
		}
	}
	bundle.warnings = collectWarnings(bundle)
	return bundle, nil
}

// Bundle is the set of modules compiled together.
type Bundle struct {
	modules    []*schema.Module
	byName     map[string]*schema.Module
	aliasUsage map[string][]string
	warnings   []*Warning
}

// Modules returns the modules in input order.
func (b *Bundle) Modules() []*schema.Module {
	return slices.Clone(b.modules)
}

// ModulesOrdered returns the modules with every module placed after the
// modules it imports from.
func (b *Bundle) ModulesOrdered() ([]*schema.Module, error) {
	return schema.OrderModules(b.modules)
}

func (b *Bundle) ModuleByName(name string) (*schema.Module, bool) {
	m, ok := b.byName[name]
	return m, ok
}

// Definition looks up a type name across the whole bundle.
func (b *Bundle) Definition(typeName string) (schema.Definition, *schema.Module, bool) {
	for _, m := range b.modules {
		if def, ok := m.Definition(typeName); ok {
			return def, m, true
		}
	}
	return nil, nil, false
}

// SimpleAliasUsage maps the name of each simple definition used directly as
// a SEQUENCE or CHOICE field type to the sorted names of the modules using
// it.
func (b *Bundle) SimpleAliasUsage() map[string][]string {
	usage := make(map[string][]string, len(b.aliasUsage))
	for alias, modules := range b.aliasUsage {
		usage[alias] = slices.Clone(modules)
	}
	return usage
}

// SimpleAliases returns the keys of [Bundle.SimpleAliasUsage], sorted.
func (b *Bundle) SimpleAliases() []string {
	return slices.Sorted(maps.Keys(b.aliasUsage))
}

func (b *Bundle) Warnings() []*Warning {
	return slices.Clone(b.warnings)
}
