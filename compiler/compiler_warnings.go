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

package compiler

import (
	"fmt"
)

// Warning is a non-fatal diagnostic collected while building a bundle.
type Warning struct {
	code    uint32
	module  string
	message string
}

func (w *Warning) String() string {
	return fmt.Sprintf("W%d: %s", w.code, w.message)
}

func (w *Warning) Code() uint32 {
	return w.code
}

// Module is the name of the module the warning was raised in.
func (w *Warning) Module() string {
	return w.module
}

func (w *Warning) Message() string {
	return w.message
}

func warnDuplicateImport(module, dependency, name string) *Warning {
	return &Warning{
		code:   4000,
		module: module,
		message: fmt.Sprintf(
			"Duplicate import '%s' from module '%s' in '%s'",
			name, dependency, module,
		),
	}
}

func warnUnusedImport(module, dependency, name string) *Warning {
	return &Warning{
		code:   4001,
		module: module,
		message: fmt.Sprintf(
			"Import '%s' from module '%s' is unused in '%s'",
			name, dependency, module,
		),
	}
}

func warnComponentKindMismatch(module, defName, key, value string, kind fmt.Stringer) *Warning {
	return &Warning{
		code:   4002,
		module: module,
		message: fmt.Sprintf(
			"Value %s for '%s' in '%s' does not match the field's %s representation",
			value, key, defName, kind,
		),
	}
}

func warnComponentOutOfRange(module, defName, key, value, rng string) *Warning {
	return &Warning{
		code:   4003,
		module: module,
		message: fmt.Sprintf(
			"Value %s for '%s' in '%s' is outside the declared range %s",
			value, key, defName, rng,
		),
	}
}

func warnEmptyModule(module string) *Warning {
	return &Warning{
		code:    4004,
		module:  module,
		message: fmt.Sprintf("Module '%s' has no definitions", module),
	}
}
