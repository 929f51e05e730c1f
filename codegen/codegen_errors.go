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

package codegen

import (
	"fmt"
)

type Error struct {
	code    uint32
	message string
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

func errRequestInvalid(cause error) error {
	return &Error{
		code:    5000,
		message: fmt.Sprintf("Invalid codegen request: %v", cause),
	}
}

func errResponseInvalid(cause error) error {
	return &Error{
		code:    5001,
		message: fmt.Sprintf("Invalid codegen response: %v", cause),
	}
}

func errResponseTruncated(want, got int) error {
	return &Error{
		code:    5002,
		message: fmt.Sprintf("Codegen response truncated: expected %d bytes, got %d", want, got),
	}
}

func errPluginFailed(message string) error {
	return &Error{
		code:    5003,
		message: fmt.Sprintf("Plugin reported an error: %s", message),
	}
}

func errNoOutputFiles() error {
	return &Error{
		code:    5004,
		message: "Plugin did not generate any output files",
	}
}

func errOutPathEmpty() error {
	return &Error{
		code:    5005,
		message: "Invalid output path []: empty",
	}
}

func errOutPathComponent(path []string, part string, reason string) error {
	return &Error{
		code:    5006,
		message: fmt.Sprintf("Invalid output path %q: %s %q", path, reason, part),
	}
}

func errOutPathDuplicate(path []string) error {
	return &Error{
		code:    5007,
		message: fmt.Sprintf("Output path %q is generated more than once", path),
	}
}
