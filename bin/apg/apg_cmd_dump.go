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
	"os"

	"github.com/spf13/pflag"

	"github.com/PTSSpace/APG/encoding/bundletext"
)

type cmdDump struct {
	outPath string
}

func (*cmdDump) help() *commandHelp {
	return &commandHelp{
		usage:   "dump [FILE...]",
		summary: "Print the compiled bundle as text",
	}
}

func (cmd *cmdDump) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outPath, "output", "o", "", "Write to a file instead of stdout")
}

func (cmd *cmdDump) run(ctx context.Context, env *cmdEnv, argv []string) int {
	proj, err := env.loadProject(ctx)
	if err != nil {
		env.printErr(err)
		return 1
	}
	bundle := env.buildBundle(ctx, proj, argv)
	if bundle == nil {
		return 1
	}

	output, err := bundletext.Encode(bundle)
	if err != nil {
		env.printErr(err)
		return 1
	}

	if cmd.outPath == "" {
		if _, err := env.stdout.Write([]byte(output)); err != nil {
			env.printErr(err)
			return 1
		}
		return 0
	}

	openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	fp, err := os.OpenFile(cmd.outPath, openFlags, 0o666)
	if err != nil {
		env.printErr(err)
		return 1
	}
	_, writeErr := fp.WriteString(output)
	closeErr := fp.Close()
	if writeErr != nil {
		env.printErr(writeErr)
		return 1
	}
	if closeErr != nil {
		env.printErr(closeErr)
		return 1
	}
	return 0
}
