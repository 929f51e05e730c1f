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

// Command apg compiles ASN.1 schema bundles.
//
//	apg check [--project=apg.hcl] [--modules=a,b] FILE...
//	apg dump FILE...
//	apg codegen --plugin=apg-codegen-c.wasm --output=gen FILE...
package main

import (
	"context"
	stdflag "flag"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/PTSSpace/APG/internal/ctxlog"
)

type command interface {
	help() *commandHelp
	flags(flags *pflag.FlagSet)
	run(ctx context.Context, env *cmdEnv, argv []string) int
}

type commandHelp struct {
	usage   string
	summary string
}

// cmdEnv holds the options shared by every command and the streams they
// write to.
type cmdEnv struct {
	stdout io.Writer
	stderr io.Writer

	projectPath string
	modules     []string
	verbose     bool
}

func main() {
	ctx := context.Background()
	os.Exit(runMain(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func runMain(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	env := &cmdEnv{
		stdout: stdout,
		stderr: stderr,
	}
	exitCode := 0

	apgCmd := &cobra.Command{
		Use: "apg [options] COMMAND",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	apgCmd.SetArgs(args)
	apgCmd.SetOut(stdout)
	apgCmd.SetErr(stderr)
	apgCmd.RunE = func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(stderr, apgCmd.UsageString())
		exitCode = 1
		return nil
	}

	globalFlags := apgCmd.PersistentFlags()
	globalFlags.StringVar(&env.projectPath, "project", "", "Project file (apg.hcl) listing schemas and codegen settings")
	globalFlags.StringSliceVar(&env.modules, "modules", nil, "Expected module names; the bundle must contain exactly these")
	globalFlags.BoolVarP(&env.verbose, "verbose", "v", false, "Log debug output to stderr")

	commands := []command{
		&cmdCheck{},
		&cmdDump{},
		&cmdCodegen{},
	}
	for _, cmd := range commands {
		help := cmd.help()
		cobraCmd := &cobra.Command{
			Use:   help.usage,
			Short: help.summary,
			RunE: func(cobraCmd *cobra.Command, args []string) error {
				logger := ctxlog.New(stderr, env.verbose)
				exitCode = cmd.run(ctxlog.WithLogger(cobraCmd.Context(), logger), env, args)
				return nil
			},
		}
		apgCmd.AddCommand(cobraCmd)
		cmd.flags(cobraCmd.Flags())
	}

	apgCmd.Flags().AddGoFlagSet(stdflag.CommandLine)
	if _, err := apgCmd.ExecuteContextC(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return exitCode
}
