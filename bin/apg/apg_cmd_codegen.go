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
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/PTSSpace/APG/codegen"
	"github.com/PTSSpace/APG/codegen/pluginhost"
	"github.com/PTSSpace/APG/internal/ctxlog"
	"github.com/PTSSpace/APG/internal/project"
)

type cmdCodegen struct {
	language   string
	outDir     string
	pluginPath string
	options    map[string]string
	requestOut string
}

func (*cmdCodegen) help() *commandHelp {
	return &commandHelp{
		usage:   "codegen [FILE...]",
		summary: "Generate code from a schema bundle with a WebAssembly plugin",
	}
}

func (cmd *cmdCodegen) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.language, "language", "l", "", "Use the project's codegen block for this language")
	flags.StringVarP(&cmd.outDir, "output", "o", "", "Directory to write generated files to")
	flags.StringVar(&cmd.pluginPath, "plugin", "", "Plugin file, or a name to find in $APG_CODEGEN_PLUGIN_PATH")
	flags.StringToStringVar(&cmd.options, "option", nil, "Plugin option as key=value (repeatable)")
	flags.StringVar(&cmd.requestOut, "request-out", "", "Also write the plugin request as JSON to this file")
}

// settings merges the project's codegen block with the command line, which
// takes priority.
func (cmd *cmdCodegen) settings(proj *project.Project) (*project.Codegen, error) {
	settings := &project.Codegen{
		Language: cmd.language,
		Options:  make(map[string]string),
	}
	if proj != nil {
		var block *project.Codegen
		switch {
		case cmd.language != "":
			var ok bool
			if block, ok = proj.CodegenFor(cmd.language); !ok {
				return nil, fmt.Errorf("Project has no codegen block for %q", cmd.language)
			}
		case len(proj.Codegen) == 1:
			block = proj.Codegen[0]
		case len(proj.Codegen) > 1 && cmd.pluginPath == "":
			return nil, fmt.Errorf("Project has several codegen blocks, select one with --language=")
		}
		if block != nil {
			settings.Language = block.Language
			settings.Plugin = block.Plugin
			settings.Output = block.Output
			maps.Copy(settings.Options, block.Options)
		}
	}
	if cmd.pluginPath != "" {
		settings.Plugin = cmd.pluginPath
	}
	if cmd.outDir != "" {
		settings.Output = cmd.outDir
	}
	maps.Copy(settings.Options, cmd.options)

	if settings.Plugin == "" {
		return nil, fmt.Errorf("No codegen plugin specified (set --plugin=)")
	}
	if settings.Output == "" {
		return nil, fmt.Errorf("No output directory specified (set --output=)")
	}
	return settings, nil
}

func (cmd *cmdCodegen) run(ctx context.Context, env *cmdEnv, argv []string) int {
	logger := ctxlog.FromContext(ctx)

	proj, err := env.loadProject(ctx)
	if err != nil {
		env.printErr(err)
		return 1
	}
	settings, err := cmd.settings(proj)
	if err != nil {
		env.printErr(err)
		return 1
	}
	pluginPath, err := locatePlugin(settings.Plugin)
	if err != nil {
		env.printErr(err)
		return 1
	}

	bundle := env.buildBundle(ctx, proj, argv)
	if bundle == nil {
		return 1
	}
	request, err := codegen.NewRequest(bundle, codegen.WithPluginOptions(settings.Options))
	if err != nil {
		env.printErr(err)
		return 1
	}
	if cmd.requestOut != "" {
		requestBuf, err := codegen.EncodeRequest(request)
		if err != nil {
			env.printErr(err)
			return 1
		}
		if err := os.WriteFile(cmd.requestOut, requestBuf, 0o644); err != nil {
			env.printErr(err)
			return 1
		}
	}

	pluginBin, err := os.ReadFile(pluginPath)
	if err != nil {
		env.printErr(err)
		return 1
	}
	plugin, err := pluginhost.Load(ctx, pluginBin, pluginhost.WithOutput(env.stderr, env.stderr))
	if err != nil {
		env.printErr(err)
		return 1
	}
	defer plugin.Close(ctx)
	logger.Debug("Loaded codegen plugin.", "path", pluginPath, "size", len(pluginBin))

	response, err := plugin.Generate(ctx, request)
	if err != nil {
		env.printErr(err)
		return 1
	}
	if err := response.Check(); err != nil {
		env.printErr(err)
		return 1
	}

	if err := os.MkdirAll(settings.Output, 0o755); err != nil {
		env.printErr(err)
		return 1
	}
	for _, outputFile := range response.OutputFiles {
		outPath, err := codegen.OutPath(settings.Output, outputFile.Path)
		if err != nil {
			env.printErr(err)
			return 1
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			env.printErr(err)
			return 1
		}
		if err := os.WriteFile(outPath, []byte(outputFile.Content), 0o644); err != nil {
			env.printErr(err)
			return 1
		}
		logger.Debug("Wrote generated file.", "path", outPath, "size", len(outputFile.Content))
	}
	logger.Info("Generated code.",
		"plugin", filepath.Base(pluginPath),
		"files", len(response.OutputFiles),
		"output", settings.Output,
	)
	return 0
}
