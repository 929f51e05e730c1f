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

// Package pluginhost runs code generation plugins compiled to WebAssembly.
package pluginhost

import (
	"context"
	"fmt"
	"io"

	wasm "github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/PTSSpace/APG/codegen"
)

const (
	exportAllocate = "apg_codegen_allocate"
	exportGenerate = "apg_codegen_generate"
)

type Option interface {
	apply(*Options)
}

type option func(*Options)

func (f option) apply(opts *Options) { f(opts) }

type Options struct {
	stdout           io.Writer
	stderr           io.Writer
	memoryLimitPages uint32
}

// WithOutput connects the plugin's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return option(func(opts *Options) {
		opts.stdout = stdout
		opts.stderr = stderr
	})
}

// WithMemoryLimitPages caps plugin memory, in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return option(func(opts *Options) {
		opts.memoryLimitPages = pages
	})
}

func NewOptions(opts ...Option) *Options {
	pluginOpts := &Options{
		memoryLimitPages: 16384,
	}
	for _, opt := range opts {
		opt.apply(pluginOpts)
	}
	return pluginOpts
}

// Plugin is an instantiated WebAssembly code generator. It exports
//
//	apg_codegen_allocate(len u32) -> ptr u32
//	apg_codegen_generate(request_ptr u32, request_len u32, response_ptr_ptr u32) -> rc u32
//
// The generate call stores the address of a length-prefixed JSON
// [codegen.Response] at response_ptr_ptr.
type Plugin struct {
	runtime  wasm.Runtime
	module   api.Module
	allocate api.Function
	generate api.Function
}

func Load(ctx context.Context, wasmBin []byte, opts ...Option) (*Plugin, error) {
	return NewOptions(opts...).Load(ctx, wasmBin)
}

func (opts *Options) Load(ctx context.Context, wasmBin []byte) (*Plugin, error) {
	runtimeConfig := wasm.NewRuntimeConfigInterpreter()
	runtimeConfig = runtimeConfig.WithMemoryLimitPages(opts.memoryLimitPages)
	runtime := wasm.NewRuntimeWithConfig(ctx, runtimeConfig)

	plugin, err := opts.instantiate(ctx, runtime, wasmBin)
	if err != nil {
		runtime.Close(ctx)
		return nil, err
	}
	return plugin, nil
}

func (opts *Options) instantiate(
	ctx context.Context,
	runtime wasm.Runtime,
	wasmBin []byte,
) (*Plugin, error) {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		return nil, err
	}
	pluginExe, err := runtime.CompileModule(ctx, wasmBin)
	if err != nil {
		return nil, err
	}

	moduleConfig := wasm.NewModuleConfig().WithStartFunctions("_initialize")
	if opts.stdout != nil {
		moduleConfig = moduleConfig.WithStdout(opts.stdout)
	}
	if opts.stderr != nil {
		moduleConfig = moduleConfig.WithStderr(opts.stderr)
	}
	module, err := runtime.InstantiateModule(ctx, pluginExe, moduleConfig)
	if err != nil {
		return nil, err
	}

	plugin := &Plugin{
		runtime:  runtime,
		module:   module,
		allocate: module.ExportedFunction(exportAllocate),
		generate: module.ExportedFunction(exportGenerate),
	}
	if plugin.allocate == nil {
		return nil, errPluginExport(exportAllocate)
	}
	if plugin.generate == nil {
		return nil, errPluginExport(exportGenerate)
	}
	if module.Memory() == nil {
		return nil, errPluginExport("memory")
	}
	return plugin, nil
}

func (p *Plugin) Close(ctx context.Context) error {
	return p.runtime.Close(ctx)
}

// Generate sends a request to the plugin and decodes its response. A
// non-zero return code without an error message is reported in
// [codegen.Response.Error].
func (p *Plugin) Generate(ctx context.Context, req *codegen.Request) (*codegen.Response, error) {
	requestBuf, err := codegen.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	mem := p.module.Memory()

	requestPtr, err := p.alloc(ctx, uint32(len(requestBuf)))
	if err != nil {
		return nil, err
	}
	if !mem.Write(requestPtr, requestBuf) {
		return nil, errPluginMemory("write request")
	}
	responsePtrPtr, err := p.alloc(ctx, 4)
	if err != nil {
		return nil, err
	}

	results, err := p.generate.Call(
		ctx,
		uint64(requestPtr),
		uint64(len(requestBuf)),
		uint64(responsePtrPtr),
	)
	if err != nil {
		return nil, errPluginCall(exportGenerate, err)
	}
	rc := uint32(results[0])

	responsePtr, ok := mem.ReadUint32Le(responsePtrPtr)
	if !ok {
		return nil, errPluginMemory("read response pointer")
	}
	responseLen, ok := mem.ReadUint32Le(responsePtr)
	if !ok {
		return nil, errPluginMemory("read response length")
	}
	responseBuf, ok := mem.Read(responsePtr+4, responseLen)
	if !ok {
		return nil, errPluginMemory("read response")
	}
	resp, err := codegen.DecodeResponse(responseBuf)
	if err != nil {
		return nil, err
	}
	if rc != 0 && resp.Error == "" {
		resp.Error = fmt.Sprintf("exited with code %d", rc)
	}
	return resp, nil
}

func (p *Plugin) alloc(ctx context.Context, size uint32) (uint32, error) {
	results, err := p.allocate.Call(ctx, uint64(size))
	if err != nil {
		return 0, errPluginCall(exportAllocate, err)
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return 0, errPluginMemory(fmt.Sprintf("allocate %d bytes", size))
	}
	return ptr, nil
}
