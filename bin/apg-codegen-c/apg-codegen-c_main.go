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

//go:build !wasip1

package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/PTSSpace/APG/codegen"
)

// Native builds read a request saved by `apg codegen --request-out` and
// write the headers directly, for debugging the generator without a wasm runtime.
func main() {
	args := os.Args[1:]
	if len(args) != 2 {
		log.Fatalf("usage: %s REQUEST_JSON OUTPUT_DIR", os.Args[0])
	}
	requestPath, outDir := args[0], args[1]

	requestBuf, err := os.ReadFile(requestPath)
	if err != nil {
		log.Fatalf("ReadFile(%q): %v", requestPath, err)
	}
	resp := generate(requestBuf)
	if err := resp.Check(); err != nil {
		log.Fatal(err)
	}
	if err := writeFiles(outDir, resp.OutputFiles); err != nil {
		log.Fatal(err)
	}
}

func writeFiles(outDir string, files []*codegen.OutputFile) error {
	for _, file := range files {
		path, err := codegen.OutPath(outDir, file.Path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(file.Content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
