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
	"encoding/binary"
	"encoding/json"
	"path/filepath"
	"slices"
	"strings"
)

type Response struct {
	Error       string        `json:"error,omitempty"`
	OutputFiles []*OutputFile `json:"output_files,omitempty"`
}

// OutputFile is a generated file. Path is split into components, each of
// which must be a plain file or directory name.
type OutputFile struct {
	Path    []string `json:"path"`
	Content string   `json:"content"`
}

func EncodeResponse(resp *Response) ([]byte, error) {
	return json.Marshal(resp)
}

func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errResponseInvalid(err)
	}
	return &resp, nil
}

// AppendFrame appends data prefixed by its little-endian u32 length.
func AppendFrame(buf []byte, data []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// DecodeResponseFrame decodes a length-prefixed response.
func DecodeResponseFrame(frame []byte) (*Response, error) {
	if len(frame) < 4 {
		return nil, errResponseTruncated(4, len(frame))
	}
	size := int(binary.LittleEndian.Uint32(frame))
	if len(frame)-4 < size {
		return nil, errResponseTruncated(size, len(frame)-4)
	}
	return DecodeResponse(frame[4 : 4+size])
}

// Check reports the plugin's error, if any, and otherwise validates the
// output paths.
func (resp *Response) Check() error {
	if resp.Error != "" {
		return errPluginFailed(strings.TrimRight(resp.Error, "\n"))
	}
	if len(resp.OutputFiles) == 0 {
		return errNoOutputFiles()
	}
	var seen [][]string
	for _, file := range resp.OutputFiles {
		if _, err := OutPath("", file.Path); err != nil {
			return err
		}
		if slices.ContainsFunc(seen, func(path []string) bool {
			return slices.Equal(path, file.Path)
		}) {
			return errOutPathDuplicate(file.Path)
		}
		seen = append(seen, file.Path)
	}
	return nil
}

// OutPath joins an output path under outDir, rejecting components that
// would escape it.
func OutPath(outDir string, path []string) (string, error) {
	if len(path) == 0 {
		return "", errOutPathEmpty()
	}
	for _, part := range path {
		if part == "" || part == "." || part == ".." {
			return "", errOutPathComponent(path, part, "bad path component")
		}
		if part[0] == '/' || filepath.IsAbs(part) {
			return "", errOutPathComponent(path, part, "absolute path component")
		}
		if strings.ContainsAny(part, `/\`) {
			return "", errOutPathComponent(path, part, "path separator in component")
		}
	}
	return filepath.Join(append([]string{outDir}, path...)...), nil
}
