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

//go:build wasip1

package main

import (
	"math"
	"unsafe"

	"github.com/PTSSpace/APG/codegen"
)

var buffers = make(map[unsafe.Pointer][]byte)

func main() {}

//go:wasmexport apg_codegen_allocate
func apgCodegenAllocate(size uint32) unsafe.Pointer {
	if size > math.MaxInt32 {
		return nil
	}
	buf := make([]byte, max(int(size), 1))
	ptr := unsafe.Pointer(unsafe.SliceData(buf))
	buffers[ptr] = buf
	return ptr
}

//go:wasmexport apg_codegen_deallocate
func apgCodegenDeallocate(ptr unsafe.Pointer) {
	delete(buffers, ptr)
}

//go:wasmexport apg_codegen_generate
func apgCodegenGenerate(
	requestPtr unsafe.Pointer,
	requestLen uint32,
	responsePtrPtr unsafe.Pointer,
) uint32 {
	requestBuf := unsafe.Slice((*byte)(requestPtr), requestLen)
	resp := generate(requestBuf)
	var rc uint32
	if resp.Error != "" {
		rc = 1
	}

	data, err := codegen.EncodeResponse(resp)
	if err != nil {
		data, _ = codegen.EncodeResponse(&codegen.Response{
			Error: "EncodeResponse: " + err.Error(),
		})
		rc = 1
	}
	frame := codegen.AppendFrame(nil, data)
	framePtr := unsafe.Pointer(unsafe.SliceData(frame))
	buffers[framePtr] = frame
	*(*uint32)(responsePtrPtr) = uint32(uintptr(framePtr))
	return rc
}
