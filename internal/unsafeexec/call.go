// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package unsafeexec jumps into arbitrary memory.  It exists only to probe
// whether the operating system lets a process execute its data; it is not a
// way to call functions.
package unsafeexec

import (
	"runtime"
	"unsafe"
)

// CallUnprotected transfers control to the first byte of code as if it were a
// function without parameters which returns one machine word in the first
// integer result register.  The code must preserve every other register the
// Go ABI depends on.
//
// If the memory is not executable, the CPU raises a fault which the Go
// runtime reports as a fatal error and the process dies.  The fault happens
// outside of Go code, so it is not a panic: recover cannot intercept it and
// deferred functions do not run.
func CallUnprotected(code []byte) uintptr {
	entry := uintptr(unsafe.Pointer(unsafe.SliceData(code)))

	// A func value points to a closure whose first word is the entry point.
	closure := &entry
	fn := *(*func() uintptr)(unsafe.Pointer(&closure))

	result := fn()
	runtime.KeepAlive(code)
	return result
}
