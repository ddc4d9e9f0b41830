// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package probe tests whether the operating system prevents execution of
// code placed in heap memory.
package probe

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"gate.computer/memprobe/internal/unsafeexec"
	"gate.computer/memprobe/memory"
	"gate.computer/memprobe/region"
)

const DefaultSize = 64

const codeCacheNote = "NOTE: Instruction cache is not synchronized; a successful call may run stale code"

var (
	ErrAllocation  = errors.New("probe region allocation failed")
	ErrUnsupported = errors.New("no probe payload for this architecture")
)

// invoke is replaced by tests which must not execute anything.
var invoke = unsafeexec.CallUnprotected

// Payload returns the machine code which clears the result register and
// returns, or nil if the architecture is not supported.
func Payload() []byte {
	return append([]byte(nil), payload...)
}

type Options struct {
	Size int    // DefaultSize is used if zero.
	Code []byte // Payload is used if nil.

	// Maps is consulted after the code has been written.  Nil disables
	// mapping information.
	Maps func() (region.Maps, error)

	Log *slog.Logger
}

type Result struct {
	State State
	Addr  region.Address
	Value uintptr // Returned by the code.
}

// Run allocates a writable region, copies the payload into it, and calls it.
//
// When the region is not executable, the call does not return: the process
// terminates abnormally and the region is never released.  That is the
// expected outcome on a protected system.  On architectures without coherent
// instruction caches (arm64), a permitted call is not guaranteed to execute
// the copied bytes.  An allocation failure is reported
// and returned as ErrAllocation without invoking or releasing anything.
func Run(w io.Writer, alloc memory.Allocator, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	size := opts.Size
	if size == 0 {
		size = DefaultSize
	}

	code := opts.Code
	if code == nil {
		code = payload
	}

	res := &Result{State: Idle}

	fmt.Fprintln(w, "\n=== DEP Demo ===")

	if len(code) == 0 {
		fmt.Fprintf(w, "Heap execution probe is not supported on %s\n", runtime.GOARCH)
		return res, ErrUnsupported
	}
	if len(code) > size {
		return res, fmt.Errorf("payload size %d exceeds region size %d", len(code), size)
	}

	block, err := alloc.Allocate(size)
	if err != nil {
		fmt.Fprintln(w, "Memory allocation failed!")
		log.Warn("probe region allocation failed", "size", size, "error", err)
		return res, fmt.Errorf("%w: %w", ErrAllocation, err)
	}

	res.State = Allocated
	res.Addr = block.Addr()
	log.Debug("probe", "state", res.State, "addr", res.Addr, "size", block.Len())

	fmt.Fprintf(w, "Allocated heap buffer at: %v\n", res.Addr)

	copy(block.Bytes(), code)

	res.State = CodeWritten
	log.Debug("probe", "state", res.State, "bytes", len(code))

	fmt.Fprintln(w, "Copied simple return code to heap buffer")
	fmt.Fprintf(w, "Code bytes: %s\n", formatCode(code))

	if opts.Maps != nil {
		describeMapping(w, log, opts.Maps, res.Addr)
	}

	fmt.Fprintln(w, "\nAttempting to execute code from heap...")
	fmt.Fprintln(w, "NOTE: This will likely fail on systems with DEP enabled!")
	if !coherentCode {
		fmt.Fprintln(w, codeCacheNote)
	}
	fmt.Fprintln(w, "Calling heap function...")

	res.State = Invoked
	log.Debug("probe", "state", res.State)

	// There is no error handling around this call on purpose.  If execution
	// is prevented, the fault is delivered by the operating system beneath
	// the language runtime and the process ends here.
	res.Value = invoke(block.Bytes()[:len(code)])

	res.State = ReturnedNormally
	log.Debug("probe", "state", res.State, "value", res.Value)

	fmt.Fprintln(w, "Heap execution succeeded! (DEP might be disabled)")
	fmt.Fprintf(w, "Returned value: %d\n", res.Value)

	if err := block.Release(); err != nil {
		return res, fmt.Errorf("probe region release: %w", err)
	}

	res.State = Released
	log.Debug("probe", "state", res.State)

	return res, nil
}

func describeMapping(w io.Writer, log *slog.Logger, readMaps func() (region.Maps, error), addr region.Address) {
	ms, err := readMaps()
	if err != nil {
		log.Debug("memory map unavailable", "error", err)
		return
	}

	m, ok := ms.Lookup(addr)
	if !ok {
		return
	}

	verdict := "not executable"
	if m.Executable() {
		verdict = "executable"
	}

	fmt.Fprintf(w, "Buffer mapping: %s %s (%s)\n", m.Perm, m.Label(), verdict)
}

func formatCode(code []byte) string {
	var b strings.Builder
	for _, x := range code {
		fmt.Fprintf(&b, "0x%x ", x)
	}
	return b.String()
}
