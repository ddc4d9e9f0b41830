// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report prints addresses of the stack, heap, static data and code
// regions.  With ASLR they differ between runs.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"unsafe"

	"gate.computer/memprobe/memory"
	"gate.computer/memprobe/region"
)

const aslrHeapSize = 100

// Sample of one address per region.  Zero means not sampled.
type Sample struct {
	Stack  region.Address
	Code   region.Address
	Heap   region.Address
	Static region.Address
}

type Options struct {
	// Maps is read after allocation to annotate addresses.  Nil disables
	// annotation.
	Maps func() (region.Maps, error)

	Log *slog.Logger
}

func (o *Options) log() *slog.Logger {
	if o.Log == nil {
		return slog.Default()
	}
	return o.Log
}

func (o *Options) maps() region.Maps {
	if o.Maps == nil {
		return nil
	}

	ms, err := o.Maps()
	if err != nil {
		o.log().Debug("memory map unavailable", "error", err)
		return nil
	}
	return ms
}

var staticVar = 123

//go:noinline
func sampleFunction() int {
	return staticVar
}

// ASLR prints the addresses of a stack variable, a function and a heap
// allocation.  The allocation is released before returning.
func ASLR(w io.Writer, alloc memory.Allocator, opts Options) Sample {
	stackVar := 42

	s := Sample{
		Stack: region.Of(&stackVar),
		Code:  region.OfFunc(sampleFunction),
	}

	fmt.Fprintln(w, "\n=== ASLR Demo ===")

	block, err := alloc.Allocate(aslrHeapSize)
	if err == nil {
		defer release(opts.log(), block)
		s.Heap = block.Addr()
	} else {
		opts.log().Warn("heap allocation failed", "size", aslrHeapSize, "error", err)
	}

	ms := opts.maps()

	line(w, ms, "Stack variable address", s.Stack)
	line(w, ms, "Function address", s.Code)
	if s.Heap != 0 {
		line(w, ms, "Heap allocation address", s.Heap)
	} else {
		fmt.Fprintln(w, "Heap allocation failed")
	}

	return s
}

// Layout prints one address in each region: static data, stack, heap and the
// code of this function.  The allocation is released before returning.
func Layout(w io.Writer, alloc memory.Allocator, opts Options) Sample {
	stackVar := 456

	s := Sample{
		Static: region.Of(&staticVar),
		Stack:  region.Of(&stackVar),
		Code:   region.OfFunc(Layout),
	}

	fmt.Fprintln(w, "\n=== Memory Layout Information ===")

	heapSize := int(unsafe.Sizeof(stackVar))

	block, err := alloc.Allocate(heapSize)
	if err == nil {
		defer release(opts.log(), block)
		s.Heap = block.Addr()
	} else {
		opts.log().Warn("heap allocation failed", "size", heapSize, "error", err)
	}

	ms := opts.maps()

	line(w, ms, "Static variable (data segment)", s.Static)
	line(w, ms, "Stack variable", s.Stack)
	if s.Heap != 0 {
		line(w, ms, "Heap variable", s.Heap)
	} else {
		fmt.Fprintln(w, "Heap allocation failed")
	}
	line(w, ms, "Code segment (this function)", s.Code)

	return s
}

func line(w io.Writer, ms region.Maps, label string, a region.Address) {
	if note := ms.Annotate(a); note != "" {
		fmt.Fprintf(w, "%s: %v %s\n", label, a, note)
	} else {
		fmt.Fprintf(w, "%s: %v\n", label, a)
	}
}

func release(log *slog.Logger, b *memory.Block) {
	if err := b.Release(); err != nil {
		log.Error("heap release failed", "error", err)
	}
}
