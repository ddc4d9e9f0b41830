// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memory provides allocators whose regions are released explicitly.
package memory

import (
	"errors"
	"fmt"
	"sync/atomic"

	"gate.computer/memprobe/region"
)

var (
	ErrExhausted = errors.New("allocator exhausted")
	ErrReleased  = errors.New("block already released")
	ErrSize      = errors.New("allocation size must be positive")
)

// Allocator names accepted by Lookup.
const (
	NameHeap       = "heap"
	NameMapped     = "mmap"
	NameExecutable = "mmap-exec"
	NameMemfd      = "memfd"
	NameExhausted  = "exhausted"
)

// Names lists the allocators in the order they are documented.
var Names = []string{NameHeap, NameMapped, NameExecutable, NameMemfd, NameExhausted}

type Allocator interface {
	Allocate(size int) (*Block, error)
}

// Block is an allocated region.  It must be released exactly once.
type Block struct {
	b        []byte
	whole    []byte
	free     func([]byte) error // Called with whole.
	released int32              // Atomic
}

// newBlock exposes the first size bytes of mem.  The whole of mem is freed.
func newBlock(mem []byte, size int, free func([]byte) error) *Block {
	return &Block{b: mem[:size], whole: mem, free: free}
}

// Bytes of the region.  Must not be used after Release.
func (b *Block) Bytes() []byte {
	return b.b
}

func (b *Block) Len() int             { return len(b.b) }
func (b *Block) Addr() region.Address { return region.OfBytes(b.b) }

// Release the region.  Subsequent calls return ErrReleased, even if the first
// one failed.
func (b *Block) Release() error {
	if !atomic.CompareAndSwapInt32(&b.released, 0, 1) {
		return ErrReleased
	}

	data := b.whole
	b.b = nil
	b.whole = nil

	if b.free == nil {
		return nil
	}
	return b.free(data)
}

// Lookup an allocator by name.
func Lookup(name string) (Allocator, error) {
	switch name {
	case NameHeap, "":
		return Heap{}, nil

	case NameMapped:
		return Mapped{Prot: ProtReadWrite}, nil

	case NameExecutable:
		return Mapped{Prot: ProtReadWriteExec}, nil

	case NameMemfd:
		return Memfd{}, nil

	case NameExhausted:
		return Exhausted{}, nil

	default:
		return nil, fmt.Errorf("unknown allocator: %q", name)
	}
}

// Exhausted never succeeds.
type Exhausted struct{}

func (Exhausted) Allocate(int) (*Block, error) {
	return nil, ErrExhausted
}
