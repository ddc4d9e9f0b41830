// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package memory

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	ProtReadWrite     = unix.PROT_READ | unix.PROT_WRITE
	ProtReadWriteExec = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
)

// Mapped allocates private anonymous mappings with the given protection.
// Sizes are rounded up to whole pages; the block covers the requested size.
type Mapped struct {
	Prot int
}

func (a Mapped) Allocate(size int) (*Block, error) {
	if size <= 0 {
		return nil, ErrSize
	}

	mem, err := unix.Mmap(-1, 0, roundToPage(size), a.Prot, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	// munmap requires the slice returned by mmap.
	return newBlock(mem, size, unix.Munmap), nil
}

func roundToPage(size int) int {
	pageSize := unix.Getpagesize()
	return (size + pageSize - 1) &^ (pageSize - 1)
}
