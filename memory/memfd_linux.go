// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const memfdName = "memprobe-block"

// Memfd allocates shared read-write mappings of anonymous memory files.  The
// file descriptor is closed after mapping; the mapping keeps the file alive.
type Memfd struct{}

func (Memfd) Allocate(size int) (*Block, error) {
	if size <= 0 {
		return nil, ErrSize
	}

	fd, err := unix.MemfdCreate(memfdName, unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("memfd_create: %w", err)
	}
	defer unix.Close(fd)

	length := roundToPage(size)

	if err := unix.Ftruncate(fd, int64(length)); err != nil {
		return nil, fmt.Errorf("ftruncate: %w", err)
	}

	mem, err := unix.Mmap(fd, 0, length, ProtReadWrite, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	return newBlock(mem, size, unix.Munmap), nil
}
