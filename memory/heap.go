// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"runtime"
)

// Heap allocates from the Go heap.  The memory is readable and writable but
// not executable.  Releasing a block drops the reference; the garbage
// collector reclaims it.
type Heap struct{}

func (Heap) Allocate(size int) (*Block, error) {
	if size <= 0 {
		return nil, ErrSize
	}

	return newBlock(make([]byte, size), size, func(b []byte) error {
		runtime.KeepAlive(b)
		return nil
	}), nil
}
