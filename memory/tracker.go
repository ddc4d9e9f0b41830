// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"sync/atomic"
)

// Tracker counts acquisitions and releases of another allocator's blocks.
type Tracker struct {
	Allocator

	acquired atomic.Int64
	released atomic.Int64
	failed   atomic.Int64
}

func NewTracker(a Allocator) *Tracker {
	return &Tracker{Allocator: a}
}

func (t *Tracker) Allocate(size int) (*Block, error) {
	b, err := t.Allocator.Allocate(size)
	if err != nil {
		t.failed.Add(1)
		return nil, err
	}
	t.acquired.Add(1)

	free := b.free
	b.free = func(data []byte) error {
		if free != nil {
			if err := free(data); err != nil {
				return err
			}
		}
		t.released.Add(1)
		return nil
	}

	return b, nil
}

func (t *Tracker) Acquired() int64 { return t.acquired.Load() }
func (t *Tracker) Released() int64 { return t.released.Load() }
func (t *Tracker) Failed() int64   { return t.failed.Load() }

// Live is the number of blocks acquired but not successfully released.
func (t *Tracker) Live() int64 {
	return t.acquired.Load() - t.released.Load()
}
