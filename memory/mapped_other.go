// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !unix

package memory

import (
	"errors"
)

const (
	ProtReadWrite     = 0x3
	ProtReadWriteExec = 0x7
)

type Mapped struct {
	Prot int
}

func (Mapped) Allocate(int) (*Block, error) {
	return nil, errors.ErrUnsupported
}
