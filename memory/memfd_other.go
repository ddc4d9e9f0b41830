// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package memory

import (
	"errors"
)

type Memfd struct{}

func (Memfd) Allocate(int) (*Block, error) {
	return nil, errors.ErrUnsupported
}
