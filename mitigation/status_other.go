// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package mitigation

func Read() Status {
	return Status{Randomization: RandomizationUnknown}
}
