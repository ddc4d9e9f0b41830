// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package probe

var payload = []byte{
	0x00, 0x00, 0x80, 0xd2, // movz x0, #0
	0xc0, 0x03, 0x5f, 0xd6, // ret
}

// The instruction cache is not coherent with data writes, and nothing cleans
// it after the payload is copied.  A permitted call may execute stale
// instructions.
const coherentCode = false
