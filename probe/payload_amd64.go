// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package probe

var payload = []byte{
	0x48, 0x31, 0xc0, // xor rax, rax
	0xc3,             // ret
}

// Instruction fetches observe the copied payload.
const coherentCode = true
