// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mitigation

import (
	"os"

	"golang.org/x/sys/unix"
)

const (
	randomizeVASpace = "/proc/sys/kernel/randomize_va_space"
	cpuinfo          = "/proc/cpuinfo"

	addrNoRandomize  = 0x0040000
	personalityQuery = 0xffffffff
)

// Read the current status.  Parts which cannot be determined are unknown.
func Read() Status {
	s := Status{
		Randomization: RandomizationUnknown,
	}

	if b, err := os.ReadFile(randomizeVASpace); err == nil {
		if r, err := ParseRandomization(string(b)); err == nil {
			s.Randomization = r
		}
	}

	if persona, _, errno := unix.Syscall(unix.SYS_PERSONALITY, personalityQuery, 0, 0); errno == 0 {
		s.NoRandomize = flagOf(persona&addrNoRandomize != 0)
	}

	if f, err := os.Open(cpuinfo); err == nil {
		defer f.Close()
		if flag, err := CPUFlag(f, "nx"); err == nil {
			s.NX = flag
		}
	}

	return s
}
