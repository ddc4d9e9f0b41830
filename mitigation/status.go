// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mitigation reports the system's ASLR and DEP configuration.
package mitigation

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Randomization level of /proc/sys/kernel/randomize_va_space.
type Randomization int

const (
	RandomizationUnknown      Randomization = -1
	RandomizationDisabled     Randomization = 0
	RandomizationConservative Randomization = 1
	RandomizationFull         Randomization = 2
)

func (r Randomization) String() string {
	switch r {
	case RandomizationDisabled:
		return "disabled (0)"
	case RandomizationConservative:
		return "conservative (1)"
	case RandomizationFull:
		return "full (2)"
	default:
		return "unknown"
	}
}

func ParseRandomization(s string) (Randomization, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return RandomizationUnknown, err
	}
	if n < int(RandomizationDisabled) || n > int(RandomizationFull) {
		return RandomizationUnknown, fmt.Errorf("randomization level out of range: %d", n)
	}
	return Randomization(n), nil
}

type Flag int

const (
	Unknown Flag = iota
	No
	Yes
)

func (f Flag) String() string {
	switch f {
	case No:
		return "no"
	case Yes:
		return "yes"
	default:
		return "unknown"
	}
}

func flagOf(b bool) Flag {
	if b {
		return Yes
	}
	return No
}

type Status struct {
	Randomization Randomization
	NoRandomize   Flag // Process personality disables randomization.
	NX            Flag // CPU advertises the no-execute page bit.
}

func (s Status) Print(w io.Writer) {
	fmt.Fprintln(w, "\nMitigation status:")
	fmt.Fprintf(w, "  ASLR (randomize_va_space): %v\n", s.Randomization)
	fmt.Fprintf(w, "  Randomization disabled for this process: %v\n", s.NoRandomize)
	fmt.Fprintf(w, "  No-execute CPU support: %v\n", s.NX)
}

// CPUFlag looks up a flag in /proc/cpuinfo format.  Unknown is returned if
// there are no flags lines, which is the case on some architectures.
func CPUFlag(r io.Reader, name string) (Flag, error) {
	found := Unknown

	s := bufio.NewScanner(r)
	for s.Scan() {
		key, value, ok := strings.Cut(s.Text(), ":")
		if !ok || strings.TrimSpace(key) != "flags" {
			continue
		}

		found = No
		for _, f := range strings.Fields(value) {
			if f == name {
				return Yes, nil
			}
		}
	}

	return found, s.Err()
}
