// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mitigation

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	. "import.name/testing/mustr"
)

func TestParseRandomization(t *testing.T) {
	assert.Equal(t, RandomizationDisabled, Must(t, R(ParseRandomization("0\n"))))
	assert.Equal(t, RandomizationConservative, Must(t, R(ParseRandomization("1"))))
	assert.Equal(t, RandomizationFull, Must(t, R(ParseRandomization(" 2\n"))))

	for _, s := range []string{"", "3", "-1", "full"} {
		r, err := ParseRandomization(s)
		assert.Error(t, err, s)
		assert.Equal(t, RandomizationUnknown, r)
	}
}

const x86CPUInfo = `processor	: 0
vendor_id	: GenuineIntel
flags		: fpu vme de pse tsc msr pae mce cx8 apic sep mtrr pge mca cmov pat pse36 clflush mmx fxsr sse sse2 syscall nx lm
bugs		: spectre_v1

processor	: 1
flags		: fpu vme de pse tsc msr pae mce cx8 apic sep mtrr pge mca cmov pat pse36 clflush mmx fxsr sse sse2 syscall nx lm
`

const noNXCPUInfo = `processor	: 0
flags		: fpu vme de pse tsc
`

const arm64CPUInfo = `processor	: 0
BogoMIPS	: 48.00
Features	: fp asimd evtstrm aes pmull sha1 sha2 crc32 cpuid
`

func TestCPUFlag(t *testing.T) {
	assert.Equal(t, Yes, Must(t, R(CPUFlag(strings.NewReader(x86CPUInfo), "nx"))))
	assert.Equal(t, No, Must(t, R(CPUFlag(strings.NewReader(noNXCPUInfo), "nx"))))
	assert.Equal(t, Unknown, Must(t, R(CPUFlag(strings.NewReader(arm64CPUInfo), "nx"))))

	// Substrings of other flags do not count.
	assert.Equal(t, No, Must(t, R(CPUFlag(strings.NewReader("flags : nxe nx_gp\n"), "nx"))))
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	Status{
		Randomization: RandomizationFull,
		NoRandomize:   No,
		NX:            Yes,
	}.Print(&out)

	text := out.String()
	assert.Contains(t, text, "ASLR (randomize_va_space): full (2)")
	assert.Contains(t, text, "Randomization disabled for this process: no")
	assert.Contains(t, text, "No-execute CPU support: yes")
}

func TestRead(t *testing.T) {
	s := Read()
	if runtime.GOOS != "linux" {
		assert.Equal(t, RandomizationUnknown, s.Randomization)
		return
	}

	assert.NotEqual(t, Unknown, s.NoRandomize)
	if runtime.GOARCH == "amd64" {
		assert.NotEqual(t, Unknown, s.NX)
	}
}
