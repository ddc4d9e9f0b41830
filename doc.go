// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package memprobe contains general documentation for its subpackages.

The memprobe program demonstrates two operating system defenses against
memory corruption exploits: address space layout randomization and
non-executable data memory.

# Address reporting

The report package prints addresses of a stack variable, a function, a heap
allocation and a static variable.  Running the program repeatedly shows
whether the addresses move between runs.  The region package resolves each
address to its memory mapping, and the history package can persist samples in
a SQL database for comparison with the previous run.

# Execution probe

The probe package copies a tiny machine code function into memory obtained
from an allocator of the memory package and calls it.  When data memory is
not executable, the process is killed by the operating system.  The crash is
the expected outcome; it cannot be recovered from within the process.

# Errors

Errors caused by memory allocation wrap probe.ErrAllocation, and lack of a
payload for the host architecture wraps probe.ErrUnsupported.  The driver
treats both as normal demonstration outcomes.
*/
package memprobe
