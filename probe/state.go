// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package probe

// State of a probe run.
//
//	Idle -> Allocated -> CodeWritten -> Invoked -> ReturnedNormally -> Released
//	                                            \-> Faulted
//
// Faulted is terminal: the process dies in it, so it is never returned.
type State int

const (
	Idle State = iota
	Allocated
	CodeWritten
	Invoked
	ReturnedNormally
	Released
	Faulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Allocated:
		return "allocated"
	case CodeWritten:
		return "code written"
	case Invoked:
		return "invoked"
	case ReturnedNormally:
		return "returned normally"
	case Released:
		return "released"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}
