// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package region identifies memory addresses of the running process.
package region

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unsafe"
)

// Address in the process's virtual address space.
type Address uintptr

// Of returns the address of the variable.  The pointer does not escape, so a
// local variable stays where the compiler put it.
func Of[T any](p *T) Address {
	return Address(uintptr(unsafe.Pointer(p)))
}

// OfBytes returns the address of the first byte of the buffer, or zero.
func OfBytes(b []byte) Address {
	if len(b) == 0 {
		return 0
	}
	return Address(uintptr(unsafe.Pointer(unsafe.SliceData(b))))
}

// OfFunc returns the entry point of a function value.
func OfFunc(fn any) Address {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("region: %T is not a function", fn))
	}
	return Address(v.Pointer())
}

// ParseAddress accepts hexadecimal addresses with or without 0x prefix.
func ParseAddress(s string) (Address, error) {
	x, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return 0, err
	}
	return Address(x), nil
}

func (a Address) String() string {
	return "0x" + strconv.FormatUint(uint64(a), 16)
}
