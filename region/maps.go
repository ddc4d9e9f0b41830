// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package region

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const selfMaps = "/proc/self/maps"

// Mapping is a line of /proc/<pid>/maps.
type Mapping struct {
	Start  Address // Inclusive.
	End    Address // Exclusive.
	Perm   string  // Such as "r-xp".
	Offset uint64
	Inode  uint64
	Name   string // Path, pseudo name like "[heap]", or empty.
}

func (m Mapping) Contains(a Address) bool { return a >= m.Start && a < m.End }
func (m Mapping) Readable() bool          { return m.perm(0, 'r') }
func (m Mapping) Writable() bool          { return m.perm(1, 'w') }
func (m Mapping) Executable() bool        { return m.perm(2, 'x') }

func (m Mapping) perm(i int, c byte) bool {
	return len(m.Perm) > i && m.Perm[i] == c
}

// Label is the name, or "anon" for anonymous mappings.
func (m Mapping) Label() string {
	if m.Name == "" {
		return "anon"
	}
	return m.Name
}

// Maps are ordered by start address.
type Maps []Mapping

// Lookup the mapping which contains the address.
func (ms Maps) Lookup(a Address) (Mapping, bool) {
	i := sort.Search(len(ms), func(i int) bool { return ms[i].End > a })
	if i < len(ms) && ms[i].Contains(a) {
		return ms[i], true
	}
	return Mapping{}, false
}

// Annotate returns a parenthesized description of the mapping containing the
// address, or an empty string if it is not mapped.
func (ms Maps) Annotate(a Address) string {
	m, ok := ms.Lookup(a)
	if !ok {
		return ""
	}
	return fmt.Sprintf("(%s %s)", m.Perm, m.Label())
}

// ReadSelf parses the current process's memory map.  The result is a
// snapshot: mappings created afterwards are not included.
func ReadSelf() (Maps, error) {
	f, err := os.Open(selfMaps)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseMaps(f)
}

// ParseMaps in /proc/<pid>/maps format.
func ParseMaps(r io.Reader) (ms Maps, err error) {
	err = z.Recover(func() {
		ms = mustParseMaps(r)
	})
	return
}

func mustParseMaps(r io.Reader) Maps {
	var ms Maps

	s := bufio.NewScanner(r)
	for n := 1; s.Scan(); n++ {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		ms = append(ms, mustParseMapping(n, line))
	}
	z.Check(s.Err())

	sort.Slice(ms, func(i, j int) bool { return ms[i].Start < ms[j].Start })
	return ms
}

func mustParseMapping(n int, line string) Mapping {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		z.Check(fmt.Errorf("maps line %d: too few fields", n))
	}

	start, end, ok := strings.Cut(fields[0], "-")
	if !ok {
		z.Check(fmt.Errorf("maps line %d: bad address range %q", n, fields[0]))
	}

	m := Mapping{
		Start:  must(ParseAddress(start)),
		End:    must(ParseAddress(end)),
		Perm:   fields[1],
		Offset: must(strconv.ParseUint(fields[2], 16, 64)),
		Inode:  must(strconv.ParseUint(fields[4], 10, 64)),
	}
	if len(fields) > 5 {
		m.Name = strings.Join(fields[5:], " ")
	}

	if m.End < m.Start {
		z.Check(fmt.Errorf("maps line %d: range end precedes start", n))
	}
	if len(m.Perm) != 4 {
		z.Check(fmt.Errorf("maps line %d: bad permissions %q", n, m.Perm))
	}

	return m
}
