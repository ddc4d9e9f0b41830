// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package history

import (
	"fmt"
	"io"
	"time"

	"gate.computer/memprobe/region"
	"gate.computer/memprobe/report"
	"github.com/google/uuid"
)

// Region names used in the database.
const (
	RegionStack  = "stack"
	RegionCode   = "code"
	RegionHeap   = "heap"
	RegionStatic = "static"
)

// Run is the set of samples printed by one process.
type Run struct {
	ID      string
	Time    time.Time
	Samples []report.Sample
}

func NewRun(samples ...report.Sample) *Run {
	return &Run{
		ID:      uuid.New().String(),
		Time:    time.Now(),
		Samples: samples,
	}
}

type entry struct {
	region string
	addr   region.Address
}

func entries(s report.Sample) []entry {
	return []entry{
		{RegionStack, s.Stack},
		{RegionCode, s.Code},
		{RegionHeap, s.Heap},
		{RegionStatic, s.Static},
	}
}

func setEntry(s *report.Sample, name string, addr int64) {
	a := region.Address(addr)

	switch name {
	case RegionStack:
		s.Stack = a
	case RegionCode:
		s.Code = a
	case RegionHeap:
		s.Heap = a
	case RegionStatic:
		s.Static = a
	}
}

// Change of a region's address between two runs.
type Change struct {
	Seq    int
	Region string
	Old    region.Address
	New    region.Address
}

func (c Change) Changed() bool { return c.Old != c.New }

// Compare samples which are present in both runs.
func Compare(prev, curr *Run) []Change {
	var changes []Change

	for seq := 0; seq < len(prev.Samples) && seq < len(curr.Samples); seq++ {
		old := entries(prev.Samples[seq])
		for i, e := range entries(curr.Samples[seq]) {
			if e.addr == 0 || old[i].addr == 0 {
				continue
			}

			changes = append(changes, Change{
				Seq:    seq,
				Region: e.region,
				Old:    old[i].addr,
				New:    e.addr,
			})
		}
	}

	return changes
}

// PrintComparison writes one line per compared address.
func PrintComparison(w io.Writer, prev *Run, changes []Change) {
	fmt.Fprintln(w, "\n=== Comparison With Previous Run ===")

	if prev == nil {
		fmt.Fprintln(w, "No previous run recorded")
		return
	}

	fmt.Fprintf(w, "Previous run: %s\n", prev.Time.Format(time.RFC3339))

	var changed int
	for _, c := range changes {
		verdict := "unchanged"
		if c.Changed() {
			verdict = "changed"
			changed++
		}
		fmt.Fprintf(w, "Sample %d %s: %v -> %v (%s)\n", c.Seq+1, c.Region, c.Old, c.New, verdict)
	}

	fmt.Fprintf(w, "%d of %d addresses changed\n", changed, len(changes))
}
