// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package demo sequences the ASLR and DEP demonstrations.
package demo

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gate.computer/memprobe/history"
	"gate.computer/memprobe/internal/cmdconf"
	"gate.computer/memprobe/internal/logging"
	"gate.computer/memprobe/memory"
	"gate.computer/memprobe/mitigation"
	"gate.computer/memprobe/probe"
	"gate.computer/memprobe/region"
	"gate.computer/memprobe/report"
	"import.name/confi"
	"import.name/pan"

	. "import.name/type/context"
)

func Main() {
	defer func() {
		pan.Fatal(recover())
	}()

	os.Exit(mainResult())
}

func mainResult() int {
	c := NewConfig()

	flag.Usage = confi.FlagUsage(nil, c)

	if err := cmdconf.Parse(c, flag.CommandLine, os.Args[1:], Defaults...); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", flag.CommandLine.Name(), err)
		return 2
	}
	if flag.NArg() != 0 {
		flag.Usage()
		return 2
	}

	log, err := logging.Init(c.Log, os.Stderr)
	if err != nil {
		log.Error("journal initialization failed", "error", err)
		return 1
	}

	if err := c.defaultHistoryDSN(); err != nil {
		log.Error("history database location", "error", err)
		return 1
	}

	if err := Run(context.Background(), c, os.Stdin, os.Stdout, log); err != nil {
		log.Error("demonstration failed", "error", err)
		return 1
	}

	return 0
}

// Run the demonstrations.  If the execution probe is blocked by the operating
// system, Run does not return.
func Run(ctx Context, c *Config, stdin io.Reader, stdout io.Writer, log *slog.Logger) error {
	if err := c.validate(); err != nil {
		return err
	}

	reportAlloc, err := memory.Lookup(c.Report.Allocator)
	if err != nil {
		return fmt.Errorf("report.allocator: %w", err)
	}
	probeAlloc, err := memory.Lookup(c.Probe.Allocator)
	if err != nil {
		return fmt.Errorf("probe.allocator: %w", err)
	}

	var hist *history.Endpoint
	if c.History.Enabled() {
		hist, err = history.Open(c.History)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		defer hist.Close()

		if err := hist.Init(ctx); err != nil {
			return fmt.Errorf("history: %w", err)
		}
	}

	var maps func() (region.Maps, error)
	if c.Report.Annotate {
		maps = region.ReadSelf
	}

	reportTracker := memory.NewTracker(reportAlloc)
	probeTracker := memory.NewTracker(probeAlloc)
	defer checkReleased(log, "report", reportTracker)
	defer checkReleased(log, "probe", probeTracker)

	w := stdout

	printBanner(w)

	if c.Report.Status {
		mitigation.Read().Print(w)
	}

	reportOpts := report.Options{Maps: maps, Log: log}
	run := history.NewRun(
		report.ASLR(w, reportTracker, reportOpts),
		report.Layout(w, reportTracker, reportOpts),
	)

	if hist != nil {
		if err := compareHistory(ctx, w, hist, run); err != nil {
			return fmt.Errorf("history: %w", err)
		}
	}

	printWarning(w)

	if confirm(c, stdin, w, log) {
		_, err := probe.Run(w, probeTracker, probe.Options{
			Size: c.Probe.Size,
			Maps: maps,
			Log:  log,
		})
		switch {
		case err == nil:
		case errors.Is(err, probe.ErrAllocation), errors.Is(err, probe.ErrUnsupported):
			log.Info("heap execution probe skipped", "error", err)
		default:
			return err
		}
	} else {
		fmt.Fprintln(w, "Skipping DEP demo")
	}

	fmt.Fprintln(w, "\nProgram completed successfully!")
	return nil
}

func compareHistory(ctx Context, w io.Writer, hist *history.Endpoint, run *history.Run) error {
	prev, err := hist.Previous(ctx, run)
	if err != nil {
		return err
	}

	var changes []history.Change
	if prev != nil {
		changes = history.Compare(prev, run)
	}
	history.PrintComparison(w, prev, changes)

	return hist.Record(ctx, run)
}

func checkReleased(log *slog.Logger, name string, t *memory.Tracker) {
	log.Debug("allocations", "allocator", name, "acquired", t.Acquired(), "released", t.Released(), "failed", t.Failed())

	if n := t.Live(); n != 0 {
		log.Warn("allocations not released", "allocator", name, "count", n)
	}
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w, "Security Defense Exploration Program")
	fmt.Fprintln(w, "====================================")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run this program multiple times to observe ASLR effects")
	fmt.Fprintln(w, "Addresses should change between runs on ASLR-enabled systems")
}

func printWarning(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w, "WARNING: the next step attempts to execute")
	fmt.Fprintln(w, "code from heap memory. On DEP-enabled systems,")
	fmt.Fprintln(w, "this will cause a segmentation fault/access violation.")
	fmt.Fprintln(w, "That crash means DEP works correctly.")
}
