// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package demo

import (
	"fmt"
	"os"
	"path"

	"gate.computer/memprobe/history"
	"gate.computer/memprobe/internal/cmdconf"
	"gate.computer/memprobe/internal/logging"
	"gate.computer/memprobe/memory"
	"gate.computer/memprobe/probe"
)

const (
	DefaultHistoryDriver = "sqlite"
	DefaultHistoryFile   = ".local/share/memprobe/history.db" // Relative to home directory.
)

// Defaults are relative to home directory.
var Defaults = []string{
	".config/memprobe/memprobe.toml",
}

// Values of Demo.Confirm.
const (
	ConfirmAsk = ""
	ConfirmYes = "yes"
	ConfirmNo  = "no"
)

type Config struct {
	Report struct {
		Allocator string
		Annotate  bool
		Status    bool
	}

	Probe struct {
		Allocator string
		Size      int
	}

	Demo struct {
		Confirm string
	}

	Prompt struct {
		Readline bool
	}

	History history.Config

	Log logging.Config
}

func NewConfig() *Config {
	c := new(Config)
	c.Report.Allocator = memory.NameHeap
	c.Report.Annotate = true
	c.Report.Status = true
	c.Probe.Allocator = memory.NameHeap
	c.Probe.Size = probe.DefaultSize
	c.Prompt.Readline = true
	return c
}

func (c *Config) validate() error {
	switch c.Demo.Confirm {
	case ConfirmAsk, ConfirmYes, ConfirmNo:
	default:
		return fmt.Errorf("demo.confirm must be %q, %q or empty", ConfirmYes, ConfirmNo)
	}

	if c.Probe.Size <= 0 {
		return fmt.Errorf("probe.size must be positive")
	}
	if n := len(probe.Payload()); c.Probe.Size < n {
		return fmt.Errorf("probe.size must be at least %d", n)
	}

	return nil
}

// defaultHistoryDSN fills in a database file under the home directory if only
// the driver is configured.
func (c *Config) defaultHistoryDSN() error {
	if c.History.Driver != DefaultHistoryDriver || c.History.DSN != "" {
		return nil
	}

	filename, err := cmdconf.JoinHome(DefaultHistoryFile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(path.Dir(filename), 0o755); err != nil {
		return err
	}

	c.History.DSN = "file:" + filename
	return nil
}
