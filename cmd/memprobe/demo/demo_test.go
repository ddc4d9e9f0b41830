// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package demo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"gate.computer/memprobe/memory"
	"gate.computer/memprobe/probe"
	"gate.computer/memprobe/region"
	"github.com/stretchr/testify/assert"

	. "import.name/testing/mustr"
	_ "modernc.org/sqlite"
)

const (
	faultEnv = "MEMPROBE_TEST_DEMO_FAULT"
	mainEnv  = "MEMPROBE_TEST_DEMO_MAIN" // Space-separated arguments.
)

func TestMain(m *testing.M) {
	if args, ok := os.LookupEnv(mainEnv); ok {
		os.Args = append(os.Args[:1], strings.Fields(args)...)
		Main()
	}

	if os.Getenv(faultEnv) != "" {
		c := NewConfig()
		if err := Run(context.Background(), c, strings.NewReader("y\n"), os.Stdout, testLog()); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}

	os.Exit(m.Run())
}

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func run(t *testing.T, c *Config, input string) string {
	t.Helper()

	var out bytes.Buffer
	if err := Run(context.Background(), c, strings.NewReader(input), &out, testLog()); err != nil {
		t.Fatal(err)
	}
	return out.String()
}

var addressPattern = regexp.MustCompile(`: (0x[0-9a-fA-F]+)`)

func TestDecline(t *testing.T) {
	text := run(t, NewConfig(), "n\n")

	assert.True(t, strings.HasPrefix(text, "Security Defense Exploration Program\n"))
	assert.Contains(t, text, "=== ASLR Demo ===")
	assert.Contains(t, text, "=== Memory Layout Information ===")
	assert.Contains(t, text, "WARNING:")
	assert.Contains(t, text, confirmPrompt)
	assert.Contains(t, text, "Skipping DEP demo")
	assert.NotContains(t, text, "=== DEP Demo ===")
	assert.True(t, strings.HasSuffix(text, "\nProgram completed successfully!\n"))

	matches := addressPattern.FindAllStringSubmatch(text, -1)
	assert.Len(t, matches, 7)
	for _, m := range matches {
		_, err := region.ParseAddress(m[1])
		assert.NoError(t, err, m[1])
	}
}

func TestNonAffirmativeInput(t *testing.T) {
	for _, input := range []string{"", "\n", "  \n\t", "n", "N", "no", "x", "1", "\x00"} {
		text := run(t, NewConfig(), input)
		assert.NotContains(t, text, "=== DEP Demo ===", "%q", input)
		assert.Contains(t, text, "Skipping DEP demo", "%q", input)
		assert.Contains(t, text, "Program completed successfully!", "%q", input)
	}
}

func TestAllocationFailure(t *testing.T) {
	c := NewConfig()
	c.Probe.Allocator = memory.NameExhausted

	for _, input := range []string{"y", "Y\n", "  yes"} {
		text := run(t, c, input)
		assert.Contains(t, text, "=== DEP Demo ===")
		assert.Contains(t, text, "Memory allocation failed!")
		assert.NotContains(t, text, "Calling heap function")
		assert.NotContains(t, text, "Skipping DEP demo")
		assert.Contains(t, text, "Program completed successfully!")
	}
}

func TestConfirmSetting(t *testing.T) {
	c := NewConfig()
	c.Probe.Allocator = memory.NameExhausted

	c.Demo.Confirm = ConfirmNo
	text := run(t, c, "y\n")
	assert.Contains(t, text, confirmPrompt+"n\n")
	assert.Contains(t, text, "Skipping DEP demo")

	c.Demo.Confirm = ConfirmYes
	text = run(t, c, "n\n")
	assert.Contains(t, text, confirmPrompt+"y\n")
	assert.Contains(t, text, "Memory allocation failed!")
}

func TestInvalidConfig(t *testing.T) {
	for _, modify := range []func(*Config){
		func(c *Config) { c.Demo.Confirm = "maybe" },
		func(c *Config) { c.Probe.Size = 0 },
		func(c *Config) { c.Probe.Size = -1 },
		func(c *Config) { c.Probe.Allocator = "malloc" },
		func(c *Config) { c.Report.Allocator = "malloc" },
	} {
		c := NewConfig()
		modify(c)

		var out bytes.Buffer
		assert.Error(t, Run(context.Background(), c, strings.NewReader("n"), &out, testLog()))
		assert.Empty(t, out.String())
	}
}

func TestProbeSizeBelowPayload(t *testing.T) {
	n := len(probe.Payload())
	if n < 2 {
		t.Skip("no payload on " + runtime.GOARCH)
	}

	c := NewConfig()
	c.Probe.Size = n - 1

	var out bytes.Buffer
	err := Run(context.Background(), c, strings.NewReader("y\n"), &out, testLog())
	assert.ErrorContains(t, err, "probe.size")
	assert.Empty(t, out.String())

	c.Probe.Size = n
	c.Probe.Allocator = memory.NameExhausted
	assert.Contains(t, run(t, c, "y\n"), "Memory allocation failed!")
}

func TestReportAllocationFailure(t *testing.T) {
	c := NewConfig()
	c.Report.Allocator = memory.NameExhausted

	text := run(t, c, "n")
	assert.Equal(t, 2, strings.Count(text, "Heap allocation failed\n"))
	assert.Contains(t, text, "Program completed successfully!")
}

func TestStatusSection(t *testing.T) {
	c := NewConfig()
	assert.Contains(t, run(t, c, "n"), "Mitigation status:")

	c.Report.Status = false
	assert.NotContains(t, run(t, c, "n"), "Mitigation status:")
}

func TestHistory(t *testing.T) {
	c := NewConfig()
	c.History.Driver = "sqlite"
	c.History.DSN = "file:" + filepath.Join(t.TempDir(), "history.db")

	text := run(t, c, "n")
	assert.Contains(t, text, "=== Comparison With Previous Run ===")
	assert.Contains(t, text, "No previous run recorded")

	text = run(t, c, "n")
	assert.Contains(t, text, "Previous run: ")
	assert.Regexp(t, `\d+ of 7 addresses changed`, text)
}

func TestExecutableAllocator(t *testing.T) {
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skip("payload is exercised on linux/amd64")
	}

	c := NewConfig()
	c.Probe.Allocator = memory.NameExecutable

	var out bytes.Buffer
	err := Run(context.Background(), c, strings.NewReader("y\n"), &out, testLog())
	if errors.Is(err, os.ErrPermission) || strings.Contains(out.String(), "Memory allocation failed!") {
		t.Skip("writable and executable memory is not permitted")
	}
	assert.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Heap execution succeeded!")
	assert.Contains(t, text, "Program completed successfully!")
}

func TestExecutionPrevented(t *testing.T) {
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skip("payload is exercised on linux/amd64")
	}

	cmd := exec.Command(os.Args[0], "-test.run=^$")
	cmd.Env = append(os.Environ(), faultEnv+"=1")
	out, err := cmd.Output()

	var exitErr *exec.ExitError
	if assert.ErrorAs(t, err, &exitErr) {
		assert.False(t, exitErr.Success())
	}

	text := string(out)
	assert.Contains(t, text, "=== ASLR Demo ===")
	assert.Contains(t, text, "Allocated heap buffer at: 0x")
	assert.Contains(t, text, "Copied simple return code to heap buffer")
	assert.NotContains(t, text, "Heap execution succeeded")
	assert.NotContains(t, text, "Program completed successfully!")
}

func TestReadChoice(t *testing.T) {
	for input, expect := range map[string]byte{
		"y":       'y',
		"\n\t Y":  'Y',
		"  no\n":  'n',
		"\r\nyes": 'y',
	} {
		assert.Equal(t, expect, Must(t, R(okResult(readChoice(strings.NewReader(input))))), "%q", input)
	}

	_, ok := readChoice(strings.NewReader(" \n\t"))
	assert.False(t, ok)
}

func okResult(b byte, ok bool) (byte, error) {
	if !ok {
		return 0, io.EOF
	}
	return b, nil
}

func TestAffirmative(t *testing.T) {
	assert.True(t, affirmative('y'))
	assert.True(t, affirmative('Y'))
	assert.False(t, affirmative('n'))
	assert.False(t, affirmative(0))
}

func runMain(t *testing.T, args, input string) (int, string) {
	t.Helper()

	cmd := exec.Command(os.Args[0], "-test.run=^$")
	cmd.Env = append(os.Environ(), mainEnv+"="+args, "HOME="+t.TempDir())
	cmd.Stdin = strings.NewReader(input)

	var out bytes.Buffer
	cmd.Stdout = &out

	err := cmd.Run()
	if err == nil {
		return 0, out.String()
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatal(err)
	}
	return exitErr.ExitCode(), out.String()
}

func TestMainExitStatus(t *testing.T) {
	code, text := runMain(t, "", "n\n")
	assert.Equal(t, 0, code)
	assert.Contains(t, text, "Skipping DEP demo")
	assert.True(t, strings.HasSuffix(text, "\nProgram completed successfully!\n"))

	code, text = runMain(t, "-o demo.confirm=no", "y\n")
	assert.Equal(t, 0, code)
	assert.Contains(t, text, confirmPrompt+"n\n")
	assert.Contains(t, text, "Skipping DEP demo")

	code, text = runMain(t, "-o probe.allocator=exhausted -o demo.confirm=yes", "")
	assert.Equal(t, 0, code)
	assert.Contains(t, text, "Memory allocation failed!")
	assert.Contains(t, text, "Program completed successfully!")
}

func TestMainConfigError(t *testing.T) {
	code, text := runMain(t, "-o probe.size=0", "n\n")
	assert.Equal(t, 1, code)
	assert.Empty(t, text)
}

func TestMainUsageError(t *testing.T) {
	for _, args := range []string{
		"-o probe.nonexistent=1",
		"-no-such-flag",
		"extra",
	} {
		code, text := runMain(t, args, "n\n")
		assert.Equal(t, 2, code, args)
		assert.NotContains(t, text, "Security Defense Exploration Program", args)
	}
}

func TestReadlineConfig(t *testing.T) {
	f := Must(t, R(os.Open(os.DevNull)))
	defer f.Close()

	var out bytes.Buffer
	rc := readlineConfig(f, &out)
	assert.Same(t, f, rc.Stdin)
	assert.Equal(t, confirmPrompt, rc.Prompt)
	assert.Same(t, &out, rc.Stdout)
}
