// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package demo

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

const confirmPrompt = "Proceed with DEP demonstration? (y/n): "

// confirm asks once.  Anything but y or Y, including end of input and read
// errors, is a negative answer.
func confirm(c *Config, r io.Reader, w io.Writer, log *slog.Logger) bool {
	fmt.Fprintln(w)

	switch c.Demo.Confirm {
	case ConfirmYes:
		fmt.Fprintln(w, confirmPrompt+"y")
		return true

	case ConfirmNo:
		fmt.Fprintln(w, confirmPrompt+"n")
		return false
	}

	if c.Prompt.Readline {
		if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return affirmative(readLine(f, w, log))
		}
	}

	fmt.Fprint(w, confirmPrompt)

	choice, ok := readChoice(r)
	if !ok {
		fmt.Fprintln(w)
	}
	return ok && affirmative(choice)
}

func readlineConfig(f *os.File, w io.Writer) *readline.Config {
	return &readline.Config{
		Prompt: confirmPrompt,
		Stdin:  f,
		Stdout: w,
	}
}

func readLine(f *os.File, w io.Writer, log *slog.Logger) byte {
	rl, err := readline.NewEx(readlineConfig(f, w))
	if err != nil {
		log.Warn("line editor initialization failed", "error", err)
		return 0
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		log.Debug("confirmation not read", "error", err)
		return 0
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return 0
	}
	return line[0]
}

// readChoice skips leading whitespace and returns the first byte after it.
func readChoice(r io.Reader) (byte, bool) {
	br := bufio.NewReader(r)

	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, false
		}

		switch b {
		case ' ', '\t', '\n', '\v', '\f', '\r':
			continue
		}

		return b, true
	}
}

func affirmative(b byte) bool {
	return b == 'y' || b == 'Y'
}
