// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging

import (
	"context"
	"io"
	"log/slog"
	"time"

	"import.name/sjournal"
)

type Config struct {
	Journal bool
	Verbose bool
}

// Level of diagnostic records.  Demonstration output is not logged, so the
// default level keeps the terminal quiet unless something goes wrong.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// Init returns some kind of logger on error.  Text records are written to w
// unless the journal is enabled.
func Init(c Config, w io.Writer) (*slog.Logger, error) {
	fallback := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: c.Level(),
	}))

	if !c.Journal {
		slog.SetDefault(fallback)
		return fallback, nil
	}

	opts := &sjournal.HandlerOptions{
		Delimiter:  sjournal.ColonDelimiter,
		TimeFormat: time.RFC3339Nano,
	}

	h, err := sjournal.NewHandler(opts)
	if err != nil {
		return fallback, err
	}

	log := slog.New(leveled(h, c.Level()))

	slog.SetDefault(log)
	slog.SetLogLoggerLevel(c.Level())

	return log, nil
}

// levelHandler drops records below a minimum level.
type levelHandler struct {
	slog.Handler
	level slog.Leveler
}

func leveled(h slog.Handler, level slog.Leveler) slog.Handler {
	return &levelHandler{h, level}
}

func (h *levelHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= h.level.Level() && h.Handler.Enabled(ctx, l)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return leveled(h.Handler.WithAttrs(attrs), h.level)
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return leveled(h.Handler.WithGroup(name), h.level)
}
