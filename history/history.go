// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package history stores address samples of previous runs in an SQL database
// so that consecutive runs can be compared.  The schema is written for SQLite
// (modernc.org/sqlite).
package history

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"gate.computer/memprobe/report"

	. "import.name/type/context"
)

const Schema = `
CREATE TABLE IF NOT EXISTS run (
	id TEXT NOT NULL,
	time BIGINT NOT NULL,

	PRIMARY KEY (id)
) WITHOUT ROWID, STRICT;

CREATE TABLE IF NOT EXISTS sample (
	run TEXT NOT NULL,
	seq BIGINT NOT NULL,
	region TEXT NOT NULL,
	addr BIGINT NOT NULL,

	PRIMARY KEY (run, seq, region)
) WITHOUT ROWID, STRICT;

CREATE INDEX IF NOT EXISTS run_time ON run (time);
`

type Config struct {
	Driver string
	DSN    string
}

func (c *Config) Enabled() bool {
	return c.Driver != "" && c.DSN != ""
}

type Endpoint struct {
	db     *sql.DB
	driver string
}

func Open(config Config) (*Endpoint, error) {
	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, err
	}
	return &Endpoint{db, config.Driver}, nil
}

func (x *Endpoint) Close() error {
	return x.db.Close()
}

func (x *Endpoint) Init(ctx Context) error {
	_, err := x.db.ExecContext(ctx, x.adjustSchema(Schema))
	return err
}

func (x *Endpoint) adjustSchema(s string) string {
	switch x.driver {
	case "sqlite", "sqlite3":
		s = strings.ReplaceAll(s, " BIGINT", " INTEGER")

	default:
		s = strings.ReplaceAll(s, " WITHOUT ROWID, STRICT;", ";")
	}

	return s
}

// Record a run.  The run id must be unique.
func (x *Endpoint) Record(ctx Context, r *Run) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := "INSERT INTO run (id, time) VALUES ($1, $2)"
	if _, err := tx.ExecContext(ctx, q, r.ID, r.Time.UnixNano()); err != nil {
		return err
	}

	q = "INSERT INTO sample (run, seq, region, addr) VALUES ($1, $2, $3, $4)"
	for seq, s := range r.Samples {
		for _, e := range entries(s) {
			if e.addr == 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx, q, r.ID, seq, e.region, int64(e.addr)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Previous returns the latest run recorded before the given run, or nil.
func (x *Endpoint) Previous(ctx Context, current *Run) (*Run, error) {
	r := new(Run)
	var t int64

	q := "SELECT id, time FROM run WHERE id <> $1 AND time <= $2 ORDER BY time DESC LIMIT 1"
	if err := x.db.QueryRowContext(ctx, q, current.ID, current.Time.UnixNano()).Scan(&r.ID, &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	r.Time = time.Unix(0, t)

	if err := x.loadSamples(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (x *Endpoint) loadSamples(ctx Context, r *Run) error {
	q := "SELECT seq, region, addr FROM sample WHERE run = $1 ORDER BY seq"
	rows, err := x.db.QueryContext(ctx, q, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq    int
			region string
			addr   int64
		)
		if err := rows.Scan(&seq, &region, &addr); err != nil {
			return err
		}
		if seq < 0 {
			continue
		}

		for len(r.Samples) <= seq {
			r.Samples = append(r.Samples, report.Sample{})
		}
		setEntry(&r.Samples[seq], region, addr)
	}

	return rows.Err()
}
