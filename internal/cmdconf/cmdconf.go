// Copyright (c) 2020 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdconf

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"

	"import.name/confi"
)

var errNoHome = errors.New("home directory is unknown")

// JoinHome resolves dir relative to home directory unless it is absolute.
func JoinHome(dir string) (string, error) {
	if path.IsAbs(dir) {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if home == "" {
		return "", errNoHome
	}

	return path.Join(home, dir), nil
}

// Parse command-line arguments into the configuration object.  The default
// filenames can be absolute, or relative to home directory; missing default
// files are skipped.  Explicitly named files must exist.
func Parse(config any, flags *flag.FlagSet, args []string, defaults ...string) error {
	for _, p := range defaults {
		filename, err := JoinHome(p)
		if err != nil {
			continue
		}

		if _, err := os.Stat(filename); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}

		if err := confi.FileReader(config).Set(filename); err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
	}

	flags.Var(confi.FileReader(config), "f", "read a configuration file")
	flags.Var(confi.Assigner(config), "o", "set a configuration option (path.to.key=value)")

	return flags.Parse(args)
}
