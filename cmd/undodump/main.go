// Copyright (c) 2025 The layerdb developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/layerdb/layerdb/session"
)

var (
	version   string
	gitCommit string
)

func fullVersion() string {
	if gitCommit == "" {
		return version + "-dev"
	}
	return fmt.Sprintf("%s-%s", version, gitCommit)
}

var keysFlag = cli.BoolFlag{
	Name:  "keys",
	Usage: "print the keys of each layer",
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "undodump",
		Usage:     "inspect a persisted undo snapshot file",
		ArgsUsage: "<file-or-data-dir>",
		Flags: []cli.Flag{
			keysFlag,
		},
		Action: dumpAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dumpAction(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return errors.New("missing file argument")
	}
	if stat, err := os.Stat(path); err == nil && stat.IsDir() {
		path = filepath.Join(path, session.FileName)
	}

	revision, records, err := session.DecodeFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("revision: %d\nlayers:   %d\n", revision, len(records))
	for i, rec := range records {
		fmt.Printf("layer %d: %d updated, %d deleted\n", i, len(rec.Updated), len(rec.Deleted))
		if !ctx.Bool(keysFlag.Name) {
			continue
		}
		for _, e := range rec.Updated {
			fmt.Printf("  + %x (%d bytes)\n", e.Key, len(e.Value))
		}
		for _, key := range rec.Deleted {
			fmt.Printf("  - %x\n", key)
		}
	}
	return nil
}
