// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/subcommands"

	"github.com/danielhkuo/fairshare/cliparse"
)

type schemaCmd struct {
	bind *cliparse.Binding
	out  io.Writer
}

func (*schemaCmd) Name() string     { return "schema" }
func (*schemaCmd) Synopsis() string { return "create the database tables and indexes" }
func (*schemaCmd) Usage() string {
	return `fairshare schema [-d url] [-t sqlite|postgres]

  Creates every table and index that does not exist yet. Safe to run
  repeatedly.
`
}

func (c *schemaCmd) SetFlags(f *flag.FlagSet) {
	c.bind = cliparse.Bind(f)
}

func (c *schemaCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, err := c.bind.Resolve()
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		return subcommands.ExitUsageError
	}

	conn, err := openStore(cfg)
	if err != nil {
		slog.Error("schema creation failed", "error", err)
		return subcommands.ExitFailure
	}
	defer conn.Close()

	fmt.Fprintf(stdout(c.out), "Schema ready on %s\n", cfg.DatabaseType)
	return subcommands.ExitSuccess
}
