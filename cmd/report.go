// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/danielhkuo/fairshare/cliparse"
	"github.com/danielhkuo/fairshare/report"
)

type reportCmd struct {
	bind    *cliparse.Binding
	groupID string
	viewer  string
	raw     bool
	width   int
	out     io.Writer
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print a group statement" }
func (*reportCmd) Usage() string {
	return `fairshare report -g <group id> [-as <user id>] [-raw] [-w width]

  Prints the group statement, rendered for the terminal unless -raw is
  given. With -as the statement is written from that member's point of
  view.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.bind = cliparse.Bind(f)
	f.StringVar(&c.groupID, "g", "", "Group ID")
	f.StringVar(&c.viewer, "as", "", "Member the statement is written for")
	f.BoolVar(&c.raw, "raw", false, "Print Markdown instead of rendering it")
	f.IntVar(&c.width, "w", 100, "Wrap width of the rendered statement")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, err := c.bind.Resolve()
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		return subcommands.ExitUsageError
	}
	if c.groupID == "" {
		slog.Error("group id required (use -g)")
		return subcommands.ExitUsageError
	}

	conn, err := openStore(cfg)
	if err != nil {
		slog.Error("database setup failed", "error", err)
		return subcommands.ExitFailure
	}
	defer conn.Close()

	gl, err := loadGroup(ctx, conn, c.groupID)
	if err != nil {
		slog.Error("failed to load group", "group_id", c.groupID, "error", err)
		return subcommands.ExitFailure
	}
	if c.viewer != "" {
		if _, ok := gl.Member(c.viewer); !ok {
			slog.Error("not a member of the group", "user_id", c.viewer)
			return subcommands.ExitUsageError
		}
	}

	var b strings.Builder
	if err := report.Statement(&b, gl, c.viewer, time.Now()); err != nil {
		slog.Error("failed to build statement", "error", err)
		return subcommands.ExitFailure
	}

	out := b.String()
	if !c.raw {
		out, err = report.Render(out, c.width)
		if err != nil {
			slog.Error("failed to render statement", "error", err)
			return subcommands.ExitFailure
		}
	}

	fmt.Fprint(stdout(c.out), out)
	return subcommands.ExitSuccess
}
