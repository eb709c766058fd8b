// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/dustin/go-humanize/english"
	"github.com/google/subcommands"

	"github.com/danielhkuo/fairshare/cliparse"
	"github.com/danielhkuo/fairshare/db"
)

type balancesCmd struct {
	bind    *cliparse.Binding
	groupID string
	out     io.Writer
}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "print the balances and suggested transfers of a group" }
func (*balancesCmd) Usage() string {
	return `fairshare balances -g <group id> [-d url] [-t sqlite|postgres]

  Prints each member's net balance and the transfers that settle the group.
  Only confirmed settlements count.
`
}

func (c *balancesCmd) SetFlags(f *flag.FlagSet) {
	c.bind = cliparse.Bind(f)
	f.StringVar(&c.groupID, "g", "", "Group ID")
}

func (c *balancesCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
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

	if err := writeBalances(stdout(c.out), gl); err != nil {
		slog.Error("failed to write balances", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func writeBalances(w io.Writer, gl *db.GroupLedger) error {
	sum := gl.Summary("")

	label := func(userID string) string {
		if m, ok := gl.Member(userID); ok {
			return m.Email
		}
		return userID
	}

	fmt.Fprintf(w, "%s (%s), %s spent, %s outstanding\n\n",
		gl.Group.Name,
		gl.Group.Currency,
		sum.TotalSpent,
		english.Plural(sum.Outstanding, "settlement", ""),
	)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, b := range sum.Balances {
		fmt.Fprintf(tw, "%s\t%s\t\n", label(b.UserID), b.Amount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if len(sum.Transfers) == 0 {
		_, err := fmt.Fprintln(w, "Everyone is settled up.")
		return err
	}
	for _, t := range sum.Transfers {
		if _, err := fmt.Fprintf(w, "%s -> %s: %s\n", label(t.From), label(t.To), t.Amount); err != nil {
			return err
		}
	}
	return nil
}
