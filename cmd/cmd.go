// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/danielhkuo/fairshare/cliparse"
	"github.com/danielhkuo/fairshare/db"
)

// Commands lists every subcommand of the fairshare binary.
var Commands = []subcommands.Command{
	&serveCmd{},
	&schemaCmd{},
	&balancesCmd{},
	&reportCmd{},
}

// openStore connects to the configured database and makes sure the
// schema exists.
func openStore(cfg cliparse.Config) (*sql.DB, error) {
	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// loadGroup reads the whole ledger of groupID
func loadGroup(ctx context.Context, conn *sql.DB, groupID string) (*db.GroupLedger, error) {
	gl, err := db.LoadGroupLedger(ctx, conn, groupID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("group %s not found", groupID)
	}
	return gl, err
}

func stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
