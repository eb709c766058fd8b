// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cmd

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/subcommands"

	"github.com/danielhkuo/fairshare/cliparse"
	"github.com/danielhkuo/fairshare/middleware"
	"github.com/danielhkuo/fairshare/router"
)

type serveCmd struct {
	bind *cliparse.Binding
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API server" }
func (*serveCmd) Usage() string {
	return `fairshare serve [-p port] [-d url] [-t sqlite|postgres]

  Creates the schema if needed and serves the API until interrupted.
  USER_TOKEN_SALT and INVITE_SALT are required.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	c.bind = cliparse.Bind(f)
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, err := c.bind.Resolve()
	if err == nil {
		err = cfg.ValidateSecrets()
	}
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		return subcommands.ExitUsageError
	}

	conn, err := openStore(cfg)
	if err != nil {
		slog.Error("database setup failed", "error", err)
		return subcommands.ExitFailure
	}
	defer conn.Close()
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	server := http.Server{
		Handler: middleware.CORS(router.NewRouter(conn, cfg)),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(ctrlc)
	go func() {
		select {
		case <-ctrlc:
		case <-ctx.Done():
		}
		server.Close()
	}()

	slog.Info("Listening", "port", cfg.Port, "base_url", cfg.BaseURL)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
		return subcommands.ExitFailure
	}
	slog.Info("Server closed")
	return subcommands.ExitSuccess
}
