// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the fairshare command.

FairShare tracks shared expenses within groups. Members record who paid
for what and how it is split, see who owes whom, and settle debts with
a two-step handshake: the debtor marks a settlement paid, the creditor
confirms it.

# Starting the Server

The server reads environment variables, an optional .env file, or CLI
flags:

	DATABASE_URL=fairshare.db USER_TOKEN_SALT=... INVITE_SALT=... fairshare serve

Or with flags:

	fairshare serve -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file or PostgreSQL connection string
  - USER_TOKEN_SALT (-token-salt): Secret for user token HMAC (serve only)
  - INVITE_SALT (-invite-salt): Secret for invite code generation (serve only)

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DEFAULT_CURRENCY (-currency): Currency for new groups (default: USD)
  - BASE_URL (-base-url): Prefix of invite links (default: http://localhost:3318)

# Architecture

  - cmd: Subcommands (serve, schema, balances, report)
  - handlers: HTTP request handlers (users, groups, expenses, balances, settlements)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - ledger: Money, splits, balances and the settlement state machine
  - report: Markdown statements and terminal rendering
  - models: Request/response types
  - auth: IDs, user tokens and invite codes
  - db: Connection, schema and ledger queries
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
