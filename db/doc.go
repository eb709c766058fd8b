// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database, creates the schema and loads group ledgers.

# Drivers

Open accepts "postgres" (lib/pq) or "sqlite" (modernc.org/sqlite):

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections run with foreign keys on, a busy timeout and a single
open connection. Never issue a query while another result set is still
open on the same *sql.DB.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on both dialects. Amounts are BIGINT minor units.

# Tables

  - app_user: profiles, unique email, optional UPI QR code URL
  - expense_group: name, currency, invite code, creator
  - group_member: one row per (group, user)
  - expense: amount, payer and split type
  - expense_split: what each participant owes for an expense
  - settlement: debtor to creditor payments with their status

# Relationships

	expense_group 1──* group_member *──1 app_user
	expense_group 1──* expense 1──* expense_split
	expense_group 1──* settlement

All foreign keys use ON DELETE CASCADE.

# Ledger Loading

LoadGroupLedger reads a group with members, expenses, splits and
settlements. Summary derives balances and a settle-up plan:

	gl, err := db.LoadGroupLedger(ctx, conn, groupID)
	sum := gl.Summary(userID)
	// sum.Balances, sum.Viewer, sum.Transfers, sum.TotalSpent

# Errors

ErrNotFound is returned for a missing group or settlement.
IsUniqueViolation recognizes unique constraint failures from both drivers.
*/
package db
