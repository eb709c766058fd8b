// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is shared by PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

var schema = []string{
	// Users
	`CREATE TABLE IF NOT EXISTS app_user (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    upi_qr_code_url TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,

	// Groups
	`CREATE TABLE IF NOT EXISTS expense_group (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    currency TEXT NOT NULL,
    invite_code TEXT NOT NULL UNIQUE,
    created_by TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_group_created_by ON expense_group(created_by)`,

	// Memberships
	`CREATE TABLE IF NOT EXISTS group_member (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL REFERENCES expense_group(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (group_id, user_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_group_member_user_id ON group_member(user_id)`,

	// Expenses, amounts in minor units
	`CREATE TABLE IF NOT EXISTS expense (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL REFERENCES expense_group(id) ON DELETE CASCADE,
    description TEXT NOT NULL,
    amount BIGINT NOT NULL CHECK (amount > 0),
    paid_by TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    split_type TEXT NOT NULL DEFAULT 'equal' CHECK (split_type IN ('equal', 'exact', 'percentage')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_group_id ON expense(group_id)`,

	// Splits
	`CREATE TABLE IF NOT EXISTS expense_split (
    id TEXT PRIMARY KEY,
    expense_id TEXT NOT NULL REFERENCES expense(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    amount BIGINT NOT NULL CHECK (amount >= 0),
    settled BOOLEAN NOT NULL DEFAULT FALSE,
    settled_at TIMESTAMP,
    payment_method TEXT,
    UNIQUE (expense_id, user_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_split_user_id ON expense_split(user_id)`,

	// Settlements
	`CREATE TABLE IF NOT EXISTS settlement (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL REFERENCES expense_group(id) ON DELETE CASCADE,
    from_user TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    to_user TEXT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
    amount BIGINT NOT NULL CHECK (amount > 0),
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'pending_confirmation', 'paid')),
    payment_method TEXT CHECK (payment_method IS NULL OR payment_method IN ('manual', 'upi_qr')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    settled_at TIMESTAMP,
    CHECK (from_user <> to_user)
)`,
	`CREATE INDEX IF NOT EXISTS idx_settlement_group_id ON settlement(group_id)`,
	// At most one unpaid settlement per debtor and creditor
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_settlement_open_pair ON settlement(group_id, from_user, to_user) WHERE status <> 'paid'`,
}
