// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrNotFound = errors.New("not found")

// Queryer is satisfied by both *sql.DB and *sql.Tx
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Open connects to the database and verifies the connection.
// SQLite gets a single connection with foreign keys enforced.
func Open(driverType, url string) (*sql.DB, error) {
	switch driverType {
	case DriverPostgres:
	case DriverSQLite:
		url = sqliteDSN(url)
	default:
		return nil, fmt.Errorf("unsupported database type %q", driverType)
	}

	conn, err := sql.Open(driverType, url)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverType, err)
	}

	if driverType == DriverSQLite {
		// Writers serialize on one connection, and in-memory databases
		// would otherwise be per connection
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driverType, err)
	}
	return conn, nil
}

func sqliteDSN(url string) string {
	url = strings.TrimPrefix(url, "sqlite://")
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// IsUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint on either supported driver
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
