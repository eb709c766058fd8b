// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/fairshare/auth"
	"github.com/danielhkuo/fairshare/cliparse"
	"github.com/danielhkuo/fairshare/db"
	"github.com/danielhkuo/fairshare/ledger"
)

// SetupTestDB creates a fresh SQLite database with the full schema.
// It is removed when the test finishes.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fairshare-test.db")
	conn, err := db.Open(db.DriverSQLite, "file:"+path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseURL:     "file::memory:",
		DatabaseType:    db.DriverSQLite,
		TokenSalt:       "test-token-salt",
		InviteSalt:      "test-invite-salt",
		DefaultCurrency: "USD",
		BaseURL:         "http://localhost:3318",
	}
}

// AuthHeaders returns the headers that identify userID on a request
func AuthHeaders(userID, token string) map[string]string {
	return map[string]string{
		"X-User-ID":    userID,
		"X-User-Token": token,
	}
}

// CreateTestUser registers a user and returns its ID and request token
func CreateTestUser(t *testing.T, conn *sql.DB, cfg cliparse.Config, email, displayName string) (userID, token string) {
	t.Helper()

	userID = auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO app_user (id, email, display_name, created_at)
		VALUES ($1, $2, $3, $4)
	`, userID, email, displayName, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID, auth.GenerateUserToken(userID, cfg.TokenSalt)
}

// CreateTestGroup creates a group in the default currency with the creator as its first member
func CreateTestGroup(t *testing.T, conn *sql.DB, cfg cliparse.Config, creatorID, name string) string {
	t.Helper()

	groupID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO expense_group (id, name, description, currency, invite_code, created_by, created_at)
		VALUES ($1, $2, 'A test group', $3, $4, $5, $6)
	`, groupID, name, cfg.DefaultCurrency, auth.GenerateInviteCode(groupID, cfg.InviteSalt), creatorID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test group: %v", err)
	}

	AddTestMember(t, conn, groupID, creatorID)
	return groupID
}

// AddTestMember adds userID to groupID
func AddTestMember(t *testing.T, conn *sql.DB, groupID, userID string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO group_member (id, group_id, user_id, joined_at)
		VALUES ($1, $2, $3, $4)
	`, auth.NewID(), groupID, userID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to add test member: %v", err)
	}
}

// AddTestExpense records an expense of amount minor units paid by paidBy.
// shares maps each participant to the minor units they owe.
func AddTestExpense(t *testing.T, conn *sql.DB, groupID, paidBy string, amount int64, shares map[string]int64) string {
	t.Helper()

	expenseID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO expense (id, group_id, description, amount, paid_by, split_type, created_at)
		VALUES ($1, $2, 'Test expense', $3, $4, 'exact', $5)
	`, expenseID, groupID, amount, paidBy, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test expense: %v", err)
	}

	for userID, share := range shares {
		_, err := conn.Exec(`
			INSERT INTO expense_split (id, expense_id, user_id, amount, settled)
			VALUES ($1, $2, $3, $4, $5)
		`, auth.NewID(), expenseID, userID, share, false)
		if err != nil {
			t.Fatalf("Failed to create test split: %v", err)
		}
	}

	return expenseID
}

// CreateTestSettlement inserts a settlement already in the given status
func CreateTestSettlement(t *testing.T, conn *sql.DB, groupID, fromUser, toUser string, amount int64, status ledger.Status) string {
	t.Helper()

	var method *string
	var settledAt *time.Time
	if status != ledger.StatusPending {
		m := ledger.PaymentManual
		method = &m
	}
	if status == ledger.StatusPaid {
		now := time.Now().UTC()
		settledAt = &now
	}

	settlementID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO settlement (id, group_id, from_user, to_user, amount, status, payment_method, created_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, settlementID, groupID, fromUser, toUser, amount, string(status), method, time.Now().UTC(), settledAt)
	if err != nil {
		t.Fatalf("Failed to create test settlement: %v", err)
	}

	return settlementID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
