// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/danielhkuo/fairshare/db"
	"github.com/danielhkuo/fairshare/ledger"
	"github.com/danielhkuo/fairshare/testutil"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := db.Open("mysql", "whatever"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestCreateSchema_Idempotent(t *testing.T) {
	conn := testutil.SetupTestDB(t)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("second CreateSchema failed: %v", err)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	conn := testutil.SetupTestDB(t)

	_, err := conn.Exec(`
		INSERT INTO group_member (id, group_id, user_id, joined_at)
		VALUES ('m1', 'no-such-group', 'no-such-user', $1)
	`, time.Now().UTC())
	if err == nil {
		t.Error("expected foreign key violation")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	testutil.CreateTestUser(t, conn, cfg, "alice@example.com", "Alice")

	_, err := conn.Exec(`
		INSERT INTO app_user (id, email, display_name, created_at)
		VALUES ('another-id', 'alice@example.com', 'Alice Again', $1)
	`, time.Now().UTC())
	if err == nil {
		t.Fatal("expected duplicate email to fail")
	}
	if !db.IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"postgres unique", &pq.Error{Code: "23505"}, true},
		{"postgres foreign key", &pq.Error{Code: "23503"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := db.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckConstraints(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	alice, _ := testutil.CreateTestUser(t, conn, cfg, "alice@example.com", "Alice")
	groupID := testutil.CreateTestGroup(t, conn, cfg, alice, "Trip")

	tests := []struct {
		name  string
		query string
		args  []any
	}{
		{
			"non-positive expense",
			`INSERT INTO expense (id, group_id, description, amount, paid_by) VALUES ('e1', $1, 'x', 0, $2)`,
			[]any{groupID, alice},
		},
		{
			"unknown settlement status",
			`INSERT INTO settlement (id, group_id, from_user, to_user, amount, status) VALUES ('s1', $1, $2, $2, 100, 'cancelled')`,
			[]any{groupID, alice},
		},
		{
			"self settlement",
			`INSERT INTO settlement (id, group_id, from_user, to_user, amount) VALUES ('s2', $1, $2, $2, 100)`,
			[]any{groupID, alice},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := conn.Exec(tt.query, tt.args...); err == nil {
				t.Error("expected constraint violation")
			}
		})
	}
}

func TestLoadGroupLedger_NotFound(t *testing.T) {
	conn := testutil.SetupTestDB(t)

	_, err := db.LoadGroupLedger(context.Background(), conn, "missing")
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadGroupLedger(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	ctx := context.Background()

	alice, _ := testutil.CreateTestUser(t, conn, cfg, "alice@example.com", "Alice")
	bob, _ := testutil.CreateTestUser(t, conn, cfg, "bob@example.com", "Bob")
	carol, _ := testutil.CreateTestUser(t, conn, cfg, "carol@example.com", "Carol")
	groupID := testutil.CreateTestGroup(t, conn, cfg, alice, "Trip")
	testutil.AddTestMember(t, conn, groupID, bob)
	testutil.AddTestMember(t, conn, groupID, carol)

	// Alice pays 90.00 split three ways, Bob pays 30.00 for Bob and Carol
	testutil.AddTestExpense(t, conn, groupID, alice, 9000, map[string]int64{alice: 3000, bob: 3000, carol: 3000})
	testutil.AddTestExpense(t, conn, groupID, bob, 3000, map[string]int64{bob: 1500, carol: 1500})

	// Carol already paid Alice 10.00, a pending one must not count
	testutil.CreateTestSettlement(t, conn, groupID, carol, alice, 1000, ledger.StatusPaid)
	testutil.CreateTestSettlement(t, conn, groupID, bob, alice, 500, ledger.StatusPending)

	gl, err := db.LoadGroupLedger(ctx, conn, groupID)
	if err != nil {
		t.Fatalf("LoadGroupLedger failed: %v", err)
	}

	if len(gl.Members) != 3 {
		t.Errorf("expected 3 members, got %d", len(gl.Members))
	}
	if len(gl.Expenses) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(gl.Expenses))
	}
	for _, e := range gl.Expenses {
		sum := ledger.Zero("USD")
		for _, s := range e.Splits {
			sum = sum.Add(s.Amount)
		}
		if !sum.Equal(e.Amount) {
			t.Errorf("expense %s splits sum to %s, want %s", e.ID, sum, e.Amount)
		}
	}
	if len(gl.Settlements) != 2 {
		t.Errorf("expected 2 settlements, got %d", len(gl.Settlements))
	}

	sum := gl.Summary(carol)
	want := map[string]int64{
		alice: 9000 - 3000 - 1000,  // 50.00
		bob:   3000 - 3000 - 1500,  // -15.00
		carol: -3000 - 1500 + 1000, // -35.00
	}
	var total int64
	for _, b := range sum.Balances {
		if b.Amount.Minor() != want[b.UserID] {
			t.Errorf("balance of %s = %d, want %d", b.UserID, b.Amount.Minor(), want[b.UserID])
		}
		total += b.Amount.Minor()
	}
	if total != 0 {
		t.Errorf("balances sum to %d, want 0", total)
	}

	if sum.Viewer.Minor() != -3500 {
		t.Errorf("viewer balance = %d, want -3500", sum.Viewer.Minor())
	}
	if sum.TotalSpent.Minor() != 12000 {
		t.Errorf("total spent = %d, want 12000", sum.TotalSpent.Minor())
	}
	if sum.Outstanding != 1 {
		t.Errorf("outstanding = %d, want 1", sum.Outstanding)
	}
	if len(sum.Transfers) != 2 {
		t.Errorf("expected 2 suggested transfers, got %d", len(sum.Transfers))
	}
	if amount, ok := ledger.SuggestedAmount(sum.Transfers, carol, alice); !ok || amount.Minor() != 3500 {
		t.Errorf("suggested carol->alice = %v (%v), want 3500", amount.Minor(), ok)
	}

	if _, ok := gl.Member(bob); !ok {
		t.Error("Member(bob) not found")
	}
	if _, ok := gl.Member("stranger"); ok {
		t.Error("Member(stranger) should not be found")
	}
}

func TestListSettlements_FilterByUser(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	ctx := context.Background()

	alice, _ := testutil.CreateTestUser(t, conn, cfg, "alice@example.com", "Alice")
	bob, _ := testutil.CreateTestUser(t, conn, cfg, "bob@example.com", "Bob")
	carol, _ := testutil.CreateTestUser(t, conn, cfg, "carol@example.com", "Carol")
	groupID := testutil.CreateTestGroup(t, conn, cfg, alice, "Flat")
	testutil.AddTestMember(t, conn, groupID, bob)
	testutil.AddTestMember(t, conn, groupID, carol)

	testutil.CreateTestSettlement(t, conn, groupID, bob, alice, 100, ledger.StatusPending)
	testutil.CreateTestSettlement(t, conn, groupID, carol, alice, 200, ledger.StatusPaid)

	all, err := db.ListSettlements(ctx, conn, groupID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 settlements, got %d", len(all))
	}

	mine, err := db.ListSettlements(ctx, conn, groupID, bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].FromUser != bob {
		t.Fatalf("expected bob's single settlement, got %+v", mine)
	}
	if mine[0].ToUserEmail != "alice@example.com" || mine[0].FromUserEmail != "bob@example.com" {
		t.Errorf("unexpected emails %s -> %s", mine[0].FromUserEmail, mine[0].ToUserEmail)
	}
	if mine[0].Amount.Currency() != "USD" {
		t.Errorf("expected USD, got %s", mine[0].Amount.Currency())
	}

	got, err := db.GetSettlement(ctx, conn, mine[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != ledger.StatusPending || got.PaymentMethod != nil || got.SettledAt != nil {
		t.Errorf("unexpected settlement state %+v", got)
	}

	if _, err := db.GetSettlement(ctx, conn, "missing"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIsMember(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	ctx := context.Background()

	alice, _ := testutil.CreateTestUser(t, conn, cfg, "alice@example.com", "Alice")
	bob, _ := testutil.CreateTestUser(t, conn, cfg, "bob@example.com", "Bob")
	groupID := testutil.CreateTestGroup(t, conn, cfg, alice, "Trip")

	if ok, err := db.IsMember(ctx, conn, groupID, alice); err != nil || !ok {
		t.Errorf("IsMember(alice) = %v, %v; want true", ok, err)
	}
	if ok, err := db.IsMember(ctx, conn, groupID, bob); err != nil || ok {
		t.Errorf("IsMember(bob) = %v, %v; want false", ok, err)
	}
}
