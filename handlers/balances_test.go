// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/fairshare/ledger"
	"github.com/danielhkuo/fairshare/models"
	"github.com/danielhkuo/fairshare/testutil"
)

func TestGetBalances(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewBalanceHandler(db, cfg)

	alice, _ := testutil.CreateTestUser(t, db, cfg, "alice@example.com", "Alice")
	bob, bobToken := testutil.CreateTestUser(t, db, cfg, "bob@example.com", "Bob")
	carol, _ := testutil.CreateTestUser(t, db, cfg, "carol@example.com", "Carol")
	groupID := testutil.CreateTestGroup(t, db, cfg, alice, "Trip")
	testutil.AddTestMember(t, db, groupID, bob)
	testutil.AddTestMember(t, db, groupID, carol)

	// Alice paid 90.00 for all three, Bob paid 30.00 for Bob and Carol
	testutil.AddTestExpense(t, db, groupID, alice, 9000, map[string]int64{alice: 3000, bob: 3000, carol: 3000})
	testutil.AddTestExpense(t, db, groupID, bob, 3000, map[string]int64{bob: 1500, carol: 1500})
	// Carol already paid Alice 10.00; a pending settlement does not count yet
	testutil.CreateTestSettlement(t, db, groupID, carol, alice, 1000, ledger.StatusPaid)
	testutil.CreateTestSettlement(t, db, groupID, bob, alice, 500, ledger.StatusPending)

	req := testutil.MakeRequest("GET", "/groups/"+groupID+"/balances", nil, testutil.AuthHeaders(bob, bobToken))
	req.SetPathValue("id", groupID)
	w := httptest.NewRecorder()

	handler.GetBalances(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.BalancesResponse
	testutil.AssertJSON(t, w, &resp)

	// alice: +9000 -3000 -1000 = 5000
	// bob:   +3000 -3000 -1500 = -1500
	// carol:       -3000 -1500 +1000 = -3500
	want := map[string]int64{alice: 5000, bob: -1500, carol: -3500}
	if len(resp.Balances) != 3 {
		t.Fatalf("Expected 3 balances, got %d", len(resp.Balances))
	}
	var sum int64
	for _, b := range resp.Balances {
		if b.Balance.Minor() != want[b.UserID] {
			t.Errorf("Balance of %s = %d, want %d", b.Email, b.Balance.Minor(), want[b.UserID])
		}
		if b.Email == "" || b.DisplayName == "" {
			t.Errorf("Expected member info on balance %+v", b)
		}
		sum += b.Balance.Minor()
	}
	if sum != 0 {
		t.Errorf("Balances should sum to zero, got %d", sum)
	}

	if resp.YourBalance.Minor() != -1500 {
		t.Errorf("Expected your_balance -1500, got %d", resp.YourBalance.Minor())
	}

	if len(resp.SuggestedTransfers) != 2 {
		t.Fatalf("Expected 2 suggested transfers, got %+v", resp.SuggestedTransfers)
	}
	first := resp.SuggestedTransfers[0]
	if first.From != carol || first.To != alice || first.Amount.Minor() != 3500 {
		t.Errorf("Unexpected first transfer %+v", first)
	}
	second := resp.SuggestedTransfers[1]
	if second.From != bob || second.To != alice || second.Amount.Minor() != 1500 {
		t.Errorf("Unexpected second transfer %+v", second)
	}
}

func TestGetBalances_EmptyGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewBalanceHandler(db, cfg)

	alice, aliceToken := testutil.CreateTestUser(t, db, cfg, "alice@example.com", "Alice")
	groupID := testutil.CreateTestGroup(t, db, cfg, alice, "Solo")

	req := testutil.MakeRequest("GET", "/groups/"+groupID+"/balances", nil, testutil.AuthHeaders(alice, aliceToken))
	req.SetPathValue("id", groupID)
	w := httptest.NewRecorder()

	handler.GetBalances(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"suggested_transfers":[]`) {
		t.Errorf("Expected an empty transfer list, got %s", w.Body.String())
	}
}

func TestGetStatement(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewBalanceHandler(db, cfg)

	alice, aliceToken := testutil.CreateTestUser(t, db, cfg, "alice@example.com", "Alice")
	bob, bobToken := testutil.CreateTestUser(t, db, cfg, "bob@example.com", "Bob")
	groupID := testutil.CreateTestGroup(t, db, cfg, alice, "Trip")
	testutil.AddTestExpense(t, db, groupID, alice, 2000, map[string]int64{alice: 2000})

	// Non-member
	req := testutil.MakeRequest("GET", "/groups/"+groupID+"/statement", nil, testutil.AuthHeaders(bob, bobToken))
	req.SetPathValue("id", groupID)
	w := httptest.NewRecorder()
	handler.GetStatement(w, req)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	req = testutil.MakeRequest("GET", "/groups/"+groupID+"/statement", nil, testutil.AuthHeaders(alice, aliceToken))
	req.SetPathValue("id", groupID)
	w = httptest.NewRecorder()
	handler.GetStatement(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Expected markdown content type, got %s", ct)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "# Trip") {
		t.Errorf("Statement should start with the group name, got %q", body)
	}
	if !strings.Contains(body, "Alice (you)") {
		t.Errorf("Statement should mark the viewer, got %q", body)
	}
}
