// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/fairshare/auth"
	"github.com/danielhkuo/fairshare/models"
	"github.com/danielhkuo/fairshare/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAddExpense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewExpenseHandler(db, cfg)

	alice, aliceToken := testutil.CreateTestUser(t, db, cfg, "alice@example.com", "Alice")
	bob, _ := testutil.CreateTestUser(t, db, cfg, "bob@example.com", "Bob")
	carol, _ := testutil.CreateTestUser(t, db, cfg, "carol@example.com", "Carol")
	outsider, _ := testutil.CreateTestUser(t, db, cfg, "eve@example.com", "Eve")
	groupID := testutil.CreateTestGroup(t, db, cfg, alice, "Trip")
	testutil.AddTestMember(t, db, groupID, bob)
	testutil.AddTestMember(t, db, groupID, carol)

	everyone := []string{alice, bob, carol}

	tests := []struct {
		name       string
		body       models.AddExpenseRequest
		wantStatus int
		wantShares map[string]int64
	}{
		{
			name:       "equal split gives remainder to first participant",
			body:       models.AddExpenseRequest{Description: "Dinner", Amount: dec("100.00"), Participants: everyone},
			wantStatus: http.StatusCreated,
			wantShares: map[string]int64{alice: 3334, bob: 3333, carol: 3333},
		},
		{
			name: "exact split",
			body: models.AddExpenseRequest{
				Description: "Taxi", Amount: dec("30"), PaidBy: bob, SplitType: "exact",
				Participants: []string{alice, bob},
				Custom:       map[string]decimal.Decimal{alice: dec("20"), bob: dec("10")},
			},
			wantStatus: http.StatusCreated,
			wantShares: map[string]int64{alice: 2000, bob: 1000},
		},
		{
			name: "percentage split",
			body: models.AddExpenseRequest{
				Description: "Hotel", Amount: dec("200"), SplitType: "Percentage",
				Participants: []string{alice, carol},
				Custom:       map[string]decimal.Decimal{alice: dec("75"), carol: dec("25")},
			},
			wantStatus: http.StatusCreated,
			wantShares: map[string]int64{alice: 15000, carol: 5000},
		},
		{
			name:       "missing description",
			body:       models.AddExpenseRequest{Amount: dec("10"), Participants: everyone},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "zero amount",
			body:       models.AddExpenseRequest{Description: "Nothing", Amount: dec("0"), Participants: everyone},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too many decimals",
			body:       models.AddExpenseRequest{Description: "Gum", Amount: dec("1.005"), Participants: everyone},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "amount beyond the money range",
			body:       models.AddExpenseRequest{Description: "Yacht", Amount: dec("1e20"), Participants: everyone},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "amount that wraps once converted to cents",
			body:       models.AddExpenseRequest{Description: "Yacht", Amount: dec("100000000000000000"), Participants: everyone},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no participants",
			body:       models.AddExpenseRequest{Description: "Gum", Amount: dec("1")},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "payer not a member",
			body:       models.AddExpenseRequest{Description: "Gum", Amount: dec("1"), PaidBy: outsider, Participants: everyone},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "participant not a member",
			body:       models.AddExpenseRequest{Description: "Gum", Amount: dec("1"), Participants: []string{alice, outsider}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "exact split does not add up",
			body: models.AddExpenseRequest{
				Description: "Taxi", Amount: dec("30"), SplitType: "exact",
				Participants: []string{alice, bob},
				Custom:       map[string]decimal.Decimal{alice: dec("20"), bob: dec("9.99")},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "percentages do not total 100",
			body: models.AddExpenseRequest{
				Description: "Hotel", Amount: dec("200"), SplitType: "percentage",
				Participants: []string{alice, carol},
				Custom:       map[string]decimal.Decimal{alice: dec("70"), carol: dec("25")},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown split type",
			body:       models.AddExpenseRequest{Description: "Gum", Amount: dec("1"), SplitType: "shares", Participants: everyone},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/groups/"+groupID+"/expenses", tt.body, testutil.AuthHeaders(alice, aliceToken))
			req.SetPathValue("id", groupID)
			w := httptest.NewRecorder()

			handler.AddExpense(w, req)

			testutil.AssertStatus(t, w, tt.wantStatus)
			if tt.wantStatus != http.StatusCreated {
				return
			}

			var resp models.AddExpenseResponse
			testutil.AssertJSON(t, w, &resp)

			wantPayer := tt.body.PaidBy
			if wantPayer == "" {
				wantPayer = alice
			}
			if resp.Expense.PaidBy != wantPayer {
				t.Errorf("Expected paid_by %s, got %s", wantPayer, resp.Expense.PaidBy)
			}

			// Check what was stored, not just what was returned
			rows, err := db.Query("SELECT user_id, amount FROM expense_split WHERE expense_id = $1", resp.ExpenseID)
			if err != nil {
				t.Fatal(err)
			}
			defer rows.Close()

			got := map[string]int64{}
			for rows.Next() {
				var userID string
				var amount int64
				if err := rows.Scan(&userID, &amount); err != nil {
					t.Fatal(err)
				}
				got[userID] = amount
			}
			if len(got) != len(tt.wantShares) {
				t.Fatalf("Expected %d splits, got %v", len(tt.wantShares), got)
			}
			for userID, want := range tt.wantShares {
				if got[userID] != want {
					t.Errorf("Split for %s = %d, want %d", userID, got[userID], want)
				}
			}
		})
	}

	t.Run("non-member cannot add", func(t *testing.T) {
		token := auth.GenerateUserToken(outsider, cfg.TokenSalt)
		body := models.AddExpenseRequest{Description: "Gum", Amount: dec("1"), Participants: everyone}
		req := testutil.MakeRequest("POST", "/groups/"+groupID+"/expenses", body, testutil.AuthHeaders(outsider, token))
		req.SetPathValue("id", groupID)
		w := httptest.NewRecorder()

		handler.AddExpense(w, req)

		testutil.AssertStatus(t, w, http.StatusForbidden)
	})
}

func TestListExpenses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewExpenseHandler(db, cfg)

	alice, aliceToken := testutil.CreateTestUser(t, db, cfg, "alice@example.com", "Alice")
	bob, _ := testutil.CreateTestUser(t, db, cfg, "bob@example.com", "Bob")
	groupID := testutil.CreateTestGroup(t, db, cfg, alice, "Trip")
	testutil.AddTestMember(t, db, groupID, bob)

	req := testutil.MakeRequest("GET", "/groups/"+groupID+"/expenses", nil, testutil.AuthHeaders(alice, aliceToken))
	req.SetPathValue("id", groupID)
	w := httptest.NewRecorder()
	handler.ListExpenses(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ListExpensesResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Expenses == nil || len(resp.Expenses) != 0 {
		t.Errorf("Expected an empty expense list, got %v", resp.Expenses)
	}

	testutil.AddTestExpense(t, db, groupID, alice, 1200, map[string]int64{alice: 600, bob: 600})
	testutil.AddTestExpense(t, db, groupID, bob, 500, map[string]int64{alice: 500})

	req = testutil.MakeRequest("GET", "/groups/"+groupID+"/expenses", nil, testutil.AuthHeaders(alice, aliceToken))
	req.SetPathValue("id", groupID)
	w = httptest.NewRecorder()
	handler.ListExpenses(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	resp = models.ListExpensesResponse{}
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Expenses) != 2 {
		t.Fatalf("Expected 2 expenses, got %d", len(resp.Expenses))
	}

	var total int64
	for _, e := range resp.Expenses {
		if e.Amount.Currency() != "USD" {
			t.Errorf("Expected USD, got %s", e.Amount.Currency())
		}
		var splitSum int64
		for _, s := range e.Splits {
			splitSum += s.Amount.Minor()
		}
		if splitSum != e.Amount.Minor() {
			t.Errorf("Splits of %s add up to %d, want %d", e.ID, splitSum, e.Amount.Minor())
		}
		total += e.Amount.Minor()
	}
	if total != 1700 {
		t.Errorf("Expected total 1700, got %d", total)
	}
}

func TestDeleteExpense(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewExpenseHandler(db, cfg)

	alice, aliceToken := testutil.CreateTestUser(t, db, cfg, "alice@example.com", "Alice")
	bob, bobToken := testutil.CreateTestUser(t, db, cfg, "bob@example.com", "Bob")
	carol, carolToken := testutil.CreateTestUser(t, db, cfg, "carol@example.com", "Carol")
	groupID := testutil.CreateTestGroup(t, db, cfg, alice, "Trip")
	testutil.AddTestMember(t, db, groupID, bob)
	testutil.AddTestMember(t, db, groupID, carol)

	byBob := testutil.AddTestExpense(t, db, groupID, bob, 900, map[string]int64{alice: 300, bob: 300, carol: 300})
	alsoByBob := testutil.AddTestExpense(t, db, groupID, bob, 400, map[string]int64{bob: 200, carol: 200})

	otherGroup := testutil.CreateTestGroup(t, db, cfg, carol, "Other")
	elsewhere := testutil.AddTestExpense(t, db, otherGroup, carol, 100, map[string]int64{carol: 100})

	tests := []struct {
		name       string
		expenseID  string
		headers    map[string]string
		wantStatus int
	}{
		{"other member cannot delete", byBob, testutil.AuthHeaders(carol, carolToken), http.StatusForbidden},
		{"expense from another group", elsewhere, testutil.AuthHeaders(alice, aliceToken), http.StatusNotFound},
		{"unknown expense", auth.NewID(), testutil.AuthHeaders(alice, aliceToken), http.StatusNotFound},
		{"payer can delete", byBob, testutil.AuthHeaders(bob, bobToken), http.StatusNoContent},
		{"creator can delete", alsoByBob, testutil.AuthHeaders(alice, aliceToken), http.StatusNoContent},
		{"already deleted", byBob, testutil.AuthHeaders(bob, bobToken), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("DELETE", "/groups/"+groupID+"/expenses/"+tt.expenseID, nil, tt.headers)
			req.SetPathValue("id", groupID)
			req.SetPathValue("expense_id", tt.expenseID)
			w := httptest.NewRecorder()

			handler.DeleteExpense(w, req)

			testutil.AssertStatus(t, w, tt.wantStatus)
		})
	}

	var splits int
	db.QueryRow(`
		SELECT COUNT(*) FROM expense_split s JOIN expense e ON e.id = s.expense_id WHERE e.group_id = $1
	`, groupID).Scan(&splits)
	if splits != 0 {
		t.Errorf("Expected splits to cascade, %d left", splits)
	}
}
