// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"sort"
)

// Expense is the part of a recorded expense that balances depend on.
type Expense struct {
	PaidBy string
	Amount Money
}

// Share is one member's portion of an expense.
type Share struct {
	UserID string
	Amount Money
}

// Transfer moves Amount from the debtor From to the creditor To. It
// describes paid settlements as well as suggested payments.
type Transfer struct {
	From   string `json:"from_user"`
	To     string `json:"to_user"`
	Amount Money  `json:"amount"`
}

// Balance is a user's net position in a group. Positive means the
// group owes the user, negative means the user owes the group.
type Balance struct {
	UserID string `json:"user_id"`
	Amount Money  `json:"balance"`
}

// ComputeBalances derives every member's balance:
//
//	paid expenses - owed shares + settlements paid as debtor - settlements received as creditor
//
// Only settlements in StatusPaid belong in paid. The result follows the
// order of members. Users that appear in the records without being
// members are appended in ID order when their balance is non-zero.
func ComputeBalances(currency string, members []string, expenses []Expense, shares []Share, paid []Transfer) []Balance {
	totals := make(map[string]Money)
	add := func(user string, m Money) {
		t, ok := totals[user]
		if !ok {
			t = Zero(currency)
		}
		totals[user] = t.Add(m)
	}

	for _, e := range expenses {
		add(e.PaidBy, e.Amount)
	}
	for _, s := range shares {
		add(s.UserID, s.Amount.Neg())
	}
	for _, t := range paid {
		add(t.From, t.Amount)
		add(t.To, t.Amount.Neg())
	}

	balances := make([]Balance, 0, len(members))
	seen := make(map[string]bool, len(members))
	for _, id := range members {
		if seen[id] {
			continue
		}
		seen[id] = true
		amount, ok := totals[id]
		if !ok {
			amount = Zero(currency)
		}
		balances = append(balances, Balance{UserID: id, Amount: amount})
	}

	var others []string
	for id, amount := range totals {
		if !seen[id] && !amount.IsZero() {
			others = append(others, id)
		}
	}
	sort.Strings(others)
	for _, id := range others {
		balances = append(balances, Balance{UserID: id, Amount: totals[id]})
	}

	return balances
}

// BalanceOf returns the balance of user, or zero if absent.
func BalanceOf(balances []Balance, user, currency string) Money {
	for _, b := range balances {
		if b.UserID == user {
			return b.Amount
		}
	}
	return Zero(currency)
}

// SuggestTransfers returns a settle-up plan. It repeatedly pays the
// largest creditor from the largest debtor, so there are at most n-1
// transfers. Ties break by user ID for a stable plan.
func SuggestTransfers(balances []Balance) []Transfer {
	var debtors, creditors []Balance
	for _, b := range balances {
		switch {
		case b.Amount.IsNegative():
			debtors = append(debtors, Balance{UserID: b.UserID, Amount: b.Amount.Neg()})
		case b.Amount.IsPositive():
			creditors = append(creditors, b)
		}
	}
	byAmountDesc := func(s []Balance) {
		sort.Slice(s, func(i, j int) bool {
			if c := s[i].Amount.Cmp(s[j].Amount); c != 0 {
				return c > 0
			}
			return s[i].UserID < s[j].UserID
		})
	}
	byAmountDesc(debtors)
	byAmountDesc(creditors)

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := Min(debtors[i].Amount, creditors[j].Amount)
		transfers = append(transfers, Transfer{
			From:   debtors[i].UserID,
			To:     creditors[j].UserID,
			Amount: amount,
		})
		debtors[i].Amount = debtors[i].Amount.Sub(amount)
		creditors[j].Amount = creditors[j].Amount.Sub(amount)
		if debtors[i].Amount.IsZero() {
			i++
		}
		if creditors[j].Amount.IsZero() {
			j++
		}
	}
	return transfers
}

// SuggestedAmount returns what from should pay to in plan, if anything.
func SuggestedAmount(plan []Transfer, from, to string) (Money, bool) {
	for _, t := range plan {
		if t.From == from && t.To == to {
			return t.Amount, true
		}
	}
	return Money{}, false
}
