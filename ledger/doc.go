// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger holds the arithmetic of shared expenses: money, splits,
balances and the settlement lifecycle. It performs no I/O.

# Money

Amounts are exact integers in the currency's minor unit:

	m, err := ledger.FromDecimal(decimal.RequireFromString("12.50"), "USD")
	m.Minor()  // 1250
	m.String() // "$12.50"

Adding or comparing amounts of different currencies panics.

# Splits

An expense is divided among participants in one of three ways:

  - SplitEqual: even parts, leftover cents to the first participants
  - SplitExact: custom amounts that must add up to the total
  - SplitPercent: percentages totalling 100 (±0.01), allocated exactly

# Balances

	Balance(u) = Σ expenses paid by u
	           − Σ shares owed by u
	           + Σ paid settlements where u is the debtor
	           − Σ paid settlements where u is the creditor

A positive balance means the group owes u. SuggestTransfers turns a set
of balances into a settle-up plan of at most n-1 payments.

# Settlement Lifecycle

	pending ──mark_paid (debtor)──▶ pending_confirmation ──confirm (creditor)──▶ paid

Only paid settlements affect balances.
*/
package ledger
