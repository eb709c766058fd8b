// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the FairShare API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - UserHandler: Registration, profile and user search
  - GroupHandler: Groups, invites and membership
  - ExpenseHandler: Expenses and their splits
  - BalanceHandler: Balances, suggested transfers and statements
  - SettlementHandler: The settlement lifecycle

Handlers are created via constructor functions that accept *sql.DB and Config:

	groupHandler := handlers.NewGroupHandler(db, cfg)

# Authentication

Every route except registration requires the X-User-ID and X-User-Token
headers. Group routes also require membership of the group named by the
{id} path value, otherwise they answer 403.

# Splits

	POST /groups/{id}/expenses

split_type is equal (default), exact or percentage. custom maps each
participant to an amount or a percentage. Amounts are decimal strings in
the group currency and are stored as minor units.

# Settlement Lifecycle

Settlements progress through three states: pending → pending_confirmation → paid

	POST /groups/{id}/settlements    → CreateSettlement (debtor, defaults to the suggested amount)
	POST /settlements/{id}/mark-paid → MarkPaid (debtor)
	POST /settlements/{id}/confirm   → ConfirmSettlement (creditor)

Transitions are applied with a conditional UPDATE on the current status,
so of two racing requests only one succeeds and the other gets 409. Only
paid settlements count towards balances.
*/
package handlers
