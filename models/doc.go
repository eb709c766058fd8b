// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - RegisterUserRequest: email, display_name
  - UpdateProfileRequest: display_name, upi_qr_code_url (both optional)
  - CreateGroupRequest: name, description, currency
  - AddMemberRequest: user_id
  - JoinGroupRequest: invite_code
  - AddExpenseRequest: description, amount, paid_by, split_type, participants, custom
  - CreateSettlementRequest: to_user, amount (optional)
  - MarkPaidRequest: payment_method

Amounts are decoded with shopspring/decimal and accept either JSON
numbers or strings ("12.50").

# Response Types

  - RegisterUserResponse: user_id, token
  - CreateGroupResponse: group_id, invite_code
  - ListGroupsResponse: groups with member_count, total_expenses, your_balance
  - GroupDetailResponse: group, members, expenses with splits
  - BalancesResponse: balances, your_balance, suggested_transfers
  - ListSettlementsResponse: settlements involving the caller
  - ErrorResponse: error, message

# Domain Types

  - User, UserInfo: profiles
  - Group, Member: groups and memberships
  - Expense, ExpenseSplit: who paid and who owes
  - Settlement: a debtor-to-creditor payment moving through
    pending → pending_confirmation → paid

Money fields use ledger.Money, which encodes as

	{"amount": "12.50", "currency": "USD", "display": "$12.50"}
*/
package models
