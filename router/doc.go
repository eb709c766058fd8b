// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the FairShare API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Users (POST /users is the only unauthenticated route):

	POST  /users              - Register, returns the request token
	GET   /users/me           - Own profile
	PATCH /users/me           - Update display name or UPI QR code URL
	GET   /users/search?email - Find users to add to a group

Groups (requires X-User-ID and X-User-Token):

	POST   /groups                          - Create group
	GET    /groups                          - List own groups with balances
	POST   /groups/join                     - Join with an invite code
	GET    /groups/{id}                     - Members and expenses
	DELETE /groups/{id}                     - Delete (creator only)
	GET    /groups/{id}/invite              - Invite code and URL
	POST   /groups/{id}/members             - Add a member
	DELETE /groups/{id}/members/{user_id}   - Remove a member (creator only)

Expenses:

	POST   /groups/{id}/expenses              - Add expense with equal, exact or percentage split
	GET    /groups/{id}/expenses              - List expenses with splits
	DELETE /groups/{id}/expenses/{expense_id} - Delete (payer or creator)

Balances:

	GET /groups/{id}/balances  - Balances and suggested transfers
	GET /groups/{id}/statement - Markdown statement

Settlements:

	POST /groups/{id}/settlements    - Open a settlement (debtor)
	GET  /groups/{id}/settlements    - Settlements involving the caller
	POST /settlements/{id}/mark-paid - pending -> pending_confirmation (debtor)
	POST /settlements/{id}/confirm   - pending_confirmation -> paid (creditor)
*/
package router
