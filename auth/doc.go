// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifiers, request tokens and invite codes.

# User Tokens

User tokens use HMAC-SHA256 to create deterministic, verifiable secrets:

	token := auth.GenerateUserToken(userID, salt)
	err := auth.ValidateUserToken(userID, token, salt)

The token is URL-safe base64 encoded without padding and returned once,
at registration. Clients send it with every request:

	X-User-ID: 6ba7b810-9dad-11d1-80b4-00c04fd430c8
	X-User-Token: 3q2-7wEAAA...

Nothing is stored, so rotating the salt invalidates every token.

# Invite Codes

Invite codes are short base62 strings (alphanumeric only) derived from
the group ID:

	code := auth.GenerateInviteCode(groupID, salt)

# ID Generation

Every stored entity uses a UUIDv4:

	id := auth.NewID()
	id, err := auth.ParseID(raw) // validates and lowercases
*/
package auth
