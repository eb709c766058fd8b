// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cmd implements the fairshare subcommands.

	fairshare serve    -d <url> [-t sqlite|postgres] [-p port]
	fairshare schema   -d <url>
	fairshare balances -g <group id>
	fairshare report   -g <group id> [-as <user id>] [-raw] [-w width]

Every command reads its configuration with cliparse, so the same
environment variables and .env file apply. serve additionally needs
USER_TOKEN_SALT and INVITE_SALT. The balances and report commands read
the database directly and need no credentials.
*/
package cmd
