// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line flags and configuration.

# Configuration

ParseFlags returns a fully validated Config:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Subcommands that own their FlagSet bind the same flags and resolve after
parsing:

	b := cliparse.Bind(fs)
	// fs.Parse(...)
	cfg, err := b.Resolve()

# Sources

Values are taken, highest priority first, from

 1. flags that were set explicitly
 2. environment variables (kelseyhightower/envconfig)
 3. a dotenv file (joho/godotenv, -env-file, default .env, may be missing)
 4. defaults

# Flags and Environment Variables

	-p            PORT              default 3318
	-d            DATABASE_URL      required
	-t            DATABASE_TYPE     sqlite or postgres, default sqlite
	-currency     DEFAULT_CURRENCY  ISO 4217 code, default USD
	-base-url     BASE_URL          default http://localhost:3318
	-token-salt   USER_TOKEN_SALT   required by serve
	-invite-salt  INVITE_SALT       required by serve

# Validation

Resolve rejects an out-of-range port, a missing database URL, an unknown
database type and an unknown currency. ValidateSecrets checks the two
salts and is only called by commands that issue or verify tokens.
*/
package cliparse
