package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/danielhkuo/fairshare/ledger"
)

type Config struct {
	Port            int    `envconfig:"PORT" default:"3318"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	DatabaseType    string `envconfig:"DATABASE_TYPE" default:"sqlite"`
	TokenSalt       string `envconfig:"USER_TOKEN_SALT"`
	InviteSalt      string `envconfig:"INVITE_SALT"`
	DefaultCurrency string `envconfig:"DEFAULT_CURRENCY" default:"USD"`
	BaseURL         string `envconfig:"BASE_URL" default:"http://localhost:3318"`
}

// Binding holds the flag values registered on a FlagSet until Resolve
// merges them with the environment.
type Binding struct {
	fs      *flag.FlagSet
	flags   Config
	envFile string
}

// Bind registers the configuration flags on fs
func Bind(fs *flag.FlagSet) *Binding {
	b := &Binding{fs: fs}

	// Network config (can be CLI args or env)
	fs.IntVar(&b.flags.Port, "p", 0, "Server port")
	fs.StringVar(&b.flags.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&b.flags.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&b.flags.DefaultCurrency, "currency", "", "Default currency for new groups")
	fs.StringVar(&b.flags.BaseURL, "base-url", "", "Public base URL used in invite links")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&b.flags.TokenSalt, "token-salt", "", "User token salt (prefer env)")
	fs.StringVar(&b.flags.InviteSalt, "invite-salt", "", "Invite code salt (prefer env)")

	fs.StringVar(&b.envFile, "env-file", ".env", "Optional dotenv file")
	return b
}

// Resolve loads the env file and environment, then applies any flags that
// were set explicitly. Call it after the FlagSet has been parsed.
func (b *Binding) Resolve() (Config, error) {
	if b.envFile != "" {
		// Existing environment variables win over the file
		if err := godotenv.Load(b.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", b.envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	b.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Port = b.flags.Port
		case "d":
			cfg.DatabaseURL = b.flags.DatabaseURL
		case "t":
			cfg.DatabaseType = b.flags.DatabaseType
		case "currency":
			cfg.DefaultCurrency = b.flags.DefaultCurrency
		case "base-url":
			cfg.BaseURL = b.flags.BaseURL
		case "token-salt":
			cfg.TokenSalt = b.flags.TokenSalt
		case "invite-salt":
			cfg.InviteSalt = b.flags.InviteSalt
		}
	})

	cfg.DatabaseType = strings.ToLower(cfg.DatabaseType)
	cfg.DefaultCurrency = strings.ToUpper(cfg.DefaultCurrency)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q (sqlite or postgres)", cfg.DatabaseType)
	}
	if !ledger.ValidCurrency(cfg.DefaultCurrency) {
		return Config{}, fmt.Errorf("unknown currency %q", cfg.DefaultCurrency)
	}

	return cfg, nil
}

// ValidateSecrets reports a missing salt. Only commands that issue or
// check tokens need them.
func (c Config) ValidateSecrets() error {
	if c.TokenSalt == "" {
		return errors.New("USER_TOKEN_SALT required")
	}
	if c.InviteSalt == "" {
		return errors.New("INVITE_SALT required")
	}
	return nil
}

// ParseFlags parses args and returns a fully validated Config
func ParseFlags(args []string) (Config, error) {
	fs := flag.NewFlagSet("fairshare", flag.ContinueOnError)
	b := Bind(fs)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg, err := b.Resolve()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ValidateSecrets(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
