// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cmd

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"

	"github.com/danielhkuo/fairshare/auth"
	"github.com/danielhkuo/fairshare/db"
	"github.com/danielhkuo/fairshare/ledger"
	"github.com/danielhkuo/fairshare/testutil"
)

type seeded struct {
	dsn               string
	groupID           string
	alice, bob, carol string
}

// seedDB writes a group to a database file: alice paid 90.00 for the
// three of them, bob paid 30.00 for bob and carol, and carol has paid
// alice 10.00.
func seedDB(t *testing.T) seeded {
	t.Helper()

	clearConfigEnv(t)
	s := seeded{dsn: "file:" + filepath.Join(t.TempDir(), "fairshare.db")}

	conn, err := db.Open(db.DriverSQLite, s.dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err := db.CreateSchema(conn); err != nil {
		t.Fatal(err)
	}

	cfg := testutil.GetTestConfig()
	s.alice, _ = testutil.CreateTestUser(t, conn, cfg, "alice@example.com", "Alice")
	s.bob, _ = testutil.CreateTestUser(t, conn, cfg, "bob@example.com", "Bob")
	s.carol, _ = testutil.CreateTestUser(t, conn, cfg, "carol@example.com", "Carol")
	s.groupID = testutil.CreateTestGroup(t, conn, cfg, s.alice, "Trip")
	testutil.AddTestMember(t, conn, s.groupID, s.bob)
	testutil.AddTestMember(t, conn, s.groupID, s.carol)
	testutil.AddTestExpense(t, conn, s.groupID, s.alice, 9000, map[string]int64{s.alice: 3000, s.bob: 3000, s.carol: 3000})
	testutil.AddTestExpense(t, conn, s.groupID, s.bob, 3000, map[string]int64{s.bob: 1500, s.carol: 1500})
	testutil.CreateTestSettlement(t, conn, s.groupID, s.carol, s.alice, 1000, ledger.StatusPaid)

	return s
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DATABASE_URL", "DATABASE_TYPE", "USER_TOKEN_SALT", "INVITE_SALT", "DEFAULT_CURRENCY", "BASE_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()

	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)
	if err := fs.Parse(append([]string{"-env-file", ""}, args...)); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return c.Execute(context.Background(), fs)
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"serve": false, "schema": false, "balances": false, "report": false}
	for _, c := range Commands {
		if _, ok := want[c.Name()]; !ok {
			t.Errorf("unexpected command %q", c.Name())
		}
		want[c.Name()] = true
		if c.Synopsis() == "" || c.Usage() == "" {
			t.Errorf("command %q lacks help text", c.Name())
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestSchemaCmd(t *testing.T) {
	clearConfigEnv(t)
	dsn := "file:" + filepath.Join(t.TempDir(), "schema.db")

	for i := 0; i < 2; i++ {
		var out bytes.Buffer
		if got := run(t, &schemaCmd{out: &out}, "-d", dsn); got != subcommands.ExitSuccess {
			t.Fatalf("run %d: status = %v, want success", i, got)
		}
		if !strings.Contains(out.String(), "Schema ready on sqlite") {
			t.Errorf("unexpected output %q", out.String())
		}
	}

	if got := run(t, &schemaCmd{}, "-d", dsn, "-t", "oracle"); got != subcommands.ExitUsageError {
		t.Errorf("unsupported type: status = %v, want usage error", got)
	}
}

func TestBalancesCmd(t *testing.T) {
	s := seedDB(t)

	var out bytes.Buffer
	if got := run(t, &balancesCmd{out: &out}, "-d", s.dsn, "-g", s.groupID); got != subcommands.ExitSuccess {
		t.Fatalf("status = %v, want success", got)
	}

	text := out.String()
	for _, want := range []string{
		"Trip (USD), $120.00 spent, 0 settlements outstanding",
		"alice@example.com",
		"carol@example.com -> alice@example.com: $35.00",
		"bob@example.com -> alice@example.com: $15.00",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestBalancesCmd_Errors(t *testing.T) {
	s := seedDB(t)

	tests := []struct {
		name string
		args []string
		want subcommands.ExitStatus
	}{
		{"missing group", []string{"-d", s.dsn}, subcommands.ExitUsageError},
		{"missing database", []string{"-g", s.groupID}, subcommands.ExitUsageError},
		{"unknown group", []string{"-d", s.dsn, "-g", auth.NewID()}, subcommands.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if got := run(t, &balancesCmd{out: &out}, tt.args...); got != tt.want {
				t.Errorf("status = %v, want %v", got, tt.want)
			}
			if out.Len() != 0 {
				t.Errorf("expected no output, got %q", out.String())
			}
		})
	}
}

func TestReportCmd_Raw(t *testing.T) {
	s := seedDB(t)

	var out bytes.Buffer
	if got := run(t, &reportCmd{out: &out}, "-d", s.dsn, "-g", s.groupID, "-as", s.bob, "-raw"); got != subcommands.ExitSuccess {
		t.Fatalf("status = %v, want success", got)
	}

	text := out.String()
	if !strings.HasPrefix(text, "# Trip") {
		t.Errorf("expected the Markdown header first, got %q", text)
	}
	for _, want := range []string{"Bob (you)", "**You owe $15.00.**", "- Carol pays Alice **$35.00**"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestReportCmd_Rendered(t *testing.T) {
	s := seedDB(t)

	var out bytes.Buffer
	if got := run(t, &reportCmd{out: &out}, "-d", s.dsn, "-g", s.groupID, "-w", "60"); got != subcommands.ExitSuccess {
		t.Fatalf("status = %v, want success", got)
	}
	for _, want := range []string{"Trip", "Alice", "transfers"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("rendered output lost %q: %q", want, out.String())
		}
	}
}

func TestReportCmd_ViewerMustBeMember(t *testing.T) {
	s := seedDB(t)

	if got := run(t, &reportCmd{}, "-d", s.dsn, "-g", s.groupID, "-as", auth.NewID(), "-raw"); got != subcommands.ExitUsageError {
		t.Errorf("status = %v, want usage error", got)
	}
}

func TestServeCmd_RequiresSecrets(t *testing.T) {
	clearConfigEnv(t)
	dsn := "file:" + filepath.Join(t.TempDir(), "serve.db")

	if got := run(t, &serveCmd{}, "-d", dsn); got != subcommands.ExitUsageError {
		t.Errorf("status = %v, want usage error", got)
	}
	if got := run(t, &serveCmd{}, "-d", dsn, "-token-salt", "a"); got != subcommands.ExitUsageError {
		t.Errorf("missing invite salt: status = %v, want usage error", got)
	}
}
