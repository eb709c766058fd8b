// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/danielhkuo/fairshare/db"
	"github.com/danielhkuo/fairshare/ledger"
)

// Statement writes a Markdown statement of gl as seen by viewer. Times are
// shown relative to now. An empty viewer renders a neutral statement.
func Statement(w io.Writer, gl *db.GroupLedger, viewer string, now time.Time) error {
	sum := gl.Summary(viewer)
	names := nameIndex(gl, viewer)

	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", escape(gl.Group.Name))
	if gl.Group.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", escape(gl.Group.Description))
	}
	fmt.Fprintf(&b, "%s, %s, %s spent in total.\n\n",
		gl.Group.Currency,
		english.Plural(len(gl.Members), "member", ""),
		sum.TotalSpent,
	)

	if viewer != "" {
		fmt.Fprintf(&b, "**You %s.**\n\n", position(sum.Viewer, "are owed", "owe"))
	}

	b.WriteString("## Balances\n\n")
	b.WriteString("| Member | Balance | Status |\n")
	b.WriteString("|---|---:|---|\n")
	for _, bal := range sum.Balances {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", names.of(bal.UserID), signed(bal.Amount), position(bal.Amount, "is owed", "owes"))
	}
	b.WriteString("\n")

	b.WriteString("## Suggested transfers\n\n")
	if len(sum.Transfers) == 0 {
		b.WriteString("Everyone is settled up.\n\n")
	} else {
		for _, t := range sum.Transfers {
			fmt.Fprintf(&b, "- %s pays %s **%s**\n", names.of(t.From), names.of(t.To), t.Amount)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Expenses\n\n")
	if len(gl.Expenses) == 0 {
		b.WriteString("No expenses yet.\n\n")
	} else {
		b.WriteString("| When | Description | Paid by | Amount | Split |\n")
		b.WriteString("|---|---|---|---:|---|\n")
		for _, e := range gl.Expenses {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s, %s |\n",
				humanize.RelTime(e.CreatedAt, now, "ago", "from now"),
				escape(e.Description),
				names.of(e.PaidBy),
				e.Amount,
				e.SplitType,
				english.Plural(len(e.Splits), "person", "people"),
			)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Settlements\n\n")
	if len(gl.Settlements) == 0 {
		b.WriteString("No settlements yet.\n")
	} else {
		for _, s := range gl.Settlements {
			fmt.Fprintf(&b, "- %s to %s **%s**: %s\n", names.of(s.FromUser), names.of(s.ToUser), s.Amount, settlementState(s.Status, s.CreatedAt, s.SettledAt, s.PaymentMethod, now))
		}
	}

	_, err := b.WriteTo(w)
	return err
}

func settlementState(status ledger.Status, created time.Time, settled *time.Time, method *string, now time.Time) string {
	via := ""
	if method != nil {
		via = " via " + strings.ReplaceAll(*method, "_", " ")
	}

	switch status {
	case ledger.StatusPaid:
		when := created
		if settled != nil {
			when = *settled
		}
		return "confirmed " + humanize.RelTime(when, now, "ago", "from now") + via
	case ledger.StatusPendingConfirmation:
		return "awaiting confirmation" + via
	default:
		return "pending since " + humanize.RelTime(created, now, "ago", "from now")
	}
}

// position describes a balance from the owner's point of view
func position(m ledger.Money, owed, owes string) string {
	switch {
	case m.IsPositive():
		return owed + " " + m.String()
	case m.IsNegative():
		return owes + " " + m.Abs().String()
	}
	return "settled up"
}

func signed(m ledger.Money) string {
	if m.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

type names map[string]string

func (n names) of(userID string) string {
	if name, ok := n[userID]; ok {
		return name
	}
	return userID
}

// nameIndex maps user IDs to display names. Former members only appear
// in records, so their email is the best label available.
func nameIndex(gl *db.GroupLedger, viewer string) names {
	n := make(names)
	for _, e := range gl.Expenses {
		n[e.PaidBy] = escape(e.PaidByEmail)
		for _, s := range e.Splits {
			n[s.UserID] = escape(s.Email)
		}
	}
	for _, s := range gl.Settlements {
		n[s.FromUser] = escape(s.FromUserEmail)
		n[s.ToUser] = escape(s.ToUserEmail)
	}
	for _, m := range gl.Members {
		name := m.DisplayName
		if name == "" {
			name = m.Email
		}
		n[m.UserID] = escape(name)
	}
	if name, ok := n[viewer]; ok {
		n[viewer] = name + " (you)"
	}
	return n
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "\n", " ")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
