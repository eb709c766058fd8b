// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package report writes Markdown statements of a group's ledger and
// renders them for the terminal.
//
//	var buf bytes.Buffer
//	err := report.Statement(&buf, gl, userID, time.Now())
//	out, err := report.Render(buf.String(), 100)
package report
