// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/fairshare/ledger"
	"github.com/danielhkuo/fairshare/models"
)

// GroupLedger is everything needed to show and balance one group
type GroupLedger struct {
	Group       models.Group
	Members     []models.Member
	Expenses    []models.Expense    // newest first
	Settlements []models.Settlement // newest first
}

// Summary is the derived state of a GroupLedger as seen by one user
type Summary struct {
	Balances    []ledger.Balance
	Viewer      ledger.Money
	Transfers   []ledger.Transfer
	TotalSpent  ledger.Money
	Outstanding int // settlements not yet paid
}

// LoadGroupLedger reads a group with its members, expenses, splits and
// settlements. Returns ErrNotFound if the group does not exist.
func LoadGroupLedger(ctx context.Context, q Queryer, groupID string) (*GroupLedger, error) {
	group, err := GetGroup(ctx, q, groupID)
	if err != nil {
		return nil, err
	}

	members, err := ListMembers(ctx, q, groupID)
	if err != nil {
		return nil, err
	}

	expenses, err := ListExpenses(ctx, q, groupID, group.Currency)
	if err != nil {
		return nil, err
	}

	settlements, err := ListSettlements(ctx, q, groupID, "")
	if err != nil {
		return nil, err
	}

	return &GroupLedger{
		Group:       group,
		Members:     members,
		Expenses:    expenses,
		Settlements: settlements,
	}, nil
}

// Summary computes balances from all splits and the paid settlements
func (g *GroupLedger) Summary(viewer string) Summary {
	cur := g.Group.Currency

	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}

	total := ledger.Zero(cur)
	var expenses []ledger.Expense
	var shares []ledger.Share
	for _, e := range g.Expenses {
		total = total.Add(e.Amount)
		expenses = append(expenses, ledger.Expense{PaidBy: e.PaidBy, Amount: e.Amount})
		for _, s := range e.Splits {
			shares = append(shares, ledger.Share{UserID: s.UserID, Amount: s.Amount})
		}
	}

	var paid []ledger.Transfer
	outstanding := 0
	for _, s := range g.Settlements {
		if s.Status == ledger.StatusPaid {
			paid = append(paid, ledger.Transfer{From: s.FromUser, To: s.ToUser, Amount: s.Amount})
		} else {
			outstanding++
		}
	}

	balances := ledger.ComputeBalances(cur, ids, expenses, shares, paid)
	return Summary{
		Balances:    balances,
		Viewer:      ledger.BalanceOf(balances, viewer, cur),
		Transfers:   ledger.SuggestTransfers(balances),
		TotalSpent:  total,
		Outstanding: outstanding,
	}
}

// Member returns the membership of userID, if any
func (g *GroupLedger) Member(userID string) (models.Member, bool) {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return models.Member{}, false
}

// GetGroup returns ErrNotFound if the group does not exist
func GetGroup(ctx context.Context, q Queryer, groupID string) (models.Group, error) {
	var g models.Group
	err := q.QueryRowContext(ctx, `
		SELECT id, name, description, currency, created_by, created_at
		FROM expense_group
		WHERE id = $1
	`, groupID).Scan(&g.ID, &g.Name, &g.Description, &g.Currency, &g.CreatedBy, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrNotFound
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("query group: %w", err)
	}
	return g, nil
}

// IsMember reports whether userID belongs to groupID
func IsMember(ctx context.Context, q Queryer, groupID, userID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM group_member WHERE group_id = $1 AND user_id = $2
	`, groupID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query membership: %w", err)
	}
	return n > 0, nil
}

// ListMembers returns members with their profiles in join order
func ListMembers(ctx context.Context, q Queryer, groupID string) ([]models.Member, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT m.id, m.group_id, m.user_id, u.email, u.display_name, u.upi_qr_code_url, m.joined_at
		FROM group_member m
		JOIN app_user u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at, u.email
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		var qr sql.NullString
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Email, &m.DisplayName, &qr, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.UPIQRCodeURL = nullString(qr)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// ListExpenses returns the group's expenses, newest first, each with its splits
func ListExpenses(ctx context.Context, q Queryer, groupID, currency string) ([]models.Expense, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT e.id, e.group_id, e.description, e.amount, e.paid_by, u.email, e.split_type, e.created_at
		FROM expense e
		JOIN app_user u ON u.id = e.paid_by
		WHERE e.group_id = $1
		ORDER BY e.created_at DESC, e.id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}

	expenses := []models.Expense{}
	index := make(map[string]int)
	for rows.Next() {
		var e models.Expense
		var amount int64
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &amount, &e.PaidBy, &e.PaidByEmail, &e.SplitType, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Amount = ledger.NewMoney(amount, currency)
		e.Splits = []models.ExpenseSplit{}
		index[e.ID] = len(expenses)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	// Close before the next query, SQLite runs on a single connection
	rows.Close()

	splits, err := queryExpenseSplits(ctx, q, currency, `
		JOIN expense e ON e.id = s.expense_id
		WHERE e.group_id = $1
	`, groupID)
	if err != nil {
		return nil, err
	}
	for _, s := range splits {
		if i, ok := index[s.ExpenseID]; ok {
			expenses[i].Splits = append(expenses[i].Splits, s)
		}
	}
	return expenses, nil
}

// ListExpenseSplits returns the splits of one expense
func ListExpenseSplits(ctx context.Context, q Queryer, expenseID, currency string) ([]models.ExpenseSplit, error) {
	return queryExpenseSplits(ctx, q, currency, `WHERE s.expense_id = $1`, expenseID)
}

func queryExpenseSplits(ctx context.Context, q Queryer, currency, where string, args ...any) ([]models.ExpenseSplit, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT s.id, s.expense_id, s.user_id, u.email, s.amount, s.settled, s.settled_at, s.payment_method
		FROM expense_split s
		JOIN app_user u ON u.id = s.user_id
		`+where+`
		ORDER BY u.email`, args...)
	if err != nil {
		return nil, fmt.Errorf("query splits: %w", err)
	}
	defer rows.Close()

	splits := []models.ExpenseSplit{}
	for rows.Next() {
		var s models.ExpenseSplit
		var amount int64
		var settledAt sql.NullTime
		var method sql.NullString
		if err := rows.Scan(&s.ID, &s.ExpenseID, &s.UserID, &s.Email, &amount, &s.Settled, &settledAt, &method); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		s.Amount = ledger.NewMoney(amount, currency)
		s.SettledAt = nullTime(settledAt)
		s.PaymentMethod = nullString(method)
		splits = append(splits, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate splits: %w", err)
	}
	return splits, nil
}

const settlementSelect = `
	SELECT s.id, s.group_id, s.from_user, s.to_user, s.amount, s.status, s.payment_method,
	       s.created_at, s.settled_at, fu.email, tu.email, tu.upi_qr_code_url, g.currency
	FROM settlement s
	JOIN expense_group g ON g.id = s.group_id
	JOIN app_user fu ON fu.id = s.from_user
	JOIN app_user tu ON tu.id = s.to_user
`

// GetSettlement returns ErrNotFound if the settlement does not exist
func GetSettlement(ctx context.Context, q Queryer, settlementID string) (models.Settlement, error) {
	s, err := scanSettlement(q.QueryRowContext(ctx, settlementSelect+`WHERE s.id = $1`, settlementID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settlement{}, ErrNotFound
	}
	if err != nil {
		return models.Settlement{}, fmt.Errorf("query settlement: %w", err)
	}
	return s, nil
}

// ListSettlements returns the group's settlements, newest first. A
// non-empty userID keeps only those where the user is debtor or creditor.
func ListSettlements(ctx context.Context, q Queryer, groupID, userID string) ([]models.Settlement, error) {
	query := settlementSelect + `WHERE s.group_id = $1`
	args := []any{groupID}
	if userID != "" {
		query += ` AND (s.from_user = $2 OR s.to_user = $2)`
		args = append(args, userID)
	}
	query += ` ORDER BY s.created_at DESC, s.id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query settlements: %w", err)
	}
	defer rows.Close()

	settlements := []models.Settlement{}
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlements: %w", err)
	}
	return settlements, nil
}

func scanSettlement(row scanner) (models.Settlement, error) {
	var s models.Settlement
	var amount int64
	var status, currency string
	var method, qr sql.NullString
	var settledAt sql.NullTime
	err := row.Scan(&s.ID, &s.GroupID, &s.FromUser, &s.ToUser, &amount, &status, &method,
		&s.CreatedAt, &settledAt, &s.FromUserEmail, &s.ToUserEmail, &qr, &currency)
	if err != nil {
		return models.Settlement{}, err
	}
	s.Amount = ledger.NewMoney(amount, currency)
	s.Status = ledger.Status(status)
	s.PaymentMethod = nullString(method)
	s.SettledAt = nullTime(settledAt)
	s.ToUserQRCode = nullString(qr)
	return s, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	return &nt.Time
}
