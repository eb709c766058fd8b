// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/fairshare/auth"
	"github.com/danielhkuo/fairshare/cliparse"
	"github.com/danielhkuo/fairshare/db"
	"github.com/danielhkuo/fairshare/ledger"
	"github.com/danielhkuo/fairshare/middleware"
	"github.com/danielhkuo/fairshare/models"
)

type ExpenseHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewExpenseHandler(db *sql.DB, cfg cliparse.Config) *ExpenseHandler {
	return &ExpenseHandler{db: db, cfg: cfg}
}

// AddExpense handles POST /groups/{id}/expenses
func (h *ExpenseHandler) AddExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	group, ok := requireMember(w, r, h.db, userID)
	if !ok {
		return
	}

	var req models.AddExpenseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "description is required")
		return
	}

	amount, err := ledger.FromDecimal(req.Amount, group.Currency)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid amount: "+err.Error())
		return
	}
	if !amount.IsPositive() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "amount must be greater than zero")
		return
	}

	splitType := strings.ToLower(strings.TrimSpace(req.SplitType))
	if splitType == "" {
		splitType = ledger.SplitTypeEqual
	}

	paidBy := strings.TrimSpace(req.PaidBy)
	if paidBy == "" {
		paidBy = userID
	}

	members, err := db.ListMembers(r.Context(), h.db, group.ID)
	if err != nil {
		slog.Error("failed to query members", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	emails := make(map[string]string, len(members))
	for _, m := range members {
		emails[m.UserID] = m.Email
	}

	if _, ok := emails[paidBy]; !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "paid_by must be a group member")
		return
	}
	for _, p := range req.Participants {
		if _, ok := emails[p]; !ok {
			middleware.ErrorResponse(w, http.StatusBadRequest, "participant "+p+" is not a group member")
			return
		}
	}

	shares, err := ledger.Split(splitType, amount, req.Participants, req.Custom)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	expenseID := auth.NewID()
	now := time.Now().UTC()

	// Expense and splits are stored together or not at all
	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO expense (id, group_id, description, amount, paid_by, split_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, expenseID, group.ID, description, amount.Minor(), paidBy, splitType, now)
	if err != nil {
		slog.Error("failed to insert expense", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add expense")
		return
	}

	expense := models.Expense{
		ID:          expenseID,
		GroupID:     group.ID,
		Description: description,
		Amount:      amount,
		PaidBy:      paidBy,
		PaidByEmail: emails[paidBy],
		SplitType:   splitType,
		CreatedAt:   now,
		Splits:      make([]models.ExpenseSplit, 0, len(shares)),
	}

	for _, s := range shares {
		splitID := auth.NewID()
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO expense_split (id, expense_id, user_id, amount, settled)
			VALUES ($1, $2, $3, $4, $5)
		`, splitID, expenseID, s.UserID, s.Amount.Minor(), false)
		if err != nil {
			slog.Error("failed to insert split", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add expense")
			return
		}
		expense.Splits = append(expense.Splits, models.ExpenseSplit{
			ID:        splitID,
			ExpenseID: expenseID,
			UserID:    s.UserID,
			Email:     emails[s.UserID],
			Amount:    s.Amount,
		})
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("expense added",
		"group_id", group.ID,
		"expense_id", expenseID,
		"amount", amount.String(),
		"split_type", splitType,
		"participants", len(shares),
	)

	middleware.JSONResponse(w, http.StatusCreated, models.AddExpenseResponse{
		ExpenseID: expenseID,
		Expense:   expense,
	})
}

// ListExpenses handles GET /groups/{id}/expenses
func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	group, ok := requireMember(w, r, h.db, userID)
	if !ok {
		return
	}

	expenses, err := db.ListExpenses(r.Context(), h.db, group.ID, group.Currency)
	if err != nil {
		slog.Error("failed to query expenses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListExpensesResponse{Expenses: expenses})
}

// DeleteExpense handles DELETE /groups/{id}/expenses/{expense_id}
func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	group, ok := requireMember(w, r, h.db, userID)
	if !ok {
		return
	}

	expenseID := r.PathValue("expense_id")

	var paidBy string
	err := h.db.QueryRowContext(r.Context(), `
		SELECT paid_by FROM expense WHERE id = $1 AND group_id = $2
	`, expenseID, group.ID).Scan(&paidBy)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Expense not found")
		return
	}
	if err != nil {
		slog.Error("failed to query expense", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if paidBy != userID && group.CreatedBy != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the payer or the group creator can delete an expense")
		return
	}

	// Splits cascade
	if _, err := h.db.ExecContext(r.Context(), "DELETE FROM expense WHERE id = $1", expenseID); err != nil {
		slog.Error("failed to delete expense", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete expense")
		return
	}

	slog.Info("expense deleted", "group_id", group.ID, "expense_id", expenseID, "deleted_by", userID)

	w.WriteHeader(http.StatusNoContent)
}
