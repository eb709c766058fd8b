// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"io"
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

type SettlementHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewSettlementHandler(db *sql.DB, cfg cliparse.Config) *SettlementHandler {
	return &SettlementHandler{db: db, cfg: cfg}
}

// CreateSettlement handles POST /groups/{id}/settlements
// The caller is the debtor. The settlement starts in pending.
func (h *SettlementHandler) CreateSettlement(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	gl, ok := loadLedger(w, r, h.db, userID)
	if !ok {
		return
	}

	var req models.CreateSettlementRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	toUser, err := auth.ParseID(strings.TrimSpace(req.ToUser))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "to_user must be a valid id")
		return
	}
	if toUser == userID {
		middleware.ErrorResponse(w, http.StatusBadRequest, ledger.ErrSelfSettlement.Error())
		return
	}
	if _, ok := gl.Member(toUser); !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "to_user must be a group member")
		return
	}

	for _, s := range gl.Settlements {
		if s.FromUser == userID && s.ToUser == toUser && s.Status.Outstanding() {
			middleware.ErrorResponse(w, http.StatusConflict, "An unpaid settlement to this user already exists")
			return
		}
	}

	var amount ledger.Money
	if req.Amount == nil {
		sum := gl.Summary(userID)
		suggested, ok := ledger.SuggestedAmount(sum.Transfers, userID, toUser)
		if !ok {
			middleware.ErrorResponse(w, http.StatusConflict, "Nothing is owed to this user")
			return
		}
		amount = suggested
	} else {
		amount, err = ledger.FromDecimal(*req.Amount, gl.Group.Currency)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid amount: "+err.Error())
			return
		}
		if !amount.IsPositive() {
			middleware.ErrorResponse(w, http.StatusBadRequest, "amount must be greater than zero")
			return
		}
	}

	settlementID := auth.NewID()
	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO settlement (id, group_id, from_user, to_user, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, settlementID, gl.Group.ID, userID, toUser, amount.Minor(), string(ledger.StatusPending), time.Now().UTC())
	if db.IsUniqueViolation(err) {
		// Lost a race with another request for the same pair
		middleware.ErrorResponse(w, http.StatusConflict, "An unpaid settlement to this user already exists")
		return
	}
	if err != nil {
		slog.Error("failed to insert settlement", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create settlement")
		return
	}

	slog.Info("settlement created",
		"settlement_id", settlementID,
		"group_id", gl.Group.ID,
		"from_user", userID,
		"to_user", toUser,
		"amount", amount.String(),
	)

	s, err := db.GetSettlement(r.Context(), h.db, settlementID)
	if err != nil {
		slog.Error("failed to query settlement", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreateSettlementResponse{
		SettlementID: settlementID,
		Settlement:   s,
	})
}

// ListSettlements handles GET /groups/{id}/settlements
func (h *SettlementHandler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	group, ok := requireMember(w, r, h.db, userID)
	if !ok {
		return
	}

	settlements, err := db.ListSettlements(r.Context(), h.db, group.ID, userID)
	if err != nil {
		slog.Error("failed to query settlements", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListSettlementsResponse{Settlements: settlements})
}

// MarkPaid handles POST /settlements/{id}/mark-paid
// The debtor reports the payment, pending -> pending_confirmation.
func (h *SettlementHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	s, next, ok := h.prepareTransition(w, r, userID, ledger.ActionMarkPaid)
	if !ok {
		return
	}

	// An empty body means a manual payment
	var req models.MarkPaidRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = ledger.PaymentManual
	}
	if !ledger.ValidPaymentMethod(method) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "payment_method must be manual or upi_qr")
		return
	}

	res, err := h.db.ExecContext(r.Context(), `
		UPDATE settlement SET status = $1, payment_method = $2
		WHERE id = $3 AND status = $4
	`, string(next), method, s.ID, string(s.Status))
	if err != nil {
		slog.Error("failed to update settlement", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update settlement")
		return
	}
	if !changedOne(w, res) {
		return
	}

	slog.Info("settlement marked paid", "settlement_id", s.ID, "payment_method", method, "by", userID)

	h.respondSettlement(w, r, s.ID)
}

// ConfirmSettlement handles POST /settlements/{id}/confirm
// The creditor confirms receipt, pending_confirmation -> paid. The
// debtor's open splits on expenses the creditor paid are flagged settled
// in the same transaction.
func (h *SettlementHandler) ConfirmSettlement(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	s, next, ok := h.prepareTransition(w, r, userID, ledger.ActionConfirm)
	if !ok {
		return
	}

	now := time.Now().UTC()

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(r.Context(), `
		UPDATE settlement SET status = $1, settled_at = $2
		WHERE id = $3 AND status = $4
	`, string(next), now, s.ID, string(s.Status))
	if err != nil {
		slog.Error("failed to update settlement", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to confirm settlement")
		return
	}
	if !changedOne(w, res) {
		return
	}

	splits, err := tx.ExecContext(r.Context(), `
		UPDATE expense_split SET settled = $1, settled_at = $2, payment_method = $3
		WHERE user_id = $4 AND settled = $5
		  AND expense_id IN (SELECT id FROM expense WHERE group_id = $6 AND paid_by = $7)
	`, true, now, s.PaymentMethod, s.FromUser, false, s.GroupID, s.ToUser)
	if err != nil {
		slog.Error("failed to mark splits settled", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to confirm settlement")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	settledSplits, _ := splits.RowsAffected()
	slog.Info("settlement confirmed",
		"settlement_id", s.ID,
		"group_id", s.GroupID,
		"amount", s.Amount.String(),
		"splits_settled", settledSplits,
	)

	h.respondSettlement(w, r, s.ID)
}

// prepareTransition loads the settlement named by {id} and checks that
// userID may apply action to it
func (h *SettlementHandler) prepareTransition(w http.ResponseWriter, r *http.Request, userID string, action ledger.Action) (models.Settlement, ledger.Status, bool) {
	s, err := db.GetSettlement(r.Context(), h.db, r.PathValue("id"))
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Settlement not found")
		return models.Settlement{}, "", false
	}
	if err != nil {
		slog.Error("failed to query settlement", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Settlement{}, "", false
	}

	if err := ledger.Authorize(action, userID, s.FromUser, s.ToUser); err != nil {
		middleware.ErrorResponse(w, http.StatusForbidden, err.Error())
		return models.Settlement{}, "", false
	}

	next, err := s.Status.Next(action)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return models.Settlement{}, "", false
	}

	return s, next, true
}

// changedOne reports whether the conditional UPDATE matched. No match
// means another request moved the settlement first.
func changedOne(w http.ResponseWriter, res sql.Result) bool {
	n, err := res.RowsAffected()
	if err != nil {
		slog.Error("failed to read rows affected", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	if n == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Settlement status changed, reload and retry")
		return false
	}
	return true
}

func (h *SettlementHandler) respondSettlement(w http.ResponseWriter, r *http.Request, settlementID string) {
	s, err := db.GetSettlement(r.Context(), h.db, settlementID)
	if err != nil {
		slog.Error("failed to query settlement", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, s)
}
