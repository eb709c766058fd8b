// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/fairshare/cliparse"
	"github.com/danielhkuo/fairshare/middleware"
	"github.com/danielhkuo/fairshare/models"
	"github.com/danielhkuo/fairshare/report"
)

type BalanceHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewBalanceHandler(db *sql.DB, cfg cliparse.Config) *BalanceHandler {
	return &BalanceHandler{db: db, cfg: cfg}
}

// GetBalances handles GET /groups/{id}/balances
func (h *BalanceHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	gl, ok := loadLedger(w, r, h.db, userID)
	if !ok {
		return
	}

	sum := gl.Summary(userID)

	balances := make([]models.MemberBalance, 0, len(sum.Balances))
	for _, b := range sum.Balances {
		mb := models.MemberBalance{UserID: b.UserID, Balance: b.Amount}
		if m, ok := gl.Member(b.UserID); ok {
			mb.Email = m.Email
			mb.DisplayName = m.DisplayName
			mb.UPIQRCodeURL = m.UPIQRCodeURL
		}
		balances = append(balances, mb)
	}

	middleware.JSONResponse(w, http.StatusOK, models.BalancesResponse{
		Balances:           balances,
		YourBalance:        sum.Viewer,
		SuggestedTransfers: sum.Transfers,
	})
}

// GetStatement handles GET /groups/{id}/statement
func (h *BalanceHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	gl, ok := loadLedger(w, r, h.db, userID)
	if !ok {
		return
	}

	var b strings.Builder
	if err := report.Statement(&b, gl, userID, time.Now()); err != nil {
		slog.Error("failed to write statement", "group_id", gl.Group.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to build statement")
		return
	}

	middleware.MarkdownResponse(w, http.StatusOK, b.String())
}
