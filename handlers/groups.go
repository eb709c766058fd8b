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

type GroupHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewGroupHandler(db *sql.DB, cfg cliparse.Config) *GroupHandler {
	return &GroupHandler{db: db, cfg: cfg}
}

// CreateGroup handles POST /groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	var req models.CreateGroupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = h.cfg.DefaultCurrency
	}
	if !ledger.ValidCurrency(currency) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown currency "+currency)
		return
	}

	groupID := auth.NewID()
	inviteCode := auth.GenerateInviteCode(groupID, h.cfg.InviteSalt)
	now := time.Now().UTC()

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO expense_group (id, name, description, currency, invite_code, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, groupID, name, strings.TrimSpace(req.Description), currency, inviteCode, userID, now)
	if err != nil {
		slog.Error("failed to insert group", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create group")
		return
	}

	// The creator is the first member
	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO group_member (id, group_id, user_id, joined_at)
		VALUES ($1, $2, $3, $4)
	`, auth.NewID(), groupID, userID, now)
	if err != nil {
		slog.Error("failed to insert creator membership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create group")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("group created", "group_id", groupID, "created_by", userID, "currency", currency)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateGroupResponse{
		GroupID:    groupID,
		InviteCode: inviteCode,
	})
}

// ListGroups handles GET /groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT g.id
		FROM expense_group g
		JOIN group_member m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at DESC, g.id
	`, userID)
	if err != nil {
		slog.Error("failed to query groups", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var groupIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			slog.Error("failed to scan group", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		groupIDs = append(groupIDs, id)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		slog.Error("failed to iterate groups", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	groups := []models.GroupSummary{}
	for _, id := range groupIDs {
		gl, err := db.LoadGroupLedger(r.Context(), h.db, id)
		if errors.Is(err, db.ErrNotFound) {
			continue
		}
		if err != nil {
			slog.Error("failed to load group ledger", "group_id", id, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

		sum := gl.Summary(userID)
		groups = append(groups, models.GroupSummary{
			Group:         gl.Group,
			MemberCount:   len(gl.Members),
			TotalExpenses: sum.TotalSpent,
			YourBalance:   sum.Viewer,
		})
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListGroupsResponse{Groups: groups})
}

// GetGroup handles GET /groups/{id}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	gl, ok := loadLedger(w, r, h.db, userID)
	if !ok {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.GroupDetailResponse{
		Group:    gl.Group,
		Members:  gl.Members,
		Expenses: gl.Expenses,
	})
}

// DeleteGroup handles DELETE /groups/{id}
func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	group, ok := requireMember(w, r, h.db, userID)
	if !ok {
		return
	}

	if group.CreatedBy != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the group creator can delete the group")
		return
	}

	// Members, expenses, splits and settlements cascade
	if _, err := h.db.ExecContext(r.Context(), "DELETE FROM expense_group WHERE id = $1", group.ID); err != nil {
		slog.Error("failed to delete group", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete group")
		return
	}

	slog.Info("group deleted", "group_id", group.ID, "deleted_by", userID)

	w.WriteHeader(http.StatusNoContent)
}

// GetInvite handles GET /groups/{id}/invite
func (h *GroupHandler) GetInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	group, ok := requireMember(w, r, h.db, userID)
	if !ok {
		return
	}

	var code string
	err := h.db.QueryRowContext(r.Context(), "SELECT invite_code FROM expense_group WHERE id = $1", group.ID).Scan(&code)
	if err != nil {
		slog.Error("failed to query invite code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.InviteResponse{
		InviteCode: code,
		InviteURL:  h.cfg.BaseURL + "/join/" + code,
	})
}

// JoinGroup handles POST /groups/join
func (h *GroupHandler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	var req models.JoinGroupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	code := strings.TrimSpace(req.InviteCode)
	if code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invite_code is required")
		return
	}

	var groupID, name string
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, name FROM expense_group WHERE invite_code = $1
	`, code).Scan(&groupID, &name)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Invalid invite code")
		return
	}
	if err != nil {
		slog.Error("failed to query group by invite code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status, msg := h.insertMember(r, groupID, userID); status != 0 {
		middleware.ErrorResponse(w, status, msg)
		return
	}

	slog.Info("member joined", "group_id", groupID, "user_id", userID)

	middleware.JSONResponse(w, http.StatusOK, models.JoinGroupResponse{GroupID: groupID, Name: name})
}

// AddMember handles POST /groups/{id}/members
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	group, ok := requireMember(w, r, h.db, userID)
	if !ok {
		return
	}

	var req models.AddMemberRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	memberID, err := auth.ParseID(strings.TrimSpace(req.UserID))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "user_id must be a valid id")
		return
	}

	var m models.Member
	var qr sql.NullString
	err = h.db.QueryRowContext(r.Context(), `
		SELECT id, email, display_name, upi_qr_code_url FROM app_user WHERE id = $1
	`, memberID).Scan(&m.UserID, &m.Email, &m.DisplayName, &qr)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	status, msg := h.insertMember(r, group.ID, memberID)
	if status != 0 {
		middleware.ErrorResponse(w, status, msg)
		return
	}

	slog.Info("member added", "group_id", group.ID, "user_id", memberID, "added_by", userID)

	members, err := db.ListMembers(r.Context(), h.db, group.ID)
	if err != nil {
		slog.Error("failed to query members", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	for _, member := range members {
		if member.UserID == memberID {
			m = member
		}
	}

	middleware.JSONResponse(w, http.StatusCreated, m)
}

// RemoveMember handles DELETE /groups/{id}/members/{user_id}
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	gl, ok := loadLedger(w, r, h.db, userID)
	if !ok {
		return
	}

	if gl.Group.CreatedBy != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the group creator can remove members")
		return
	}

	target := r.PathValue("user_id")
	if target == gl.Group.CreatedBy {
		middleware.ErrorResponse(w, http.StatusBadRequest, "The group creator cannot be removed")
		return
	}
	if _, ok := gl.Member(target); !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Member not found")
		return
	}

	sum := gl.Summary(target)
	if !sum.Viewer.IsZero() {
		middleware.ErrorResponse(w, http.StatusConflict, "Member has a non-zero balance of "+sum.Viewer.String())
		return
	}
	for _, s := range gl.Settlements {
		if s.Status.Outstanding() && (s.FromUser == target || s.ToUser == target) {
			middleware.ErrorResponse(w, http.StatusConflict, "Member has unpaid settlements")
			return
		}
	}

	_, err := h.db.ExecContext(r.Context(), `
		DELETE FROM group_member WHERE group_id = $1 AND user_id = $2
	`, gl.Group.ID, target)
	if err != nil {
		slog.Error("failed to delete member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to remove member")
		return
	}

	slog.Info("member removed", "group_id", gl.Group.ID, "user_id", target, "removed_by", userID)

	w.WriteHeader(http.StatusNoContent)
}

// insertMember returns a non-zero status and message on failure
func (h *GroupHandler) insertMember(r *http.Request, groupID, userID string) (int, string) {
	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO group_member (id, group_id, user_id, joined_at)
		VALUES ($1, $2, $3, $4)
	`, auth.NewID(), groupID, userID, time.Now().UTC())
	if db.IsUniqueViolation(err) {
		return http.StatusConflict, "Already a member of this group"
	}
	if err != nil {
		slog.Error("failed to insert member", "error", err)
		return http.StatusInternalServerError, "Failed to add member"
	}
	return 0, ""
}
