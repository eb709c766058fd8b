// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/fairshare/auth"
	"github.com/danielhkuo/fairshare/db"
	"github.com/danielhkuo/fairshare/middleware"
	"github.com/danielhkuo/fairshare/models"
)

// requireUser checks the X-User-ID / X-User-Token pair and that the user
// still exists. It writes the error response itself.
func requireUser(w http.ResponseWriter, r *http.Request, q db.Queryer, salt string) (string, bool) {
	userID, token := middleware.UserCredentials(r)
	if userID == "" || token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-User-ID and X-User-Token headers are required")
		return "", false
	}

	if err := auth.ValidateUserToken(userID, token, salt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid user token")
		return "", false
	}

	var n int
	err := q.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM app_user WHERE id = $1", userID).Scan(&n)
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return "", false
	}
	if n == 0 {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Unknown user")
		return "", false
	}

	return userID, true
}

// requireMember loads the group named by the {id} path value and checks that
// userID belongs to it.
func requireMember(w http.ResponseWriter, r *http.Request, q db.Queryer, userID string) (models.Group, bool) {
	groupID := r.PathValue("id")
	if groupID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "group_id is required")
		return models.Group{}, false
	}

	group, err := db.GetGroup(r.Context(), q, groupID)
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return models.Group{}, false
	}
	if err != nil {
		slog.Error("failed to query group", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Group{}, false
	}

	ok, err := db.IsMember(r.Context(), q, group.ID, userID)
	if err != nil {
		slog.Error("failed to query membership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Group{}, false
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusForbidden, "Not a member of this group")
		return models.Group{}, false
	}

	return group, true
}

// loadLedger is requireMember plus the full ledger of the group
func loadLedger(w http.ResponseWriter, r *http.Request, q db.Queryer, userID string) (*db.GroupLedger, bool) {
	group, ok := requireMember(w, r, q, userID)
	if !ok {
		return nil, false
	}

	gl, err := db.LoadGroupLedger(r.Context(), q, group.ID)
	if errors.Is(err, db.ErrNotFound) {
		// Deleted between the two reads
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return nil, false
	}
	if err != nil {
		slog.Error("failed to load group ledger", "group_id", group.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return nil, false
	}
	return gl, true
}
