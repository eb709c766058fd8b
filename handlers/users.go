// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/danielhkuo/fairshare/auth"
	"github.com/danielhkuo/fairshare/cliparse"
	"github.com/danielhkuo/fairshare/db"
	"github.com/danielhkuo/fairshare/middleware"
	"github.com/danielhkuo/fairshare/models"
)

// minSearchLength is the shortest email fragment accepted by SearchUsers
const minSearchLength = 3

type UserHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewUserHandler(db *sql.DB, cfg cliparse.Config) *UserHandler {
	return &UserHandler{db: db, cfg: cfg}
}

// Register handles POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email is required")
		return
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email is not a valid address")
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "display_name is required")
		return
	}

	userID := auth.NewID()
	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO app_user (id, email, display_name, created_at)
		VALUES ($1, $2, $3, $4)
	`, userID, email, displayName, time.Now().UTC())
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	slog.Info("user registered", "user_id", userID)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterUserResponse{
		UserID: userID,
		Token:  auth.GenerateUserToken(userID, h.cfg.TokenSalt),
	})
}

// GetMe handles GET /users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	user, err := h.getUser(r, userID)
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.getUser(r, userID)
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "display_name cannot be empty")
			return
		}
		user.DisplayName = name
	}

	if req.UPIQRCodeURL != nil {
		raw := strings.TrimSpace(*req.UPIQRCodeURL)
		if raw == "" {
			user.UPIQRCodeURL = nil
		} else {
			u, err := url.ParseRequestURI(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				middleware.ErrorResponse(w, http.StatusBadRequest, "upi_qr_code_url must be an http(s) URL")
				return
			}
			user.UPIQRCodeURL = &raw
		}
	}

	_, err = h.db.ExecContext(r.Context(), `
		UPDATE app_user SET display_name = $1, upi_qr_code_url = $2 WHERE id = $3
	`, user.DisplayName, user.UPIQRCodeURL, userID)
	if err != nil {
		slog.Error("failed to update user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	slog.Info("profile updated", "user_id", userID, "has_qr_code", user.UPIQRCodeURL != nil)

	middleware.JSONResponse(w, http.StatusOK, user)
}

// SearchUsers handles GET /users/search?email=
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.db, h.cfg.TokenSalt)
	if !ok {
		return
	}

	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if len(query) < minSearchLength {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email query must be at least 3 characters")
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, email, display_name
		FROM app_user
		WHERE LOWER(email) LIKE $1 ESCAPE '\' AND id <> $2
		ORDER BY email
		LIMIT 10
	`, "%"+escapeLike(query)+"%", userID)
	if err != nil {
		slog.Error("failed to search users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	users := []models.UserInfo{}
	for rows.Next() {
		var u models.UserInfo
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName); err != nil {
			slog.Error("failed to scan user", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SearchUsersResponse{Users: users})
}

func (h *UserHandler) getUser(r *http.Request, userID string) (models.User, error) {
	var u models.User
	var qr sql.NullString
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, email, display_name, upi_qr_code_url, created_at
		FROM app_user
		WHERE id = $1
	`, userID).Scan(&u.ID, &u.Email, &u.DisplayName, &qr, &u.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	if qr.Valid {
		u.UPIQRCodeURL = &qr.String
	}
	return u, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
