// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/fairshare/cliparse"
	"github.com/danielhkuo/fairshare/handlers"
	"github.com/danielhkuo/fairshare/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(db, cfg)
	groupHandler := handlers.NewGroupHandler(db, cfg)
	expenseHandler := handlers.NewExpenseHandler(db, cfg)
	balanceHandler := handlers.NewBalanceHandler(db, cfg)
	settlementHandler := handlers.NewSettlementHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Users
	mux.HandleFunc("POST /users", middleware.WithLogging(userHandler.Register))
	mux.HandleFunc("GET /users/me", middleware.WithLogging(userHandler.GetMe))
	mux.HandleFunc("PATCH /users/me", middleware.WithLogging(userHandler.UpdateMe))
	mux.HandleFunc("GET /users/search", middleware.WithLogging(userHandler.SearchUsers))

	// Groups and membership
	mux.HandleFunc("POST /groups", middleware.WithLogging(groupHandler.CreateGroup))
	mux.HandleFunc("GET /groups", middleware.WithLogging(groupHandler.ListGroups))
	mux.HandleFunc("POST /groups/join", middleware.WithLogging(groupHandler.JoinGroup))
	mux.HandleFunc("GET /groups/{id}", middleware.WithLogging(groupHandler.GetGroup))
	mux.HandleFunc("DELETE /groups/{id}", middleware.WithLogging(groupHandler.DeleteGroup))
	mux.HandleFunc("GET /groups/{id}/invite", middleware.WithLogging(groupHandler.GetInvite))
	mux.HandleFunc("POST /groups/{id}/members", middleware.WithLogging(groupHandler.AddMember))
	mux.HandleFunc("DELETE /groups/{id}/members/{user_id}", middleware.WithLogging(groupHandler.RemoveMember))

	// Expenses
	mux.HandleFunc("POST /groups/{id}/expenses", middleware.WithLogging(expenseHandler.AddExpense))
	mux.HandleFunc("GET /groups/{id}/expenses", middleware.WithLogging(expenseHandler.ListExpenses))
	mux.HandleFunc("DELETE /groups/{id}/expenses/{expense_id}", middleware.WithLogging(expenseHandler.DeleteExpense))

	// Balances
	mux.HandleFunc("GET /groups/{id}/balances", middleware.WithLogging(balanceHandler.GetBalances))
	mux.HandleFunc("GET /groups/{id}/statement", middleware.WithLogging(balanceHandler.GetStatement))

	// Settlements
	mux.HandleFunc("POST /groups/{id}/settlements", middleware.WithLogging(settlementHandler.CreateSettlement))
	mux.HandleFunc("GET /groups/{id}/settlements", middleware.WithLogging(settlementHandler.ListSettlements))
	mux.HandleFunc("POST /settlements/{id}/mark-paid", middleware.WithLogging(settlementHandler.MarkPaid))
	mux.HandleFunc("POST /settlements/{id}/confirm", middleware.WithLogging(settlementHandler.ConfirmSettlement))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fairshare API v1"))
	})

	return mux
}
