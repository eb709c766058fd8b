package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/fairshare/ledger"
)

// Request types

type RegisterUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// nil fields are left unchanged, an empty upi_qr_code_url clears it
type UpdateProfileRequest struct {
	DisplayName  *string `json:"display_name"`
	UPIQRCodeURL *string `json:"upi_qr_code_url"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

type JoinGroupRequest struct {
	InviteCode string `json:"invite_code"`
}

// Custom maps user_id to an amount (exact) or a percentage (percentage).
type AddExpenseRequest struct {
	Description  string                     `json:"description"`
	Amount       decimal.Decimal            `json:"amount"`
	PaidBy       string                     `json:"paid_by"`
	SplitType    string                     `json:"split_type"`
	Participants []string                   `json:"participants"`
	Custom       map[string]decimal.Decimal `json:"custom,omitempty"`
}

// Amount is optional; the suggested settle-up amount is used when nil.
type CreateSettlementRequest struct {
	ToUser string           `json:"to_user"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

type MarkPaidRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// Response types

type RegisterUserResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

type CreateGroupResponse struct {
	GroupID    string `json:"group_id"`
	InviteCode string `json:"invite_code"`
}

type InviteResponse struct {
	InviteCode string `json:"invite_code"`
	InviteURL  string `json:"invite_url"`
}

type JoinGroupResponse struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

type AddExpenseResponse struct {
	ExpenseID string  `json:"expense_id"`
	Expense   Expense `json:"expense"`
}

type CreateSettlementResponse struct {
	SettlementID string     `json:"settlement_id"`
	Settlement   Settlement `json:"settlement"`
}

type GroupSummary struct {
	Group         Group        `json:"group"`
	MemberCount   int          `json:"member_count"`
	TotalExpenses ledger.Money `json:"total_expenses"`
	YourBalance   ledger.Money `json:"your_balance"`
}

type ListGroupsResponse struct {
	Groups []GroupSummary `json:"groups"`
}

type GroupDetailResponse struct {
	Group    Group     `json:"group"`
	Members  []Member  `json:"members"`
	Expenses []Expense `json:"expenses"`
}

type MemberBalance struct {
	UserID       string       `json:"user_id"`
	Email        string       `json:"email"`
	DisplayName  string       `json:"display_name"`
	Balance      ledger.Money `json:"balance"`
	UPIQRCodeURL *string      `json:"upi_qr_code_url,omitempty"`
}

type BalancesResponse struct {
	Balances           []MemberBalance   `json:"balances"`
	YourBalance        ledger.Money      `json:"your_balance"`
	SuggestedTransfers []ledger.Transfer `json:"suggested_transfers"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type ListSettlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
}

type SearchUsersResponse struct {
	Users []UserInfo `json:"users"`
}

// Domain types

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	UPIQRCodeURL *string   `json:"upi_qr_code_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserInfo is the public part of a user returned by search.
type UserInfo struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Currency    string    `json:"currency"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type Member struct {
	ID           string    `json:"id"`
	GroupID      string    `json:"group_id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	UPIQRCodeURL *string   `json:"upi_qr_code_url,omitempty"`
	JoinedAt     time.Time `json:"joined_at"`
}

type Expense struct {
	ID          string         `json:"id"`
	GroupID     string         `json:"group_id"`
	Description string         `json:"description"`
	Amount      ledger.Money   `json:"amount"`
	PaidBy      string         `json:"paid_by"`
	PaidByEmail string         `json:"paid_by_email"`
	SplitType   string         `json:"split_type"`
	CreatedAt   time.Time      `json:"created_at"`
	Splits      []ExpenseSplit `json:"splits"`
}

type ExpenseSplit struct {
	ID            string       `json:"id"`
	ExpenseID     string       `json:"expense_id"`
	UserID        string       `json:"user_id"`
	Email         string       `json:"email"`
	Amount        ledger.Money `json:"amount"`
	Settled       bool         `json:"settled"`
	SettledAt     *time.Time   `json:"settled_at,omitempty"`
	PaymentMethod *string      `json:"payment_method,omitempty"`
}

type Settlement struct {
	ID            string        `json:"id"`
	GroupID       string        `json:"group_id"`
	FromUser      string        `json:"from_user"`
	ToUser        string        `json:"to_user"`
	Amount        ledger.Money  `json:"amount"`
	Status        ledger.Status `json:"status"`
	PaymentMethod *string       `json:"payment_method,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	SettledAt     *time.Time    `json:"settled_at,omitempty"`
	FromUserEmail string        `json:"from_user_email"`
	ToUserEmail   string        `json:"to_user_email"`
	ToUserQRCode  *string       `json:"to_user_qr_code,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
