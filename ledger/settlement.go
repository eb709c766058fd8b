// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a settlement.
type Status string

const (
	StatusPending             Status = "pending"
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusPaid                Status = "paid"
)

// Action moves a settlement between states.
type Action string

const (
	// ActionMarkPaid is the debtor reporting that the money was sent.
	ActionMarkPaid Action = "mark_paid"
	// ActionConfirm is the creditor acknowledging receipt.
	ActionConfirm Action = "confirm"
)

// Payment methods a debtor can report.
const (
	PaymentManual = "manual"
	PaymentUPIQR  = "upi_qr"
)

var (
	ErrInvalidTransition = errors.New("invalid settlement transition")
	ErrNotDebtor         = errors.New("only the debtor can mark a settlement as paid")
	ErrNotCreditor       = errors.New("only the creditor can confirm a settlement")
	ErrSelfSettlement    = errors.New("cannot settle with yourself")
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPendingConfirmation, StatusPaid:
		return true
	}
	return false
}

// Outstanding reports whether the settlement still awaits payment or
// confirmation.
func (s Status) Outstanding() bool {
	return s == StatusPending || s == StatusPendingConfirmation
}

// Next returns the state reached by applying a to s.
//
//	pending --mark_paid--> pending_confirmation --confirm--> paid
func (s Status) Next(a Action) (Status, error) {
	switch {
	case s == StatusPending && a == ActionMarkPaid:
		return StatusPendingConfirmation, nil
	case s == StatusPendingConfirmation && a == ActionConfirm:
		return StatusPaid, nil
	}
	return s, fmt.Errorf("%w: cannot %s a %s settlement", ErrInvalidTransition, a, s)
}

// Authorize checks that actor may apply a to a settlement from debtor
// from to creditor to.
func Authorize(a Action, actor, from, to string) error {
	switch a {
	case ActionMarkPaid:
		if actor != from {
			return ErrNotDebtor
		}
	case ActionConfirm:
		if actor != to {
			return ErrNotCreditor
		}
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, a)
	}
	return nil
}

// ValidPaymentMethod reports whether m is a supported payment method.
func ValidPaymentMethod(m string) bool {
	return m == PaymentManual || m == PaymentUPIQR
}
