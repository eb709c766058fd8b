// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Split methods for dividing an expense among participants.
const (
	SplitTypeEqual      = "equal"
	SplitTypeExact      = "exact"
	SplitTypePercentage = "percentage"
)

var (
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrDuplicateParticipant = errors.New("participant listed more than once")
	ErrNonPositiveAmount    = errors.New("amount must be greater than zero")
	ErrSplitMismatch        = errors.New("split amounts do not add up to the total")
	ErrPercentMismatch      = errors.New("percentages must total 100")
	ErrMissingShare         = errors.New("missing share for participant")
	ErrPercentTooSmall      = errors.New("percentage is below 0.01")
)

// percentTolerance is how far a percentage split may drift from 100.
var percentTolerance = decimal.RequireFromString("0.01")

var hundred = decimal.NewFromInt(100)

// SplitEqual divides total evenly. Leftover minor units go to the first
// participants in order.
func SplitEqual(total Money, participants []string) ([]Share, error) {
	if err := checkSplit(total, participants); err != nil {
		return nil, err
	}
	parts, err := total.Split(len(participants))
	if err != nil {
		return nil, fmt.Errorf("failed to split %s: %w", total, err)
	}
	return zipShares(participants, parts), nil
}

// SplitExact uses the given amounts, which must add up to total exactly.
func SplitExact(total Money, participants []string, amounts map[string]decimal.Decimal) ([]Share, error) {
	if err := checkSplit(total, participants); err != nil {
		return nil, err
	}

	sum := Zero(total.Currency())
	shares := make([]Share, 0, len(participants))
	for _, id := range participants {
		raw, ok := amounts[id]
		if !ok {
			return nil, fmt.Errorf("%w %s", ErrMissingShare, id)
		}
		amount, err := FromDecimal(raw, total.Currency())
		if err != nil {
			return nil, err
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("share for %s: %w", id, ErrNonPositiveAmount)
		}
		sum = sum.Add(amount)
		shares = append(shares, Share{UserID: id, Amount: amount})
	}

	if !sum.Equal(total) {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrSplitMismatch, sum, total)
	}
	return shares, nil
}

// SplitPercent allocates total by percentage. Percentages must total
// 100 within 0.01 and are honoured to two decimal places. The shares
// always add up to total.
func SplitPercent(total Money, participants []string, percents map[string]decimal.Decimal) ([]Share, error) {
	if err := checkSplit(total, participants); err != nil {
		return nil, err
	}

	sum := decimal.Zero
	ratios := make([]int, 0, len(participants))
	for _, id := range participants {
		p, ok := percents[id]
		if !ok {
			return nil, fmt.Errorf("%w %s", ErrMissingShare, id)
		}
		if !p.IsPositive() {
			return nil, fmt.Errorf("percentage for %s must be greater than zero", id)
		}
		sum = sum.Add(p)
		// basis points keep two decimals of the percentage
		bp := int(p.Shift(2).Round(0).IntPart())
		if bp == 0 {
			return nil, fmt.Errorf("%w for %s: %s", ErrPercentTooSmall, id, p.String())
		}
		ratios = append(ratios, bp)
	}

	if sum.Sub(hundred).Abs().GreaterThan(percentTolerance) {
		return nil, fmt.Errorf("%w: got %s", ErrPercentMismatch, sum.String())
	}

	parts, err := total.Allocate(ratios...)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate %s: %w", total, err)
	}
	return zipShares(participants, parts), nil
}

// Split dispatches on splitType.
func Split(splitType string, total Money, participants []string, custom map[string]decimal.Decimal) ([]Share, error) {
	switch splitType {
	case SplitTypeEqual, "":
		return SplitEqual(total, participants)
	case SplitTypeExact:
		return SplitExact(total, participants, custom)
	case SplitTypePercentage:
		return SplitPercent(total, participants, custom)
	}
	return nil, fmt.Errorf("unknown split type %q", splitType)
}

func checkSplit(total Money, participants []string) error {
	if !total.IsPositive() {
		return ErrNonPositiveAmount
	}
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	seen := make(map[string]bool, len(participants))
	for _, id := range participants {
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, id)
		}
		seen[id] = true
	}
	return nil
}

func zipShares(participants []string, parts []Money) []Share {
	shares := make([]Share, len(participants))
	for i, id := range participants {
		shares[i] = Share{UserID: id, Amount: parts[i]}
	}
	return shares
}
