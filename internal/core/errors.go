package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for records that are absent or owned by a
	// different user. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrEmptyName        = errors.New("empty transaction name")
	ErrNameTooLong      = errors.New("transaction name too long (max 200 characters)")
	ErrEmptyCategory    = errors.New("empty category")

	// ErrDuplicateActiveBudget signals a creation conflict with an existing
	// active budget for the same user, category and period.
	ErrDuplicateActiveBudget = errors.New("an active budget for this category and period already exists")

	ErrEmailTaken = errors.New("email already registered")

	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

// ConsistencyError reports a wallet that no longer matches the signed sum of
// its user's ledger: a committed ledger write whose balance projection failed
// and could not be repaired in place. It must never be downgraded to a
// generic error.
type ConsistencyError struct {
	UserID int64
	Op     string
	Err    error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("wallet inconsistent for user %d after %s: %v", e.UserID, e.Op, e.Err)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is one of the input validation errors that
// should be rejected before any store write.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidPeriod),
		errors.Is(err, ErrInvalidDirection),
		errors.Is(err, ErrEmptyName),
		errors.Is(err, ErrNameTooLong),
		errors.Is(err, ErrEmptyCategory),
		errors.Is(err, ErrWeakPassword):
		return true
	}
	return false
}
