package core

import (
	"strings"
	"time"
)

const (
	Income  Direction = "income"
	Expense Direction = "expense"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Custom  Period = "custom"
)

// CategoryAll is the budget category filter that matches every expense.
const CategoryAll = "all"

type (
	// Direction tells whether a transaction adds to or subtracts from the wallet.
	// It is immutable for the lifetime of a transaction record.
	Direction string

	// Period is the recurrence of a budget window.
	Period string

	// Date is a calendar date without a time component. The effective date of a
	// transaction is a Date, distinct from its creation timestamp.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID            int64     `json:"id"`
		UserID        int64     `json:"user_id"`
		CategoryID    int64     `json:"category_id"`
		CategoryLabel string    `json:"category"`
		Direction     Direction `json:"direction"`
		Name          string    `json:"name"`
		AmountCents   int64     `json:"amount_cents"`
		Note          string    `json:"note"`
		Date          Date      `json:"date"`
		CreatedAt     time.Time `json:"created_at"`
	}

	// Wallet is the materialized balance of a user's ledger. Exactly one per
	// user. TotalBalanceCents must equal the signed sum of the user's
	// transactions after every ledger mutation.
	Wallet struct {
		UserID                int64     `json:"user_id"`
		TotalBalanceCents     int64     `json:"total_balance_cents"`
		AvailableBalanceCents int64     `json:"available_balance_cents"`
		LastUpdated           time.Time `json:"last_updated"`
	}

	Budget struct {
		ID          int64     `json:"id"`
		UserID      int64     `json:"user_id"`
		AmountCents int64     `json:"amount_cents"`
		Period      Period    `json:"period"`
		Category    string    `json:"category"`
		StartDate   Date      `json:"start_date"`
		EndDate     *Date     `json:"end_date"`
		CreatedAt   time.Time `json:"created_at"`
	}

	Category struct {
		ID        int64     `json:"id"`
		Label     string    `json:"label"`
		Direction Direction `json:"direction"`
		Icon      string    `json:"icon"`
		Color     string    `json:"color"`
	}

	User struct {
		ID           int64     `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (dir Direction) Validate() error {
	switch dir {
	case Income, Expense:
		return nil
	}
	return ErrInvalidDirection
}

// Sign returns +1 for income and -1 for expense.
func (dir Direction) Sign() int64 {
	if dir == Income {
		return 1
	}
	return -1
}

func (p Period) Validate() error {
	switch p {
	case Daily, Weekly, Monthly, Custom:
		return nil
	}
	return ErrInvalidPeriod
}

// SignedAmount is the transaction's amount with the sign of its direction
// applied: positive for income, negative for expense.
func (t Transaction) SignedAmount() int64 {
	return t.Direction.Sign() * t.AmountCents
}

func (t Transaction) Validate() error {
	if err := t.Direction.Validate(); err != nil {
		return err
	}
	if t.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > 200 {
		return ErrNameTooLong
	}
	if strings.TrimSpace(t.CategoryLabel) == "" {
		return ErrEmptyCategory
	}
	return t.Date.Validate()
}

func (b Budget) Validate() error {
	if b.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if err := b.Period.Validate(); err != nil {
		return err
	}
	if err := b.StartDate.Validate(); err != nil {
		return err
	}
	if b.EndDate != nil {
		if err := b.EndDate.Validate(); err != nil {
			return err
		}
		if b.EndDate.Before(b.StartDate.Time) {
			return ErrInvalidDate
		}
	}
	return nil
}

// Active reports whether the budget should still be evaluated at the given
// instant: no end date, or an end date that has not yet passed.
func (b Budget) Active(now time.Time) bool {
	if b.EndDate == nil {
		return true
	}
	return !b.EndDate.Before(DateOf(now).Time)
}

// NormalizeCategory canonicalizes a category label the way the category
// collaborator stores it: trimmed and lowercased.
func NormalizeCategory(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
