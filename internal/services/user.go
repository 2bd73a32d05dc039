package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dompet/internal/auth"
	"dompet/internal/core"
	"dompet/internal/storage"
)

// ErrBadCredentials covers both unknown email and wrong password, so login
// failures do not reveal which.
var ErrBadCredentials = errors.New("invalid email or password")

// Profile is the account view: identity plus lifetime ledger aggregates.
type Profile struct {
	User              core.User `json:"user"`
	TotalIncomeCents  int64     `json:"total_income_cents"`
	TotalExpenseCents int64     `json:"total_expense_cents"`
	TransactionCount  int64     `json:"transaction_count"`
	BalanceCents      int64     `json:"balance_cents"`
	MemberDays        int64     `json:"member_days"`
}

// UserService owns account registration, authentication and the profile
// view.
type UserService struct {
	store  *storage.Repository
	ledger *LedgerService
}

func NewUserService(store *storage.Repository, ledger *LedgerService) *UserService {
	return &UserService{store: store, ledger: ledger}
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, name, email, password string) (core.User, error) {
	if name == "" || email == "" {
		return core.User{}, core.ErrEmptyName
	}
	if len(password) < 8 {
		return core.User{}, core.ErrWeakPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.store.CreateUser(ctx, name, email, hash)
	if err != nil {
		return core.User{}, err
	}
	slog.InfoContext(ctx, "User registered", "component", "users", "user_id", u.ID)
	return u, nil
}

// Authenticate verifies the email/password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, ErrBadCredentials
		}
		return core.User{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return core.User{}, ErrBadCredentials
	}
	return u, nil
}

// Get returns the bare account record.
func (s *UserService) Get(ctx context.Context, userID int64) (core.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// Update changes name and email.
func (s *UserService) Update(ctx context.Context, userID int64, name, email string) (core.User, error) {
	if name == "" || email == "" {
		return core.User{}, core.ErrEmptyName
	}
	return s.store.UpdateUser(ctx, userID, name, email)
}

// GetProfile assembles the account view. The wallet is touched only when
// the user has transactions, so a fresh account does not grow one as a side
// effect of viewing its profile.
func (s *UserService) GetProfile(ctx context.Context, userID int64) (Profile, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	totals, err := s.store.TransactionTotals(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	count := totals.IncomeCount + totals.ExpenseCount
	var balance int64
	if count > 0 {
		w, err := s.ledger.Wallet(ctx, userID)
		if err != nil {
			return Profile{}, err
		}
		balance = w.TotalBalanceCents
	}

	return Profile{
		User:              u,
		TotalIncomeCents:  totals.IncomeCents,
		TotalExpenseCents: totals.ExpenseCents,
		TransactionCount:  count,
		BalanceCents:      balance,
		MemberDays:        int64(time.Since(u.CreatedAt).Hours() / 24),
	}, nil
}

// MonthlySummary returns per-month income/expense totals for a year.
func (s *UserService) MonthlySummary(ctx context.Context, userID int64, year int) ([]storage.MonthlyTotal, error) {
	return s.store.MonthlySummary(ctx, userID, year)
}
