package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dompet/internal/core"
)

func (r *Repository) GetWallet(ctx context.Context, userID int64) (core.Wallet, error) {
	var (
		w           core.Wallet
		lastUpdated string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, total_balance_cents, available_balance_cents, last_updated
		FROM wallets WHERE user_id = ?`, userID).
		Scan(&w.UserID, &w.TotalBalanceCents, &w.AvailableBalanceCents, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Wallet{}, fmt.Errorf("wallet for user %d: %w", userID, core.ErrNotFound)
	}
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	w.LastUpdated = parseTime(lastUpdated)
	return w, nil
}

// CreateWallet inserts the user's wallet with an initial balance. Available
// tracks total 1:1; the column stays distinct for budget earmarking later.
func (r *Repository) CreateWallet(ctx context.Context, userID, balanceCents int64) (core.Wallet, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (user_id, total_balance_cents, available_balance_cents, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, balanceCents, balanceCents, fmtTime(now), fmtTime(now))
	if err != nil {
		return core.Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	return core.Wallet{
		UserID:                userID,
		TotalBalanceCents:     balanceCents,
		AvailableBalanceCents: balanceCents,
		LastUpdated:           now,
	}, nil
}

// AddWalletBalance applies a signed delta atomically and returns the new
// total. ErrNotFound when the user has no wallet yet.
func (r *Repository) AddWalletBalance(ctx context.Context, userID, deltaCents int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE wallets
		SET total_balance_cents = total_balance_cents + ?,
		    available_balance_cents = available_balance_cents + ?,
		    last_updated = ?
		WHERE user_id = ?`,
		deltaCents, deltaCents, fmtTime(time.Now().UTC()), userID)
	if err != nil {
		return 0, fmt.Errorf("apply wallet delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("apply wallet delta rows: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("wallet for user %d: %w", userID, core.ErrNotFound)
	}

	var total int64
	err = r.db.QueryRowContext(ctx,
		"SELECT total_balance_cents FROM wallets WHERE user_id = ?", userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("read wallet balance: %w", err)
	}
	return total, nil
}

// SetWalletBalance overwrites the balance outright. Used by the repair path
// when a recompute from the ledger is the only way back to a consistent state.
func (r *Repository) SetWalletBalance(ctx context.Context, userID, balanceCents int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE wallets
		SET total_balance_cents = ?, available_balance_cents = ?, last_updated = ?
		WHERE user_id = ?`,
		balanceCents, balanceCents, fmtTime(time.Now().UTC()), userID)
	if err != nil {
		return fmt.Errorf("set wallet balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set wallet balance rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("wallet for user %d: %w", userID, core.ErrNotFound)
	}
	return nil
}
