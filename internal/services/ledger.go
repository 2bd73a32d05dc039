// Package services holds the coordination logic between the transaction
// ledger and its derived aggregates: the wallet balance projection and the
// budget evaluation.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dompet/internal/core"
	"dompet/internal/storage"
)

// AlertPublisher carries operational consistency alerts off-process. Nil
// disables publishing; wallet repair still runs in place.
type AlertPublisher interface {
	PublishConsistencyAlert(ctx context.Context, userID int64, op string, cause error) error
}

// LedgerService owns every mutation of the ledger/wallet pair. Mutations for
// one user are serialized behind a per-user lock so the wallet projection is
// atomic with respect to the triggering ledger write.
type LedgerService struct {
	store      *storage.Repository
	categories *CategoryResolver
	alerts     AlertPublisher
	locks      *userLocks
}

func NewLedgerService(store *storage.Repository, categories *CategoryResolver, alerts AlertPublisher) *LedgerService {
	return &LedgerService{
		store:      store,
		categories: categories,
		alerts:     alerts,
		locks:      newUserLocks(),
	}
}

// TransactionInput carries the fields of a new transaction. A zero Date
// means today.
type TransactionInput struct {
	Name        string
	AmountCents int64
	Category    string
	Note        string
	Date        core.Date
}

// TransactionPatch is a partial edit. Nil means "field not present"; an
// explicit zero amount is a validation error, never a silent no-op.
// Direction is not patchable: flipping income/expense is modeled as
// delete+recreate.
type TransactionPatch struct {
	Name        *string
	AmountCents *int64
	Category    *string
	Note        *string
	Date        *core.Date
}

// CreateTransaction appends a record to the user's ledger and projects its
// signed amount onto the wallet. Returns the stored record and the new
// wallet balance.
func (s *LedgerService) CreateTransaction(ctx context.Context, userID int64, dir core.Direction, in TransactionInput) (core.Transaction, int64, error) {
	date := in.Date
	if date.IsZero() {
		date = core.DateOf(time.Now())
	}

	cat, err := s.categories.ResolveOrCreate(ctx, in.Category, dir)
	if err != nil {
		return core.Transaction{}, 0, err
	}

	tx := core.Transaction{
		UserID:        userID,
		CategoryID:    cat.ID,
		CategoryLabel: cat.Label,
		Direction:     dir,
		Name:          in.Name,
		AmountCents:   in.AmountCents,
		Note:          in.Note,
		Date:          date,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, 0, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	// Aborted before the ledger write: no side effects at all.
	if err := ctx.Err(); err != nil {
		return core.Transaction{}, 0, err
	}

	if _, err := s.ensureWallet(ctx, userID); err != nil {
		return core.Transaction{}, 0, err
	}

	stored, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, 0, err
	}

	balance, err := s.projectDelta(ctx, userID, stored.SignedAmount(), "create transaction")
	if err != nil {
		return core.Transaction{}, 0, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"component", "ledger",
		"operation", "create",
		"transaction_id", stored.ID,
		"user_id", userID,
		"direction", string(dir),
		"amount_cents", stored.AmountCents,
		"balance_cents", balance)

	return stored, balance, nil
}

// UpdateTransaction applies a partial edit. The wallet delta is computed
// from the pre-edit stored record, never from client-supplied old values.
func (s *LedgerService) UpdateTransaction(ctx context.Context, userID, id int64, patch TransactionPatch) (core.Transaction, int64, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return core.Transaction{}, 0, err
	}

	before, err := s.store.GetTransaction(ctx, id, userID)
	if err != nil {
		return core.Transaction{}, 0, err
	}

	after := before
	if patch.Name != nil {
		after.Name = *patch.Name
	}
	if patch.AmountCents != nil {
		after.AmountCents = *patch.AmountCents
	}
	if patch.Note != nil {
		after.Note = *patch.Note
	}
	if patch.Date != nil {
		after.Date = *patch.Date
	}
	if patch.Category != nil && core.NormalizeCategory(*patch.Category) != before.CategoryLabel {
		// Reclassification keeps the record's direction.
		cat, err := s.categories.ResolveOrCreate(ctx, *patch.Category, before.Direction)
		if err != nil {
			return core.Transaction{}, 0, err
		}
		after.CategoryID = cat.ID
		after.CategoryLabel = cat.Label
	}
	if err := after.Validate(); err != nil {
		return core.Transaction{}, 0, err
	}

	if _, err := s.ensureWallet(ctx, userID); err != nil {
		return core.Transaction{}, 0, err
	}

	if err := s.store.UpdateTransaction(ctx, after); err != nil {
		return core.Transaction{}, 0, err
	}

	delta := after.SignedAmount() - before.SignedAmount()
	var balance int64
	if delta != 0 {
		balance, err = s.projectDelta(ctx, userID, delta, "edit transaction")
	} else {
		var w core.Wallet
		w, err = s.store.GetWallet(ctx, userID)
		balance = w.TotalBalanceCents
	}
	if err != nil {
		return core.Transaction{}, 0, err
	}

	slog.InfoContext(ctx, "Transaction updated",
		"component", "ledger",
		"operation", "update",
		"transaction_id", id,
		"user_id", userID,
		"delta_cents", delta,
		"balance_cents", balance)

	return after, balance, nil
}

// DeleteTransaction removes a record and reverses its signed amount on the
// wallet. Returns the deleted record and the new balance.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id int64) (core.Transaction, int64, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return core.Transaction{}, 0, err
	}

	deleted, err := s.store.GetTransaction(ctx, id, userID)
	if err != nil {
		return core.Transaction{}, 0, err
	}

	if _, err := s.ensureWallet(ctx, userID); err != nil {
		return core.Transaction{}, 0, err
	}

	if err := s.store.DeleteTransaction(ctx, id, userID); err != nil {
		return core.Transaction{}, 0, err
	}

	balance, err := s.projectDelta(ctx, userID, -deleted.SignedAmount(), "delete transaction")
	if err != nil {
		return core.Transaction{}, 0, err
	}

	slog.InfoContext(ctx, "Transaction deleted",
		"component", "ledger",
		"operation", "delete",
		"transaction_id", id,
		"user_id", userID,
		"balance_cents", balance)

	return deleted, balance, nil
}

// GetTransaction is a plain owner-scoped read.
func (s *LedgerService) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id, userID)
}

// ListTransactions returns the user's records for one direction, newest
// effective date first.
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64, dir core.Direction) ([]core.Transaction, error) {
	return s.store.QueryTransactions(ctx, userID, storage.LedgerFilter{Direction: dir})
}

// Wallet returns the user's wallet, creating it from the full transaction
// history on first touch.
func (s *LedgerService) Wallet(ctx context.Context, userID int64) (core.Wallet, error) {
	w, err := s.store.GetWallet(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Wallet{}, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.ensureWallet(ctx, userID)
}

// RepairWallet recomputes the user's balance from the signed ledger sum and
// overwrites the wallet. It is the recovery path for consistency alerts.
func (s *LedgerService) RepairWallet(ctx context.Context, userID int64) (int64, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	sum, err := s.store.SumSigned(ctx, userID, storage.LedgerFilter{})
	if err != nil {
		return 0, fmt.Errorf("recompute balance: %w", err)
	}

	err = s.store.SetWalletBalance(ctx, userID, sum)
	if errors.Is(err, core.ErrNotFound) {
		_, err = s.store.CreateWallet(ctx, userID, sum)
	}
	if err != nil {
		return 0, fmt.Errorf("write repaired balance: %w", err)
	}

	slog.InfoContext(ctx, "Wallet repaired from ledger",
		"component", "ledger",
		"operation", "repair",
		"user_id", userID,
		"balance_cents", sum)

	return sum, nil
}

// ensureWallet lazily initializes the wallet by replaying the signed sum of
// the full ledger. Callers hold the user lock.
func (s *LedgerService) ensureWallet(ctx context.Context, userID int64) (core.Wallet, error) {
	w, err := s.store.GetWallet(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Wallet{}, err
	}

	sum, err := s.store.SumSigned(ctx, userID, storage.LedgerFilter{})
	if err != nil {
		return core.Wallet{}, err
	}

	w, err = s.store.CreateWallet(ctx, userID, sum)
	if err != nil {
		return core.Wallet{}, err
	}

	slog.InfoContext(ctx, "Wallet initialized from transaction history",
		"component", "ledger",
		"user_id", userID,
		"balance_cents", sum)

	return w, nil
}

// projectDelta applies a signed delta to the wallet. The caller holds the
// user lock and has already committed the triggering ledger write, so a
// failure here leaves the pair inconsistent: the delta is first retried as a
// full recompute from the ledger, and only if that also fails does the
// violation surface as a ConsistencyError with an operational alert.
func (s *LedgerService) projectDelta(ctx context.Context, userID, delta int64, op string) (int64, error) {
	balance, err := s.store.AddWalletBalance(ctx, userID, delta)
	if err == nil {
		return balance, nil
	}

	// The repair must run even when the request context is already gone.
	repairCtx := context.WithoutCancel(ctx)

	slog.WarnContext(repairCtx, "Wallet projection failed, attempting recompute",
		"component", "ledger",
		"operation", op,
		"user_id", userID,
		"delta_cents", delta,
		"error", err)

	sum, sumErr := s.store.SumSigned(repairCtx, userID, storage.LedgerFilter{})
	if sumErr == nil {
		if setErr := s.store.SetWalletBalance(repairCtx, userID, sum); setErr == nil {
			slog.WarnContext(repairCtx, "Wallet recomputed after failed projection",
				"component", "ledger",
				"user_id", userID,
				"balance_cents", sum)
			return sum, nil
		} else {
			err = setErr
		}
	} else {
		err = sumErr
	}

	cErr := &core.ConsistencyError{UserID: userID, Op: op, Err: err}
	slog.ErrorContext(repairCtx, "Wallet inconsistent with ledger",
		"component", "ledger",
		"operation", op,
		"user_id", userID,
		"error", cErr)

	if s.alerts != nil {
		if pubErr := s.alerts.PublishConsistencyAlert(repairCtx, userID, op, err); pubErr != nil {
			slog.ErrorContext(repairCtx, "Failed to publish consistency alert",
				"component", "ledger",
				"user_id", userID,
				"error", pubErr)
		}
	}

	return 0, cErr
}
