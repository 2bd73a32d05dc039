package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dompet/internal/core"
)

const budgetColumns = "id, user_id, amount_cents, period, category, start_date, end_date, created_at"

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b         core.Budget
		startDate string
		endDate   sql.NullString
		createdAt string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.AmountCents, &b.Period, &b.Category,
		&startDate, &endDate, &createdAt)
	if err != nil {
		return core.Budget{}, err
	}
	b.StartDate, _ = core.ParseDate(startDate)
	if endDate.Valid {
		d, err := core.ParseDate(endDate.String)
		if err == nil {
			b.EndDate = &d
		}
	}
	b.CreatedAt = parseTime(createdAt)
	return b, nil
}

func (r *Repository) InsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.CreatedAt = time.Now().UTC()
	var endDate any
	if b.EndDate != nil {
		endDate = b.EndDate.String()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, amount_cents, period, category, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.AmountCents, string(b.Period), b.Category, b.StartDate.String(), endDate, fmtTime(b.CreatedAt))
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget id: %w", err)
	}
	return b, nil
}

func (r *Repository) GetBudget(ctx context.Context, id, userID int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE id = ? AND user_id = ?", id, userID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	var endDate any
	if b.EndDate != nil {
		endDate = b.EndDate.String()
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET amount_cents = ?, period = ?, category = ?, start_date = ?, end_date = ?
		WHERE id = ? AND user_id = ?`,
		b.AmountCents, string(b.Period), b.Category, b.StartDate.String(), endDate,
		b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update budget rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("budget %d: %w", b.ID, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM budgets WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// ActiveBudgetExists is the pre-insert uniqueness check: at most one active
// budget per (user, category, period). Active means no end date or an end
// date on or after the given day.
func (r *Repository) ActiveBudgetExists(ctx context.Context, userID int64, category string, p core.Period, today core.Date) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM budgets
		WHERE user_id = ? AND category = ? AND period = ?
		  AND (end_date IS NULL OR end_date >= ?)`,
		userID, category, string(p), today.String()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("active budget check: %w", err)
	}
	return count > 0, nil
}

// ListActiveBudgets returns the user's budgets that are still in effect on
// the given day, for alert evaluation.
func (r *Repository) ListActiveBudgets(ctx context.Context, userID int64, today core.Date) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+budgetColumns+` FROM budgets
		WHERE user_id = ? AND (end_date IS NULL OR end_date >= ?)
		ORDER BY created_at DESC, id DESC`, userID, today.String())
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}
