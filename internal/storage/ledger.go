package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dompet/internal/core"
)

// LedgerFilter narrows ledger queries. Zero values mean "no constraint".
// From/To form a half-open date range [From, To).
type LedgerFilter struct {
	Direction core.Direction
	Category  string
	From      time.Time
	To        time.Time
	Limit     int
}

func (f LedgerFilter) where(userID int64) (string, []any) {
	clause := "user_id = ?"
	args := []any{userID}
	if f.Direction != "" {
		clause += " AND direction = ?"
		args = append(args, string(f.Direction))
	}
	if f.Category != "" {
		clause += " AND category_label = ?"
		args = append(args, f.Category)
	}
	if !f.From.IsZero() {
		clause += " AND effective_date >= ?"
		args = append(args, f.From.Format(core.DateLayout))
	}
	if !f.To.IsZero() {
		clause += " AND effective_date < ?"
		args = append(args, f.To.Format(core.DateLayout))
	}
	return clause, args
}

const transactionColumns = "id, user_id, category_id, category_label, direction, name, amount_cents, note, effective_date, created_at"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		tx            core.Transaction
		effectiveDate string
		createdAt     string
	)
	err := row.Scan(&tx.ID, &tx.UserID, &tx.CategoryID, &tx.CategoryLabel, &tx.Direction,
		&tx.Name, &tx.AmountCents, &tx.Note, &effectiveDate, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Date, _ = core.ParseDate(effectiveDate)
	tx.CreatedAt = parseTime(createdAt)
	return tx, nil
}

func (r *Repository) InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, category_id, category_label, direction, name, amount_cents, note, effective_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.CategoryID, tx.CategoryLabel, string(tx.Direction), tx.Name,
		tx.AmountCents, tx.Note, tx.Date.String(), fmtTime(tx.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	tx.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction id: %w", err)
	}
	return tx, nil
}

// GetTransaction is owner-scoped: a record owned by another user is
// indistinguishable from an absent one.
func (r *Repository) GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND user_id = ?", id, userID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// UpdateTransaction writes the mutable fields of a record. The direction
// column is deliberately not in the SET list; direction never changes for a
// record's lifetime.
func (r *Repository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, category_label = ?, name = ?, amount_cents = ?, note = ?, effective_date = ?
		WHERE id = ? AND user_id = ?`,
		tx.CategoryID, tx.CategoryLabel, tx.Name, tx.AmountCents, tx.Note, tx.Date.String(),
		tx.ID, tx.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", tx.ID, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// QueryTransactions returns the user's records matching the filter, newest
// effective date first.
func (r *Repository) QueryTransactions(ctx context.Context, userID int64, f LedgerFilter) ([]core.Transaction, error) {
	clause, args := f.where(userID)
	q := "SELECT " + transactionColumns + " FROM transactions WHERE " + clause +
		" ORDER BY effective_date DESC, created_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SumSigned totals the matching records with sign applied by direction:
// +amount for income, -amount for expense.
func (r *Repository) SumSigned(ctx context.Context, userID int64, f LedgerFilter) (int64, error) {
	clause, args := f.where(userID)
	var sum int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'income' THEN amount_cents ELSE -amount_cents END), 0)
		FROM transactions WHERE `+clause, args...).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum signed: %w", err)
	}
	return sum, nil
}

// DirectionTotals holds per-direction aggregates for the profile view.
type DirectionTotals struct {
	IncomeCents  int64
	IncomeCount  int64
	ExpenseCents int64
	ExpenseCount int64
}

func (t DirectionTotals) NetCents() int64 {
	return t.IncomeCents - t.ExpenseCents
}

func (r *Repository) TransactionTotals(ctx context.Context, userID int64) (DirectionTotals, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT direction, SUM(amount_cents), COUNT(*)
		FROM transactions WHERE user_id = ? GROUP BY direction`, userID)
	if err != nil {
		return DirectionTotals{}, fmt.Errorf("transaction totals: %w", err)
	}
	defer rows.Close()

	var totals DirectionTotals
	for rows.Next() {
		var (
			direction    string
			cents, count int64
		)
		if err := rows.Scan(&direction, &cents, &count); err != nil {
			return DirectionTotals{}, fmt.Errorf("scan totals: %w", err)
		}
		switch core.Direction(direction) {
		case core.Income:
			totals.IncomeCents, totals.IncomeCount = cents, count
		case core.Expense:
			totals.ExpenseCents, totals.ExpenseCount = cents, count
		}
	}
	return totals, rows.Err()
}

// MonthlyTotal is one month's aggregate for one direction.
type MonthlyTotal struct {
	Month      int            `json:"month"`
	Direction  core.Direction `json:"direction"`
	TotalCents int64          `json:"total_cents"`
	Count      int64          `json:"count"`
}

// MonthlySummary aggregates the user's transactions for a calendar year by
// month and direction, months ascending.
func (r *Repository) MonthlySummary(ctx context.Context, userID int64, year int) ([]MonthlyTotal, error) {
	from := fmt.Sprintf("%04d-01-01", year)
	to := fmt.Sprintf("%04d-01-01", year+1)
	rows, err := r.db.QueryContext(ctx, `
		SELECT CAST(strftime('%m', effective_date) AS INTEGER), direction, SUM(amount_cents), COUNT(*)
		FROM transactions
		WHERE user_id = ? AND effective_date >= ? AND effective_date < ?
		GROUP BY 1, 2 ORDER BY 1, 2`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	defer rows.Close()

	var out []MonthlyTotal
	for rows.Next() {
		var mt MonthlyTotal
		if err := rows.Scan(&mt.Month, &mt.Direction, &mt.TotalCents, &mt.Count); err != nil {
			return nil, fmt.Errorf("scan monthly summary: %w", err)
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}
