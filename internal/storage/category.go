package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dompet/internal/core"
)

func (r *Repository) GetCategoryByLabel(ctx context.Context, label string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		"SELECT id, label, direction, icon, color FROM categories WHERE label = ?", label).
		Scan(&c.ID, &c.Label, &c.Direction, &c.Icon, &c.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %q: %w", label, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// InsertCategory creates a category with the given label and direction.
// Callers race on the unique label; they retry with a lookup on conflict.
func (r *Repository) InsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.Icon == "" {
		c.Icon = "default-icon"
	}
	if c.Color == "" {
		c.Color = "#000000"
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (label, direction, icon, color, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.Label, string(c.Direction), c.Icon, c.Color, fmtTime(time.Now().UTC()))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category id: %w", err)
	}
	return c, nil
}

// IsUniqueViolation reports whether err is a SQLite unique constraint
// failure. The driver exposes no typed error for this.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
