package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/ristretto"

	"dompet/internal/core"
	"dompet/internal/storage"
)

// CategoryResolver is the return-or-create category collaborator. Lookups
// are fronted by a ristretto cache since the same few labels dominate
// transaction traffic.
type CategoryResolver struct {
	store *storage.Repository
	cache *ristretto.Cache
}

func NewCategoryResolver(store *storage.Repository) (*CategoryResolver, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("init category cache: %w", err)
	}
	return &CategoryResolver{store: store, cache: cache}, nil
}

// ResolveOrCreate returns the category for a label, creating it with the
// given direction on first use. Labels are matched case-insensitively and
// trimmed.
func (r *CategoryResolver) ResolveOrCreate(ctx context.Context, label string, dir core.Direction) (core.Category, error) {
	normalized := core.NormalizeCategory(label)
	if normalized == "" {
		return core.Category{}, core.ErrEmptyCategory
	}

	if v, ok := r.cache.Get(normalized); ok {
		if c, ok := v.(core.Category); ok {
			return c, nil
		}
	}

	c, err := r.store.GetCategoryByLabel(ctx, normalized)
	if errors.Is(err, core.ErrNotFound) {
		c, err = r.store.InsertCategory(ctx, core.Category{Label: normalized, Direction: dir})
		if storage.IsUniqueViolation(err) {
			// Lost the create race; the winner's row is what we want.
			c, err = r.store.GetCategoryByLabel(ctx, normalized)
		}
		if err == nil {
			slog.InfoContext(ctx, "Category created",
				"component", "category",
				"label", normalized,
				"direction", string(dir))
		}
	}
	if err != nil {
		return core.Category{}, err
	}

	r.cache.Set(normalized, c, 1)
	return c, nil
}
