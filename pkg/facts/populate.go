package facts

import (
	"context"
	"fmt"

	"github.com/smith3v/meowfacts/pkg/db"
	"github.com/smith3v/meowfacts/pkg/logger"
	"gorm.io/gorm"
)

// Source supplies fact texts for the one-time population.
type Source interface {
	Fetch(ctx context.Context, count int) ([]string, error)
}

// Populate fills an empty fact table from src with ids 1..k. It refuses to
// run when any fact already exists.
func Populate(ctx context.Context, src Source, count int) (int, error) {
	existing, err := Count(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, ErrAlreadyPopulated
	}

	fetched, err := src.Fetch(ctx, count)
	if err != nil {
		return 0, fmt.Errorf("fetch facts: %w", err)
	}
	texts := dedupe(fetched)
	if len(texts) == 0 {
		return 0, ErrProviderEmpty
	}

	rows := make([]db.Fact, len(texts))
	for i, text := range texts {
		rows[i] = db.Fact{ID: uint(i + 1), Text: text}
	}

	err = db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&db.Fact{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyPopulated
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return 0, err
	}
	logger.Info("facts populated", "fetched", len(fetched), "stored", len(rows))
	return len(rows), nil
}

// dedupe sanitizes texts and drops exact repeats, keeping first-seen order.
func dedupe(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, raw := range texts {
		text := Sanitize(raw)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
	}
	return out
}
