package weekly

import (
	"context"

	"github.com/smith3v/meowfacts/pkg/logger"
)

// PlaceholderFact fills the slots left empty when the retry budget runs out
// before BatchSize unique unseen facts were found.
const PlaceholderFact = "Cats are amazing creatures with incredible abilities!"

const (
	DefaultMaxAttempts = 5
	DefaultPerAttempt  = 30
)

// RetryPolicy bounds how many fetches Ensure makes to fill a batch.
type RetryPolicy struct {
	MaxAttempts int
	PerAttempt  int
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.PerAttempt <= 0 {
		p.PerAttempt = DefaultPerAttempt
	}
	return p
}

// FactSource supplies candidate facts.
type FactSource interface {
	Facts(ctx context.Context, count int) ([]string, error)
}

type collectResult struct {
	facts     []string
	attempts  int
	exhausted bool
}

// collect fetches until want facts pass accept or the policy gives up.
// Failed fetches count as attempts. A cancelled context stops immediately.
func (p RetryPolicy) collect(ctx context.Context, src FactSource, want int, accept func(string) bool) (collectResult, error) {
	p = p.withDefaults()
	var res collectResult
	for res.attempts < p.MaxAttempts && len(res.facts) < want {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.attempts++
		batch, err := src.Facts(ctx, p.PerAttempt)
		if err != nil {
			logger.Warn("weekly fact fetch failed", "attempt", res.attempts, "error", err)
			continue
		}
		for _, text := range batch {
			if accept(text) {
				res.facts = append(res.facts, text)
				if len(res.facts) == want {
					break
				}
			}
		}
	}
	res.exhausted = len(res.facts) < want
	return res, nil
}
