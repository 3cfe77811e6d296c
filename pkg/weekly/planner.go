package weekly

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/smith3v/meowfacts/pkg/clientstore"
	"github.com/smith3v/meowfacts/pkg/factid"
	"github.com/smith3v/meowfacts/pkg/facts"
	"github.com/smith3v/meowfacts/pkg/logger"
)

// Planner reserves a week of facts for one client and decides when the
// daily fact modal is due.
type Planner struct {
	Source FactSource
	Local  *clientstore.Store
	Policy RetryPolicy
	Rand   *rand.Rand
}

type EnsureResult struct {
	Batch     Batch
	Reused    bool
	Exhausted bool
	Attempts  int
}

// Ensure returns a batch covering today, reusing the stored one when valid and
// otherwise reserving a new week of facts the user has not seen yet.
func (p *Planner) Ensure(ctx context.Context, today time.Time) (EnsureResult, error) {
	state, err := p.Local.Load()
	if err != nil {
		return EnsureResult{}, err
	}
	if b, ok := batchFromState(state.Weekly); ok && b.Valid(today) {
		return EnsureResult{Batch: b, Reused: true}, nil
	}

	picked := make(map[int]struct{}, BatchSize)
	texts := make(map[string]struct{}, BatchSize)
	accept := func(text string) bool {
		text = strings.TrimSpace(text)
		// the server answers with its fallback fact when it has none to give
		if text == "" || text == facts.FallbackFact || text == PlaceholderFact {
			return false
		}
		id := factid.ID(text)
		if _, seen := state.Encountered[id]; seen {
			return false
		}
		if _, dup := picked[id]; dup {
			return false
		}
		if _, dup := texts[text]; dup {
			return false
		}
		picked[id] = struct{}{}
		texts[text] = struct{}{}
		return true
	}

	res, err := p.Policy.collect(ctx, p.Source, BatchSize, accept)
	if err != nil {
		return EnsureResult{}, err
	}

	reserved := res.facts
	p.rand().Shuffle(len(reserved), func(i, j int) { reserved[i], reserved[j] = reserved[j], reserved[i] })
	for len(reserved) < BatchSize {
		reserved = append(reserved, PlaceholderFact)
	}
	if res.exhausted {
		logger.Warn("weekly batch padded with placeholder facts", "found", len(res.facts), "attempts", res.attempts)
	}

	batch := Batch{Start: Day(today), Facts: reserved}
	state.Weekly = batch.toState()
	if err := p.Local.Save(state); err != nil {
		return EnsureResult{}, err
	}
	return EnsureResult{Batch: batch, Exhausted: res.exhausted, Attempts: res.attempts}, nil
}

// TodayFact returns the reserved fact for today and its display id.
func (p *Planner) TodayFact(today time.Time) (string, int, bool) {
	state, err := p.Local.Load()
	if err != nil {
		return "", 0, false
	}
	b, ok := batchFromState(state.Weekly)
	if !ok {
		return "", 0, false
	}
	text, ok := b.FactFor(today)
	if !ok {
		return "", 0, false
	}
	return text, factid.ID(text), true
}

// ShouldShowDaily is true at most once per calendar day, and only while a
// valid batch exists.
func (p *Planner) ShouldShowDaily(today time.Time) bool {
	if _, _, ok := p.TodayFact(today); !ok {
		return false
	}
	state, err := p.Local.Load()
	if err != nil {
		return false
	}
	return state.LastShownDate != Day(today).Format(clientstore.DateLayout)
}

func (p *Planner) MarkShown(today time.Time) error {
	_, err := p.Local.Update(func(s *clientstore.State) error {
		s.LastShownDate = Day(today).Format(clientstore.DateLayout)
		return nil
	})
	return err
}

// Store files today's fact into the library and flags it as new.
func (p *Planner) Store(today time.Time) (int, error) {
	text, id, ok := p.TodayFact(today)
	if !ok {
		return 0, ErrNoBatch
	}
	_, err := p.Local.Update(func(s *clientstore.State) error {
		s.AddEncountered(id, text)
		return nil
	})
	return id, err
}

func (p *Planner) rand() *rand.Rand {
	if p.Rand == nil {
		p.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p.Rand
}
