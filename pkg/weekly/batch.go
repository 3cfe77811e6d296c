package weekly

import (
	"time"

	"github.com/smith3v/meowfacts/pkg/clientstore"
)

// BatchSize is the number of reserved facts, one per day of the week.
const BatchSize = 7

type Batch struct {
	Start time.Time
	Facts []string
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)) / (24 * time.Hour))
}

// Valid reports whether the batch covers today: it must hold exactly
// BatchSize facts and today must fall in [Start, Start+7 days).
func (b Batch) Valid(today time.Time) bool {
	if b.Start.IsZero() || len(b.Facts) != BatchSize {
		return false
	}
	d := daysBetween(b.Start, today)
	return d >= 0 && d < BatchSize
}

// FactFor returns the fact reserved for today.
func (b Batch) FactFor(today time.Time) (string, bool) {
	if !b.Valid(today) {
		return "", false
	}
	return b.Facts[daysBetween(b.Start, today)], true
}

func batchFromState(w *clientstore.WeeklyBatch) (Batch, bool) {
	if w == nil {
		return Batch{}, false
	}
	start, err := time.Parse(clientstore.DateLayout, w.StartDate)
	if err != nil {
		return Batch{}, false
	}
	return Batch{Start: start, Facts: append([]string(nil), w.Facts...)}, true
}

func (b Batch) toState() *clientstore.WeeklyBatch {
	return &clientstore.WeeklyBatch{
		StartDate: Day(b.Start).Format(clientstore.DateLayout),
		Facts:     append([]string(nil), b.Facts...),
	}
}
