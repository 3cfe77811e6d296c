package auth

import (
	"context"
	"math/rand"
	"time"

	"github.com/smith3v/meowfacts/pkg/db"
	"github.com/smith3v/meowfacts/pkg/facts"
)

// NewAccountDays is how long a user receives fresh facts at login before
// the login fact switches to re-surfacing ones they already know.
const NewAccountDays = 7

type DailyFact struct {
	ID    uint   `json:"id"`
	Text  string `json:"text"`
	IsNew bool   `json:"isNew"`
}

func pickDailyFact(ctx context.Context, user db.User, now time.Time) (*DailyFact, error) {
	dayOffset := int64(dateOnly(now).Sub(dateOnly(user.CreatedAt.UTC())) / (24 * time.Hour))

	if dayOffset < NewAccountDays {
		var ids []uint
		if err := db.DB.WithContext(ctx).Model(&db.Fact{}).Order("id").Pluck("id", &ids).Error; err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		seed := int64(user.ID)*31 + dayOffset
		id := ids[rand.New(rand.NewSource(seed)).Intn(len(ids))]
		fact, err := facts.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := facts.Encounter(ctx, user.ID, id); err != nil {
			return nil, err
		}
		return &DailyFact{ID: fact.ID, Text: fact.Text, IsNew: true}, nil
	}

	known, err := facts.UserFacts(ctx, user.ID)
	if err != nil || len(known) == 0 {
		return nil, err
	}
	ids := make([]uint, 0, len(known))
	for id := range known {
		ids = append(ids, id)
	}
	id := ids[rand.Intn(len(ids))]
	return &DailyFact{ID: id, Text: known[id]}, nil
}
