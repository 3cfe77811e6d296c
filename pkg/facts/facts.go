package facts

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/smith3v/meowfacts/pkg/db"
	"github.com/smith3v/meowfacts/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FallbackFact is served when the store cannot answer, so the UI always has
// something to render.
const FallbackFact = "Cats are amazing creatures!"

const (
	DefaultRandomCount = 30
	MaxRandomCount     = 100
)

var (
	ErrNotFound         = errors.New("fact not found")
	ErrEmptyText        = errors.New("fact text is required")
	ErrAlreadyPopulated = errors.New("facts table already populated")
	ErrProviderEmpty    = errors.New("provider returned no facts")
)

var strictPolicy = bluemonday.StrictPolicy()

// sanitizePasses bounds how many layers of entity encoding Sanitize peels.
const sanitizePasses = 4

// Sanitize strips markup from fact text and trims surrounding whitespace.
// Entities are decoded before stripping, so encoded tags are removed as well.
func Sanitize(text string) string {
	for i := 0; i < sanitizePasses; i++ {
		decoded := html.UnescapeString(text)
		plain := html.UnescapeString(strictPolicy.Sanitize(decoded))
		if plain == decoded {
			return strings.TrimSpace(plain)
		}
		text = plain
	}
	return strings.TrimSpace(strictPolicy.Sanitize(text))
}

func List(ctx context.Context, search string) ([]db.Fact, error) {
	query := db.DB.WithContext(ctx).Order("id")
	if term := strings.TrimSpace(search); term != "" {
		query = query.Where("text LIKE ?", "%"+term+"%")
	}
	var out []db.Fact
	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	return out, nil
}

// Random returns up to count fact texts in random order, keeping only facts
// whose word count fits the difficulty.
func Random(ctx context.Context, count int, difficulty string) ([]string, error) {
	if count <= 0 {
		count = DefaultRandomCount
	}
	if count > MaxRandomCount {
		count = MaxRandomCount
	}

	bounds, filtered := DifficultyWords(difficulty)
	query := db.DB.WithContext(ctx).Model(&db.Fact{}).Order("RANDOM()")
	if !filtered {
		query = query.Limit(count)
	}
	var texts []string
	if err := query.Pluck("text", &texts).Error; err != nil {
		return nil, fmt.Errorf("random facts: %w", err)
	}
	if !filtered {
		return texts, nil
	}

	out := make([]string, 0, count)
	for _, text := range texts {
		if bounds.Contains(WordCount(text)) {
			out = append(out, text)
			if len(out) == count {
				break
			}
		}
	}
	return out, nil
}

func Count(ctx context.Context) (int64, error) {
	var n int64
	if err := db.DB.WithContext(ctx).Model(&db.Fact{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count facts: %w", err)
	}
	return n, nil
}

func Get(ctx context.Context, id uint) (db.Fact, error) {
	var fact db.Fact
	err := db.DB.WithContext(ctx).First(&fact, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fact, ErrNotFound
	}
	if err != nil {
		return fact, fmt.Errorf("get fact %d: %w", id, err)
	}
	return fact, nil
}

// createAttempts bounds how often Create re-reads max(id) after losing an
// insert race to a concurrent writer.
const createAttempts = 3

// Create stores a new fact under max(id)+1.
func Create(ctx context.Context, text string) (db.Fact, error) {
	text = Sanitize(text)
	if text == "" {
		return db.Fact{}, ErrEmptyText
	}
	var (
		fact db.Fact
		err  error
	)
	for attempt := 1; attempt <= createAttempts; attempt++ {
		err = db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var maxID uint
			if err := tx.Model(&db.Fact{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
				return err
			}
			fact = db.Fact{ID: maxID + 1, Text: text}
			return tx.Create(&fact).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		logger.Warn("fact id taken by a concurrent insert, retrying", "fact_id", fact.ID, "attempt", attempt)
	}
	if err != nil {
		return db.Fact{}, fmt.Errorf("create fact: %w", err)
	}
	return fact, nil
}

func Update(ctx context.Context, id uint, text string) error {
	text = Sanitize(text)
	if text == "" {
		return ErrEmptyText
	}
	res := db.DB.WithContext(ctx).Model(&db.Fact{}).Where("id = ?", id).
		Updates(map[string]any{"text": text, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("update fact %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the fact together with every user's encounter of it.
func Delete(ctx context.Context, id uint) error {
	var deleted int64
	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("fact_id = ?", id).Delete(&db.UserFact{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&db.Fact{}, id)
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("delete fact %d: %w", id, err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// Encounter records that the user has seen the fact. Repeats are ignored.
func Encounter(ctx context.Context, userID, factID uint) error {
	if _, err := Get(ctx, factID); err != nil {
		return err
	}
	record := db.UserFact{UserID: userID, FactID: factID, EncounteredAt: time.Now().UTC()}
	err := db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("record encounter: %w", err)
	}
	return nil
}

// UserFacts returns every fact the user has encountered keyed by fact id.
func UserFacts(ctx context.Context, userID uint) (map[uint]string, error) {
	var rows []db.UserFact
	err := db.DB.WithContext(ctx).
		Preload("Fact").
		Where("user_id = ?", userID).
		Order("fact_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load user facts: %w", err)
	}
	out := make(map[uint]string, len(rows))
	for _, row := range rows {
		if row.Fact.ID == 0 {
			continue
		}
		out[row.FactID] = row.Fact.Text
	}
	return out, nil
}

func EncounteredIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := db.DB.WithContext(ctx).Model(&db.UserFact{}).
		Where("user_id = ?", userID).
		Order("fact_id").
		Pluck("fact_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load encountered ids: %w", err)
	}
	return ids, nil
}

// Daily returns the fact of the day, stable for every caller on the same date.
func Daily(ctx context.Context, now time.Time) (db.Fact, error) {
	total, err := Count(ctx)
	if err != nil {
		return db.Fact{}, err
	}
	if total == 0 {
		return db.Fact{}, ErrNotFound
	}
	offset := int64(now.YearDay()) % total

	var fact db.Fact
	err = db.DB.WithContext(ctx).Order("id").Offset(int(offset)).Limit(1).Take(&fact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fact, ErrNotFound
	}
	if err != nil {
		return fact, fmt.Errorf("daily fact: %w", err)
	}
	return fact, nil
}
