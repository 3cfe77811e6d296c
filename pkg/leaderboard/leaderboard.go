package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smith3v/meowfacts/pkg/db"
	"gorm.io/gorm"
)

const (
	GameSpeedTyping  = "SpeedTyping"
	GameTriviaMaster = "TriviaMaster"
	GameJumbledFacts = "JumbledFacts"

	DefaultDifficulty = "easy"
	TopLimit          = 10
)

var ErrInvalidScore = errors.New("invalid score or game")

type Leader struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type Submission struct {
	UserID     uint
	Username   string
	Score      int
	Game       string
	Difficulty string
}

// Outcome tells what a submission did to the stored board.
type Outcome int

const (
	Inserted Outcome = iota
	Updated
	Kept
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "kept"
	}
}

// LowerIsBetter reports whether the game's score is a time.
func LowerIsBetter(game string) bool {
	return game == GameSpeedTyping
}

func accumulates(game string) bool {
	return game == GameTriviaMaster || game == GameJumbledFacts
}

// Top returns the ten best rows, optionally narrowed by game and difficulty.
func Top(ctx context.Context, game, difficulty string) ([]Leader, error) {
	game = strings.TrimSpace(game)
	difficulty = strings.TrimSpace(difficulty)

	query := db.DB.WithContext(ctx).Model(&db.LeaderboardEntry{})
	if game != "" {
		query = query.Where("game = ?", game)
	}
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	order := "score DESC, created_at ASC"
	if LowerIsBetter(game) {
		order = "score ASC, created_at ASC"
	}

	var out []Leader
	err := query.Select("username AS name, score").Order(order).Limit(TopLimit).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	if out == nil {
		out = []Leader{}
	}
	return out, nil
}

// Submit stores a score. Timed games keep each user's best per difficulty,
// accumulating games add to the user's running total, anything else appends.
func Submit(ctx context.Context, s Submission) (Outcome, error) {
	s.Game = strings.TrimSpace(s.Game)
	s.Difficulty = strings.TrimSpace(s.Difficulty)
	if s.Game == "" || s.Score < 0 || s.UserID == 0 {
		return Kept, ErrInvalidScore
	}
	if s.Difficulty == "" {
		s.Difficulty = DefaultDifficulty
	}

	outcome := Inserted
	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch {
		case LowerIsBetter(s.Game):
			var existing db.LeaderboardEntry
			err := tx.Where("user_id = ? AND game = ? AND difficulty = ?", s.UserID, s.Game, s.Difficulty).
				First(&existing).Error
			if err == nil {
				if s.Score >= existing.Score {
					outcome = Kept
					return nil
				}
				outcome = Updated
				return tx.Model(&existing).Updates(map[string]any{"score": s.Score, "username": s.Username}).Error
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		case accumulates(s.Game):
			var existing db.LeaderboardEntry
			err := tx.Where("user_id = ? AND game = ?", s.UserID, s.Game).First(&existing).Error
			if err == nil {
				outcome = Updated
				return tx.Model(&existing).Update("score", gorm.Expr("score + ?", s.Score)).Error
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		return tx.Create(&db.LeaderboardEntry{
			UserID:     s.UserID,
			Username:   s.Username,
			Score:      s.Score,
			Game:       s.Game,
			Difficulty: s.Difficulty,
		}).Error
	})
	if err != nil {
		return Kept, fmt.Errorf("submit score: %w", err)
	}
	return outcome, nil
}
