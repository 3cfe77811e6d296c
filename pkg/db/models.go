// pkg/db/models.go
package db

import (
	"time"

	"gorm.io/datatypes"
)

// Fact is a single cat fact. ID is the real key; the text hash from
// factid is only used for display.
type Fact struct {
	ID        uint   `gorm:"primaryKey"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Fact) TableName() string {
	return "admin_facts"
}

type User struct {
	ID            uint       `gorm:"primaryKey"`
	Username      string     `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash  string     `gorm:"size:255;not null"`
	Points        int        `gorm:"not null;default:0"`
	LastLoginDate *time.Time `gorm:"type:date"`
	CreatedAt     time.Time
}

// UserFact records that a user has seen a fact.
type UserFact struct {
	UserID        uint      `gorm:"primaryKey;autoIncrement:false"`
	FactID        uint      `gorm:"primaryKey;autoIncrement:false;index"`
	EncounteredAt time.Time `gorm:"not null"`
	Fact          Fact      `gorm:"foreignKey:FactID;constraint:OnDelete:CASCADE"`
}

type LeaderboardEntry struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     uint   `gorm:"index:idx_leaderboard_user_game"`
	Username   string `gorm:"size:255;not null"`
	Score      int    `gorm:"not null;default:0"`
	Game       string `gorm:"size:50;not null;default:general;index:idx_leaderboard_user_game"`
	Difficulty string `gorm:"size:20;not null;default:easy"`
	CreatedAt  time.Time
}

func (LeaderboardEntry) TableName() string {
	return "leaderboard"
}

type Session struct {
	ID        string         `gorm:"primaryKey;size:36"`
	UserID    uint           `gorm:"index;not null"`
	Username  string         `gorm:"size:255;not null"`
	Data      datatypes.JSON `gorm:"not null"`
	ExpiresAt time.Time      `gorm:"index;not null"`
	CreatedAt time.Time
}

type CatImage struct {
	ID       uint   `gorm:"primaryKey"`
	Category string `gorm:"size:20;not null;index"` // Players, Collectors, Spinner
	Name     string `gorm:"size:100;not null"`
	ImageURL string `gorm:"size:255;not null"`
	Rarity   string `gorm:"size:20;not null"` // common, rare, epic, legendary
}

type TelegramSubscriber struct {
	ID           uint       `gorm:"primaryKey"`
	ChatID       int64      `gorm:"uniqueIndex;not null"`
	Subscribed   bool       `gorm:"not null;default:true"`
	LastSentDate *time.Time `gorm:"type:date"`
	CreatedAt    time.Time
}

// AllModels lists every table managed by AutoMigrate.
func AllModels() []any {
	return []any{
		&Fact{},
		&User{},
		&UserFact{},
		&LeaderboardEntry{},
		&Session{},
		&CatImage{},
		&TelegramSubscriber{},
	}
}
