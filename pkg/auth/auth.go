package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smith3v/meowfacts/pkg/db"
	"github.com/smith3v/meowfacts/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrMissingCredentials = errors.New("username and password required")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")
)

// SessionTTL is how long a login stays valid.
var SessionTTL = 24 * time.Hour

// SessionUser is the identity carried by a session.
type SessionUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type LoginResult struct {
	User      SessionUser
	Points    int
	SessionID string
	ExpiresAt time.Time
	DailyFact *DailyFact
}

func Register(ctx context.Context, username, password string) (db.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return db.User{}, ErrMissingCredentials
	}

	var count int64
	if err := db.DB.WithContext(ctx).Model(&db.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return db.User{}, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return db.User{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return db.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := db.User{Username: username, PasswordHash: string(hash)}
	if err := db.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return db.User{}, ErrUsernameTaken
		}
		return db.User{}, fmt.Errorf("create user: %w", err)
	}
	logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login checks the password, opens a session and, on the first login of the
// day, picks the user's daily fact.
func Login(ctx context.Context, username, password string, now time.Time) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	var user db.User
	err := db.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	now = now.UTC()
	identity := SessionUser{ID: user.ID, Username: user.Username}
	payload, err := json.Marshal(identity)
	if err != nil {
		return LoginResult{}, err
	}
	session := db.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Data:      datatypes.JSON(payload),
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := db.DB.WithContext(ctx).Create(&session).Error; err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	result := LoginResult{
		User:      identity,
		Points:    user.Points,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}

	if firstLoginOn(user.LastLoginDate, now) {
		daily, err := pickDailyFact(ctx, user, now)
		if err != nil {
			// A missing daily fact must not block the login itself.
			logger.Warn("failed to pick daily fact", "user_id", user.ID, "error", err)
		}
		result.DailyFact = daily
	}

	today := dateOnly(now)
	if err := db.DB.WithContext(ctx).Model(&db.User{}).Where("id = ?", user.ID).
		Update("last_login_date", today).Error; err != nil {
		return LoginResult{}, fmt.Errorf("update last login: %w", err)
	}
	return result, nil
}

// Lookup resolves a session id to its user. Expired sessions count as absent.
func Lookup(ctx context.Context, sessionID string, now time.Time) (SessionUser, error) {
	if sessionID == "" {
		return SessionUser{}, ErrNoSession
	}
	var session db.Session
	err := db.DB.WithContext(ctx).
		Where("id = ? AND expires_at > ?", sessionID, now.UTC()).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return SessionUser{}, ErrNoSession
	}
	if err != nil {
		return SessionUser{}, fmt.Errorf("load session: %w", err)
	}
	return SessionUser{ID: session.UserID, Username: session.Username}, nil
}

func Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := db.DB.WithContext(ctx).Where("id = ?", sessionID).Delete(&db.Session{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func firstLoginOn(last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	return last.UTC().Format(time.DateOnly) != now.Format(time.DateOnly)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
