package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/smith3v/meowfacts/pkg/db"
	"gorm.io/gorm"
)

// Subscribe turns on the daily fact for a chat. It reports whether the chat
// was not subscribed before.
func Subscribe(ctx context.Context, chatID int64) (bool, error) {
	var sub db.TelegramSubscriber
	err := db.DB.WithContext(ctx).Where("chat_id = ?", chatID).Take(&sub).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = db.TelegramSubscriber{ChatID: chatID, Subscribed: true}
		if err := db.DB.WithContext(ctx).Create(&sub).Error; err != nil {
			return false, fmt.Errorf("create subscriber: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("load subscriber: %w", err)
	}
	if sub.Subscribed {
		return false, nil
	}
	if err := db.DB.WithContext(ctx).Model(&sub).Update("subscribed", true).Error; err != nil {
		return false, fmt.Errorf("resubscribe: %w", err)
	}
	return true, nil
}

// Unsubscribe reports whether an active subscription was switched off.
func Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	res := db.DB.WithContext(ctx).Model(&db.TelegramSubscriber{}).
		Where("chat_id = ? AND subscribed = ?", chatID, true).
		Update("subscribed", false)
	if res.Error != nil {
		return false, fmt.Errorf("unsubscribe: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
