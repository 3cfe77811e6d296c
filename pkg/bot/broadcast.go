package bot

import (
	"context"
	"errors"
	"time"

	"github.com/go-telegram/bot"
	"github.com/smith3v/meowfacts/pkg/bot/handlers"
	"github.com/smith3v/meowfacts/pkg/db"
	"github.com/smith3v/meowfacts/pkg/facts"
	"github.com/smith3v/meowfacts/pkg/logger"
)

const broadcastCheckInterval = 10 * time.Minute

type tickerHandle struct {
	C    <-chan time.Time
	stop func()
}

var tickerFactory = func(d time.Duration) tickerHandle {
	t := time.NewTicker(d)
	return tickerHandle{
		C:    t.C,
		stop: t.Stop,
	}
}

var now = time.Now

// StartDailyBroadcast sends the fact of the day to every subscribed chat once
// per UTC day, on the first check at or after hour. It blocks until ctx is
// done.
func StartDailyBroadcast(ctx context.Context, b *bot.Bot, hour int) {
	ticker := tickerFactory(broadcastCheckInterval)
	defer ticker.stop()

	check := func(ts time.Time) {
		ts = ts.UTC()
		if ts.Hour() < hour {
			return
		}
		sent, err := broadcastDaily(ctx, b, ts)
		if err != nil {
			logger.Error("daily broadcast failed", "error", err)
			return
		}
		if sent > 0 {
			logger.Info("daily fact broadcast", "chats", sent)
		}
	}

	check(now())
	for {
		select {
		case <-ctx.Done():
			return
		case ts := <-ticker.C:
			check(ts)
		}
	}
}

// broadcastDaily sends today's fact to subscribers that have not had it yet
// and records the send date per chat.
func broadcastDaily(ctx context.Context, b *bot.Bot, ts time.Time) (int, error) {
	var subs []db.TelegramSubscriber
	if err := db.DB.WithContext(ctx).Where("subscribed = ?", true).Order("id").Find(&subs).Error; err != nil {
		return 0, err
	}
	today := dateOnly(ts)
	pending := subs[:0]
	for _, sub := range subs {
		if sub.LastSentDate != nil && dateOnly(*sub.LastSentDate).Equal(today) {
			continue
		}
		pending = append(pending, sub)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	fact, err := facts.Daily(ctx, ts)
	if errors.Is(err, facts.ErrNotFound) {
		logger.Debug("no facts to broadcast")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	text := handlers.FormatFact("Fact of the day", fact.ID, fact.Text)

	sent := 0
	for _, sub := range pending {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: sub.ChatID,
			Text:   text,
		})
		if err != nil {
			logger.Error("failed to send daily fact", "chat_id", sub.ChatID, "error", err)
			continue
		}
		if err := db.DB.WithContext(ctx).Model(&sub).Update("last_sent_date", today).Error; err != nil {
			logger.Error("failed to record daily send", "chat_id", sub.ChatID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
