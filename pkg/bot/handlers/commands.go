package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/meowfacts/pkg/factid"
	"github.com/smith3v/meowfacts/pkg/facts"
	"github.com/smith3v/meowfacts/pkg/logger"
)

const helpText = "Commands:\n" +
	"/start - get the fact of the day every morning\n" +
	"/fact - a random cat fact\n" +
	"/daily - today's fact\n" +
	"/stop - stop the daily fact"

// now is swapped in tests.
var now = time.Now

// FormatFact renders a fact with its display number.
func FormatFact(title string, id uint, text string) string {
	return fmt.Sprintf("%s #%d\n\n%s", title, factid.DisplayID(id, text), text)
}

func chatID(update *models.Update) (int64, bool) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		return 0, false
	}
	return update.Message.Chat.ID, true
}

func reply(ctx context.Context, b *bot.Bot, chat int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chat,
		Text:   text,
	})
	if err != nil {
		logger.Error("failed to send message", "chat_id", chat, "error", err)
	}
}

func HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	chat, ok := chatID(update)
	if !ok {
		logger.Error("invalid update in HandleStart")
		return
	}

	added, err := Subscribe(ctx, chat)
	if err != nil {
		logger.Error("failed to subscribe chat", "chat_id", chat, "error", err)
		reply(ctx, b, chat, "Failed to subscribe. Please try again later.")
		return
	}
	if !added {
		reply(ctx, b, chat, "You are already subscribed. Send /fact for a random cat fact.")
		return
	}
	logger.Info("chat subscribed", "chat_id", chat)
	reply(ctx, b, chat, "Welcome to Meow Facts! You will get one cat fact every day.\n\n"+helpText)
}

func HandleStop(ctx context.Context, b *bot.Bot, update *models.Update) {
	chat, ok := chatID(update)
	if !ok {
		logger.Error("invalid update in HandleStop")
		return
	}

	removed, err := Unsubscribe(ctx, chat)
	if err != nil {
		logger.Error("failed to unsubscribe chat", "chat_id", chat, "error", err)
		reply(ctx, b, chat, "Failed to unsubscribe. Please try again later.")
		return
	}
	if !removed {
		reply(ctx, b, chat, "You are not subscribed. Send /start to get a daily fact.")
		return
	}
	logger.Info("chat unsubscribed", "chat_id", chat)
	reply(ctx, b, chat, "Unsubscribed. No more daily facts.")
}

func HandleFact(ctx context.Context, b *bot.Bot, update *models.Update) {
	chat, ok := chatID(update)
	if !ok {
		logger.Error("invalid update in HandleFact")
		return
	}

	text := facts.FallbackFact
	list, err := facts.Random(ctx, 1, "")
	if err != nil {
		logger.Error("failed to fetch random fact", "chat_id", chat, "error", err)
	} else if len(list) > 0 {
		text = list[0]
	}
	reply(ctx, b, chat, FormatFact("Cat fact", 0, text))
}

func HandleDaily(ctx context.Context, b *bot.Bot, update *models.Update) {
	chat, ok := chatID(update)
	if !ok {
		logger.Error("invalid update in HandleDaily")
		return
	}

	fact, err := facts.Daily(ctx, now().UTC())
	if errors.Is(err, facts.ErrNotFound) {
		reply(ctx, b, chat, "No facts yet. Check back later!")
		return
	}
	if err != nil {
		logger.Error("failed to fetch daily fact", "chat_id", chat, "error", err)
		reply(ctx, b, chat, "Failed to fetch today's fact. Please try again later.")
		return
	}
	reply(ctx, b, chat, FormatFact("Fact of the day", fact.ID, fact.Text))
}

func DefaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	chat, ok := chatID(update)
	if !ok {
		logger.Error("received invalid update in DefaultHandler")
		return
	}
	reply(ctx, b, chat, helpText)
}
