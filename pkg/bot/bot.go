package bot

import (
	"github.com/go-telegram/bot"
	"github.com/smith3v/meowfacts/pkg/bot/handlers"
)

// New creates a Telegram bot with every command handler registered.
func New(token string, opts ...bot.Option) (*bot.Bot, error) {
	opts = append([]bot.Option{bot.WithDefaultHandler(handlers.DefaultHandler)}, opts...)
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, err
	}

	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, handlers.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/stop", bot.MatchTypeExact, handlers.HandleStop)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/fact", bot.MatchTypeExact, handlers.HandleFact)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/daily", bot.MatchTypeExact, handlers.HandleDaily)
	return b, nil
}
