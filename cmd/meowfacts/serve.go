package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/smith3v/meowfacts/pkg/api"
	"github.com/smith3v/meowfacts/pkg/auth"
	"github.com/smith3v/meowfacts/pkg/bot"
	"github.com/smith3v/meowfacts/pkg/config"
	"github.com/smith3v/meowfacts/pkg/db"
	"github.com/smith3v/meowfacts/pkg/facts/provider"
	"github.com/smith3v/meowfacts/pkg/logger"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var withBot bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, session cleanup and optionally the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := openDB(); err != nil {
				return err
			}
			cfg := config.AppConfig

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			auth.SessionTTL = time.Duration(cfg.Session.TTLHours) * time.Hour
			server := api.New(api.Options{
				Signer:        auth.NewSigner(cfg.Session.Secret, cfg.Session.CookieName, cfg.Session.Secure),
				Source:        provider.New(cfg.FactsAPI.BaseURL, time.Duration(cfg.FactsAPI.TimeoutSeconds)*time.Second),
				PopulateCount: cfg.FactsAPI.PopulateCount,
				CORSOrigins:   cfg.Server.CORSOrigins,
				StaticDir:     cfg.Server.StaticDir,
			})
			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           server,
				ReadHeaderTimeout: 10 * time.Second,
			}

			var b *tgbot.Bot
			if withBot {
				if cfg.Telegram.Token == "" {
					return fmt.Errorf("telegram token is required to run the bot")
				}
				var err error
				if b, err = bot.New(cfg.Telegram.Token); err != nil {
					return fmt.Errorf("failed to create bot: %w", err)
				}
			}

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				db.StartSessionCleanup(ctx, db.SessionCleanupInterval)
			}()

			if b != nil {
				wg.Add(2)
				go func() {
					defer wg.Done()
					bot.StartDailyBroadcast(ctx, b, cfg.Telegram.DailyHour)
				}()
				go func() {
					defer wg.Done()
					logger.Info("starting telegram bot")
					b.Start(ctx)
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("API listening", "addr", cfg.Server.Addr, "cors_origins", cfg.Server.CORSOrigins)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			var serveErr error
			select {
			case <-ctx.Done():
			case serveErr = <-errCh:
				cancel()
			}

			shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shut down http server", "error", err)
			}
			wg.Wait()
			logger.Info("server stopped")
			return serveErr
		},
	}
	cmd.Flags().BoolVar(&withBot, "bot", false, "also run the Telegram bot (needs telegram.token)")
	return cmd
}
