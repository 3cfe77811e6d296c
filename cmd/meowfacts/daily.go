package main

import (
	"fmt"
	"time"

	"github.com/smith3v/meowfacts/pkg/client"
	"github.com/smith3v/meowfacts/pkg/clientstore"
	"github.com/smith3v/meowfacts/pkg/factid"
	"github.com/smith3v/meowfacts/pkg/logger"
	"github.com/smith3v/meowfacts/pkg/weekly"
	"github.com/spf13/cobra"
)

func dailyCmd() *cobra.Command {
	var (
		serverURL string
		statePath string
		username  string
		password  string
		attempts  int
	)

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Reserve this week's facts and show today's fact once per day",
		Long: `Keeps a local weekly batch of seven unseen facts fetched from a running
server and prints today's fact the first time it runs on a given day. With
--user and --password the account's known facts are merged into the local
library first, so they are not reserved again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := client.New(serverURL)
			if err != nil {
				return err
			}
			store := clientstore.Open(statePath)
			today := time.Now()

			if username != "" {
				if _, err := c.Login(ctx, username, password); err != nil {
					return fmt.Errorf("failed to log in: %w", err)
				}
				known, err := c.UserFacts(ctx)
				if err != nil {
					return fmt.Errorf("failed to load known facts: %w", err)
				}
				if _, err := store.Update(func(s *clientstore.State) error {
					for _, text := range known {
						s.Remember(factid.ID(text), text)
					}
					return nil
				}); err != nil {
					return err
				}
			}

			planner := &weekly.Planner{
				Source: c,
				Local:  store,
				Policy: weekly.RetryPolicy{MaxAttempts: attempts},
			}
			res, err := planner.Ensure(ctx, today)
			if err != nil {
				return fmt.Errorf("failed to reserve weekly facts: %w", err)
			}
			if !res.Reused {
				logger.Info("reserved new weekly batch", "start", res.Batch.Start.Format(clientstore.DateLayout), "attempts", res.Attempts, "exhausted", res.Exhausted)
			}

			if !planner.ShouldShowDaily(today) {
				fmt.Println("Today's fact was already shown.")
				return nil
			}
			text, id, _ := planner.TodayFact(today)
			fmt.Printf("Fact of the day #%d\n\n%s\n", id, text)

			if _, err := planner.Store(today); err != nil {
				return err
			}
			return planner.MarkShown(today)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:3000", "meowfacts server base url")
	cmd.Flags().StringVar(&statePath, "state", "meowfacts-state.json", "local state file")
	cmd.Flags().StringVar(&username, "user", "", "log in as this user")
	cmd.Flags().StringVar(&password, "password", "", "password for --user")
	cmd.Flags().IntVar(&attempts, "attempts", weekly.DefaultMaxAttempts, "fetch attempts when reserving a new week")
	return cmd
}
