package main

import (
	"fmt"
	"strings"

	"github.com/smith3v/meowfacts/pkg/clientstore"
	"github.com/smith3v/meowfacts/pkg/factid"
	"github.com/smith3v/meowfacts/pkg/library"
	"github.com/spf13/cobra"
)

func libraryCmd() *cobra.Command {
	var (
		statePath string
		pages     int
		view      []int
	)

	cmd := &cobra.Command{
		Use:   "library",
		Short: "Page through the local fact library",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store := clientstore.Open(statePath)
			state, err := store.Load()
			if err != nil {
				return err
			}

			notes := library.NewNotifications(state.NewIDs...)
			if len(view) > 0 {
				for _, id := range view {
					notes.View(id)
				}
				state, err = store.Update(func(s *clientstore.State) error {
					s.NewIDs = notes.IDs()
					return nil
				})
				if err != nil {
					return err
				}
			}

			if pages <= 0 {
				pages = library.PagesFor(factid.Bound)
			}
			book := library.NewBook(pages)
			seq := library.NewSequencer(library.RealClock)
			if err := seq.OpenBook(ctx, book); err != nil {
				return err
			}
			fmt.Printf("Library: %d of %d facts found, %d new\n", len(state.Encountered), factid.Bound, notes.Len())

			for page := 1; page < book.Pages(); page++ {
				printPage(page, state.Encountered, notes)
				if page < book.Pages()-1 {
					if err := book.Next(page); err != nil {
						return err
					}
				}
			}
			return seq.CloseBook(ctx, book)
		},
	}
	cmd.Flags().StringVar(&statePath, "state", "meowfacts-state.json", "local state file")
	cmd.Flags().IntVar(&pages, "pages", 0, "number of pages including the intro page (default: enough for every fact)")
	cmd.Flags().IntSliceVar(&view, "view", nil, "fact numbers to mark as viewed")
	return cmd
}

func printPage(page int, encountered map[int]string, notes *library.Notifications) {
	fmt.Printf("\n--- Page %d ---\n", page)
	for _, card := range library.Cards(page, encountered, notes) {
		if card.Number > factid.Bound {
			break
		}
		switch {
		case !card.Encountered:
			fmt.Printf("%3d  ???\n", card.Number)
		case card.New:
			fmt.Printf("%3d* %s\n", card.Number, oneLine(card.Text))
		default:
			fmt.Printf("%3d  %s\n", card.Number, oneLine(card.Text))
		}
	}
}

func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
