package main

import (
	"fmt"
	"os"
	"time"

	"github.com/smith3v/meowfacts/pkg/cats"
	"github.com/smith3v/meowfacts/pkg/config"
	"github.com/smith3v/meowfacts/pkg/facts"
	"github.com/smith3v/meowfacts/pkg/facts/provider"
	"github.com/smith3v/meowfacts/pkg/importexport"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := openDB(); err != nil {
				return err
			}
			fmt.Println("Database schema is up to date")
			return nil
		},
	}
}

func populateCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Fill an empty fact table from the public facts API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := openDB(); err != nil {
				return err
			}
			cfg := config.AppConfig.FactsAPI
			if count <= 0 {
				count = cfg.PopulateCount
			}
			src := provider.New(cfg.BaseURL, time.Duration(cfg.TimeoutSeconds)*time.Second)
			stored, err := facts.Populate(cmd.Context(), src, count)
			if err != nil {
				return fmt.Errorf("failed to populate facts: %w", err)
			}
			fmt.Printf("Populated %d facts\n", stored)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of facts to request (default: facts_api.populate_count)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv-file>",
		Short: "Import facts from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			records, skipped, err := importexport.ParseFactsCSV(data)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			if err := openDB(); err != nil {
				return err
			}
			inserted, updated, err := importexport.UpsertFacts(cmd.Context(), records)
			if err != nil {
				return fmt.Errorf("failed to import facts: %w", err)
			}
			fmt.Printf("Imported %d new facts, updated %d facts, skipped %d rows.\n", inserted, updated, skipped)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [csv-file]",
		Short: "Export every fact to a CSV file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := openDB(); err != nil {
				return err
			}
			list, err := facts.List(cmd.Context(), "")
			if err != nil {
				return err
			}
			data, err := importexport.BuildExportCSV(list)
			if err != nil {
				return fmt.Errorf("failed to build csv: %w", err)
			}
			path := importexport.ExportFilename(time.Now())
			if len(args) == 1 {
				path = args[0]
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Printf("Exported %d facts to %s\n", len(list), path)
			return nil
		},
	}
}

func addCatCmd() *cobra.Command {
	var rarity string
	cmd := &cobra.Command{
		Use:   "add-cat <category> <name> <image-url>",
		Short: "Add a cat image to a collection category",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := openDB(); err != nil {
				return err
			}
			row, err := cats.Add(cmd.Context(), args[0], args[1], args[2], rarity)
			if err != nil {
				return err
			}
			fmt.Printf("Added %s to %s as %s (id %d)\n", row.Name, row.Category, row.Rarity, row.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&rarity, "rarity", "common", "one of common, rare, epic, legendary")
	return cmd
}
