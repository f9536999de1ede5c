package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/saffronlabs/saffron/internal/cli"
	"github.com/saffronlabs/saffron/internal/storage"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Inspect and manage learned categorization patterns",
	}

	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsResetCmd())

	return cmd
}

func patternsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List patterns learned for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, userID, err := openPatternStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			patterns, err := store.GetUserPatterns(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to load patterns: %w", err)
			}
			if len(patterns) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no patterns learned yet"))
				return nil
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("%d learned patterns for %s", len(patterns), userID)))
			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-16s %-32s %-20s %s", "MERCHANT", "DESCRIPTION", "CATEGORY", "LEARNED")))
			for _, p := range patterns {
				fmt.Printf("%-16s %-32s %-20s %s\n",
					p.MerchantToken, truncate(p.Description, 32), p.Category,
					p.LearnedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func patternsResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget everything learned for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, userID, err := openPatternStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteUserPatterns(cmd.Context(), userID); err != nil {
				return fmt.Errorf("failed to reset patterns: %w", err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("forgot all patterns for %s", userID)))
			return nil
		},
	}
}

func openPatternStore(cmd *cobra.Command) (*storage.SQLiteStorage, string, error) {
	userID := viper.GetString("user")
	if userID == "" {
		return nil, "", fmt.Errorf("pattern management requires --user")
	}
	dbPath := databasePath()
	if dbPath == "" {
		return nil, "", fmt.Errorf("pattern management requires a database")
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, "", fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, userID, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
