package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/saffronlabs/saffron/internal/cli"
	"github.com/saffronlabs/saffron/internal/insights"
	"github.com/saffronlabs/saffron/internal/service"
	"github.com/saffronlabs/saffron/internal/storage"
)

func insightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Analyze spending patterns from expense history",
		Long: `Generate statistical insights and advice from your recorded expense
history. With an advice API key configured, a language model rewrites
the findings as a short narrative; the statistical insights are always
shown.`,
		RunE: runInsights,
	}

	cmd.Flags().Int("days", 90, "analyze expenses from the last N days (0 = all)")
	cmd.Flags().Int("limit", 0, "cap the number of expenses analyzed")

	return cmd
}

func runInsights(cmd *cobra.Command, _ []string) error {
	userID := viper.GetString("user")
	if userID == "" {
		return fmt.Errorf("insights require --user")
	}
	dbPath := databasePath()
	if dbPath == "" {
		return fmt.Errorf("insights require a database")
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	days, _ := cmd.Flags().GetInt("days")
	limit, _ := cmd.Flags().GetInt("limit")
	expenses, err := store.GetExpenses(cmd.Context(), service.ExpenseFilter{
		UserID: userID,
		Since:  sinceFlag(days),
		Limit:  limit,
	})
	if err != nil {
		return fmt.Errorf("failed to load expenses: %w", err)
	}

	summary := insights.Analyze(expenses)
	advisor := newAdvisor()
	advice := advisor.Advise(cmd.Context(), summary)

	fmt.Println(cli.FormatTitle("Spending insights"))
	if summary.Count > 0 {
		fmt.Printf("%s $%.2f over %d expenses\n\n",
			cli.BoldStyle.Render("Total:"), summary.Total, summary.Count)
		for _, cat := range summary.TopCategories(5) {
			fmt.Printf("  %-24s $%10.2f  %5.1f%%\n", cat.Category, cat.Total, cat.Percent)
		}
		fmt.Println()
	}

	for _, insight := range advice.Insights {
		fmt.Println("• " + insight)
	}
	if advice.Narrative != "" {
		fmt.Println()
		fmt.Println(cli.SubtleStyle.Render(advice.Narrative))
	}

	return nil
}

func newAdvisor() *insights.Advisor {
	apiKey := viper.GetString("advice.api_key")
	if apiKey == "" {
		return insights.NewAdvisor()
	}

	chat, err := insights.NewChatClient(insights.ChatConfig{
		APIKey:  apiKey,
		Model:   viper.GetString("advice.model"),
		BaseURL: viper.GetString("advice.base_url"),
	})
	if err != nil {
		return insights.NewAdvisor()
	}
	return insights.NewAdvisor(insights.WithChat(chat))
}
