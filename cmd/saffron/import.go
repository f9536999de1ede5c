package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/saffronlabs/saffron/internal/cli"
	"github.com/saffronlabs/saffron/internal/model"
	"github.com/saffronlabs/saffron/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import and categorize OFX/QFX bank statements",
		Long: `Import expenses from OFX or QFX statement files exported from your bank,
categorize each entry, and record them in your expense history.

Examples:
  saffron import ~/Downloads/chase_jan.qfx --user alice
  saffron import ~/Downloads/*.qfx --user alice --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "categorize without saving history")
	cmd.Flags().Int("workers", 0, "concurrent categorization workers")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	files, err := expandGlobs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to import")
	}

	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	parser := ofx.NewParser()
	var entries []ofx.Entry
	for _, path := range files {
		file, openErr := os.Open(path)
		if openErr != nil {
			return fmt.Errorf("failed to open %s: %w", path, openErr)
		}
		parsed, parseErr := parser.ParseFile(cmd.Context(), file)
		_ = file.Close()
		if parseErr != nil {
			return fmt.Errorf("failed to parse %s: %w", path, parseErr)
		}
		entries = append(entries, parsed...)
	}
	if len(entries) == 0 {
		fmt.Println(cli.FormatWarning("no expense entries found in the given files"))
		return nil
	}

	inputs := make([]model.ClassificationInput, len(entries))
	for i, entry := range entries {
		amount := entry.Amount
		inputs[i] = model.ClassificationInput{
			Description: entry.Description,
			Amount:      &amount,
			UserID:      a.userID,
		}
	}

	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = batchWorkers()
	}

	bar := newProgressBar(len(inputs), "Categorizing statement entries...")
	results := a.engine.ClassifyBatch(cmd.Context(), inputs, workers, func(int) {
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	totals := make(map[string]float64)
	saved := 0
	for i, result := range results {
		totals[result.Category] += entries[i].Amount

		if dryRun || a.store == nil || a.userID == "" {
			continue
		}
		expense := model.Expense{
			Date:        entries[i].Date,
			Description: entries[i].Description,
			Category:    result.Category,
			Method:      result.Method,
			Amount:      entries[i].Amount,
			Confidence:  result.Confidence,
		}
		if saveErr := a.store.SaveExpense(cmd.Context(), a.userID, expense); saveErr != nil {
			slog.Warn("failed to save expense", "description", expense.Description, "error", saveErr)
			continue
		}
		saved++
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Imported %d entries from %d file(s)", len(entries), len(files))))
	categories := make([]string, 0, len(totals))
	for category := range totals {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return totals[categories[i]] > totals[categories[j]] })
	for _, category := range categories {
		fmt.Printf("  %-24s $%.2f\n", category, totals[category])
	}

	switch {
	case dryRun:
		fmt.Println(cli.SubtleStyle.Render("dry run: nothing saved"))
	case a.store == nil || a.userID == "":
		fmt.Println(cli.SubtleStyle.Render("no user/database configured: history not saved"))
	default:
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("saved %d expenses to history", saved)))
	}

	printStats(a.engine.Stats())
	return nil
}

func expandGlobs(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, statErr := os.Stat(pattern); statErr == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	return files, nil
}
