package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/saffronlabs/saffron/internal/cli"
	"github.com/saffronlabs/saffron/internal/engine"
	"github.com/saffronlabs/saffron/internal/model"
)

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize [description]",
		Short: "Categorize an expense description",
		Long: `Categorize a single expense description, or a batch of them with --file.

Examples:
  saffron categorize "Starbucks Coffee Shop" --amount 4.95
  saffron categorize --file descriptions.txt --user alice`,
		RunE: runCategorize,
	}

	cmd.Flags().Float64("amount", 0, "expense amount (improves rule scoring)")
	cmd.Flags().String("file", "", "batch mode: file with one description per line")
	cmd.Flags().Int("workers", 0, "concurrent workers in batch mode")

	return cmd
}

func runCategorize(cmd *cobra.Command, args []string) error {
	batchFile, _ := cmd.Flags().GetString("file")
	if batchFile == "" && len(args) == 0 {
		return fmt.Errorf("provide a description or --file")
	}

	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if batchFile != "" {
		return runCategorizeBatch(cmd, a, batchFile)
	}

	input := model.ClassificationInput{
		Description: strings.Join(args, " "),
		UserID:      a.userID,
	}
	if cmd.Flags().Changed("amount") {
		amount, _ := cmd.Flags().GetFloat64("amount")
		input.Amount = &amount
	}

	result := a.engine.Classify(cmd.Context(), input)
	printResult(input.Description, result)
	return nil
}

func runCategorizeBatch(cmd *cobra.Command, a *app, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open batch file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var inputs []model.ClassificationInput
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		inputs = append(inputs, model.ClassificationInput{
			Description: line,
			UserID:      a.userID,
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no descriptions found in %s", path)
	}

	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = batchWorkers()
	}

	bar := newProgressBar(len(inputs), "Categorizing expenses...")
	results := a.engine.ClassifyBatch(cmd.Context(), inputs, workers, func(int) {
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	for i, result := range results {
		fmt.Printf("%s  %s %s\n",
			cli.TableCellStyle.Render(inputs[i].Description),
			cli.BoldStyle.Render(result.Category),
			cli.SubtleStyle.Render(fmt.Sprintf("(%.0f%%, %s)", result.Confidence*100, result.Method)))
	}

	printStats(a.engine.Stats())
	return nil
}

func printResult(description string, result model.ClassificationResult) {
	fmt.Println(cli.FormatTitle(description))
	fmt.Printf("%s %s\n", cli.BoldStyle.Render("Category:"), result.Category)
	fmt.Printf("%s %.0f%%\n", cli.BoldStyle.Render("Confidence:"), result.Confidence*100)
	fmt.Printf("%s %s\n", cli.BoldStyle.Render("Method:"), result.Method)
	if result.Reasoning != "" {
		fmt.Println(cli.SubtleStyle.Render(result.Reasoning))
	}
	for _, alt := range result.Alternatives {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("  alternative: %s (%.0f%%)", alt.Category, alt.Confidence*100)))
	}
	if result.FromCache {
		fmt.Println(cli.SubtleStyle.Render("  (cached)"))
	}
}

func printStats(stats engine.StatsSnapshot) {
	if stats.Classified == 0 {
		return
	}

	fmt.Println()
	fmt.Println(cli.TableHeaderStyle.Render(cli.ChartIcon + " Classification stats"))
	methods := make([]string, 0, len(stats.ByMethod))
	for method := range stats.ByMethod {
		methods = append(methods, string(method))
	}
	sort.Strings(methods)
	for _, method := range methods {
		fmt.Printf("  %-20s %d\n", method, stats.ByMethod[model.Method(method)])
	}
	fmt.Printf("  %-20s %.0f%%\n", "avg confidence", stats.AverageConfidence*100)
	if stats.CacheHits+stats.CacheMisses > 0 {
		fmt.Printf("  %-20s %.0f%%\n", "cache hit rate", stats.CacheHitRate()*100)
	}
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[yellow]"+description+"[reset]"),
	)
}
