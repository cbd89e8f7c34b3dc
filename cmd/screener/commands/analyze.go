package commands

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbol...]",
	Short: "Support/resistance and cycle analysis",
	Long: `Builds the layered support view, entry ladder and swing cycle
projection for each symbol from the long-range history.

Example:
  go run ./cmd/screener analyze BBCA
  go run ./cmd/screener analyze BBCA TLKM --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var analyzeJSON bool

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print results as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	var firstErr error
	for _, symbol := range args {
		result, err := a.engine.Analyze(ctx, symbol)
		if err != nil {
			a.log.WithSymbol(symbol).WithError(err).Error("Analysis failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if analyzeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			continue
		}
		printAnalysis(out, result)
	}
	return firstErr
}
