// clvctl runs the CLV pipeline offline: fit a BG/NBD model to a local
// transaction CSV, print predictions, or write the export bundle without
// starting the server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Uric01/machine-learning/internal/bgnbd"
	"github.com/Uric01/machine-learning/internal/ingest"
	"github.com/Uric01/machine-learning/internal/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "clvctl",
		Short:         "Customer lifetime value toolkit: fit, predict and export BG/NBD models",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newFitCmd(),
		newPredictCmd(),
		newExportCmd(),
	)

	return rootCmd
}

// loadSummaries runs ingestion and summarization on a local CSV.
func loadSummaries(path string) ([]models.CustomerSummary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	txs, err := ingest.Load(file)
	if err != nil {
		return nil, err
	}
	summaries, _, err := ingest.Summarize(txs)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func fitFromCSV(path string, penalizer float64) ([]models.CustomerSummary, *bgnbd.Model, error) {
	summaries, err := loadSummaries(path)
	if err != nil {
		return nil, nil, err
	}
	model, err := bgnbd.Fit(summaries, penalizer)
	if err != nil {
		return nil, nil, err
	}
	return summaries, model, nil
}
