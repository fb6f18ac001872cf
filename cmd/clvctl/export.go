package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Uric01/machine-learning/internal/models"
	"github.com/Uric01/machine-learning/internal/report"
)

func newExportCmd() *cobra.Command {
	var (
		csvPath   string
		penalizer float64
		horizon   float64
		outPath   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fit, predict and write the predictions/model-params zip bundle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if horizon < 1 || horizon > 365 {
				return fmt.Errorf("horizon must be between 1 and 365 days")
			}
			summaries, model, err := fitFromCSV(csvPath, penalizer)
			if err != nil {
				return err
			}

			bar := progressbar.Default(int64(len(summaries)))
			predictions := make([]models.Prediction, len(summaries))
			for i, s := range summaries {
				predictions[i] = models.Prediction{
					CustomerID:            s.CustomerID,
					Frequency:             s.Frequency,
					Recency:               s.Recency,
					T:                     s.T,
					PredictedTransactions: model.ConditionalExpectedPurchases(horizon, s.Frequency, s.Recency, s.T),
				}
				_ = bar.Add(1)
			}

			bundle, err := report.Bundle(predictions, model)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = report.BundleName
			}
			if err := os.WriteFile(outPath, bundle, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d customers, horizon %g days)\n", outPath, len(predictions), horizon)
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "transaction CSV with customer_id and date columns")
	cmd.Flags().Float64Var(&penalizer, "penalizer", 0.0, "L2 regularization strength in [0, 1]")
	cmd.Flags().Float64Var(&horizon, "horizon", 60, "forecast horizon in days (1-365)")
	cmd.Flags().StringVar(&outPath, "out", "", "output path (defaults to "+report.BundleName+")")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}
