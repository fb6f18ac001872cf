package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newFitCmd() *cobra.Command {
	var (
		csvPath   string
		penalizer float64
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a BG/NBD model to a transaction CSV and print its coefficients",
		RunE: func(cmd *cobra.Command, _ []string) error {
			summaries, model, err := fitFromCSV(csvPath, penalizer)
			if err != nil {
				return err
			}
			doc, err := json.MarshalIndent(model, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fitted %d customers\n%s\n", len(summaries), doc)
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "transaction CSV with customer_id and date columns")
	cmd.Flags().Float64Var(&penalizer, "penalizer", 0.0, "L2 regularization strength in [0, 1]")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func newPredictCmd() *cobra.Command {
	var (
		csvPath   string
		penalizer float64
		horizon   float64
		top       int
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Fit and print the customers with the highest expected purchases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			summaries, model, err := fitFromCSV(csvPath, penalizer)
			if err != nil {
				return err
			}
			type scored struct {
				id       string
				expected float64
			}
			ranked := make([]scored, len(summaries))
			for i, s := range summaries {
				ranked[i] = scored{
					id:       s.CustomerID,
					expected: model.ConditionalExpectedPurchases(horizon, s.Frequency, s.Recency, s.T),
				}
			}
			sort.Slice(ranked, func(i, j int) bool { return ranked[i].expected > ranked[j].expected })
			if top > len(ranked) {
				top = len(ranked)
			}
			for _, r := range ranked[:top] {
				fmt.Fprintf(cmd.OutOrStdout(), "%s ; expected=%.6f\n", r.id, r.expected)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "transaction CSV with customer_id and date columns")
	cmd.Flags().Float64Var(&penalizer, "penalizer", 0.0, "L2 regularization strength in [0, 1]")
	cmd.Flags().Float64Var(&horizon, "horizon", 60, "forecast horizon in days (1-365)")
	cmd.Flags().IntVar(&top, "top", 10, "number of customers to print")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}
