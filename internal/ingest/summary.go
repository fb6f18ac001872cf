package ingest

import (
	"sort"
	"time"

	"github.com/Uric01/machine-learning/internal/models"
)

const hoursPerDay = 24

// Summarize reduces a transaction log to one row per customer, anchored to
// the observation cutoff (the maximum date across the whole dataset).
//
// frequency counts repeat purchases (total minus one), recency is the span
// in days between a customer's first and last purchase, and T is the span
// between the first purchase and the cutoff. recency <= T always holds; a
// single-purchase customer has frequency 0 and recency 0.
func Summarize(txs []models.Transaction) ([]models.CustomerSummary, time.Time, error) {
	if len(txs) == 0 {
		return nil, time.Time{}, &models.EmptyDatasetError{}
	}

	type span struct {
		first time.Time
		last  time.Time
		count int
	}
	spans := make(map[string]*span, len(txs))
	cutoff := txs[0].Date
	for _, tx := range txs {
		if tx.Date.After(cutoff) {
			cutoff = tx.Date
		}
		s, ok := spans[tx.CustomerID]
		if !ok {
			spans[tx.CustomerID] = &span{first: tx.Date, last: tx.Date, count: 1}
			continue
		}
		if tx.Date.Before(s.first) {
			s.first = tx.Date
		}
		if tx.Date.After(s.last) {
			s.last = tx.Date
		}
		s.count++
	}

	summaries := make([]models.CustomerSummary, 0, len(spans))
	for id, s := range spans {
		summaries = append(summaries, models.CustomerSummary{
			CustomerID: id,
			Frequency:  s.count - 1,
			Recency:    daysBetween(s.first, s.last),
			T:          daysBetween(s.first, cutoff),
		})
	}
	// Row order carries no meaning; sort for stable previews and exports.
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CustomerID < summaries[j].CustomerID
	})
	return summaries, cutoff, nil
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / hoursPerDay
}
