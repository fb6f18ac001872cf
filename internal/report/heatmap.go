// Package report turns a fitted model and a customer summary into the chart
// payloads and the downloadable export bundle. Rendering itself is left to
// the browser; this package only shapes the data.
package report

import (
	"math"

	"github.com/Uric01/machine-learning/internal/bgnbd"
	"github.com/Uric01/machine-learning/internal/models"
)

const (
	// HeatmapHorizon is the fixed forecast window the grid is evaluated at.
	HeatmapHorizon = 30.0
	// gridCap bounds both grid axes so pathological datasets stay renderable.
	gridCap = 50
)

// HeatmapData is the frequency/recency matrix of expected purchases.
// Values[i][j] is the expectation for recency Recency[i], frequency
// Frequency[j].
type HeatmapData struct {
	Horizon   float64     `json:"horizon"`
	Recency   []int       `json:"recency"`
	Frequency []int       `json:"frequency"`
	Values    [][]float64 `json:"values"`
}

// Heatmap evaluates the model's 30-day conditional expectation over a grid
// of recency 0..min(max(T), 50) by frequency 0..min(max(frequency), 50).
// Every cell uses the capped max recency as its T input rather than the
// cell's own recency.
func Heatmap(m *bgnbd.Model, summaries []models.CustomerSummary) *HeatmapData {
	maxFrequency := 0
	maxT := 0.0
	for _, s := range summaries {
		if s.Frequency > maxFrequency {
			maxFrequency = s.Frequency
		}
		if s.T > maxT {
			maxT = s.T
		}
	}
	if maxFrequency > gridCap {
		maxFrequency = gridCap
	}
	maxRecency := int(math.Floor(maxT))
	if maxRecency > gridCap {
		maxRecency = gridCap
	}

	data := &HeatmapData{
		Horizon:   HeatmapHorizon,
		Recency:   make([]int, maxRecency+1),
		Frequency: make([]int, maxFrequency+1),
		Values:    make([][]float64, maxRecency+1),
	}
	for j := 0; j <= maxFrequency; j++ {
		data.Frequency[j] = j
	}
	for i := 0; i <= maxRecency; i++ {
		data.Recency[i] = i
		row := make([]float64, maxFrequency+1)
		for j := 0; j <= maxFrequency; j++ {
			row[j] = m.ConditionalExpectedPurchases(HeatmapHorizon, j, float64(i), float64(maxRecency))
		}
		data.Values[i] = row
	}
	return data
}
