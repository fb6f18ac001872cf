package report

import (
	"github.com/Uric01/machine-learning/internal/bgnbd"
	"github.com/Uric01/machine-learning/internal/models"
)

// DefaultValidationBins caps the repeat-purchase histogram; counts beyond
// the cap collapse into the last bin.
const DefaultValidationBins = 7

// ValidationData compares the observed repeat-purchase distribution with
// one simulated from the fitted model over the same customer tenures.
type ValidationData struct {
	Bins   []int `json:"bins"`
	Actual []int `json:"actual"`
	Model  []int `json:"model"`
}

// PeriodTransactions builds the actual-vs-model histogram used by the
// validation chart. The model side is a simulation draw, so a seed is taken
// to keep responses reproducible.
func PeriodTransactions(m *bgnbd.Model, summaries []models.CustomerSummary, bins int, seed uint64) *ValidationData {
	if bins <= 0 {
		bins = DefaultValidationBins
	}

	data := &ValidationData{
		Bins:   make([]int, bins+1),
		Actual: make([]int, bins+1),
		Model:  make([]int, bins+1),
	}
	for i := range data.Bins {
		data.Bins[i] = i
	}

	tenures := make([]float64, len(summaries))
	for i, s := range summaries {
		tenures[i] = s.T
		data.Actual[clampBin(s.Frequency, bins)]++
	}
	for _, f := range m.SimulateFrequencies(tenures, seed) {
		data.Model[clampBin(f, bins)]++
	}
	return data
}

func clampBin(frequency, bins int) int {
	if frequency > bins {
		return bins
	}
	return frequency
}
