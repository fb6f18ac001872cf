package bgnbd

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/Uric01/machine-learning/internal/models"
)

// CDNOW coefficients from the original BG/NBD paper; handy as a known-good
// parameter vector.
func cdnowModel() *Model {
	return &Model{
		Params:        Params{R: 0.243, Alpha: 4.414, A: 0.793, B: 2.426},
		PenalizerCoef: 0.1,
	}
}

func TestParamsRoundTrip(t *testing.T) {
	original := cdnowModel()
	doc, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored Model
	if err := json.Unmarshal(doc, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.PenalizerCoef != 0.1 {
		t.Fatalf("penalizer_coef not preserved exactly: %v", restored.PenalizerCoef)
	}
	if restored.Params != original.Params {
		t.Fatalf("params not preserved: %+v vs %+v", restored.Params, original.Params)
	}

	inputs := []struct {
		freq    int
		recency float64
		tenure  float64
	}{
		{0, 0, 17}, {1, 31, 31}, {4, 120, 200}, {12, 300, 360},
	}
	for _, in := range inputs {
		want := original.ConditionalExpectedPurchases(60, in.freq, in.recency, in.tenure)
		got := restored.ConditionalExpectedPurchases(60, in.freq, in.recency, in.tenure)
		if want != got {
			t.Fatalf("prediction drifted after round-trip: %v vs %v for %+v", want, got, in)
		}
	}
}

func TestUnmarshalRejectsBadDocs(t *testing.T) {
	docs := []string{
		`{"params": {"r": 0.2, "alpha": 4.4, "a": 0.8, "b": 2.4, "extra": 1}, "penalizer_coef": 0}`,
		`{"params": {"r": -1, "alpha": 4.4, "a": 0.8, "b": 2.4}, "penalizer_coef": 0}`,
		`{"params": {"r": 0.2}, "penalizer_coef": 0}`,
	}
	for _, doc := range docs {
		var m Model
		if err := json.Unmarshal([]byte(doc), &m); err == nil {
			t.Fatalf("expected error for doc %s", doc)
		}
	}
}

func TestPredictMonotonicInHorizon(t *testing.T) {
	m := cdnowModel()
	histories := []struct {
		freq    int
		recency float64
		tenure  float64
	}{
		{0, 0, 30}, {1, 31, 31}, {2, 10, 40}, {8, 150, 180},
	}
	for _, h := range histories {
		prev := 0.0
		for _, horizon := range []float64{30, 60, 90} {
			got := m.ConditionalExpectedPurchases(horizon, h.freq, h.recency, h.tenure)
			if got < 0 {
				t.Fatalf("negative expectation %v for %+v at t=%v", got, h, horizon)
			}
			if got < prev {
				t.Fatalf("expectation decreased with horizon for %+v: %v -> %v", h, prev, got)
			}
			prev = got
		}
	}
}

func TestHyp2f1KnownIdentity(t *testing.T) {
	// 2F1(1, 1; 2; z) = -ln(1-z)/z
	for _, z := range []float64{0.1, 0.5, 0.9} {
		want := -math.Log(1-z) / z
		got := hyp2f1(1, 1, 2, z)
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("hyp2f1(1,1,2,%v) = %v, want %v", z, got, want)
		}
	}
	if got := hyp2f1(0.5, 0.7, 1.3, 0); got != 1 {
		t.Fatalf("hyp2f1 at z=0 must be 1, got %v", got)
	}
}

func TestFitRejectsDegenerateInput(t *testing.T) {
	repeat := models.CustomerSummary{CustomerID: "R", Frequency: 2, Recency: 20, T: 40}

	cases := []struct {
		name      string
		summaries []models.CustomerSummary
		penalizer float64
	}{
		{"penalizer too large", []models.CustomerSummary{repeat}, 1.5},
		{"penalizer negative", []models.CustomerSummary{repeat}, -0.1},
		{"no customers", nil, 0},
		{"all zero frequencies", []models.CustomerSummary{
			{CustomerID: "A", Frequency: 0, Recency: 0, T: 10},
			{CustomerID: "B", Frequency: 0, Recency: 0, T: 20},
		}, 0},
		{"recency beyond T", []models.CustomerSummary{
			{CustomerID: "A", Frequency: 1, Recency: 50, T: 10},
		}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Fit(tc.summaries, tc.penalizer)
			var fitErr *models.FitError
			if !errors.As(err, &fitErr) {
				t.Fatalf("expected FitError, got %v", err)
			}
		})
	}
}

func TestFitProducesUsableModel(t *testing.T) {
	summaries := syntheticSummaries()
	m, err := Fit(summaries, 0.01)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !m.Params.valid() {
		t.Fatalf("fitted params invalid: %+v", m.Params)
	}
	if m.PenalizerCoef != 0.01 {
		t.Fatalf("penalizer not recorded: %v", m.PenalizerCoef)
	}
	for _, s := range summaries {
		got := m.ConditionalExpectedPurchases(60, s.Frequency, s.Recency, s.T)
		if math.IsNaN(got) || math.IsInf(got, 0) || got < 0 {
			t.Fatalf("unusable prediction %v for %+v", got, s)
		}
	}
}

func TestSimulateFrequenciesDeterministic(t *testing.T) {
	m := cdnowModel()
	tenures := make([]float64, 200)
	for i := range tenures {
		tenures[i] = 30 + float64(i%300)
	}
	first := m.SimulateFrequencies(tenures, 11)
	second := m.SimulateFrequencies(tenures, 11)
	if len(first) != len(tenures) {
		t.Fatalf("expected %d draws, got %d", len(tenures), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed produced different draws at %d: %d vs %d", i, first[i], second[i])
		}
		if first[i] < 0 {
			t.Fatalf("negative frequency draw: %d", first[i])
		}
	}
}

// syntheticSummaries is a small, varied calibration set with plenty of
// repeat purchasers.
func syntheticSummaries() []models.CustomerSummary {
	var out []models.CustomerSummary
	for i := 0; i < 60; i++ {
		freq := i % 5
		tenure := 60 + float64(i*5)
		recency := 0.0
		if freq > 0 {
			recency = tenure * float64(freq) / 6
		}
		out = append(out, models.CustomerSummary{
			CustomerID: string(rune('a' + i%26)),
			Frequency:  freq,
			Recency:    recency,
			T:          tenure,
		})
	}
	return out
}
