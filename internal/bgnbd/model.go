// Package bgnbd wraps the Beta-Geometric/Negative-Binomial-Distribution
// model of repeat purchase behavior (Fader, Hardie & Lee 2005). Parameter
// estimation is delegated to gonum's optimizer; this package only supplies
// the penalized log-likelihood and the closed-form prediction formulas.
package bgnbd

import (
	"encoding/json"
	"fmt"
	"math"
)

// Params is the BG/NBD parameter vector. r and alpha shape the Gamma
// distribution of purchase rates, a and b the Beta distribution of dropout
// probabilities.
type Params struct {
	R     float64 `json:"r"`
	Alpha float64 `json:"alpha"`
	A     float64 `json:"a"`
	B     float64 `json:"b"`
}

// Map returns the coefficients keyed by their conventional names.
func (p Params) Map() map[string]float64 {
	return map[string]float64{"r": p.R, "alpha": p.Alpha, "a": p.A, "b": p.B}
}

func (p Params) valid() bool {
	for _, v := range []float64{p.R, p.Alpha, p.A, p.B} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Model is a fitted BG/NBD model: the coefficient vector plus the
// regularization strength used at fit time. Immutable once constructed.
type Model struct {
	Params        Params
	PenalizerCoef float64
}

// paramsDoc is the wire form of a model, matching the exported
// model_params.json layout.
type paramsDoc struct {
	Params        map[string]float64 `json:"params"`
	PenalizerCoef float64            `json:"penalizer_coef"`
}

// MarshalJSON serializes the model as {"params": {...}, "penalizer_coef": x}.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(paramsDoc{Params: m.Params.Map(), PenalizerCoef: m.PenalizerCoef})
}

// UnmarshalJSON restores a model from its exported document. The resulting
// model predicts identically to the one that was serialized.
func (m *Model) UnmarshalJSON(data []byte) error {
	var doc paramsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode model params: %w", err)
	}
	p := Params{}
	for name, value := range doc.Params {
		switch name {
		case "r":
			p.R = value
		case "alpha":
			p.Alpha = value
		case "a":
			p.A = value
		case "b":
			p.B = value
		default:
			return fmt.Errorf("unknown model coefficient %q", name)
		}
	}
	if !p.valid() {
		return fmt.Errorf("model params must be positive and finite: %+v", p)
	}
	m.Params = p
	m.PenalizerCoef = doc.PenalizerCoef
	return nil
}
