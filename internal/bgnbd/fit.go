package bgnbd

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/Uric01/machine-learning/internal/models"
)

// initialParam seeds every coefficient before optimization.
const initialParam = 0.1

// Fit estimates the BG/NBD coefficients from per-customer summaries by
// penalized maximum likelihood. The numerical search runs in log-parameter
// space (keeping all coefficients positive) and is handed to gonum's
// Nelder-Mead implementation; failures surface as *models.FitError.
func Fit(summaries []models.CustomerSummary, penalizerCoef float64) (*Model, error) {
	if penalizerCoef < 0 || penalizerCoef > 1 {
		return nil, &models.FitError{Reason: fmt.Sprintf("penalizer_coef must be in [0, 1], got %g", penalizerCoef)}
	}
	if len(summaries) == 0 {
		return nil, &models.FitError{Reason: "no customers to fit"}
	}

	freq := make([]float64, len(summaries))
	rec := make([]float64, len(summaries))
	age := make([]float64, len(summaries))
	repeaters := 0
	for i, s := range summaries {
		if s.Frequency < 0 || s.Recency < 0 || s.T < 0 || s.Recency > s.T {
			return nil, &models.FitError{Reason: fmt.Sprintf("degenerate summary row for customer %s", s.CustomerID)}
		}
		if s.Frequency > 0 {
			repeaters++
		}
		freq[i] = float64(s.Frequency)
		rec[i] = s.Recency
		age[i] = s.T
	}
	if repeaters == 0 {
		return nil, &models.FitError{Reason: "all customers have zero repeat purchases"}
	}

	problem := optimize.Problem{
		Func: func(logParams []float64) float64 {
			return negativeLogLikelihood(logParams, freq, rec, age, penalizerCoef)
		},
	}
	x0 := []float64{
		math.Log(initialParam),
		math.Log(initialParam),
		math.Log(initialParam),
		math.Log(initialParam),
	}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, &models.FitError{Reason: "optimizer did not converge", Err: err}
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, &models.FitError{Reason: "likelihood diverged during optimization"}
	}

	p := Params{
		R:     math.Exp(result.X[0]),
		Alpha: math.Exp(result.X[1]),
		A:     math.Exp(result.X[2]),
		B:     math.Exp(result.X[3]),
	}
	if !p.valid() {
		return nil, &models.FitError{Reason: fmt.Sprintf("optimizer produced invalid params %+v", p)}
	}
	return &Model{Params: p, PenalizerCoef: penalizerCoef}, nil
}

// negativeLogLikelihood is the mean negative BG/NBD log-likelihood over all
// customers plus an L2 penalty on the (natural-scale) coefficients.
func negativeLogLikelihood(logParams, freq, rec, age []float64, penalizerCoef float64) float64 {
	r := math.Exp(logParams[0])
	alpha := math.Exp(logParams[1])
	a := math.Exp(logParams[2])
	b := math.Exp(logParams[3])

	var sum float64
	for i := range freq {
		x, tx, T := freq[i], rec[i], age[i]

		a1 := lgamma(r+x) - lgamma(r) + r*math.Log(alpha)
		a2 := lgamma(a+b) + lgamma(b+x) - lgamma(b) - lgamma(a+b+x)
		a3 := -(r + x) * math.Log(alpha+T)

		ll := a1 + a2 + a3
		if x > 0 {
			a4 := math.Log(a) - math.Log(b+x-1) - (r+x)*math.Log(alpha+tx)
			ll = a1 + a2 + logAddExp(a3, a4)
		}
		sum += ll
	}

	penalty := penalizerCoef * (r*r + alpha*alpha + a*a + b*b)
	return -sum/float64(len(freq)) + penalty
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

func logAddExp(x, y float64) float64 {
	if x < y {
		x, y = y, x
	}
	if math.IsInf(x, -1) {
		return x
	}
	return x + math.Log1p(math.Exp(y-x))
}
