package bgnbd

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// SimulateFrequencies draws one synthetic repeat-purchase count per customer
// under the fitted model, observing each customer for their own tenure T.
// Purchase rate and dropout probability are sampled from the model's Gamma
// and Beta mixing distributions; after every purchase the customer churns
// with that probability. Used to back the actual-vs-model validation chart.
func (m *Model) SimulateFrequencies(tenures []float64, seed uint64) []int {
	src := rand.NewSource(seed)
	gamma := distuv.Gamma{Alpha: m.Params.R, Beta: m.Params.Alpha, Src: src}
	beta := distuv.Beta{Alpha: m.Params.A, Beta: m.Params.B, Src: src}
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: src}

	freqs := make([]int, len(tenures))
	for i, T := range tenures {
		lambda := gamma.Rand()
		p := beta.Rand()
		if lambda <= 0 {
			continue
		}
		wait := distuv.Exponential{Rate: lambda, Src: src}

		// The clock starts at the customer's first purchase, which is what
		// anchors T in the calibration data; only repeats are counted.
		count := 0
		elapsed := 0.0
		for uniform.Rand() >= p {
			elapsed += wait.Rand()
			if elapsed > T {
				break
			}
			count++
		}
		freqs[i] = count
	}
	return freqs
}
