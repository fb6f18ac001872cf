package bgnbd

import "math"

// ConditionalExpectedPurchases returns the expected number of purchases a
// customer with history (frequency, recency, T) will make in the next t
// time units, conditional on being described by the fitted model. The value
// is non-negative and non-decreasing in t.
func (m *Model) ConditionalExpectedPurchases(t float64, frequency int, recency, T float64) float64 {
	r, alpha, a, b := m.Params.R, m.Params.Alpha, m.Params.A, m.Params.B
	x := float64(frequency)

	hyp := hyp2f1(r+x, b+x, a+b+x-1, t/(alpha+T+t))
	firstTerm := (a + b + x - 1) / (a - 1)
	secondTerm := 1 - hyp*math.Pow((alpha+T)/(alpha+T+t), r+x)
	numerator := firstTerm * secondTerm

	denominator := 1.0
	if frequency > 0 {
		denominator += a / (b + x - 1) * math.Pow((alpha+T)/(alpha+recency), r+x)
	}
	return numerator / denominator
}

const (
	hyp2f1MaxTerms = 1000
	hyp2f1Tol      = 1e-12
)

// hyp2f1 evaluates the Gauss hypergeometric function 2F1(a, b; c; z) by its
// power series. The conditional-expectation formula only calls it with
// z = t/(alpha+T+t) in [0, 1), where the series converges.
func hyp2f1(a, b, c, z float64) float64 {
	term := 1.0
	sum := 1.0
	for k := 0; k < hyp2f1MaxTerms; k++ {
		fk := float64(k)
		term *= (a + fk) * (b + fk) / ((c + fk) * (fk + 1)) * z
		sum += term
		if math.Abs(term) < hyp2f1Tol*math.Abs(sum) {
			break
		}
	}
	return sum
}
