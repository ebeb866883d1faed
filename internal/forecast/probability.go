package forecast

import "math"

// CombinedProbability reconciles independently estimated win and go
// (execution) probabilities as their geometric mean. Inputs are fractions
// and are clamped to [0,1].
func CombinedProbability(win, goProb float64) float64 {
	return math.Sqrt(clampUnit(win) * clampUnit(goProb))
}

// WeightedAmount is amount × CombinedProbability(win, goProb).
func WeightedAmount(amount, win, goProb float64) float64 {
	return amount * CombinedProbability(win, goProb)
}

// AsFraction converts a probability given either as a percentage (>1) or a
// fraction into a fraction.
func AsFraction(p float64) float64 {
	if p > 1 {
		return p / 100
	}
	return p
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
