// Package softmax implements the numerically stable, temperature-controlled
// softmax used to turn per-move rewards into a probability distribution.
package softmax

import "math"

const (
	minLambda       = 0.001
	maxLambda       = 10.0
	maxExpArg       = 700.0
	minExpArg       = -700.0
	maxScoreArrSize = 1000000
)

// Calculate converts scores into a probability distribution via a
// max-subtract, clamp, log-sum-exp softmax. Any invalid input or
// intermediate non-finite value falls back to the uniform distribution of
// the same length; it never panics.
func Calculate(scores []float64, lambda float64) []float64 {
	if !isValidInput(scores) || lambda < minLambda || lambda > maxLambda {
		return Uniform(len(scores))
	}

	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	if !isFinite(maxScore) {
		return Uniform(len(scores))
	}

	scaled := make([]float64, len(scores))
	for i, s := range scores {
		v := (s - maxScore) * lambda
		scaled[i] = clamp(v, minExpArg, maxExpArg)
	}

	logSumExp := calculateLogSumExp(scaled)
	if !isFinite(logSumExp) {
		return Uniform(len(scores))
	}

	probs := make([]float64, len(scaled))
	for i, v := range scaled {
		probs[i] = math.Exp(v - logSumExp)
	}

	if hasNonFinite(probs) {
		return Uniform(len(scores))
	}

	return probs
}

func calculateLogSumExp(scaled []float64) float64 {
	sum := 0.0
	for _, v := range scaled {
		sum += math.Exp(v)
	}
	if sum <= 0.0 || !isFinite(sum) {
		return math.NaN()
	}
	return math.Log(sum)
}

// Uniform returns the uniform distribution of the given length, or nil for
// length 0.
func Uniform(n int) []float64 {
	if n == 0 {
		return nil
	}
	p := 1.0 / float64(n)
	out := make([]float64, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func isValidInput(scores []float64) bool {
	if len(scores) == 0 || len(scores) > maxScoreArrSize {
		return false
	}
	for _, s := range scores {
		if !isFinite(s) {
			return false
		}
	}
	return true
}

func hasNonFinite(values []float64) bool {
	for _, v := range values {
		if !isFinite(v) {
			return true
		}
	}
	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
