package ops

import "math"

var negInf = math.Inf(-1)

// logAdd returns log(exp(a) + exp(b)) without overflow.
func logAdd(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	} else if math.IsInf(b, -1) {
		return a
	}
	normalizer := math.Max(a, b)
	return math.Log(math.Exp(a-normalizer)+math.Exp(b-normalizer)) + normalizer
}

// logSumExp folds logAdd over xs. It returns -Inf for an empty slice.
func logSumExp(xs []float64) float64 {
	if len(xs) == 0 {
		return negInf
	}
	m := negInf
	for _, x := range xs {
		m = math.Max(m, x)
	}
	if math.IsInf(m, 0) {
		return m
	}
	sum := 0.0
	for _, x := range xs {
		sum += math.Exp(x - m)
	}
	return m + math.Log(sum)
}

func finite(x float64) bool {
	return !math.IsInf(x, 1) && !math.IsNaN(x)
}
