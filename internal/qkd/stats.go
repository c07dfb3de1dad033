package qkd

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// basisMatchProbability is the chance two independent uniform bases agree
const basisMatchProbability = 0.5

// ShortfallProbability returns the probability that sifting rawCount bits
// leaves fewer than targetBits, i.e. P(Binomial(rawCount, 1/2) < targetBits)
func ShortfallProbability(rawCount, targetBits int) float64 {
	if targetBits <= 0 {
		return 0
	}
	if rawCount < targetBits {
		return 1
	}

	dist := distuv.Binomial{N: float64(rawCount), P: basisMatchProbability}
	return dist.CDF(float64(targetBits - 1))
}

// ExpectedSiftedCount returns the mean sifted key length for rawCount raw bits
func ExpectedSiftedCount(rawCount int) float64 {
	return distuv.Binomial{N: float64(rawCount), P: basisMatchProbability}.Mean()
}
