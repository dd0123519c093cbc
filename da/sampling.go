package da

import "math"

// SampleCount computes the number of random share indices a light client
// must draw, per blob, to detect withholding of more than n-k shares with
// probability at least 1 - pFail:
//
//	ceil( log_{n/(n-k+1)}(1/pFail) )
//
// This is evaluated once per profile (k, n, pFail) at bundle activation,
// not per sampling round.
func SampleCount(k, n int, pFail float64) int {
	if k <= 0 || n < k || pFail <= 0 || pFail >= 1 {
		return 0
	}
	base := float64(n) / float64(n-k+1)
	if base <= 1 {
		return n // degenerate profile: no redundancy margin, sample everything
	}
	count := math.Log(1/pFail) / math.Log(base)
	return int(math.Ceil(count))
}

// Sampler draws indices and checks them against a generator's shares,
// simulating the light-client side of DAS for testing and for any
// in-process light-client role the node itself plays.
type Sampler struct {
	gen *Generator
}

func NewSampler(gen *Generator) *Sampler {
	return &Sampler{gen: gen}
}

// CheckSample verifies that every requested index is present and
// non-nil in available (available[i] == nil means that share was
// withheld/unavailable). It reports ok=true only if every sampled index
// resolved.
func (s *Sampler) CheckSample(indices []int, available [][]byte) bool {
	for _, idx := range indices {
		if idx < 0 || idx >= len(available) || available[idx] == nil {
			return false
		}
	}
	return true
}
