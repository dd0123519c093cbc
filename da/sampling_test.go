package da

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleCountMatchesFormula(t *testing.T) {
	// k=4, n=8, p_fail=0.01: base = 8/(8-4+1) = 8/5 = 1.6
	// count = ceil(log(100)/log(1.6)) = ceil(4.6051702.../0.4700036...) = ceil(9.798...) = 10
	got := SampleCount(4, 8, 0.01)
	want := int(math.Ceil(math.Log(100) / math.Log(8.0/5.0)))
	require.Equal(t, want, got)
	require.Equal(t, 10, got)
}

func TestSampleCountDegenerateProfile(t *testing.T) {
	require.Equal(t, 0, SampleCount(0, 8, 0.01))
	require.Equal(t, 0, SampleCount(8, 4, 0.01))
	require.Equal(t, 0, SampleCount(4, 8, 0))
	require.Equal(t, 0, SampleCount(4, 8, 1))
}

func TestSamplerDetectsWithholding(t *testing.T) {
	gen, err := NewGenerator(4, 8)
	require.NoError(t, err)
	shares, err := gen.Encode([]byte("payload"))
	require.NoError(t, err)

	available := make([][]byte, len(shares))
	copy(available, shares)
	available[2] = nil // withheld

	s := NewSampler(gen)
	require.True(t, s.CheckSample([]int{0, 1, 3}, available))
	require.False(t, s.CheckSample([]int{1, 2, 3}, available))
}
