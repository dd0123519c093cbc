package poies

import (
	"sort"

	"animica.dev/node/policy"
)

// Contribution is one receipt's contribution to the capping pipeline,
// after per-type clipping but before escort weighting.
type Contribution struct {
	Type     policy.ProofType
	PsiClip  uint64
}

// ApplyCaps runs the three-stage capping pipeline in the fixed binding
// order §4.3 requires:
//
//  1. clip each ψ_raw to per_type_cap[type]
//  2. escort-weight across the distinct types present (HHI/Gini style:
//     concentrating in one type must score strictly lower than spreading
//     across >=2 types)
//  3. sum and, if the total exceeds Γ_total_cap, scale uniformly to
//     Γ_total_cap, preserving relative ratios
//
// rawByType maps each present type to the sum of its receipts' ψ_raw.
// escortQ is q scaled by 1e4 (0..10000 representing [0,1]).
func ApplyCaps(rawByType map[policy.ProofType]uint64, perTypeCap map[policy.ProofType]uint64, gammaTotalCap uint64, escortQ uint64) (total uint64, perType map[policy.ProofType]uint64, err error) {
	if escortQ > 10000 {
		return 0, nil, ErrCapViolation
	}

	// Stage 1: clip.
	clipped := make(map[policy.ProofType]uint64, len(rawByType))
	types := make([]policy.ProofType, 0, len(rawByType))
	for t, raw := range rawByType {
		cap, ok := perTypeCap[t]
		if !ok {
			return 0, nil, ErrUnknownProofType
		}
		v := raw
		if v > cap {
			v = cap
		}
		clipped[t] = v
		if v > 0 {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	// Stage 2: escort weighting. n = count of distinct types with
	// positive clipped psi. w = 1 + q*(1 - 1/n), expressed as a rational
	// with denominator 10000*n to stay exact in integer arithmetic.
	n := uint64(len(types))
	weighted := make(map[policy.ProofType]uint64, len(clipped))
	var sum uint64
	if n == 0 {
		return 0, clipped, nil
	}
	// w = 1 + q*(n-1)/n, scaled by 10000: wScaled = 10000 + q*(n-1)/n
	for t, v := range clipped {
		if v == 0 {
			weighted[t] = 0
			continue
		}
		wScaledNumerator := 10000*n + escortQ*(n-1)
		adj := saturatingMul(v, wScaledNumerator) / (10000 * n)
		weighted[t] = adj
		sum = saturatingAdd(sum, adj)
	}

	// Stage 3: scale to Γ_total_cap if exceeded, preserving ratios.
	if sum <= gammaTotalCap || sum == 0 {
		return sum, weighted, nil
	}
	scaled := make(map[policy.ProofType]uint64, len(weighted))
	var scaledSum uint64
	for t, v := range weighted {
		sv := (v * gammaTotalCap) / sum
		scaled[t] = sv
		scaledSum = saturatingAdd(scaledSum, sv)
	}
	if scaledSum > gammaTotalCap {
		return 0, nil, ErrCapViolation
	}
	return scaledSum, scaled, nil
}
