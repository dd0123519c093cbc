package poies

import (
	"sort"

	"animica.dev/node/policy"
)

// Receipt is a tagged, immutable proof-of-useful-work record: created by
// producers, validated here, never mutated. Metrics carries the measured
// quantities the policy map prices; PsiClaim is the producer's own claim,
// kept for wire compatibility and diagnostics but never trusted directly —
// the scorer always recomputes ψ_raw itself so two independent
// implementations agree regardless of what a producer claims.
type Receipt struct {
	Type         policy.ProofType
	EvidenceHash [32]byte
	Nullifier    [32]byte
	PsiClaim     uint64
	PolicyTag    [32]byte
	Metrics      map[MetricID]uint64
}

// Result is the full output of scoring one block's receipt set: useful
// both for the accept/reject decision and for populating the header's
// aggregated-ψ-receipt commitment and fork-choice weight.
type Result struct {
	Entropy   MicroNat
	SumPsi    uint64
	Score     MicroNat
	PerType   map[policy.ProofType]uint64
}

// Score computes S = H(u) + Σψ for a block, given its entropy draw,
// its verified receipts, the active policy map, and the active parameter
// bundle's caps. Receipts are processed in canonical (type, nullifier)
// order so two independent implementations see identical floating --
// rather, identical fixed-point -- intermediate state regardless of the
// order verification completed in.
func Score(u256Digest [32]byte, receipts []Receipt, pmap PolicyMap, bundle policy.Bundle) (Result, error) {
	h, err := EntropyFromDigest(u256Digest)
	if err != nil {
		return Result{}, err
	}

	ordered := make([]Receipt, len(receipts))
	copy(ordered, receipts)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Type != ordered[j].Type {
			return ordered[i].Type < ordered[j].Type
		}
		return lessBytes(ordered[i].Nullifier, ordered[j].Nullifier)
	})

	seen := make(map[[32]byte]bool, len(ordered))
	rawByType := make(map[policy.ProofType]uint64, len(bundle.PerTypeCap))
	for _, r := range ordered {
		if seen[r.Nullifier] {
			return Result{}, ErrCapViolation
		}
		seen[r.Nullifier] = true

		psi, err := pmap.Psi(r.Type, r.Metrics)
		if err != nil {
			return Result{}, err
		}
		rawByType[r.Type] = saturatingAdd(rawByType[r.Type], psi)
	}

	sumPsi, perType, err := ApplyCaps(rawByType, bundle.PerTypeCap, bundle.GammaTotalCap, bundle.EscortQ)
	if err != nil {
		return Result{}, err
	}

	s := h + MicroNat(sumPsi)
	return Result{Entropy: h, SumPsi: sumPsi, Score: s, PerType: perType}, nil
}

// Accept implements the acceptance predicate S >= Θ.
func Accept(score MicroNat, theta uint64) bool {
	return score >= MicroNat(theta)
}

func lessBytes(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
