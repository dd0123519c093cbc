package poies

import (
	"testing"

	"animica.dev/node/policy"
)

func TestDefaultMetricWeightsCoversEveryProofType(t *testing.T) {
	weights := DefaultMetricWeights()
	for _, pt := range []policy.ProofType{
		policy.ProofHash, policy.ProofAI, policy.ProofQuantum,
		policy.ProofStorage, policy.ProofVDF, policy.ProofZK,
	} {
		if _, ok := weights[pt]; !ok {
			t.Fatalf("DefaultMetricWeights missing proof type %v", pt)
		}
	}
}

func TestDefaultMetricWeightsUsablePolicyMap(t *testing.T) {
	pm := NewPolicyMap(DefaultMetricWeights())

	psi, err := pm.Psi(policy.ProofAI, map[MetricID]uint64{"flops": 10, "eval_samples": 2})
	if err != nil {
		t.Fatalf("Psi: %v", err)
	}
	want := uint64(10*1 + 2*4)
	if psi != want {
		t.Fatalf("psi = %d, want %d", psi, want)
	}

	if _, err := pm.Psi(policy.ProofType(99), nil); err != ErrUnknownProofType {
		t.Fatalf("expected ErrUnknownProofType for unmapped type, got %v", err)
	}
}
