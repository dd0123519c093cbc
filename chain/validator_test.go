package chain

import (
	"context"
	"testing"

	"animica.dev/node/crypto"
	"animica.dev/node/da"
	"animica.dev/node/mempool"
	"animica.dev/node/nullifier"
	"animica.dev/node/poies"
	"animica.dev/node/policy"
)

// alwaysValidProvider is a crypto.Provider stand-in that accepts every
// signature/proof, used to isolate the validator's own orchestration logic
// from real cryptographic material, which this test suite cannot generate
// without invoking a signer.
type alwaysValidProvider struct {
	crypto.Provider
}

func newAlwaysValidProvider() crypto.Provider {
	return alwaysValidProvider{Provider: crypto.NewStdProvider(nil, nil)}
}

func (alwaysValidProvider) VerifyPQSig(context.Context, crypto.AlgID, []byte, []byte, []byte) (bool, error) {
	return true, nil
}

func (alwaysValidProvider) VerifyZK(context.Context, string, []byte, []byte) (bool, error) {
	return true, nil
}

func (alwaysValidProvider) VerifyVDF(context.Context, crypto.VDFParams, []byte, []byte, []byte) (bool, error) {
	return true, nil
}

func testBundleForValidator() policy.Bundle {
	return policy.Bundle{
		ThetaTarget:   100,
		GammaTotalCap: 500,
		PerTypeCap: map[policy.ProofType]uint64{
			policy.ProofAI: 500,
		},
		EscortQ:      0,
		NullifierTTL: 2000,
		ReorgLimit:   1000,
		DA:           policy.DAProfile{K: 2, N: 4, BlobSizeCap: 1 << 20, SampleCount: 8},
		EpochBlocks:  2016,
	}
}

func newTestValidator(t *testing.T) (*Validator, crypto.Provider) {
	t.Helper()
	p := newAlwaysValidProvider()
	gen, err := da.NewGenerator(2, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dag := NewDAG()
	dag.AddGenesis([32]byte{}, 0)

	return &Validator{
		Crypto:     p,
		Nullifiers: nullifier.NewIndex(2000),
		PolicyMap:  poies.NewPolicyMap(map[policy.ProofType]map[poies.MetricID]uint64{policy.ProofAI: {"flops": 100}}),
		Bundle:     testBundleForValidator(),
		DAG:        dag,
		Pool:       mempool.New(mempool.Limits{MaxBytes: 1 << 20, MaxCount: 1000}, policy.FeeMarket{EMAAlphaNumerator: 1, EMAAlphaDenominator: 8, MaxReadyPerSender: 10}, 0, 100),
		DAGen:      gen,
		Workers:    NewWorkerPool(4),
		HMax:       1_000_000,
	}, p
}

func buildCandidate(t *testing.T, v *Validator, p crypto.Provider, nullifierByte byte) Candidate {
	t.Helper()
	blobs := []da.Blob{{Namespace: 1, Payload: []byte("block body bytes")}}
	commitment, err := da.CommitBlobs(p, v.DAGen, blobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var nullifierID [32]byte
	nullifierID[0] = nullifierByte

	header := Header{
		ParentHash:  [32]byte{},
		Height:      1,
		PolicyRoot:  v.Bundle.Root(p),
		UCommitment: [32]byte{0x40}, // u = 0.25, entropy well above theta alone
		DARoot:      commitment.Root,
	}

	return Candidate{
		Header: header,
		Receipts: []poies.Receipt{
			{Type: policy.ProofAI, Nullifier: nullifierID, Metrics: map[poies.MetricID]uint64{"flops": 1}},
		},
		Evidence: []Evidence{{Alg: crypto.AlgMLDSA87, PubKey: []byte("pk"), Sig: []byte("sig")}},
		DABlobs:  blobs,
	}
}

func TestValidatorAcceptsWellFormedCandidate(t *testing.T) {
	v, p := newTestValidator(t)
	cand := buildCandidate(t, v, p, 1)

	result, err := v.Validate(context.Background(), cand)
	if err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if result.Score < poies.MicroNat(v.Bundle.ThetaTarget) {
		t.Fatalf("accepted block must meet the threshold: score=%d theta=%d", result.Score, v.Bundle.ThetaTarget)
	}

	if _, ok := v.DAG.Height(cand.Header.Hash(p)); !ok {
		t.Fatal("accepted block should be recorded in the branch DAG")
	}
}

func TestValidatorRejectsNullifierReuse(t *testing.T) {
	v, p := newTestValidator(t)
	first := buildCandidate(t, v, p, 1)
	if _, err := v.Validate(context.Background(), first); err != nil {
		t.Fatalf("unexpected rejection on first block: %v", err)
	}

	second := buildCandidate(t, v, p, 1) // same nullifier byte => same nullifier
	second.Header.ParentHash = first.Header.Hash(p)
	second.Header.Height = 2

	_, err := v.Validate(context.Background(), second)
	if err == nil {
		t.Fatal("expected nullifier reuse rejection")
	}
}

func TestValidatorRejectsDARootMismatch(t *testing.T) {
	v, p := newTestValidator(t)
	cand := buildCandidate(t, v, p, 1)
	cand.Header.DARoot = [32]byte{0xff} // deliberately wrong

	_, err := v.Validate(context.Background(), cand)
	if err == nil {
		t.Fatal("expected DA root mismatch rejection")
	}
}

func TestValidatorRejectsUnknownParent(t *testing.T) {
	v, p := newTestValidator(t)
	cand := buildCandidate(t, v, p, 1)
	cand.Header.ParentHash = [32]byte{0xee}

	_, err := v.Validate(context.Background(), cand)
	if err == nil {
		t.Fatal("expected unknown-parent rejection")
	}
}
