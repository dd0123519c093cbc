package node

import (
	"context"
	"testing"

	"animica.dev/node/chain"
	"animica.dev/node/crypto"
	"animica.dev/node/da"
	"animica.dev/node/mempool"
	"animica.dev/node/poies"
	"animica.dev/node/policy"
)

func newTestMiner(t *testing.T, dataDir string) (*Miner, *SyncEngine, *mempool.Pool) {
	t.Helper()
	engine, p, validator := newTestSyncEngine(t, dataDir)
	cfg := DefaultMinerConfig()
	cfg.MinerIDCommit = [32]byte{0x7a}
	m, err := NewMiner(engine.chainState, engine.blockStore, engine, p, validator.Bundle, validator.DAGen, validator.Pool, cfg)
	if err != nil {
		t.Fatalf("new miner: %v", err)
	}
	return m, engine, validator.Pool
}

func testReceiptAndEvidence(nullifierByte byte) ([]poies.Receipt, []chain.Evidence) {
	var nullifierID [32]byte
	nullifierID[0] = nullifierByte
	receipts := []poies.Receipt{
		{Type: policy.ProofAI, Nullifier: nullifierID, Metrics: map[poies.MetricID]uint64{"flops": 1}},
	}
	evidence := []chain.Evidence{{Alg: crypto.AlgMLDSA87, PubKey: []byte("pk"), Sig: []byte("sig")}}
	return receipts, evidence
}

func TestMinerProduceFromEmptyState(t *testing.T) {
	dataDir := t.TempDir()
	m, engine, _ := newTestMiner(t, dataDir)

	receipts, evidence := testReceiptAndEvidence(1)
	blobs := []da.Blob{{Namespace: 1, Payload: []byte("genesis body")}}

	mined, err := m.Produce(context.Background(), receipts, evidence, blobs, [32]byte{0x40})
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if mined.Height != 0 {
		t.Fatalf("height=%d, want 0", mined.Height)
	}
	if !engine.chainState.HasTip || engine.chainState.TipHash != mined.Hash {
		t.Fatalf("chainstate tip not updated to mined block")
	}
}

func TestMinerProduceAdvancesHeight(t *testing.T) {
	dataDir := t.TempDir()
	m, _, _ := newTestMiner(t, dataDir)

	blobs := []da.Blob{{Namespace: 1, Payload: []byte("body")}}
	r1, e1 := testReceiptAndEvidence(1)
	first, err := m.Produce(context.Background(), r1, e1, blobs, [32]byte{0x40})
	if err != nil {
		t.Fatalf("produce first: %v", err)
	}

	r2, e2 := testReceiptAndEvidence(2)
	second, err := m.Produce(context.Background(), r2, e2, blobs, [32]byte{0x40})
	if err != nil {
		t.Fatalf("produce second: %v", err)
	}
	if second.Height != first.Height+1 {
		t.Fatalf("height=%d, want %d", second.Height, first.Height+1)
	}
}

func TestMinerProduceIncludesMempoolEntries(t *testing.T) {
	dataDir := t.TempDir()
	m, _, pool := newTestMiner(t, dataDir)

	var sender [32]byte
	sender[0] = 0x11
	var txID [32]byte
	txID[0] = 0x22
	if err := pool.Admit(&mempool.Entry{TxID: txID, Sender: sender, Nonce: 0, SizeBytes: 64, EffectiveFee: 100}); err != nil {
		t.Fatalf("admit: %v", err)
	}

	blobs := []da.Blob{{Namespace: 1, Payload: []byte("body")}}
	receipts, evidence := testReceiptAndEvidence(1)
	mined, err := m.Produce(context.Background(), receipts, evidence, blobs, [32]byte{0x40})
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if mined.TxCount != 1 {
		t.Fatalf("tx_count=%d, want 1", mined.TxCount)
	}
	if _, ok := pool.Get(txID); ok {
		t.Fatalf("expected included tx to be removed from the pool")
	}
}

func TestMinerProduceRejectedCandidateDoesNotAdvance(t *testing.T) {
	dataDir := t.TempDir()
	m, engine, _ := newTestMiner(t, dataDir)

	blobs := []da.Blob{{Namespace: 1, Payload: []byte("body")}}
	receipts, evidence := testReceiptAndEvidence(1)
	// An all-zero entropy draw (u == 0) is a hard rejection in the scorer.
	if _, err := m.Produce(context.Background(), receipts, evidence, blobs, [32]byte{}); err == nil {
		t.Fatalf("expected rejection for an all-zero entropy draw")
	}
	if engine.chainState.HasTip {
		t.Fatalf("chainstate must not advance on a rejected candidate")
	}
}

func TestNewMinerRequiresChainState(t *testing.T) {
	if _, err := NewMiner(nil, nil, &SyncEngine{}, nil, policy.Bundle{}, nil, nil, DefaultMinerConfig()); err == nil {
		t.Fatalf("expected error for nil chainstate")
	}
}

func TestNewMinerRequiresDAGenerator(t *testing.T) {
	if _, err := NewMiner(NewChainState(), nil, &SyncEngine{}, nil, policy.Bundle{}, nil, nil, DefaultMinerConfig()); err == nil {
		t.Fatalf("expected error for nil DA generator")
	}
}
