package node

import (
	"math/big"
	"path/filepath"
	"testing"
)

func TestChainStateSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chainstate.db")

	st := NewChainState()
	st.Advance(42, [32]byte{0xaa}, 500_000, big.NewInt(123_456))

	if err := st.Save(path); err != nil {
		t.Fatalf("save chainstate: %v", err)
	}

	loaded, err := LoadChainState(path)
	if err != nil {
		t.Fatalf("load chainstate: %v", err)
	}
	if !loaded.HasTip || loaded.Height != 42 || loaded.TipHash != [32]byte{0xaa} {
		t.Fatalf("unexpected loaded state: %+v", loaded)
	}
	if loaded.CurrentTheta != 500_000 {
		t.Fatalf("theta=%d, want 500000", loaded.CurrentTheta)
	}
	if loaded.LambdaObsMicros.Cmp(big.NewInt(123_456)) != 0 {
		t.Fatalf("lambda_obs=%s, want 123456", loaded.LambdaObsMicros)
	}
}

func TestChainStateSavePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainstate.db")
	st := NewChainState()
	st.Advance(1, [32]byte{0x01}, 1000, big.NewInt(1_000_000))
	if err := st.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	st.Advance(2, [32]byte{0x02}, 1100, big.NewInt(1_050_000))
	if err := st.Save(path); err != nil {
		t.Fatalf("save again: %v", err)
	}

	loaded, err := LoadChainState(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Height != 2 || loaded.TipHash != [32]byte{0x02} {
		t.Fatalf("expected the second save to win, got %+v", loaded)
	}
}

func TestLoadChainStateMissingReturnsEmpty(t *testing.T) {
	st, err := LoadChainState(filepath.Join(t.TempDir(), "missing.db"))
	if err != nil {
		t.Fatalf("load missing chainstate: %v", err)
	}
	if st == nil || st.HasTip {
		t.Fatalf("unexpected missing-load state: %+v", st)
	}
}

func TestChainStateSaveNilErrors(t *testing.T) {
	var st *ChainState
	if err := st.Save(filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatalf("expected error for nil chainstate")
	}
}
