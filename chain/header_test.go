package chain

import (
	"testing"

	"animica.dev/node/crypto"
)

func TestHeaderHashDeterministic(t *testing.T) {
	p := crypto.NewStdProvider(nil, nil)
	h := Header{Height: 5, Timestamp: 1000}
	a := h.Hash(p)
	b := h.Hash(p)
	if a != b {
		t.Fatal("hashing the same header twice must yield the same digest")
	}
}

func TestHeaderHashSensitiveToHeight(t *testing.T) {
	p := crypto.NewStdProvider(nil, nil)
	base := Header{Height: 5, Timestamp: 1000}
	variant := base
	variant.Height = 6

	if base.Hash(p) == variant.Hash(p) {
		t.Fatal("changing height must change the block hash")
	}
}

func TestHeaderBytesRoundTrip(t *testing.T) {
	p := crypto.NewStdProvider(nil, nil)
	h := Header{
		ParentHash:      [32]byte{1},
		Height:          42,
		Timestamp:       1234,
		MinerIDCommit:   [32]byte{2},
		PolicyRoot:      [32]byte{3},
		AlgPolicyRoot:   [32]byte{4},
		UCommitment:     [32]byte{5},
		PsiReceiptsRoot: [32]byte{6},
		DARoot:          [32]byte{7},
		StateRoot:       [32]byte{8},
		TxRoot:          [32]byte{9},
	}
	got, err := ParseHeaderBytes(h.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hash(p) != h.Hash(p) {
		t.Fatal("round-tripped header must hash identically")
	}
}

func TestParseHeaderBytesRejectsWrongLength(t *testing.T) {
	if _, err := ParseHeaderBytes([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error for a truncated buffer")
	}
}
