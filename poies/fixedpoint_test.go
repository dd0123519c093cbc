package poies

import (
	"math/big"
	"testing"
)

func TestEntropyZeroIsHardRejection(t *testing.T) {
	_, err := Entropy(big.NewInt(0))
	if err != ErrZeroEntropyDraw {
		t.Fatalf("want ErrZeroEntropyDraw, got %v", err)
	}
}

func TestEntropyNegativeRejected(t *testing.T) {
	_, err := Entropy(big.NewInt(-1))
	if err != ErrDomainTagMismatch {
		t.Fatalf("want ErrDomainTagMismatch, got %v", err)
	}
}

func TestEntropyOversizeRejected(t *testing.T) {
	oversize := new(big.Int).Lsh(big.NewInt(1), 257)
	_, err := Entropy(oversize)
	if err != ErrDomainTagMismatch {
		t.Fatalf("want ErrDomainTagMismatch, got %v", err)
	}
}

func TestEntropyMaxU256IsNearZero(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	h, err := Entropy(max)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h < 0 || h > 100 {
		t.Fatalf("H(max) should be ~0 micro-nats, got %d", h)
	}
}

func TestEntropyMonotonicInU(t *testing.T) {
	half := new(big.Int).Lsh(big.NewInt(1), 255)
	quarter := new(big.Int).Lsh(big.NewInt(1), 254)

	hHalf, err := Entropy(half)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hQuarter, err := Entropy(quarter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hQuarter <= hHalf {
		t.Fatalf("smaller u must yield strictly larger H(u): H(1/4)=%d, H(1/2)=%d", hQuarter, hHalf)
	}
}

func TestEntropyHalfIsAboutLn2(t *testing.T) {
	half := new(big.Int).Lsh(big.NewInt(1), 255)
	h, err := Entropy(half)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	const wantLn2Micro = 693147
	diff := h - wantLn2Micro
	if diff < 0 {
		diff = -diff
	}
	if diff > 20 {
		t.Fatalf("H(1/2) should be ~ln(2)=%d micro-nats, got %d", wantLn2Micro, h)
	}
}

func TestEntropyFromDigestMatchesEntropy(t *testing.T) {
	var digest [32]byte
	digest[0] = 0x40 // 0.25 * 2^256

	fromDigest, err := EntropyFromDigest(digest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromBig, err := Entropy(new(big.Int).SetBytes(digest[:]))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromDigest != fromBig {
		t.Fatalf("EntropyFromDigest diverged from Entropy: %d != %d", fromDigest, fromBig)
	}
}
