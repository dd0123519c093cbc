package crypto

import (
	"context"
	"encoding/hex"
	"testing"
)

func TestStdProviderHash_DomainSeparation(t *testing.T) {
	p := NewStdProvider(nil, nil)
	msg := []byte("abc")
	a := p.Hash(DomainTxID, msg)
	b := p.Hash(DomainHeaderID, msg)
	if a == b {
		t.Fatalf("digests for distinct domain tags must differ, got identical %x", a)
	}
	again := p.Hash(DomainTxID, msg)
	if a != again {
		t.Fatalf("Hash is not deterministic: %x vs %x", a, again)
	}
}

func TestStdProviderHash_DigestLength(t *testing.T) {
	p := NewStdProvider(nil, nil)
	sum := p.Hash(DomainTxID, []byte("abc"))
	got := hex.EncodeToString(sum[:])
	if len(got) != 64 {
		t.Fatalf("expected 32-byte digest, got %d bytes", len(sum))
	}
}

func TestStdProviderVerifyPQSig_UnknownAlg(t *testing.T) {
	p := NewStdProvider(nil, nil)
	ok, err := p.VerifyPQSig(context.Background(), AlgID("bogus"), nil, nil, nil)
	if ok || err != ErrUnknownAlg {
		t.Fatalf("expected ErrUnknownAlg, got ok=%v err=%v", ok, err)
	}
}

func TestStdProviderVerifyPQSig_Oversize(t *testing.T) {
	p := NewStdProvider(&SizeLimits{MaxPubkeyBytes: 4, MaxSigBytes: 4}, nil)
	ok, err := p.VerifyPQSig(context.Background(), AlgMLDSA87, make([]byte, 8), nil, make([]byte, 8))
	if ok || err != ErrOversizeProof {
		t.Fatalf("expected ErrOversizeProof, got ok=%v err=%v", ok, err)
	}
}

func TestStdProviderVerifyZK_UnknownVK(t *testing.T) {
	p := NewStdProvider(nil, nil)
	ok, err := p.VerifyZK(context.Background(), "no-such-vk", []byte{1}, []byte{2})
	if ok || err != ErrUnknownVK {
		t.Fatalf("expected ErrUnknownVK, got ok=%v err=%v", ok, err)
	}
}

func TestStdProviderVerifyZK_Oversize(t *testing.T) {
	p := NewStdProvider(&SizeLimits{MaxZKProofBytes: 2, MaxZKPublicInputs: 2}, map[string][]byte{"vk1": {1}})
	ok, err := p.VerifyZK(context.Background(), "vk1", make([]byte, 8), make([]byte, 1))
	if ok || err != ErrOversizeProof {
		t.Fatalf("expected ErrOversizeProof, got ok=%v err=%v", ok, err)
	}
}
