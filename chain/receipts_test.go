package chain

import (
	"testing"

	"animica.dev/node/crypto"
	"animica.dev/node/poies"
	"animica.dev/node/policy"
)

func TestReceiptsRootOrderIndependent(t *testing.T) {
	p := crypto.NewStdProvider(nil, nil)
	a := poies.Receipt{Type: policy.ProofAI, Nullifier: [32]byte{1}}
	b := poies.Receipt{Type: policy.ProofAI, Nullifier: [32]byte{2}}

	r1 := ReceiptsRoot(p, []poies.Receipt{a, b})
	r2 := ReceiptsRoot(p, []poies.Receipt{b, a})
	if r1 != r2 {
		t.Fatalf("receipts root must not depend on input order")
	}
}

func TestReceiptsRootChangesWithContent(t *testing.T) {
	p := crypto.NewStdProvider(nil, nil)
	a := poies.Receipt{Type: policy.ProofAI, Nullifier: [32]byte{1}}
	b := poies.Receipt{Type: policy.ProofAI, Nullifier: [32]byte{2}}

	base := ReceiptsRoot(p, []poies.Receipt{a})
	withMore := ReceiptsRoot(p, []poies.Receipt{a, b})
	if base == withMore {
		t.Fatalf("adding a receipt must change the root")
	}
}

func TestReceiptsRootEmpty(t *testing.T) {
	p := crypto.NewStdProvider(nil, nil)
	if ReceiptsRoot(p, nil) != ReceiptsRoot(p, []poies.Receipt{}) {
		t.Fatalf("empty receipt sets must hash identically")
	}
}
