// Package crypto implements the consensus core's crypto oracle surface: a
// narrow set of pure, injectable verification adapters. Nothing in this
// package holds a private key or performs signing — producers sign off-node;
// the node only ever verifies.
package crypto

import "context"

// AlgID names a PQ signature algorithm bound into a verified signature.
type AlgID string

const (
	AlgMLDSA87         AlgID = "ML-DSA-87"
	AlgSLHDSASHAKE256F AlgID = "SLH-DSA-SHAKE-256f"
)

// VDFParams pins the modulus and time parameter a VDF proof was computed
// under. Params are policy-declared, never negotiated per-proof.
type VDFParams struct {
	// ModulusHex is the RSA-style modulus N, hex encoded, as pinned by the
	// active parameter bundle.
	ModulusHex string
	// Iterations is the sequential squaring count T.
	Iterations uint64
}

// Provider is the full crypto oracle surface consumed by the rest of the
// consensus core: hashing, PQ signature verification, ZK proof
// verification, and VDF proof verification. Every method is a pure
// function of its arguments; oversize inputs are rejected with
// ErrOversizeProof rather than panicking.
type Provider interface {
	// Hash computes a domain-separated digest. domainSep must be one of
	// the fixed tags in this package; callers never invent ad hoc tags.
	Hash(domainSep DomainTag, data []byte) [32]byte

	// VerifyPQSig checks sig over msg under pubkey using the named
	// algorithm. msg is expected to already bind chain_id (§4.1).
	VerifyPQSig(ctx context.Context, alg AlgID, pubkey, msg, sig []byte) (bool, error)

	// VerifyZK checks a proof against public inputs under a
	// policy-registered verifying key id.
	VerifyZK(ctx context.Context, vkID string, proof, publicInputs []byte) (bool, error)

	// VerifyVDF checks that output/proof are a valid Wesolowski VDF
	// evaluation of input under params.
	VerifyVDF(ctx context.Context, params VDFParams, input, output, proof []byte) (bool, error)
}

// SizeLimits bounds the inputs a Provider will accept before even
// attempting verification; exceeding any of these is ErrOversizeProof, not
// a panic.
type SizeLimits struct {
	MaxPubkeyBytes      int
	MaxSigBytes         int
	MaxZKProofBytes     int
	MaxZKPublicInputs   int
	MaxVDFProofBytes    int
}

// DefaultSizeLimits are conservative bounds sized for the PQ algorithms and
// proof systems this node wires in; a parameter bundle may tighten them
// further but never loosen them.
func DefaultSizeLimits() SizeLimits {
	return SizeLimits{
		MaxPubkeyBytes:    4096,
		MaxSigBytes:       64 * 1024,
		MaxZKProofBytes:   8 * 1024,
		MaxZKPublicInputs: 64 * 1024,
		MaxVDFProofBytes:  4096,
	}
}
