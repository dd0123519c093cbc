package crypto

import (
	"bytes"
	"context"

	"golang.org/x/crypto/sha3"

	"github.com/cloudflare/circl/sign/mldsa/mldsa87"
	"github.com/cloudflare/circl/sign/slhdsa"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
)

// StdProvider is the node's standard Provider implementation: SHA3-256
// hashing, ML-DSA-87 / SLH-DSA-SHAKE-256f signature verification via circl,
// Groth16/BN254 proof verification via gnark, and a Wesolowski VDF
// verifier. It holds no secret material; every method is read-only.
//
// This supersedes the old stub provider that unconditionally returned
// false for every PQ signature — those two checks now actually verify.
type StdProvider struct {
	limits SizeLimits
	// verifyingKeys maps a policy-registered vk_id to its canonical gnark
	// verifying-key encoding, loaded once at parameter-bundle activation.
	verifyingKeys map[string][]byte
}

// NewStdProvider builds a provider bound to the given size limits and ZK
// verifying-key set. Passing a nil limits value selects DefaultSizeLimits.
func NewStdProvider(limits *SizeLimits, verifyingKeys map[string][]byte) *StdProvider {
	l := DefaultSizeLimits()
	if limits != nil {
		l = *limits
	}
	vks := make(map[string][]byte, len(verifyingKeys))
	for k, v := range verifyingKeys {
		vks[k] = v
	}
	return &StdProvider{limits: l, verifyingKeys: vks}
}

func (p *StdProvider) Hash(tag DomainTag, data []byte) [32]byte {
	h := sha3.New256()
	h.Write(tag.Prefix())
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (p *StdProvider) VerifyPQSig(_ context.Context, alg AlgID, pubkey, msg, sig []byte) (bool, error) {
	if len(pubkey) > p.limits.MaxPubkeyBytes || len(sig) > p.limits.MaxSigBytes {
		return false, ErrOversizeProof
	}
	switch alg {
	case AlgMLDSA87:
		return verifyMLDSA87(pubkey, msg, sig)
	case AlgSLHDSASHAKE256F:
		return verifySLHDSAShake256f(pubkey, msg, sig)
	default:
		return false, ErrUnknownAlg
	}
}

func verifyMLDSA87(pubkey, msg, sig []byte) (bool, error) {
	scheme := mldsa87.Scheme()
	pk, err := scheme.UnmarshalBinaryPublicKey(pubkey)
	if err != nil {
		return false, nil
	}
	return scheme.Verify(pk, msg, sig, nil), nil
}

func verifySLHDSAShake256f(pubkey, msg, sig []byte) (bool, error) {
	pk, err := slhdsa.ParamIDSHAKE256Fsmall.PublicKeyFromBytes(pubkey)
	if err != nil {
		return false, nil
	}
	return slhdsa.Verify(pk, msg, sig, slhdsa.Context{}), nil
}

func (p *StdProvider) VerifyZK(_ context.Context, vkID string, proof, publicInputs []byte) (bool, error) {
	if len(proof) > p.limits.MaxZKProofBytes || len(publicInputs) > p.limits.MaxZKPublicInputs {
		return false, ErrOversizeProof
	}
	vkBytes, ok := p.verifyingKeys[vkID]
	if !ok {
		return false, ErrUnknownVK
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
		return false, err
	}
	proofObj := groth16.NewProof(ecc.BN254)
	if _, err := proofObj.ReadFrom(bytes.NewReader(proof)); err != nil {
		return false, nil
	}
	pubWitness, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return false, err
	}
	if _, err := pubWitness.ReadFrom(bytes.NewReader(publicInputs)); err != nil {
		return false, nil
	}

	if err := groth16.Verify(proofObj, vk, pubWitness); err != nil {
		return false, nil
	}
	return true, nil
}

func (p *StdProvider) VerifyVDF(_ context.Context, params VDFParams, input, output, proof []byte) (bool, error) {
	if len(proof) > p.limits.MaxVDFProofBytes {
		return false, ErrOversizeProof
	}
	return verifyWesolowskiVDF(params, input, output, proof)
}
