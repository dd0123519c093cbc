// Package policy defines the Parameter Bundle data model and its
// activation-at-height lifecycle: the immutable snapshot of consensus
// knobs (acceptance threshold, caps, EMA coefficients, DA profile, fee
// coefficients) that every block is validated against, pinned via a
// policy_root digest carried in the header.
package policy

import (
	"encoding/binary"
	"sort"

	"animica.dev/node/crypto"
)

// ProofType enumerates the receipt kinds the scorer recognizes.
type ProofType uint8

const (
	ProofHash ProofType = iota
	ProofAI
	ProofQuantum
	ProofStorage
	ProofVDF
	ProofZK
)

var proofTypeNames = map[ProofType]string{
	ProofHash:    "Hash",
	ProofAI:      "AI",
	ProofQuantum: "Quantum",
	ProofStorage: "Storage",
	ProofVDF:     "VDF",
	ProofZK:      "ZK",
}

func (t ProofType) String() string {
	if n, ok := proofTypeNames[t]; ok {
		return n
	}
	return "Unknown"
}

// DAProfile pins the erasure-coding shape and blob limits.
type DAProfile struct {
	K            uint16 // shares needed to reconstruct
	N            uint16 // total shares
	BlobSizeCap  uint32 // max bytes per blob before sharding
	SampleCount  uint32 // DAS sample count light clients draw per blob
}

// FeeMarket pins the economic-floor coefficients.
type FeeMarket struct {
	EMAAlphaNumerator   uint64
	EMAAlphaDenominator uint64
	SurgeThresholdPct   uint64 // mempool utilization pct that activates surge
	SurgeMultiplierPct  uint64 // e.g. 200 for 2x
	BumpPct             uint64 // RBF replacement bump, e.g. 10 for +10%
	MaxReadyPerSender   uint32
}

// Bundle is the immutable parameter snapshot bound to blocks via
// PolicyRoot. New bundles are proposed with a timelock (§3): they may only
// activate at a height >= current_height + Timelock.
type Bundle struct {
	ThetaTarget    uint64 // initial/baseline Θ, in µ-nats
	GammaTotalCap  uint64 // Γ, in µ-nats
	PerTypeCap     map[ProofType]uint64
	EscortQ        uint64 // q scaled by 1e4 (0..10000 representing [0,1])
	EMAAlphaNum    uint64
	EMAAlphaDen    uint64
	ClampDownPct   uint64
	ClampUpPct     uint64
	NullifierTTL   uint64
	ReorgLimit     uint64
	Fee            FeeMarket
	DA             DAProfile
	EpochBlocks    uint64
}

// Validate enforces the cross-field invariants this codebase requires at
// startup and at every bundle activation: in particular ttl >= 2*reorg_limit
// (§9), since that's what protects nullifier-window integrity across the
// deepest accepted reorg.
func (b Bundle) Validate() error {
	if b.ThetaTarget == 0 {
		return errBundle("theta_target must be > 0")
	}
	if b.GammaTotalCap == 0 {
		return errBundle("gamma_total_cap must be > 0")
	}
	if b.EscortQ > 10000 {
		return errBundle("escort_q must be in [0,1] (scaled by 1e4)")
	}
	if b.NullifierTTL < 2*b.ReorgLimit {
		return errBundle("nullifier ttl must be >= 2*reorg_limit")
	}
	if b.DA.K == 0 || b.DA.N < b.DA.K {
		return errBundle("da profile requires 0 < k <= n")
	}
	if b.EpochBlocks == 0 {
		return errBundle("epoch_blocks must be > 0")
	}
	for pt, cap := range b.PerTypeCap {
		if cap > b.GammaTotalCap {
			return errBundle("per_type_cap[" + pt.String() + "] exceeds gamma_total_cap")
		}
	}
	return nil
}

type errBundle string

func (e errBundle) Error() string { return "policy: " + string(e) }

// Root computes the policy_root digest a header pins: a domain-separated
// hash over a canonical, deterministically-ordered encoding of every
// field. Two bundles with identical contents always hash identically
// regardless of map iteration order.
func (b Bundle) Root(h crypto.Provider) [32]byte {
	buf := make([]byte, 0, 256)
	buf = appendU64(buf, b.ThetaTarget)
	buf = appendU64(buf, b.GammaTotalCap)

	types := make([]ProofType, 0, len(b.PerTypeCap))
	for pt := range b.PerTypeCap {
		types = append(types, pt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, pt := range types {
		buf = append(buf, byte(pt))
		buf = appendU64(buf, b.PerTypeCap[pt])
	}

	buf = appendU64(buf, b.EscortQ)
	buf = appendU64(buf, b.EMAAlphaNum)
	buf = appendU64(buf, b.EMAAlphaDen)
	buf = appendU64(buf, b.ClampDownPct)
	buf = appendU64(buf, b.ClampUpPct)
	buf = appendU64(buf, b.NullifierTTL)
	buf = appendU64(buf, b.ReorgLimit)
	buf = appendU64(buf, b.EpochBlocks)

	buf = appendU64(buf, b.Fee.EMAAlphaNumerator)
	buf = appendU64(buf, b.Fee.EMAAlphaDenominator)
	buf = appendU64(buf, b.Fee.SurgeThresholdPct)
	buf = appendU64(buf, b.Fee.SurgeMultiplierPct)
	buf = appendU64(buf, b.Fee.BumpPct)
	buf = appendU64(buf, uint64(b.Fee.MaxReadyPerSender))

	buf = appendU64(buf, uint64(b.DA.K))
	buf = appendU64(buf, uint64(b.DA.N))
	buf = appendU64(buf, uint64(b.DA.BlobSizeCap))
	buf = appendU64(buf, uint64(b.DA.SampleCount))

	return h.Hash(crypto.DomainPolicyRoot, buf)
}

func appendU64(dst []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(dst, tmp[:]...)
}
