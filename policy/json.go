package policy

import (
	"encoding/json"
	"fmt"
)

// bundleJSON is the on-disk shape of a Bundle: proof types are spelled out
// by name rather than their numeric tag, so a hand-edited genesis file
// reads the way an operator would write it, and so the encoding survives
// ProofType gaining or losing members without renumbering anything already
// on disk.
type bundleJSON struct {
	ThetaTarget   uint64            `json:"theta_target"`
	GammaTotalCap uint64            `json:"gamma_total_cap"`
	PerTypeCap    map[string]uint64 `json:"per_type_cap"`
	EscortQ       uint64            `json:"escort_q"`
	EMAAlphaNum   uint64            `json:"ema_alpha_num"`
	EMAAlphaDen   uint64            `json:"ema_alpha_den"`
	ClampDownPct  uint64            `json:"clamp_down_pct"`
	ClampUpPct    uint64            `json:"clamp_up_pct"`
	NullifierTTL  uint64            `json:"nullifier_ttl"`
	ReorgLimit    uint64            `json:"reorg_limit"`
	EpochBlocks   uint64            `json:"epoch_blocks"`
	Fee           FeeMarket         `json:"fee"`
	DA            DAProfile         `json:"da"`
}

var proofTypeByName = func() map[string]ProofType {
	out := make(map[string]ProofType, len(proofTypeNames))
	for t, n := range proofTypeNames {
		out[n] = t
	}
	return out
}()

// MarshalJSON encodes a Bundle the way an operator would hand-write a
// genesis file: proof types spelled by name, sorted for a stable diff.
func (b Bundle) MarshalJSON() ([]byte, error) {
	perType := make(map[string]uint64, len(b.PerTypeCap))
	for t, cap := range b.PerTypeCap {
		perType[t.String()] = cap
	}
	return json.Marshal(bundleJSON{
		ThetaTarget:   b.ThetaTarget,
		GammaTotalCap: b.GammaTotalCap,
		PerTypeCap:    perType,
		EscortQ:       b.EscortQ,
		EMAAlphaNum:   b.EMAAlphaNum,
		EMAAlphaDen:   b.EMAAlphaDen,
		ClampDownPct:  b.ClampDownPct,
		ClampUpPct:    b.ClampUpPct,
		NullifierTTL:  b.NullifierTTL,
		ReorgLimit:    b.ReorgLimit,
		EpochBlocks:   b.EpochBlocks,
		Fee:           b.Fee,
		DA:            b.DA,
	})
}

// UnmarshalJSON decodes a Bundle, rejecting any per_type_cap key that isn't
// one of the proof type names this build recognizes — a typo here would
// otherwise silently vanish as an uncapped proof type.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var raw bundleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	perType := make(map[ProofType]uint64, len(raw.PerTypeCap))
	for name, cap := range raw.PerTypeCap {
		t, ok := proofTypeByName[name]
		if !ok {
			return fmt.Errorf("policy: unknown proof type %q in per_type_cap", name)
		}
		perType[t] = cap
	}
	*b = Bundle{
		ThetaTarget:   raw.ThetaTarget,
		GammaTotalCap: raw.GammaTotalCap,
		PerTypeCap:    perType,
		EscortQ:       raw.EscortQ,
		EMAAlphaNum:   raw.EMAAlphaNum,
		EMAAlphaDen:   raw.EMAAlphaDen,
		ClampDownPct:  raw.ClampDownPct,
		ClampUpPct:    raw.ClampUpPct,
		NullifierTTL:  raw.NullifierTTL,
		ReorgLimit:    raw.ReorgLimit,
		EpochBlocks:   raw.EpochBlocks,
		Fee:           raw.Fee,
		DA:            raw.DA,
	}
	return nil
}

// DevnetGenesisBundle is the default parameter bundle a freshly-initialized
// devnet node activates at height 0 when no --policy-bundle file is given.
// Its numbers are deliberately permissive (low Θ, generous caps) so a local
// node can mine blocks without external proof infrastructure; a testnet or
// mainnet deployment always supplies its own bundle file.
func DevnetGenesisBundle() Bundle {
	return Bundle{
		ThetaTarget:   1_000,
		GammaTotalCap: 2_000,
		PerTypeCap: map[ProofType]uint64{
			ProofHash:    2_000,
			ProofAI:      800,
			ProofQuantum: 800,
			ProofStorage: 800,
			ProofVDF:     800,
			ProofZK:      800,
		},
		EscortQ:      5_000,
		EMAAlphaNum:  8,
		EMAAlphaDen:  10,
		ClampDownPct: 20,
		ClampUpPct:   15,
		NullifierTTL: 200,
		ReorgLimit:   100,
		EpochBlocks:  2016,
		Fee: FeeMarket{
			EMAAlphaNumerator:   8,
			EMAAlphaDenominator: 10,
			SurgeThresholdPct:   80,
			SurgeMultiplierPct:  200,
			BumpPct:             10,
			MaxReadyPerSender:   16,
		},
		DA: DAProfile{K: 4, N: 8, BlobSizeCap: 1 << 20, SampleCount: 20},
	}
}

// LoadBundleFile decodes a JSON-encoded parameter bundle from disk and
// validates it before returning; callers never receive an unvalidated
// bundle.
func LoadBundleFile(raw []byte) (Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return Bundle{}, fmt.Errorf("policy: decode bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}
