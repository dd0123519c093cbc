package policy

import (
	"encoding/json"
	"testing"
)

func TestBundle_JSONRoundTrip(t *testing.T) {
	b := testBundle()
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Bundle
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ThetaTarget != b.ThetaTarget || decoded.GammaTotalCap != b.GammaTotalCap {
		t.Fatalf("round trip lost scalar fields: got %+v, want %+v", decoded, b)
	}
	if len(decoded.PerTypeCap) != len(b.PerTypeCap) {
		t.Fatalf("round trip lost per_type_cap entries: got %d, want %d", len(decoded.PerTypeCap), len(b.PerTypeCap))
	}
	for pt, cap := range b.PerTypeCap {
		if decoded.PerTypeCap[pt] != cap {
			t.Fatalf("per_type_cap[%s]: got %d, want %d", pt, decoded.PerTypeCap[pt], cap)
		}
	}
}

func TestBundle_UnmarshalRejectsUnknownProofType(t *testing.T) {
	raw := []byte(`{
		"theta_target": 1000, "gamma_total_cap": 2000,
		"per_type_cap": {"Bogus": 100},
		"epoch_blocks": 2016, "nullifier_ttl": 200, "reorg_limit": 100
	}`)
	var b Bundle
	if err := json.Unmarshal(raw, &b); err == nil {
		t.Fatalf("expected error decoding unknown proof type name")
	}
}

func TestLoadBundleFile_ValidatesContent(t *testing.T) {
	b := DevnetGenesisBundle()
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := LoadBundleFile(raw); err != nil {
		t.Fatalf("unexpected error loading valid bundle: %v", err)
	}

	bad := DevnetGenesisBundle()
	bad.NullifierTTL = 1
	rawBad, err := json.Marshal(bad)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := LoadBundleFile(rawBad); err == nil {
		t.Fatalf("expected validation error for ttl below 2*reorg_limit")
	}
}

func TestDevnetGenesisBundle_Valid(t *testing.T) {
	if err := DevnetGenesisBundle().Validate(); err != nil {
		t.Fatalf("devnet genesis bundle must validate: %v", err)
	}
}
