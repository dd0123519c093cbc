package crypto

// DomainTag is a fixed, versioned domain-separation prefix. Every digest
// the consensus core produces is tagged so that a leaf hash, a header id,
// and a nullifier can never collide even over identical byte strings.
type DomainTag byte

const (
	DomainTxID              DomainTag = 0x01
	DomainHeaderID           DomainTag = 0x02
	DomainNullifier          DomainTag = 0x03
	DomainAddress            DomainTag = 0x04
	DomainNMTLeaf            DomainTag = 0x05
	DomainNMTInternal        DomainTag = 0x06
	DomainForkChoiceWeight   DomainTag = 0x07
	DomainMerkleLeaf         DomainTag = 0x08
	DomainMerkleInternal     DomainTag = 0x09
	DomainEntropyDraw        DomainTag = 0x0a
	DomainPolicyRoot         DomainTag = 0x0b
)

// Prefix returns the single-byte tag as a one-element slice, ready to be
// prepended to the hashed pre-image.
func (t DomainTag) Prefix() []byte { return []byte{byte(t)} }
