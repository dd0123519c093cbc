// Package chain drives the seven-component validation pipeline over a
// candidate block: crypto verification, nullifier non-membership, PoIES
// scoring, DA root matching, fee-market ingress, and fork-choice weight
// accumulation, plus the reorg engine that rewinds and re-applies branches.
package chain

import (
	"encoding/binary"

	"animica.dev/node/consensus"
	"animica.dev/node/crypto"
)

// headerWireBytes is the fixed on-disk/wire size of a Header: nine 32-byte
// digests plus two uint64 fields.
const headerWireBytes = 32*9 + 8*2

// Header carries every field consensus depends on. It is immutable once
// formed; its digest (via Hash) is the block hash everything else
// references.
type Header struct {
	ParentHash      [32]byte
	Height          uint64
	Timestamp       uint64
	MinerIDCommit   [32]byte // commitment to the producing miner's identity
	PolicyRoot      [32]byte // pins the active parameter bundle
	AlgPolicyRoot   [32]byte // pins the active PQ/ZK algorithm set
	UCommitment     [32]byte // the hash-entropy draw
	PsiReceiptsRoot [32]byte // aggregated psi-receipt commitment
	DARoot          [32]byte // NMT root of this block's blobs
	StateRoot       [32]byte
	TxRoot          [32]byte
}

// Hash computes the block hash: a domain-separated digest over the
// header's canonical field encoding. Two headers with identical field
// values always hash identically; nothing here depends on map order or
// pointer identity.
func (h Header) Hash(provider crypto.Provider) [32]byte {
	buf := make([]byte, 0, 32*9+16)
	buf = append(buf, h.ParentHash[:]...)
	buf = appendU64(buf, h.Height)
	buf = appendU64(buf, h.Timestamp)
	buf = append(buf, h.MinerIDCommit[:]...)
	buf = append(buf, h.PolicyRoot[:]...)
	buf = append(buf, h.AlgPolicyRoot[:]...)
	buf = append(buf, h.UCommitment[:]...)
	buf = append(buf, h.PsiReceiptsRoot[:]...)
	buf = append(buf, h.DARoot[:]...)
	buf = append(buf, h.StateRoot[:]...)
	buf = append(buf, h.TxRoot[:]...)
	return provider.Hash(crypto.DomainHeaderID, buf)
}

func appendU64(dst []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(dst, tmp[:]...)
}

// Bytes encodes the header in its canonical fixed-width wire form, used for
// block-store persistence and header-only P2P sync payloads.
func (h Header) Bytes() []byte {
	buf := make([]byte, 0, headerWireBytes)
	buf = append(buf, h.ParentHash[:]...)
	buf = appendU64(buf, h.Height)
	buf = appendU64(buf, h.Timestamp)
	buf = append(buf, h.MinerIDCommit[:]...)
	buf = append(buf, h.PolicyRoot[:]...)
	buf = append(buf, h.AlgPolicyRoot[:]...)
	buf = append(buf, h.UCommitment[:]...)
	buf = append(buf, h.PsiReceiptsRoot[:]...)
	buf = append(buf, h.DARoot[:]...)
	buf = append(buf, h.StateRoot[:]...)
	buf = append(buf, h.TxRoot[:]...)
	return buf
}

// ParseHeaderBytes decodes a header from its canonical wire form, rejecting
// anything but an exact-length buffer.
func ParseHeaderBytes(b []byte) (Header, error) {
	if len(b) != headerWireBytes {
		return Header{}, consensus.Reject(consensus.ErrBadEncoding, "header: wrong length")
	}
	var h Header
	pos := 0
	read32 := func() [32]byte {
		var out [32]byte
		copy(out[:], b[pos:pos+32])
		pos += 32
		return out
	}
	readU64 := func() uint64 {
		v := binary.BigEndian.Uint64(b[pos : pos+8])
		pos += 8
		return v
	}
	h.ParentHash = read32()
	h.Height = readU64()
	h.Timestamp = readU64()
	h.MinerIDCommit = read32()
	h.PolicyRoot = read32()
	h.AlgPolicyRoot = read32()
	h.UCommitment = read32()
	h.PsiReceiptsRoot = read32()
	h.DARoot = read32()
	h.StateRoot = read32()
	h.TxRoot = read32()
	return h, nil
}
