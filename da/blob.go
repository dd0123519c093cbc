package da

import (
	"encoding/binary"
	"sort"

	"animica.dev/node/crypto"
)

// Blob is one unit of committed data: payload bytes tagged with the
// namespace they belong to. Blobs are erasure-coded to n shares and their
// shares become NMT leaves.
type Blob struct {
	Namespace Namespace
	Payload   []byte
}

// Commitment is the result of committing a set of blobs: the NMT root a
// header binds, the tree itself (kept for building proofs), and the raw
// shares per namespace (kept so a full node can serve them to light
// clients sampling this block).
type Commitment struct {
	Root   [32]byte
	Tree   *Tree
	Shares map[Namespace][][]byte
}

// CommitBlobs erasure-codes every blob under gen's (k,n) profile and
// builds the namespaced Merkle tree over the resulting shares. Blobs are
// processed in namespace order; within a blob, leaves are ordered by
// share index, matching the (namespace_id, share_index) leaf ordering the
// design requires.
func CommitBlobs(h crypto.Provider, gen *Generator, blobs []Blob) (Commitment, error) {
	sorted := append([]Blob(nil), blobs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Namespace < sorted[j].Namespace })

	shares := make(map[Namespace][][]byte, len(sorted))
	var leaves []Leaf
	for _, b := range sorted {
		enc, err := gen.Encode(b.Payload)
		if err != nil {
			return Commitment{}, err
		}
		shares[b.Namespace] = enc
		for idx, share := range enc {
			leaves = append(leaves, Leaf{Namespace: b.Namespace, Data: shareLeafBytes(idx, share)})
		}
	}

	tree, err := Build(h, leaves)
	if err != nil {
		return Commitment{}, err
	}
	return Commitment{Root: tree.Root(), Tree: tree, Shares: shares}, nil
}

// shareLeafBytes binds the share index into the leaf payload so that two
// shares with identical bytes at different indices within the same
// namespace still hash to distinct leaves.
func shareLeafBytes(idx int, share []byte) []byte {
	out := make([]byte, 4+len(share))
	binary.BigEndian.PutUint32(out[:4], uint32(idx))
	copy(out[4:], share)
	return out
}
