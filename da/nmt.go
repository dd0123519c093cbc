package da

import (
	"encoding/binary"
	"sort"

	"animica.dev/node/crypto"
)

// Namespace identifies which logical stream a leaf's bytes belong to. DA
// blobs from unrelated applications share one tree; the namespace range
// each internal node commits to is what lets a light client prove "there
// is nothing from namespace X here" without downloading the whole tree.
type Namespace uint64

// Leaf is one namespaced share going into the tree.
type Leaf struct {
	Namespace Namespace
	Data      []byte
}

// node is an internal or leaf node carrying its namespace range alongside
// its hash, per the NMT construction: every internal node binds
// [min_ns, max_ns] over its subtree, not just a content hash.
type node struct {
	minNS, maxNS Namespace
	hash         [32]byte
}

// Tree is a built namespaced Merkle tree. Leaves must already be sorted by
// namespace ascending — NMT's range-binding proofs are only sound over a
// namespace-ordered leaf sequence.
type Tree struct {
	h      crypto.Provider
	leaves []node
	levels [][]node // levels[0] = leaves, levels[len-1] = [root]
}

func leafHash(h crypto.Provider, l Leaf) [32]byte {
	buf := make([]byte, 8+len(l.Data))
	binary.BigEndian.PutUint64(buf[:8], uint64(l.Namespace))
	copy(buf[8:], l.Data)
	return h.Hash(crypto.DomainNMTLeaf, buf)
}

func internalHash(h crypto.Provider, left, right node) [32]byte {
	buf := make([]byte, 0, 8*4+64)
	buf = appendNS(buf, left.minNS)
	buf = appendNS(buf, left.maxNS)
	buf = append(buf, left.hash[:]...)
	buf = appendNS(buf, right.minNS)
	buf = appendNS(buf, right.maxNS)
	buf = append(buf, right.hash[:]...)
	return h.Hash(crypto.DomainNMTInternal, buf)
}

func appendNS(dst []byte, ns Namespace) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(ns))
	return append(dst, tmp[:]...)
}

// Build constructs a tree over leaves, which must already be sorted by
// Namespace ascending (errBadNamespace otherwise).
func Build(h crypto.Provider, leaves []Leaf) (*Tree, error) {
	if !sort.SliceIsSorted(leaves, func(i, j int) bool { return leaves[i].Namespace < leaves[j].Namespace }) {
		return nil, errBadNamespace
	}
	base := make([]node, len(leaves))
	for i, l := range leaves {
		base[i] = node{minNS: l.Namespace, maxNS: l.Namespace, hash: leafHash(h, l)}
	}
	if len(base) == 0 {
		base = []node{{hash: h.Hash(crypto.DomainNMTLeaf, nil)}}
	}

	levels := [][]node{base}
	cur := base
	for len(cur) > 1 {
		next := make([]node, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			if i+1 == len(cur) {
				// odd node carries up unchanged; its own hash already
				// commits to its namespace range.
				next = append(next, cur[i])
				continue
			}
			left, right := cur[i], cur[i+1]
			next = append(next, node{
				minNS: left.minNS,
				maxNS: right.maxNS,
				hash:  internalHash(h, left, right),
			})
		}
		levels = append(levels, next)
		cur = next
	}
	return &Tree{h: h, leaves: base, levels: levels}, nil
}

// Root returns the tree's commitment: the top node's hash. Callers that
// also need the overall namespace range should read RootRange alongside it.
func (t *Tree) Root() [32]byte {
	top := t.levels[len(t.levels)-1]
	return top[0].hash
}

// RootRange returns the namespace range the root commits to.
func (t *Tree) RootRange() (min, max Namespace) {
	top := t.levels[len(t.levels)-1][0]
	return top.minNS, top.maxNS
}

// InclusionProofStep is one sibling hash plus its namespace range, walked
// from leaf to root.
type InclusionProofStep struct {
	SiblingMinNS, SiblingMaxNS Namespace
	SiblingHash                [32]byte
	SiblingOnRight             bool
}

// Prove builds an inclusion proof for the leaf at index i.
func (t *Tree) Prove(i int) ([]InclusionProofStep, error) {
	if i < 0 || i >= len(t.leaves) {
		return nil, errShapeMismatch
	}
	var steps []InclusionProofStep
	idx := i
	for level := 0; level < len(t.levels)-1; level++ {
		cur := t.levels[level]
		var siblingIdx int
		var onRight bool
		if idx%2 == 0 {
			siblingIdx = idx + 1
			onRight = true
		} else {
			siblingIdx = idx - 1
			onRight = false
		}
		if siblingIdx < len(cur) {
			s := cur[siblingIdx]
			steps = append(steps, InclusionProofStep{
				SiblingMinNS:   s.minNS,
				SiblingMaxNS:   s.maxNS,
				SiblingHash:    s.hash,
				SiblingOnRight: onRight,
			})
		}
		idx /= 2
	}
	return steps, nil
}

// VerifyInclusion checks that leaf, combined with proof, produces root —
// without needing the rest of the tree. This is what a light client
// actually runs.
func VerifyInclusion(h crypto.Provider, leaf Leaf, proof []InclusionProofStep, root [32]byte) bool {
	cur := node{minNS: leaf.Namespace, maxNS: leaf.Namespace, hash: leafHash(h, leaf)}
	for _, step := range proof {
		sibling := node{minNS: step.SiblingMinNS, maxNS: step.SiblingMaxNS, hash: step.SiblingHash}
		if step.SiblingOnRight {
			cur = node{minNS: cur.minNS, maxNS: sibling.maxNS, hash: internalHash(h, cur, sibling)}
		} else {
			cur = node{minNS: sibling.minNS, maxNS: cur.maxNS, hash: internalHash(h, sibling, cur)}
		}
	}
	return cur.hash == root
}

// VerifyNamespaceAbsence checks that ns falls strictly outside [min, max]
// — the proof a light client needs that a namespace contributed nothing to
// this tree, with no leaf data to download.
func VerifyNamespaceAbsence(ns Namespace, min, max Namespace) bool {
	return ns < min || ns > max
}
