// Package nullifier implements the sliding-window nullifier index: the
// exact, reorg-aware set of consumed proof identifiers that prevents
// resubmission of the same proof evidence before its TTL elapses.
package nullifier

import (
	"sync"

	"github.com/bits-and-blooms/bitset"

	"animica.dev/node/consensus"
)

const filterBits = 1 << 22 // 4M bits ~ 512KB; sized for a single epoch's worth of traffic

// Index is the sole authority on nullifier membership. It is owned
// exclusively by the consensus state machine; anything else gets a
// read-only snapshot, never a live reference.
//
// Exactness is non-negotiable here — unlike the filter, which is purely an
// accelerator, the exact map is never allowed to drift from "what the
// canonical chain actually inserted". The filter is always rebuilt, never
// trusted, after a rewind.
type Index struct {
	mu sync.RWMutex

	ttl uint64

	exact    map[[32]byte]uint64            // nullifier -> insertion height
	segments map[uint64]map[[32]byte]struct{} // height -> nullifiers inserted at that height
	filter   *bitset.BitSet
}

// NewIndex builds an empty index with the given TTL, in blocks. The caller
// is responsible for enforcing ttl >= 2*reorg_limit at the policy-bundle
// layer before wiring a bundle's TTL in here.
func NewIndex(ttl uint64) *Index {
	return &Index{
		ttl:      ttl,
		exact:    make(map[[32]byte]uint64),
		segments: make(map[uint64]map[[32]byte]struct{}),
		filter:   bitset.New(filterBits),
	}
}

func filterSlot(n [32]byte) uint {
	var v uint32
	v = uint32(n[0])<<24 | uint32(n[1])<<16 | uint32(n[2])<<8 | uint32(n[3])
	return uint(v % filterBits)
}

// Contains reports whether n is currently a live (unexpired, uninserted-
// since-rewind) member. The bitset gives an O(1) "definitely absent"
// fast path; a positive filter hit always falls through to the exact map,
// since the filter can have false positives but never false negatives.
func (idx *Index) Contains(n [32]byte) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if !idx.filter.Test(filterSlot(n)) {
		return false
	}
	_, ok := idx.exact[n]
	return ok
}

// InsertBatch inserts every nullifier in ns at atHeight. The whole batch is
// checked for collisions against the live set (and against itself) before
// any mutation happens, so a rejected batch leaves the index untouched.
func (idx *Index) InsertBatch(ns [][32]byte, atHeight uint64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	seenInBatch := make(map[[32]byte]struct{}, len(ns))
	for _, n := range ns {
		if _, dup := idx.exact[n]; dup {
			return consensus.Reject(consensus.ErrNullifierReuse, "nullifier already live")
		}
		if _, dup := seenInBatch[n]; dup {
			return consensus.Reject(consensus.ErrNullifierReuse, "duplicate nullifier within batch")
		}
		seenInBatch[n] = struct{}{}
	}

	seg, ok := idx.segments[atHeight]
	if !ok {
		seg = make(map[[32]byte]struct{}, len(ns))
		idx.segments[atHeight] = seg
	}
	for _, n := range ns {
		idx.exact[n] = atHeight
		seg[n] = struct{}{}
		idx.filter.Set(filterSlot(n))
	}
	return nil
}

// Expire removes every nullifier inserted at a height h with
// h + ttl <= upToHeight, the invariant §4.2 requires hold at all times.
// It does not rebuild the filter: the filter only ever needs to shrink its
// false-positive rate over time, never regain exactness, since a stale
// filter bit only costs an extra exact-map lookup, never a wrong answer.
func (idx *Index) Expire(upToHeight uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if upToHeight < idx.ttl {
		return
	}
	cutoff := upToHeight - idx.ttl
	for h, seg := range idx.segments {
		if h > cutoff {
			continue
		}
		for n := range seg {
			delete(idx.exact, n)
		}
		delete(idx.segments, h)
	}
}

// Rewind restores exact prior membership as of toHeight: every segment
// above toHeight is discarded and the summary filter is rebuilt from
// scratch over what remains, so a reorg never leaves stale filter state
// that could mask a nullifier that should once again be usable.
func (idx *Index) Rewind(toHeight uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for h, seg := range idx.segments {
		if h <= toHeight {
			continue
		}
		for n := range seg {
			delete(idx.exact, n)
		}
		delete(idx.segments, h)
	}
	idx.filter = bitset.New(filterBits)
	for n := range idx.exact {
		idx.filter.Set(filterSlot(n))
	}
}

// Len reports the number of currently-live nullifiers. Exposed for
// metrics and tests, not part of the consensus-critical surface.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.exact)
}
