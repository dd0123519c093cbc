package chain

import "animica.dev/node/poies"

// entry is one block's position in the branch DAG, modeled as arena +
// index rather than pointer-linked nodes: every entry stores its parent's
// arena index, so rewind walks integer indices and the whole structure
// serializes trivially with no cycles to worry about.
type entry struct {
	blockHash        [32]byte
	parentIdx        int // -1 for the genesis entry
	height           uint64
	weight           poies.MicroNat // this block's own clipped weight
	cumulativeWeight poies.MicroNat
}

// DAG is the branch arena + index: every known block, keyed by hash, with
// parent back-references by arena index.
type DAG struct {
	arena  []entry
	byHash map[[32]byte]int
}

// NewDAG builds an empty arena. AddGenesis must be called before any
// AddBlock.
func NewDAG() *DAG {
	return &DAG{byHash: make(map[[32]byte]int)}
}

// AddGenesis seeds the arena with the chain's root block.
func (d *DAG) AddGenesis(hash [32]byte, weight poies.MicroNat) {
	d.arena = append(d.arena, entry{blockHash: hash, parentIdx: -1, height: 0, weight: weight, cumulativeWeight: weight})
	d.byHash[hash] = 0
}

// AddBlock inserts a new block whose parent must already be present.
// Returns the arena index of the new entry.
func (d *DAG) AddBlock(hash, parent [32]byte, height uint64, weight poies.MicroNat) (int, error) {
	parentIdx, ok := d.byHash[parent]
	if !ok {
		return 0, errUnknownParent
	}
	if _, dup := d.byHash[hash]; dup {
		return 0, errDuplicateBlock
	}
	cumulative := d.arena[parentIdx].cumulativeWeight + weight
	d.arena = append(d.arena, entry{
		blockHash:        hash,
		parentIdx:        parentIdx,
		height:           height,
		weight:           weight,
		cumulativeWeight: cumulative,
	})
	idx := len(d.arena) - 1
	d.byHash[hash] = idx
	return idx, nil
}

// Remove deletes a block and every descendant that transitively depends on
// it — used by rewind to drop a stale branch in one call. It never touches
// ancestors.
func (d *DAG) Remove(hash [32]byte) {
	idx, ok := d.byHash[hash]
	if !ok {
		return
	}
	toRemove := map[int]bool{idx: true}
	changed := true
	for changed {
		changed = false
		for i, e := range d.arena {
			if toRemove[i] {
				continue
			}
			if e.parentIdx >= 0 && toRemove[e.parentIdx] {
				toRemove[i] = true
				changed = true
			}
		}
	}
	kept := make([]entry, 0, len(d.arena)-len(toRemove))
	remap := make(map[int]int, len(d.arena))
	for i, e := range d.arena {
		if toRemove[i] {
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, e)
	}
	for i := range kept {
		if kept[i].parentIdx >= 0 {
			kept[i].parentIdx = remap[kept[i].parentIdx]
		}
	}
	d.arena = kept
	d.byHash = make(map[[32]byte]int, len(kept))
	for i, e := range kept {
		d.byHash[e.blockHash] = i
	}
}

// Height returns the height recorded for hash, if known.
func (d *DAG) Height(hash [32]byte) (uint64, bool) {
	idx, ok := d.byHash[hash]
	if !ok {
		return 0, false
	}
	return d.arena[idx].height, true
}

// CumulativeWeight returns the accumulated weight along the branch ending
// at hash.
func (d *DAG) CumulativeWeight(hash [32]byte) (poies.MicroNat, bool) {
	idx, ok := d.byHash[hash]
	if !ok {
		return 0, false
	}
	return d.arena[idx].cumulativeWeight, true
}

// Head selects the canonical tip: the entry with the greatest cumulative
// weight, deterministically tie-broken by the lower block hash.
func (d *DAG) Head() ([32]byte, bool) {
	if len(d.arena) == 0 {
		return [32]byte{}, false
	}
	best := d.arena[0]
	for _, e := range d.arena[1:] {
		if e.cumulativeWeight > best.cumulativeWeight {
			best = e
			continue
		}
		if e.cumulativeWeight == best.cumulativeWeight && lessHash(e.blockHash, best.blockHash) {
			best = e
		}
	}
	return best.blockHash, true
}

func lessHash(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
