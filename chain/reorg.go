package chain

import (
	"fmt"

	"animica.dev/node/consensus"
)

// snapshot captures everything a reorg might need to undo: the nullifier
// index's exact membership as of the fork point, expressed as the height
// to rewind to. This generalizes the single-block snapshot/rollback
// pattern the block-apply path already uses to a multi-block
// rewind-then-reapply sequence.
type snapshot struct {
	forkHeight uint64
}

// Reorg switches the canonical head to a newly-heavier branch: Apply
// rewinds nullifier state to a fork height the caller supplies (Reorg does
// not search the DAG for the common ancestor itself), Prune removes the
// stale branch from the DAG, and the caller re-applies the new branch's
// blocks through Validate in order. ReorgLimit bounds how deep a reorg is
// ever accepted.
type Reorg struct {
	dag        *DAG
	nullifiers nullifierRewinder
	reorgLimit uint64
}

// nullifierRewinder is the minimal surface Reorg needs from the nullifier
// index, named here so tests can substitute a fake without importing the
// concrete package.
type nullifierRewinder interface {
	Rewind(toHeight uint64)
}

func NewReorg(dag *DAG, nullifiers nullifierRewinder, reorgLimit uint64) *Reorg {
	return &Reorg{dag: dag, nullifiers: nullifiers, reorgLimit: reorgLimit}
}

// Apply switches the canonical branch from currentHead to newHead, which
// must already be present in the DAG (its blocks having passed Validate
// independently). It refuses reorgs deeper than reorgLimit and rewinds the
// nullifier index to the fork point; it does not prune the abandoned
// branch, which is a separate Prune call.
func (r *Reorg) Apply(currentHead, newHead [32]byte, forkHeight uint64) error {
	currentHeight, ok := r.dag.Height(currentHead)
	if !ok {
		return consensus.Reject(consensus.ErrBadEncoding, "reorg: unknown current head")
	}
	if _, ok := r.dag.Height(newHead); !ok {
		return consensus.Reject(consensus.ErrBadEncoding, "reorg: unknown candidate head")
	}
	if currentHeight < forkHeight {
		return consensus.Reject(consensus.ErrBadEncoding, "reorg: fork height above current head")
	}
	depth := currentHeight - forkHeight
	if depth > r.reorgLimit {
		return consensus.Reject(consensus.ErrReorgTooDeep, fmt.Sprintf("reorg depth %d exceeds limit %d", depth, r.reorgLimit))
	}

	r.nullifiers.Rewind(forkHeight)
	return nil
}

// Prune removes the branch that lost the reorg, identified by the hash of
// its first block after the fork point (not its tip) — Remove cascades to
// every descendant, so passing the branch root drops the whole losing
// subtree in one call. Called only after Apply has succeeded and the new
// branch's blocks have been re-applied.
func (r *Reorg) Prune(staleBranchRoot [32]byte) {
	r.dag.Remove(staleBranchRoot)
}
