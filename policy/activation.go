package policy

import "sort"

// ActivationState is a proposed parameter bundle's position in a
// DEFINED -> LOCKED_IN -> ACTIVE progression. StateAt reports a registered
// proposal as LOCKED_IN until its activation height and ACTIVE from that
// height on; DEFINED is returned only, with ok=false, for a policy_root
// that was never proposed. There is no STARTED and no FAILED state.
type ActivationState uint8

const (
	StateDefined ActivationState = iota
	StateLockedIn
	StateActive
)

// proposal binds a Bundle to the height at which it may first become
// active.
type proposal struct {
	bundle           Bundle
	activationHeight uint64
	policyRoot       [32]byte
}

// Registry tracks every proposed bundle and resolves, for any height, the
// single bundle that is active there. Proposals are inserted in
// activation-height order; a height before the first proposal's
// activation height resolves to the genesis bundle.
type Registry struct {
	genesis   Bundle
	proposals []proposal
}

// NewRegistry seeds the registry with the bundle active from genesis.
func NewRegistry(genesis Bundle) (*Registry, error) {
	if err := genesis.Validate(); err != nil {
		return nil, err
	}
	return &Registry{genesis: genesis}, nil
}

// Propose registers a new bundle with activation height exactly
// currentHeight + timelock. It returns only an error: for a bundle that
// fails Validate, or for a policy_root already proposed. See StateAt for
// the registered bundle's activation state.
func (r *Registry) Propose(bundle Bundle, policyRoot [32]byte, currentHeight, timelock uint64) error {
	if err := bundle.Validate(); err != nil {
		return err
	}
	minHeight := currentHeight + timelock
	activationHeight := minHeight
	for _, p := range r.proposals {
		if p.policyRoot == policyRoot {
			return errBundle("duplicate policy_root proposal")
		}
	}
	r.proposals = append(r.proposals, proposal{
		bundle:           bundle,
		activationHeight: activationHeight,
		policyRoot:       policyRoot,
	})
	sort.Slice(r.proposals, func(i, j int) bool {
		return r.proposals[i].activationHeight < r.proposals[j].activationHeight
	})
	return nil
}

// BundleAtHeight resolves the bundle active at height: the latest
// proposal whose activationHeight <= height, or the genesis bundle if no
// proposal has activated yet.
func (r *Registry) BundleAtHeight(height uint64) (Bundle, [32]byte) {
	var best *proposal
	for i := range r.proposals {
		p := &r.proposals[i]
		if p.activationHeight <= height {
			if best == nil || p.activationHeight >= best.activationHeight {
				best = p
			}
		}
	}
	if best == nil {
		return r.genesis, [32]byte{}
	}
	return best.bundle, best.policyRoot
}

// StateAt reports a proposed bundle's activation state at a given height,
// identified by its policy_root.
func (r *Registry) StateAt(policyRoot [32]byte, height uint64) (ActivationState, bool) {
	for _, p := range r.proposals {
		if p.policyRoot != policyRoot {
			continue
		}
		if height >= p.activationHeight {
			return StateActive, true
		}
		return StateLockedIn, true
	}
	return StateDefined, false
}
