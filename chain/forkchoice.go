package chain

import "animica.dev/node/poies"

// BlockWeight computes the fork-choice weight contributed by one block:
// min(S, Γ_total_cap + H_max). S is already capped on the ψ side by the
// scorer's own Γ clip; hMax is a configured numeric ceiling on the entropy
// term, bounding the influence a single lucky draw can have on chain
// selection.
func BlockWeight(score poies.MicroNat, gammaTotalCap uint64, hMax poies.MicroNat) poies.MicroNat {
	ceiling := poies.MicroNat(gammaTotalCap) + hMax
	if score > ceiling {
		return ceiling
	}
	return score
}
