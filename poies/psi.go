package poies

import "animica.dev/node/policy"

// MetricID names one measured quantity a proof receipt reports (e.g.
// "flops", "storage_bytes", "circuit_depth"). The policy map weighs each
// metric independently, in micro-nats contributed per unit.
type MetricID string

// PolicyMap is the pure, table-driven function §4.3 calls policy_map: a
// static table of (type, metric) -> weight, loaded once per parameter
// bundle activation and never mutated afterward.
type PolicyMap struct {
	weights map[policy.ProofType]map[MetricID]uint64
}

// NewPolicyMap builds a policy map from a weight table. The caller is
// expected to load this once when a parameter bundle activates and reuse
// it for every block validated under that bundle.
func NewPolicyMap(weights map[policy.ProofType]map[MetricID]uint64) PolicyMap {
	copied := make(map[policy.ProofType]map[MetricID]uint64, len(weights))
	for t, m := range weights {
		inner := make(map[MetricID]uint64, len(m))
		for k, v := range m {
			inner[k] = v
		}
		copied[t] = inner
	}
	return PolicyMap{weights: copied}
}

// Psi computes ψ_raw = policy_map(type, metrics): the sum, over every
// metric the policy map recognizes for this type, of weight*value. An
// unrecognized proof type is ErrUnknownProofType; an unrecognized metric
// id simply contributes nothing (the table is the sole authority on what
// counts). Overflow saturates at math.MaxUint64 rather than wrapping,
// since a saturated ψ_raw is immediately clipped down to per_type_cap by
// the capping pipeline anyway.
func (m PolicyMap) Psi(t policy.ProofType, metrics map[MetricID]uint64) (uint64, error) {
	typeWeights, ok := m.weights[t]
	if !ok {
		return 0, ErrUnknownProofType
	}
	var total uint64
	for id, val := range metrics {
		w, ok := typeWeights[id]
		if !ok {
			continue
		}
		contribution := saturatingMul(w, val)
		total = saturatingAdd(total, contribution)
	}
	return total, nil
}

// DefaultMetricWeights seeds a devnet node's policy map with one
// representative metric per proof type, so a fresh --policy-bundle-less
// node can mine and validate locally without an operator having to hand
// the CLI a metric-weight table it has no other way to obtain yet (the
// spec pins policy_map via policy_root but leaves its wire format to the
// deployment). Anything beyond devnet bring-up is expected to construct
// its own PolicyMap from the same source that minted its parameter
// bundle.
func DefaultMetricWeights() map[policy.ProofType]map[MetricID]uint64 {
	return map[policy.ProofType]map[MetricID]uint64{
		policy.ProofHash:    {"work_units": 1},
		policy.ProofAI:      {"flops": 1, "eval_samples": 4},
		policy.ProofQuantum: {"circuit_depth": 8, "qubit_count": 16},
		policy.ProofStorage: {"proven_bytes": 1},
		policy.ProofVDF:     {"iterations": 1},
		policy.ProofZK:      {"constraint_count": 1},
	}
}

func saturatingMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	product := a * b
	if product/a != b {
		return ^uint64(0)
	}
	return product
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}
