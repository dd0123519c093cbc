// Package mempool implements the transaction admission pipeline: the
// dynamic fee floor, replace-by-fee, per-sender fairness, and the
// deterministic eviction policy that keeps the pool within its configured
// byte and count budgets.
package mempool

// State is the lifecycle stage of one pool entry.
type State uint8

const (
	StateAdmitted State = iota
	StateReady
	StateIncluded
	StateEvicted
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAdmitted:
		return "Admitted"
	case StateReady:
		return "Ready"
	case StateIncluded:
		return "Included"
	case StateEvicted:
		return "Evicted"
	case StateExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// Entry is one pending transaction tracked by the pool. ReplacementOf, when
// set, names the TxID this entry replaced under RBF.
type Entry struct {
	TxID          [32]byte
	Sender        [32]byte
	Nonce         uint64
	SizeBytes     uint32
	BlobSize      uint32
	FeeTotal      uint64
	EffectiveFee  uint64 // fee_total / (size_bytes + blob_size), in the pool's fee unit
	ArrivalTime   int64  // unix seconds; informational only, never consensus-critical
	ReplacementOf *[32]byte
	State         State
}

// transitions enumerates every state change the pool allows. Anything not
// listed here is a programming error, not a runtime rejection.
var transitions = map[State]map[State]bool{
	StateAdmitted: {StateReady: true, StateEvicted: true, StateExpired: true},
	StateReady:    {StateIncluded: true, StateEvicted: true, StateExpired: true},
}

func (e *Entry) transitionTo(next State) bool {
	allowed, ok := transitions[e.State]
	if !ok || !allowed[next] {
		return false
	}
	e.State = next
	return true
}
