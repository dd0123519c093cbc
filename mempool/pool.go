package mempool

import (
	"sort"
	"sync"

	"animica.dev/node/policy"
)

// Limits bounds the pool's resource usage. Both totals are enforced
// together: bytes includes blob bytes, since DA accounting is part of the
// same budget the spec's admission pipeline charges against.
type Limits struct {
	MaxBytes uint64
	MaxCount int
}

// includedRecord remembers an entry's shape after Include has committed it
// into a block, so a reorg that rolls back that block can offer the entry
// back to the pool. Retained only for reorgWindow blocks behind the tallest
// height Include has seen — a reorg deeper than that is already rejected by
// chain.Reorg's own reorgLimit, so nothing older is ever reachable.
type includedRecord struct {
	entry  Entry
	height uint64
}

// Pool is the single-writer transaction admission pool. Every mutating
// method assumes external synchronization at the block-application
// boundary already serializes writers; the internal mutex exists only to
// let read-only observers (RPC surfaces) query a consistent snapshot
// concurrently with the writer.
type Pool struct {
	mu sync.RWMutex

	limits      Limits
	feeFloor    *FeeFloor
	fee         policy.FeeMarket
	reorgWindow uint64

	byID          map[[32]byte]*Entry
	bySenderNonce map[[32]byte]map[uint64]*Entry
	readyPerSender map[[32]byte]uint32

	totalBytes uint64

	included      map[[32]byte]includedRecord
	maxIncludedHt uint64
}

// New builds an empty pool bound to the given fee-market coefficients and
// resource limits. reorgWindow bounds how long Include retains a committed
// entry's shape for possible reorg re-admission; it should match the active
// parameter bundle's ReorgLimit.
func New(limits Limits, fee policy.FeeMarket, seedFee uint64, reorgWindow uint64) *Pool {
	return &Pool{
		limits:         limits,
		feeFloor:       NewFeeFloor(fee, seedFee),
		fee:            fee,
		reorgWindow:    reorgWindow,
		byID:           make(map[[32]byte]*Entry),
		bySenderNonce:  make(map[[32]byte]map[uint64]*Entry),
		readyPerSender: make(map[[32]byte]uint32),
		included:       make(map[[32]byte]includedRecord),
	}
}

func (p *Pool) utilizationPct() uint64 {
	if p.limits.MaxBytes == 0 {
		return 100
	}
	return (p.totalBytes * 100) / p.limits.MaxBytes
}

// Admit runs the pool's portion of the admission pipeline — the cheaper,
// earlier stages (chain_id bind, canonical encoding, PQ-sig verify) are the
// caller's responsibility, performed before a candidate ever reaches the
// pool. From here the order is: shape -> nonce/RBF -> DA-size accounting ->
// economic floor, matching the pipeline order the design fixes.
func (p *Pool) Admit(e *Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.admitLocked(e)
}

func (p *Pool) admitLocked(e *Entry) error {
	if e.SizeBytes == 0 {
		return errBadEncoding("zero-size entry")
	}

	bySender, ok := p.bySenderNonce[e.Sender]
	if !ok {
		bySender = make(map[uint64]*Entry)
		p.bySenderNonce[e.Sender] = bySender
	}

	if prior, exists := bySender[e.Nonce]; exists {
		floor := p.feeFloor.ReplacementFloor(prior.EffectiveFee)
		if e.EffectiveFee < floor {
			return errReplacementUnderpriced("replacement fee below bump threshold")
		}
		priorID := prior.TxID
		e.ReplacementOf = &priorID
		p.removeLocked(prior)
	} else if p.fee.MaxReadyPerSender > 0 && p.readyPerSender[e.Sender] >= p.fee.MaxReadyPerSender {
		return errSenderQuotaExceeded("sender ready-entry quota exceeded")
	}

	needed := uint64(e.SizeBytes) + uint64(e.BlobSize)
	for p.totalBytes+needed > p.limits.MaxBytes || len(p.byID) >= p.limits.MaxCount {
		victim := p.lowestFeeLocked()
		if victim == nil || victim.TxID == e.TxID || victim.EffectiveFee >= e.EffectiveFee {
			return errPoolFull("pool at capacity and no lower-fee entry to evict")
		}
		p.removeLocked(victim)
		victim.transitionTo(StateEvicted)
	}

	floor := p.feeFloor.MinFee(p.utilizationPct())
	if e.EffectiveFee < floor {
		return errUnderpriced("effective fee below current floor")
	}

	e.State = StateAdmitted
	e.transitionTo(StateReady)
	p.byID[e.TxID] = e
	bySender[e.Nonce] = e
	p.readyPerSender[e.Sender]++
	p.totalBytes += needed
	return nil
}

// lowestFeeLocked picks the cheapest eviction candidate, skipping any entry
// that is the parent nonce of an entry still admitted: evicting nonce k while
// nonce k+1 remains would leave a gap no later transaction can fill, per
// §4.5's nonce-chain protection.
func (p *Pool) lowestFeeLocked() *Entry {
	var lowest *Entry
	for _, e := range p.byID {
		if p.isParentNonceOfAdmittedLocked(e) {
			continue
		}
		if lowest == nil || e.EffectiveFee < lowest.EffectiveFee {
			lowest = e
		}
	}
	return lowest
}

func (p *Pool) isParentNonceOfAdmittedLocked(e *Entry) bool {
	bySender, ok := p.bySenderNonce[e.Sender]
	if !ok {
		return false
	}
	_, hasChild := bySender[e.Nonce+1]
	return hasChild
}

func (p *Pool) removeLocked(e *Entry) {
	delete(p.byID, e.TxID)
	if bySender, ok := p.bySenderNonce[e.Sender]; ok {
		delete(bySender, e.Nonce)
	}
	if p.readyPerSender[e.Sender] > 0 {
		p.readyPerSender[e.Sender]--
	}
	needed := uint64(e.SizeBytes) + uint64(e.BlobSize)
	if p.totalBytes >= needed {
		p.totalBytes -= needed
	} else {
		p.totalBytes = 0
	}
}

// Include marks an entry as committed into a block at height, folding its
// effective fee into the fee floor's EMA and removing it from the pending
// set. A copy of the entry is retained for reorgWindow blocks in case the
// including block is later rolled back (see Reinstate).
func (p *Pool) Include(txID [32]byte, height uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byID[txID]
	if !ok || !e.transitionTo(StateIncluded) {
		return false
	}
	p.feeFloor.Observe(e.EffectiveFee)
	retained := *e
	retained.State = StateIncluded
	p.included[txID] = includedRecord{entry: retained, height: height}
	if height > p.maxIncludedHt {
		p.maxIncludedHt = height
	}
	p.pruneIncludedLocked()
	p.removeLocked(e)
	return true
}

// pruneIncludedLocked drops retained inclusion records older than the reorg
// window: chain.Reorg already refuses anything deeper, so they can never be
// reinstated anyway.
func (p *Pool) pruneIncludedLocked() {
	if p.reorgWindow == 0 || p.maxIncludedHt <= p.reorgWindow {
		return
	}
	cutoff := p.maxIncludedHt - p.reorgWindow
	for id, rec := range p.included {
		if rec.height < cutoff {
			delete(p.included, id)
		}
	}
}

// Reinstate offers rolled-back transactions back to the pool, for each txID
// that Include previously retained a record of: still-valid entries re-enter
// Admitted/Ready, per §4.5's reorg-restoration requirement. It returns how
// many were successfully re-admitted; the rest were either not tracked
// (pruned, or never admitted here to begin with) or are no longer valid
// (e.g. underpriced against the current floor, or superseded by a
// transaction the winning branch already committed at the same nonce).
func (p *Pool) Reinstate(txIDs [][32]byte) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	reinstated := 0
	for _, txID := range txIDs {
		rec, ok := p.included[txID]
		if !ok {
			continue
		}
		delete(p.included, txID)
		entry := rec.entry
		entry.State = StateAdmitted
		entry.ReplacementOf = nil
		if err := p.admitLocked(&entry); err == nil {
			reinstated++
		}
	}
	return reinstated
}

// Expire drops an entry without affecting the fee EMA (it was never
// included, so it carries no information about the market-clearing fee).
func (p *Pool) Expire(txID [32]byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byID[txID]
	if !ok || !e.transitionTo(StateExpired) {
		return false
	}
	p.removeLocked(e)
	return true
}

// Get returns the entry for txID, if present, and whether it was found.
func (p *Pool) Get(txID [32]byte) (Entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.byID[txID]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len reports the number of pending entries.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byID)
}

// SelectReady returns up to limit ready entries in highest-effective-fee-first
// order, for a block producer assembling its next candidate. It does not
// mutate the pool; entries are only removed once Include reports them
// committed.
func (p *Pool) SelectReady(limit int) []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Entry, 0, len(p.byID))
	for _, e := range p.byID {
		if e.State != StateReady {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EffectiveFee != out[j].EffectiveFee {
			return out[i].EffectiveFee > out[j].EffectiveFee
		}
		return lessEntryID(out[i].TxID, out[j].TxID)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func lessEntryID(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
