package node

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"animica.dev/node/chain"
	"animica.dev/node/crypto"
	"animica.dev/node/difficulty"
	"animica.dev/node/poies"
)

const defaultIBDLagSeconds = 24 * 60 * 60

type SyncConfig struct {
	ChainStatePath string
	BlockBatchLimit uint64
	IBDLagSeconds   uint64
}

type HeaderRequest struct {
	FromHash [32]byte
	HasFrom  bool
	Limit    uint64
}

// SyncEngine is the node's single entry point for turning a candidate block
// into a durably-recorded chain extension (or reorg): it drives
// chain.Validator for acceptance, chain.Reorg (through Reorg) when a
// heavier branch supersedes the current head, and difficulty.Controller's
// interval EMA, persisting the result to ChainState/BlockStore only after
// validation has already succeeded. It does not retarget Θ: Controller's
// Retarget is never called here, and every block is validated against the
// bundle's ThetaTarget.
type SyncEngine struct {
	chainState *ChainState
	blockStore *BlockStore
	validator  *chain.Validator
	reorg      *chain.Reorg
	ctrl       *difficulty.Controller
	crypto     crypto.Provider
	cfg        SyncConfig

	mu              sync.RWMutex
	tipTimestamp    uint64
	bestKnownHeight uint64
}

func DefaultSyncConfig(chainStatePath string) SyncConfig {
	return SyncConfig{
		BlockBatchLimit: 512,
		IBDLagSeconds:   defaultIBDLagSeconds,
		ChainStatePath:  chainStatePath,
	}
}

func NewSyncEngine(
	chainState *ChainState,
	blockStore *BlockStore,
	validator *chain.Validator,
	reorg *chain.Reorg,
	ctrl *difficulty.Controller,
	provider crypto.Provider,
	cfg SyncConfig,
) (*SyncEngine, error) {
	if chainState == nil {
		return nil, errors.New("nil chainstate")
	}
	if validator == nil {
		return nil, errors.New("nil validator")
	}
	if cfg.BlockBatchLimit == 0 {
		cfg.BlockBatchLimit = 512
	}
	if cfg.IBDLagSeconds == 0 {
		cfg.IBDLagSeconds = defaultIBDLagSeconds
	}
	return &SyncEngine{
		chainState: chainState,
		blockStore: blockStore,
		validator:  validator,
		reorg:      reorg,
		ctrl:       ctrl,
		crypto:     provider,
		cfg:        cfg,
	}, nil
}

func (s *SyncEngine) HeaderSyncRequest() HeaderRequest {
	if s == nil || s.chainState == nil {
		return HeaderRequest{}
	}
	if !s.chainState.HasTip {
		return HeaderRequest{HasFrom: false, Limit: s.cfg.BlockBatchLimit}
	}
	return HeaderRequest{FromHash: s.chainState.TipHash, HasFrom: true, Limit: s.cfg.BlockBatchLimit}
}

func (s *SyncEngine) RecordBestKnownHeight(height uint64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if height > s.bestKnownHeight {
		s.bestKnownHeight = height
	}
}

func (s *SyncEngine) BestKnownHeight() uint64 {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bestKnownHeight
}

func (s *SyncEngine) IsInIBD(nowUnix uint64) bool {
	if s == nil || s.chainState == nil {
		return true
	}
	if !s.chainState.HasTip {
		return true
	}
	s.mu.RLock()
	tipTimestamp := s.tipTimestamp
	ibdLag := s.cfg.IBDLagSeconds
	s.mu.RUnlock()
	if nowUnix < tipTimestamp {
		return true
	}
	return nowUnix-tipTimestamp > ibdLag
}

// ApplyBlock validates cand, and only on acceptance commits it: records the
// header/body in the block store, advances the chain-state tip, and folds
// the inter-block interval into the difficulty controller's EMA. Nothing is
// written to disk unless Validate itself has already accepted the block —
// the chain-state snapshot this function keeps is only for the narrow
// window between a successful Validate and a failed disk write.
func (s *SyncEngine) ApplyBlock(ctx context.Context, cand chain.Candidate, bodyBytes []byte) (poies.Result, error) {
	var zero poies.Result
	if s == nil || s.chainState == nil {
		return zero, errors.New("sync engine is not initialized")
	}

	result, err := s.validator.Validate(ctx, cand)
	if err != nil {
		return zero, err
	}

	blockHash := cand.Header.Hash(s.crypto)

	snapshot := *s.chainState
	if s.chainState.LambdaObsMicros != nil {
		snapshot.LambdaObsMicros = new(big.Int).Set(s.chainState.LambdaObsMicros)
	}
	s.mu.RLock()
	oldTipTimestamp := s.tipTimestamp
	oldBestKnown := s.bestKnownHeight
	s.mu.RUnlock()

	if s.ctrl != nil && s.chainState.HasTip && cand.Header.Timestamp > oldTipTimestamp {
		s.ctrl.Observe(cand.Header.Timestamp - oldTipTimestamp)
	}

	rollback := func(cause error) error {
		*s.chainState = snapshot
		s.mu.Lock()
		s.tipTimestamp = oldTipTimestamp
		s.bestKnownHeight = oldBestKnown
		s.mu.Unlock()
		return cause
	}

	if s.blockStore != nil {
		if err := s.blockStore.PutBlock(cand.Header.Height, blockHash, cand.Header, bodyBytes); err != nil {
			return zero, rollback(fmt.Errorf("put block: %w", err))
		}
	}

	s.chainState.Advance(cand.Header.Height, blockHash, s.validator.Bundle.ThetaTarget, snapshot.LambdaObsMicros)
	if s.cfg.ChainStatePath != "" {
		if err := s.chainState.Save(s.cfg.ChainStatePath); err != nil {
			return zero, rollback(fmt.Errorf("save chainstate: %w", err))
		}
	}

	s.mu.Lock()
	s.tipTimestamp = cand.Header.Timestamp
	if cand.Header.Height > s.bestKnownHeight {
		s.bestKnownHeight = cand.Header.Height
	}
	s.mu.Unlock()
	return result, nil
}

// Reorg switches the canonical tip from currentHead to newHead through the
// node's chain.Reorg engine, then prunes the losing branch. Transactions
// from the abandoned blocks are offered back to the mempool (§4.5: rolled-
// back transactions re-enter Admitted if still valid) after the stale
// branch is pruned from the DAG.
func (s *SyncEngine) Reorg(currentHead, newHead, staleBranchRoot [32]byte, forkHeight uint64) error {
	if s == nil || s.reorg == nil {
		return errors.New("sync engine has no reorg engine configured")
	}
	rolledBack, err := s.collectRolledBackTxIDs(currentHead, forkHeight)
	if err != nil {
		return fmt.Errorf("reorg: %w", err)
	}
	if err := s.reorg.Apply(currentHead, newHead, forkHeight); err != nil {
		return err
	}
	if s.blockStore != nil {
		if err := s.blockStore.RewindToHeight(forkHeight); err != nil {
			return err
		}
	}
	s.reorg.Prune(staleBranchRoot)
	if s.validator != nil && s.validator.Pool != nil {
		s.validator.Pool.Reinstate(rolledBack)
	}
	return nil
}

// collectRolledBackTxIDs walks the losing branch from currentHead back down
// to (but excluding) forkHeight, gathering every transaction id the blocks
// being orphaned had committed, so Reorg can offer them back to the pool.
func (s *SyncEngine) collectRolledBackTxIDs(currentHead [32]byte, forkHeight uint64) ([][32]byte, error) {
	if s.blockStore == nil {
		return nil, nil
	}
	var txIDs [][32]byte
	hash := currentHead
	for {
		header, err := s.blockStore.GetHeaderByHash(hash)
		if err != nil {
			return nil, fmt.Errorf("load rolled-back header: %w", err)
		}
		if header.Height <= forkHeight {
			break
		}
		body, err := s.blockStore.GetBlockByHash(hash)
		if err != nil {
			return nil, fmt.Errorf("load rolled-back body: %w", err)
		}
		ids, err := decodeBlockBody(body)
		if err != nil {
			return nil, fmt.Errorf("decode rolled-back body: %w", err)
		}
		txIDs = append(txIDs, ids...)
		if header.Height <= forkHeight+1 {
			break
		}
		hash = header.ParentHash
	}
	return txIDs, nil
}
