package node

import (
	"context"
	"errors"
	"time"

	"animica.dev/node/chain"
	"animica.dev/node/crypto"
	"animica.dev/node/da"
	"animica.dev/node/mempool"
	"animica.dev/node/poies"
	"animica.dev/node/policy"
)

// MinerConfig carries the fields a block producer must fill in on every
// header it assembles but that do not come from the candidate's receipts
// or transactions.
type MinerConfig struct {
	MinerIDCommit   [32]byte
	AlgPolicyRoot   [32]byte
	TimestampSource func() uint64
	MaxTxPerBlock   int
}

// MinedBlock is the result of one successful Produce call.
type MinedBlock struct {
	Height    uint64
	Hash      [32]byte
	Timestamp uint64
	TxCount   int
	Result    poies.Result
}

// Miner is a dev-only block producer used for local/devnet bring-up: it
// assembles a candidate from the mempool's ready transactions and a
// caller-supplied receipt set, then hands it to the sync engine for the
// same validation path a remote block would go through. It never forges
// acceptance — an assembled candidate that Validate rejects is simply not
// produced.
type Miner struct {
	chainState *ChainState
	blockStore *BlockStore
	sync       *SyncEngine
	crypto     crypto.Provider
	bundle     policy.Bundle
	daGen      *da.Generator
	pool       *mempool.Pool
	cfg        MinerConfig
}

func DefaultMinerConfig() MinerConfig {
	return MinerConfig{
		TimestampSource: func() uint64 { return uint64(time.Now().Unix()) },
		MaxTxPerBlock:   4096,
	}
}

func NewMiner(
	chainState *ChainState,
	blockStore *BlockStore,
	sync *SyncEngine,
	provider crypto.Provider,
	bundle policy.Bundle,
	daGen *da.Generator,
	pool *mempool.Pool,
	cfg MinerConfig,
) (*Miner, error) {
	if chainState == nil {
		return nil, errors.New("nil chainstate")
	}
	if sync == nil {
		return nil, errors.New("nil sync engine")
	}
	if daGen == nil {
		return nil, errors.New("nil erasure-coding generator")
	}
	if cfg.TimestampSource == nil {
		cfg.TimestampSource = func() uint64 { return uint64(time.Now().Unix()) }
	}
	if cfg.MaxTxPerBlock <= 0 {
		cfg.MaxTxPerBlock = 4096
	}
	return &Miner{
		chainState: chainState,
		blockStore: blockStore,
		sync:       sync,
		crypto:     provider,
		bundle:     bundle,
		daGen:      daGen,
		pool:       pool,
		cfg:        cfg,
	}, nil
}

// Produce assembles a candidate from the given receipts, their evidence,
// and DA blobs around the current tip, submits it to the sync engine, and
// returns the mined block on acceptance. uCommitment is the entropy draw
// for this height — a randomness beacon or VDF output supplied by the
// caller, since this miner does not itself run one.
func (m *Miner) Produce(ctx context.Context, receipts []poies.Receipt, evidence []chain.Evidence, blobs []da.Blob, uCommitment [32]byte) (*MinedBlock, error) {
	if m == nil || m.chainState == nil || m.sync == nil {
		return nil, errors.New("miner is not initialized")
	}

	nextHeight := uint64(0)
	parentHash := [32]byte{}
	if m.chainState.HasTip {
		nextHeight = m.chainState.Height + 1
		parentHash = m.chainState.TipHash
	}

	commitment, err := da.CommitBlobs(m.crypto, m.daGen, blobs)
	if err != nil {
		return nil, err
	}

	var entries []mempool.Entry
	if m.pool != nil {
		entries = m.pool.SelectReady(m.cfg.MaxTxPerBlock)
	}
	txIDs := make([][32]byte, 0, len(entries))
	for _, e := range entries {
		txIDs = append(txIDs, e.TxID)
	}

	header := chain.Header{
		ParentHash:      parentHash,
		Height:          nextHeight,
		Timestamp:       m.cfg.TimestampSource(),
		MinerIDCommit:   m.cfg.MinerIDCommit,
		PolicyRoot:      m.bundle.Root(m.crypto),
		AlgPolicyRoot:   m.cfg.AlgPolicyRoot,
		UCommitment:     uCommitment,
		PsiReceiptsRoot: chain.ReceiptsRoot(m.crypto, receipts),
		DARoot:          commitment.Root,
	}

	cand := chain.Candidate{
		Header:   header,
		Receipts: receipts,
		Evidence: evidence,
		TxIDs:    txIDs,
		DABlobs:  blobs,
	}

	result, err := m.sync.ApplyBlock(ctx, cand, encodeBlockBody(cand))
	if err != nil {
		return nil, err
	}

	return &MinedBlock{
		Height:    nextHeight,
		Hash:      header.Hash(m.crypto),
		Timestamp: header.Timestamp,
		TxCount:   len(txIDs),
		Result:    result,
	}, nil
}
