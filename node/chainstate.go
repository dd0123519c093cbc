package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	chainStateDiskVersion = 1
	chainStateFileName    = "chainstate.db"
)

var chainStateBucket = []byte("chainstate")
var chainStateKey = []byte("state")

// ChainState is the tip pointer and difficulty-controller EMA this node
// needs to resume validating after a restart: everything else (branch
// structure, nullifier window, mempool) is either reconstructed by replaying
// the block store or is allowed to start cold, same as the teacher's own
// UTXO set used to be the only thing worth persisting across restarts.
type ChainState struct {
	HasTip            bool
	Height            uint64
	TipHash           [32]byte
	CurrentTheta      uint64
	LambdaObsMicros   *big.Int
}

type chainStateDisk struct {
	Version         uint32 `json:"version"`
	HasTip          bool   `json:"has_tip"`
	Height          uint64 `json:"height"`
	TipHash         string `json:"tip_hash"`
	CurrentTheta    uint64 `json:"current_theta"`
	LambdaObsMicros string `json:"lambda_obs_micros"`
}

func NewChainState() *ChainState {
	return &ChainState{LambdaObsMicros: big.NewInt(0)}
}

func ChainStatePath(dataDir string) string {
	return filepath.Join(dataDir, chainStateFileName)
}

// LoadChainState opens (creating if absent) the bbolt-backed chain-state
// database at path and decodes its single versioned record, or returns a
// fresh zero-value state if none has been written yet.
func LoadChainState(path string) (*ChainState, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open chainstate db: %w", err)
	}
	defer db.Close()

	var state *ChainState
	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(chainStateBucket)
		if err != nil {
			return err
		}
		raw := b.Get(chainStateKey)
		if raw == nil {
			state = NewChainState()
			return nil
		}
		var disk chainStateDisk
		if err := json.Unmarshal(raw, &disk); err != nil {
			return fmt.Errorf("decode chainstate: %w", err)
		}
		state, err = chainStateFromDisk(disk)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Save persists the state as a single versioned record in one bolt
// transaction: either the whole record lands or none of it does.
func (s *ChainState) Save(path string) error {
	if s == nil {
		return errors.New("nil chainstate")
	}
	disk := stateToDisk(s)
	raw, err := json.Marshal(disk)
	if err != nil {
		return fmt.Errorf("encode chainstate: %w", err)
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("open chainstate db: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(chainStateBucket)
		if err != nil {
			return err
		}
		return b.Put(chainStateKey, raw)
	})
}

// Advance records a newly-accepted block's tip position and the acceptance
// threshold in force (theta). Called after chain.Validator has
// already accepted the candidate — this never itself validates anything.
func (s *ChainState) Advance(height uint64, tipHash [32]byte, theta uint64, lambdaObsMicros *big.Int) {
	s.HasTip = true
	s.Height = height
	s.TipHash = tipHash
	s.CurrentTheta = theta
	if lambdaObsMicros != nil {
		s.LambdaObsMicros = new(big.Int).Set(lambdaObsMicros)
	}
}

func stateToDisk(s *ChainState) chainStateDisk {
	lambda := "0"
	if s.LambdaObsMicros != nil {
		lambda = s.LambdaObsMicros.String()
	}
	return chainStateDisk{
		Version:         chainStateDiskVersion,
		HasTip:          s.HasTip,
		Height:          s.Height,
		TipHash:         hexEncode(s.TipHash[:]),
		CurrentTheta:    s.CurrentTheta,
		LambdaObsMicros: lambda,
	}
}

func chainStateFromDisk(disk chainStateDisk) (*ChainState, error) {
	if disk.Version != chainStateDiskVersion {
		return nil, fmt.Errorf("unsupported chainstate version: %d", disk.Version)
	}
	tipHash, err := parseHex32("tip_hash", disk.TipHash)
	if err != nil {
		return nil, err
	}
	lambda, ok := new(big.Int).SetString(disk.LambdaObsMicros, 10)
	if !ok {
		return nil, fmt.Errorf("invalid lambda_obs_micros: %q", disk.LambdaObsMicros)
	}
	return &ChainState{
		HasTip:          disk.HasTip,
		Height:          disk.Height,
		TipHash:         tipHash,
		CurrentTheta:    disk.CurrentTheta,
		LambdaObsMicros: lambda,
	}, nil
}
