package node

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"animica.dev/node/chain"
)

const blockStoreFileName = "blockstore.db"

var (
	headersBucket   = []byte("headers")
	bodiesBucket    = []byte("bodies")
	canonicalBucket = []byte("canonical")
)

// BlockStore is the append-mostly, bbolt-backed home for headers, opaque
// block bodies (kept as whatever encoding the caller already produced; the
// node stores transaction ids and raw DA blob payloads, see
// encodeBlockBody), and the canonical
// height->hash index. Every mutation happens inside one bolt transaction,
// so a crash mid-write never leaves the index pointing at a header that
// was never durably stored.
type BlockStore struct {
	db *bbolt.DB
}

func BlockStorePath(dataDir string) string {
	return filepath.Join(dataDir, blockStoreFileName)
}

func OpenBlockStore(path string) (*BlockStore, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open blockstore db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{headersBucket, bodiesBucket, canonicalBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BlockStore{db: db}, nil
}

func (bs *BlockStore) Close() error {
	if bs == nil || bs.db == nil {
		return nil
	}
	return bs.db.Close()
}

// PutBlock stores a header and its opaque body bytes keyed by the header's
// own hash, then advances the canonical index to point at it. header must
// already have been fully validated by chain.Validator — this call only
// records the result.
func (bs *BlockStore) PutBlock(height uint64, blockHash [32]byte, header chain.Header, bodyBytes []byte) error {
	if bs == nil || bs.db == nil {
		return errors.New("nil blockstore")
	}
	return bs.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(headersBucket).Put(blockHash[:], header.Bytes()); err != nil {
			return err
		}
		if err := tx.Bucket(bodiesBucket).Put(blockHash[:], bodyBytes); err != nil {
			return err
		}
		return setCanonicalTipTx(tx, height, blockHash)
	})
}

// SetCanonicalTip records blockHash as the canonical block at height,
// truncating anything previously recorded above it (a reorg overwrite).
func (bs *BlockStore) SetCanonicalTip(height uint64, blockHash [32]byte) error {
	if bs == nil || bs.db == nil {
		return errors.New("nil blockstore")
	}
	return bs.db.Update(func(tx *bbolt.Tx) error {
		return setCanonicalTipTx(tx, height, blockHash)
	})
}

func setCanonicalTipTx(tx *bbolt.Tx, height uint64, blockHash [32]byte) error {
	b := tx.Bucket(canonicalBucket)
	if err := b.Put(heightKey(height), blockHash[:]); err != nil {
		return err
	}
	// Drop any stale canonical entries above the new tip, left over from a
	// branch this call is superseding.
	c := b.Cursor()
	for k, _ := c.Seek(heightKey(height + 1)); k != nil; k, _ = c.Next() {
		if err := c.Delete(); err != nil {
			return err
		}
	}
	return nil
}

// RewindToHeight drops every canonical entry above height, used by the reorg
// engine after a rollback before the winning branch's blocks are re-applied.
func (bs *BlockStore) RewindToHeight(height uint64) error {
	if bs == nil || bs.db == nil {
		return errors.New("nil blockstore")
	}
	return bs.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(canonicalBucket)
		c := b.Cursor()
		for k, _ := c.Seek(heightKey(height + 1)); k != nil; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (bs *BlockStore) CanonicalHash(height uint64) ([32]byte, bool, error) {
	var out [32]byte
	var ok bool
	if bs == nil || bs.db == nil {
		return out, false, errors.New("nil blockstore")
	}
	err := bs.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(canonicalBucket).Get(heightKey(height))
		if raw == nil {
			return nil
		}
		copy(out[:], raw)
		ok = true
		return nil
	})
	if err != nil {
		return out, false, err
	}
	return out, ok, nil
}

// Tip returns the highest canonical height recorded and its hash.
func (bs *BlockStore) Tip() (uint64, [32]byte, bool, error) {
	var hash [32]byte
	var height uint64
	var ok bool
	if bs == nil || bs.db == nil {
		return 0, hash, false, errors.New("nil blockstore")
	}
	err := bs.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(canonicalBucket).Cursor()
		k, v := c.Last()
		if k == nil {
			return nil
		}
		height = binary.BigEndian.Uint64(k)
		copy(hash[:], v)
		ok = true
		return nil
	})
	if err != nil {
		return 0, hash, false, err
	}
	return height, hash, ok, nil
}

func (bs *BlockStore) GetBlockByHash(blockHash [32]byte) ([]byte, error) {
	if bs == nil || bs.db == nil {
		return nil, errors.New("nil blockstore")
	}
	var out []byte
	err := bs.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bodiesBucket).Get(blockHash[:])
		if raw == nil {
			return fmt.Errorf("no body for block %x", blockHash)
		}
		out = append([]byte(nil), raw...)
		return nil
	})
	return out, err
}

func (bs *BlockStore) GetHeaderByHash(blockHash [32]byte) (chain.Header, error) {
	if bs == nil || bs.db == nil {
		return chain.Header{}, errors.New("nil blockstore")
	}
	var h chain.Header
	err := bs.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(headersBucket).Get(blockHash[:])
		if raw == nil {
			return fmt.Errorf("no header for block %x", blockHash)
		}
		parsed, err := chain.ParseHeaderBytes(raw)
		if err != nil {
			return err
		}
		h = parsed
		return nil
	})
	return h, err
}

func heightKey(height uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	return buf[:]
}
