package node

import (
	"encoding/binary"
	"fmt"

	"animica.dev/node/chain"
)

// encodeBlockBody serializes a candidate's transaction ids and DA blob
// payloads into the opaque bytes BlockStore persists alongside a header.
// The encoding is internal storage layout, not a consensus wire format —
// nothing outside this node ever parses it back except GetBlockByHash
// callers within this same process.
func encodeBlockBody(cand chain.Candidate) []byte {
	buf := make([]byte, 0, 8+len(cand.TxIDs)*32+len(cand.DABlobs)*64)
	buf = appendU32(buf, uint32(len(cand.TxIDs)))
	for _, id := range cand.TxIDs {
		buf = append(buf, id[:]...)
	}
	buf = appendU32(buf, uint32(len(cand.DABlobs)))
	for _, b := range cand.DABlobs {
		buf = appendU32(buf, uint32(len(b.Payload)))
		buf = append(buf, b.Payload...)
	}
	return buf
}

// decodeBlockBody is encodeBlockBody's inverse, used only by the reorg path
// to recover a rolled-back block's transaction ids so they can be offered
// back to the mempool. DA blob payloads are skipped over but not returned:
// nothing currently needs them back.
func decodeBlockBody(raw []byte) ([][32]byte, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("block body: truncated tx count")
	}
	txCount := binary.BigEndian.Uint32(raw)
	raw = raw[4:]
	txIDs := make([][32]byte, 0, txCount)
	for i := uint32(0); i < txCount; i++ {
		if len(raw) < 32 {
			return nil, fmt.Errorf("block body: truncated tx id %d", i)
		}
		var id [32]byte
		copy(id[:], raw[:32])
		txIDs = append(txIDs, id)
		raw = raw[32:]
	}
	return txIDs, nil
}

func appendU32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}
