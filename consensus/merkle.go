package consensus

import "golang.org/x/crypto/sha3"

const receiptsCommitmentPrefix = "ANIMICA-RECEIPTS/"

func sha3_256(b []byte) [32]byte {
	return sha3.Sum256(b)
}

// MerkleRootLeaves computes the transactions-root / DA-leaf-free merkle
// root over an ordered list of 32-byte leaf ids (transaction ids, or any
// other canonically-ordered id set a header commits to), using
// domain-separated leaf and internal-node tags so a leaf digest can never
// be mistaken for an internal node digest.
func MerkleRootLeaves(ids [][32]byte) ([32]byte, error) {
	return merkleRootTagged(ids, 0x00, 0x01)
}

// ReceiptsMerkleRoot computes a merkle root over receipt nullifiers, taken
// in the order given, with its own leaf/node tags; an empty list yields the
// zero root. Headers do not use it: their PsiReceiptsRoot is computed by
// chain.ReceiptsRoot.
func ReceiptsMerkleRoot(nullifiers [][32]byte) ([32]byte, error) {
	var zero [32]byte
	if len(nullifiers) == 0 {
		return zero, nil
	}
	return merkleRootTagged(nullifiers, 0x02, 0x03)
}

// ReceiptsCommitmentHash binds a receipts merkle root under a fixed,
// versioned domain prefix distinct from the plain transactions root, so
// the two commitments can never collide even if one block happened to
// produce an identical root value for both.
func ReceiptsCommitmentHash(receiptsRoot [32]byte) [32]byte {
	buf := make([]byte, 0, len(receiptsCommitmentPrefix)+32)
	buf = append(buf, receiptsCommitmentPrefix...)
	buf = append(buf, receiptsRoot[:]...)
	return sha3_256(buf)
}

func merkleRootTagged(ids [][32]byte, leafTag byte, nodeTag byte) ([32]byte, error) {
	var zero [32]byte
	if len(ids) == 0 {
		return zero, Reject(ErrBadEncoding, "merkle: empty id list")
	}

	level := make([][32]byte, 0, len(ids))
	var leafPreimage [1 + 32]byte
	leafPreimage[0] = leafTag
	for _, id := range ids {
		copy(leafPreimage[1:], id[:])
		level = append(level, sha3_256(leafPreimage[:]))
	}

	var nodePreimage [1 + 32 + 32]byte
	nodePreimage[0] = nodeTag
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); {
			if i == len(level)-1 {
				// Odd promotion rule: carry forward unchanged.
				next = append(next, level[i])
				i++
				continue
			}
			copy(nodePreimage[1:33], level[i][:])
			copy(nodePreimage[33:], level[i+1][:])
			next = append(next, sha3_256(nodePreimage[:]))
			i += 2
		}
		level = next
	}

	return level[0], nil
}
