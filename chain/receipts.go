package chain

import (
	"encoding/binary"
	"sort"

	"animica.dev/node/crypto"
	"animica.dev/node/poies"
)

// ReceiptsRoot commits to a block's receipt set in the same canonical
// (type, nullifier) order poies.Score processes them in, so the header's
// PsiReceiptsRoot and the scorer always agree on receipt ordering
// regardless of validation or gossip order.
func ReceiptsRoot(h crypto.Provider, receipts []poies.Receipt) [32]byte {
	ordered := make([]poies.Receipt, len(receipts))
	copy(ordered, receipts)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Type != ordered[j].Type {
			return ordered[i].Type < ordered[j].Type
		}
		return lessReceiptBytes(ordered[i].Nullifier, ordered[j].Nullifier)
	})

	leaves := make([][32]byte, 0, len(ordered))
	for _, r := range ordered {
		leaves = append(leaves, receiptLeafHash(h, r))
	}
	return merkleFold(h, leaves)
}

func receiptLeafHash(h crypto.Provider, r poies.Receipt) [32]byte {
	buf := make([]byte, 0, 1+32+32+32)
	buf = append(buf, byte(r.Type))
	buf = append(buf, r.EvidenceHash[:]...)
	buf = append(buf, r.Nullifier[:]...)
	buf = append(buf, r.PolicyTag[:]...)
	var psi [8]byte
	binary.BigEndian.PutUint64(psi[:], r.PsiClaim)
	buf = append(buf, psi[:]...)
	return h.Hash(crypto.DomainMerkleLeaf, buf)
}

func merkleFold(h crypto.Provider, leaves [][32]byte) [32]byte {
	if len(leaves) == 0 {
		return h.Hash(crypto.DomainMerkleLeaf, nil)
	}
	level := leaves
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			buf := make([]byte, 0, 64)
			buf = append(buf, level[i][:]...)
			buf = append(buf, level[i+1][:]...)
			next = append(next, h.Hash(crypto.DomainMerkleInternal, buf))
		}
		level = next
	}
	return level[0]
}

func lessReceiptBytes(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
