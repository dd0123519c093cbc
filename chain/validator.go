package chain

import (
	"context"

	"animica.dev/node/consensus"
	"animica.dev/node/crypto"
	"animica.dev/node/da"
	"animica.dev/node/mempool"
	"animica.dev/node/nullifier"
	"animica.dev/node/poies"
	"animica.dev/node/policy"
)

// Evidence carries whatever bytes a receipt's type needs the crypto oracle
// to verify. Exactly one of the PQ-sig, ZK, or VDF fields is populated,
// selected by the paired receipt's Type.
type Evidence struct {
	Alg    crypto.AlgID
	PubKey []byte
	Sig    []byte

	VKID         string
	ZKProof      []byte
	PublicInputs []byte

	VDFParams crypto.VDFParams
	VDFInput  []byte
	VDFOutput []byte
	VDFProof  []byte
}

// Candidate is a fully-assembled block awaiting validation: a header, its
// verified-pending proof receipts with their raw evidence, the
// transactions it commits, and the DA blobs it publishes.
type Candidate struct {
	Header       Header
	Receipts     []poies.Receipt
	Evidence     []Evidence // parallel to Receipts
	TxIDs        [][32]byte
	DABlobs      []da.Blob
}

// Validator drives the seven-component pipeline over one candidate block.
// It owns no persistent state itself — the nullifier index, mempool, and
// branch DAG it's handed are the single writer's actual state, mutated
// only once every check has passed.
type Validator struct {
	Crypto     crypto.Provider
	Nullifiers *nullifier.Index
	PolicyMap  poies.PolicyMap
	Bundle     policy.Bundle
	DAG        *DAG
	Pool       *mempool.Pool
	DAGen      *da.Generator
	Workers    *WorkerPool
	HMax       poies.MicroNat
}

// Validate runs the full pipeline. On any failure it returns the
// first-discovered typed rejection and mutates nothing.
func (v *Validator) Validate(ctx context.Context, cand Candidate) (poies.Result, error) {
	// 1. Stateless: parent known, policy_root pinned correctly.
	if _, ok := v.DAG.Height(cand.Header.ParentHash); !ok {
		return poies.Result{}, consensus.Reject(consensus.ErrBadEncoding, "unknown parent block")
	}
	wantRoot := v.Bundle.Root(v.Crypto)
	if cand.Header.PolicyRoot != wantRoot {
		return poies.Result{}, consensus.Reject(consensus.ErrPolicyRootMismatch, "header policy_root does not match active bundle")
	}

	// 2. Crypto verification, dispatched to the worker pool; a join
	// barrier blocks until every receipt's evidence has been checked.
	if err := v.verifyEvidence(ctx, cand); err != nil {
		return poies.Result{}, err
	}

	// 3. Nullifier non-membership.
	for _, r := range cand.Receipts {
		if v.Nullifiers.Contains(r.Nullifier) {
			return poies.Result{}, consensus.Reject(consensus.ErrNullifierReuse, "nullifier already live")
		}
	}

	// 4 & 5. Score and accept.
	result, err := poies.Score(cand.Header.UCommitment, cand.Receipts, v.PolicyMap, v.Bundle)
	if err != nil {
		return poies.Result{}, err
	}
	if !poies.Accept(result.Score, v.Bundle.ThetaTarget) {
		return poies.Result{}, consensus.Reject(consensus.ErrScoreBelowTheta, "score below acceptance threshold")
	}

	// 6. DA root match.
	commitment, err := da.CommitBlobs(v.Crypto, v.DAGen, cand.DABlobs)
	if err != nil {
		return poies.Result{}, err
	}
	if commitment.Root != cand.Header.DARoot {
		return poies.Result{}, consensus.Reject(consensus.ErrDaRootMismatch, "header DA root does not match computed NMT root")
	}

	// 7. Mempool ingress: commit transactions, folding their fees into
	// the EMA floor.
	for _, txID := range cand.TxIDs {
		v.Pool.Include(txID, cand.Header.Height)
	}

	// 8. Commit: nullifier window, branch DAG weight.
	nullifiers := make([][32]byte, 0, len(cand.Receipts))
	for _, r := range cand.Receipts {
		nullifiers = append(nullifiers, r.Nullifier)
	}
	if err := v.Nullifiers.InsertBatch(nullifiers, cand.Header.Height); err != nil {
		return poies.Result{}, err
	}

	weight := BlockWeight(result.Score, v.Bundle.GammaTotalCap, v.HMax)
	blockHash := cand.Header.Hash(v.Crypto)
	if _, err := v.DAG.AddBlock(blockHash, cand.Header.ParentHash, cand.Header.Height, weight); err != nil {
		return poies.Result{}, err
	}

	return result, nil
}

func (v *Validator) verifyEvidence(ctx context.Context, cand Candidate) error {
	if len(cand.Receipts) != len(cand.Evidence) {
		return consensus.Reject(consensus.ErrBadEncoding, "receipt/evidence count mismatch")
	}
	jobs := make([]job, 0, len(cand.Receipts))
	for i := range cand.Receipts {
		r := cand.Receipts[i]
		ev := cand.Evidence[i]
		jobs = append(jobs, func(ctx context.Context) error {
			return v.verifyOne(ctx, r, ev)
		})
	}
	return v.Workers.RunBatch(ctx, jobs)
}

func (v *Validator) verifyOne(ctx context.Context, r poies.Receipt, ev Evidence) error {
	switch r.Type {
	case policy.ProofZK:
		ok, err := v.Crypto.VerifyZK(ctx, ev.VKID, ev.ZKProof, ev.PublicInputs)
		if err == crypto.ErrOversizeProof {
			return consensus.Wrap(consensus.ErrOversizeProof, "zk proof exceeds size limit", err)
		}
		if err != nil {
			return consensus.Wrap(consensus.ErrZkVerifyFailed, "zk verification error", err)
		}
		if !ok {
			return consensus.Reject(consensus.ErrZkVerifyFailed, "zk proof did not verify")
		}
	case policy.ProofVDF:
		ok, err := v.Crypto.VerifyVDF(ctx, ev.VDFParams, ev.VDFInput, ev.VDFOutput, ev.VDFProof)
		if err == crypto.ErrOversizeProof {
			return consensus.Wrap(consensus.ErrOversizeProof, "vdf proof exceeds size limit", err)
		}
		if err != nil {
			return consensus.Wrap(consensus.ErrVdfVerifyFailed, "vdf verification error", err)
		}
		if !ok {
			return consensus.Reject(consensus.ErrVdfVerifyFailed, "vdf proof did not verify")
		}
	default:
		ok, err := v.Crypto.VerifyPQSig(ctx, ev.Alg, ev.PubKey, r.EvidenceHash[:], ev.Sig)
		if err == crypto.ErrOversizeProof {
			return consensus.Wrap(consensus.ErrOversizeProof, "pq signature input exceeds size limit", err)
		}
		if err != nil {
			return consensus.Wrap(consensus.ErrSigVerifyFailed, "pq signature verification error", err)
		}
		if !ok {
			return consensus.Reject(consensus.ErrSigVerifyFailed, "pq signature did not verify")
		}
	}
	return nil
}
