package chain

import "animica.dev/node/consensus"

var (
	errUnknownParent  = consensus.Reject(consensus.ErrBadEncoding, "branch DAG: unknown parent block")
	errDuplicateBlock = consensus.Reject(consensus.ErrBadEncoding, "branch DAG: block hash already present")
)
