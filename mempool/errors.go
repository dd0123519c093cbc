package mempool

import "animica.dev/node/consensus"

func errUnderpriced(msg string) error {
	return consensus.Reject(consensus.ErrUnderpriced, msg)
}

func errReplacementUnderpriced(msg string) error {
	return consensus.Reject(consensus.ErrReplacementUnderpriced, msg)
}

func errSenderQuotaExceeded(msg string) error {
	return consensus.Reject(consensus.ErrSenderQuotaExceeded, msg)
}

func errPoolFull(msg string) error {
	return consensus.Reject(consensus.ErrPoolFull, msg)
}

func errBadEncoding(msg string) error {
	return consensus.Reject(consensus.ErrBadEncoding, msg)
}
