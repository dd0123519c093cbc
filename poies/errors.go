package poies

import "errors"

var (
	ErrZeroEntropyDraw   = errors.New("poies: u is zero, hard rejection")
	ErrDomainTagMismatch = errors.New("poies: domain-separated digest out of range")
	ErrUnknownProofType  = errors.New("poies: unknown proof type")
	ErrCapViolation      = errors.New("poies: capping invariant violated")
	ErrPolicyRootMismatch = errors.New("poies: receipt policy_tag does not match active policy_root")
)
