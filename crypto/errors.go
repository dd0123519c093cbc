package crypto

import "errors"

// ErrOversizeProof is returned (never panicked) when an input exceeds the
// active SizeLimits. chain.Validator turns this into the consensus-level
// OversizeProof rejection.
var ErrOversizeProof = errors.New("crypto: input exceeds configured size limit")

// ErrUnknownAlg is returned when VerifyPQSig is asked to dispatch on an
// AlgID the provider does not implement.
var ErrUnknownAlg = errors.New("crypto: unknown PQ signature algorithm id")

// ErrUnknownVK is returned when VerifyZK references a vk_id with no
// registered verifying key.
var ErrUnknownVK = errors.New("crypto: unknown verifying key id")

// ErrMalformedVDFParams is returned when VDFParams cannot be parsed into a
// usable modulus (e.g. a non-hex or zero modulus).
var ErrMalformedVDFParams = errors.New("crypto: malformed vdf parameters")
