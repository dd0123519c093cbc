package da

import "errors"

var (
	errSingularMatrix  = errors.New("da: singular generator submatrix")
	errNotEnoughShares = errors.New("da: fewer than k shares available")
	errShapeMismatch   = errors.New("da: share length/count does not match profile")
	errBadNamespace    = errors.New("da: leaves are not namespace-ordered")
)

// ErrWithheld is returned by sampling when too few shares answered to
// reach the configured confidence — the caller should treat the blob as
// probably unavailable, not malformed.
var ErrWithheld = errors.New("da: insufficient shares sampled, blob likely withheld")
