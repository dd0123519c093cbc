package da

// Systematic Reed-Solomon erasure coding over GF(256): k data shares
// produce n >= k total shares, any k of which reconstruct the original
// payload. No erasure-coding library exists anywhere in the reference
// corpus this codebase draws its dependency stack from, so this is a
// deliberate, from-scratch stdlib implementation — see the design notes
// for the justification.
//
// The generator matrix is built as a Vandermonde matrix normalized so its
// first k rows are the identity: share[i] for i < k is byte-identical to
// data chunk i (systematic), and share[i] for i >= k is a parity
// combination. This lets a client holding any k of the n shares —
// systematic or parity — recover the original k data chunks by inverting
// the k*k submatrix selecting the rows it holds.
type Generator struct {
	k, n int
	rows matrix // n x k
}

// NewGenerator builds the generator matrix for a (k, n) profile. The
// matrix depends only on (k, n), never on data, so it is built once per
// profile and reused for every blob under it.
func NewGenerator(k, n int) (*Generator, error) {
	if k <= 0 || n < k {
		return nil, errShapeMismatch
	}
	vander := newMatrix(n, k)
	for i := 0; i < n; i++ {
		x := byte(i + 1) // avoid row value 0, which would make gfPow degenerate
		for j := 0; j < k; j++ {
			vander[i][j] = gfPow(x, j)
		}
	}
	top := make(matrix, k)
	for i := 0; i < k; i++ {
		top[i] = vander[i]
	}
	topInv, err := top.invert()
	if err != nil {
		return nil, err
	}
	return &Generator{k: k, n: n, rows: vander.mul(topInv)}, nil
}

// Encode splits payload into k equal-length chunks (zero-padded to a
// common length) and produces n shares, each len(chunk) bytes.
func (g *Generator) Encode(payload []byte) ([][]byte, error) {
	chunkLen := (len(payload) + g.k - 1) / g.k
	if chunkLen == 0 {
		chunkLen = 1
	}
	padded := make([]byte, chunkLen*g.k)
	copy(padded, payload)

	chunks := make([][]byte, g.k)
	for i := 0; i < g.k; i++ {
		chunks[i] = padded[i*chunkLen : (i+1)*chunkLen]
	}

	shares := make([][]byte, g.n)
	for i := 0; i < g.n; i++ {
		share := make([]byte, chunkLen)
		for j := 0; j < g.k; j++ {
			coef := g.rows[i][j]
			if coef == 0 {
				continue
			}
			for b := 0; b < chunkLen; b++ {
				share[b] = gfAdd(share[b], gfMul(coef, chunks[j][b]))
			}
		}
		shares[i] = share
	}
	return shares, nil
}

// Reconstruct recovers the original k data chunks (concatenated, still
// zero-padded to chunkLen*k) from any k shares, identified by their row
// index in [0, n).
func (g *Generator) Reconstruct(haveIdx []int, haveShares [][]byte) ([]byte, error) {
	if len(haveIdx) < g.k || len(haveShares) < g.k {
		return nil, errNotEnoughShares
	}
	idx := haveIdx[:g.k]
	shares := haveShares[:g.k]
	chunkLen := len(shares[0])

	sub := newMatrix(g.k, g.k)
	for i, row := range idx {
		if row < 0 || row >= g.n {
			return nil, errShapeMismatch
		}
		copy(sub[i], g.rows[row])
	}
	subInv, err := sub.invert()
	if err != nil {
		return nil, err
	}

	out := make([]byte, g.k*chunkLen)
	for outRow := 0; outRow < g.k; outRow++ {
		dst := out[outRow*chunkLen : (outRow+1)*chunkLen]
		for j := 0; j < g.k; j++ {
			coef := subInv[outRow][j]
			if coef == 0 {
				continue
			}
			share := shares[j]
			for b := 0; b < chunkLen; b++ {
				dst[b] = gfAdd(dst[b], gfMul(coef, share[b]))
			}
		}
	}
	return out, nil
}

func (g *Generator) K() int { return g.k }
func (g *Generator) N() int { return g.n }
