// Package consensus holds the wire-format, error, and cryptographic
// bookkeeping shared by every consensus-core component: canonical binary
// encoding, the typed error taxonomy, and domain-separated merkle hashing.
package consensus

import "encoding/binary"

// cursor is a forward-only reader over a canonical wire-format buffer.
// Outside this package's own tests nothing uses it: the header decoder
// (chain.ParseHeaderBytes) does its own offset reads.
type cursor struct {
	b   []byte
	pos int
}

func newCursor(b []byte) *cursor {
	return &cursor{b: b, pos: 0}
}

func (c *cursor) remaining() int {
	if c.pos >= len(c.b) {
		return 0
	}
	return len(c.b) - c.pos
}

func (c *cursor) readExact(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, Reject(ErrBadEncoding, "truncated")
	}
	start := c.pos
	c.pos += n
	return c.b[start:c.pos], nil
}

func (c *cursor) readU8() (byte, error) {
	b, err := c.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readU16LE() (uint16, error) {
	b, err := c.readExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) readU32LE() (uint32, error) {
	b, err := c.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readU64LE() (uint64, error) {
	b, err := c.readExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// readCompactSize decodes a Bitcoin-style CompactSize varint, rejecting
// non-minimal encodings the same way the rest of this codebase always has.
func (c *cursor) readCompactSize() (uint64, error) {
	tag, err := c.readU8()
	if err != nil {
		return 0, err
	}
	switch {
	case tag < 0xfd:
		return uint64(tag), nil
	case tag == 0xfd:
		v, err := c.readU16LE()
		if err != nil {
			return 0, err
		}
		if v < 0xfd {
			return 0, Reject(ErrBadEncoding, "non-minimal compact-size (0xfd)")
		}
		return uint64(v), nil
	case tag == 0xfe:
		v, err := c.readU32LE()
		if err != nil {
			return 0, err
		}
		if v <= 0xffff {
			return 0, Reject(ErrBadEncoding, "non-minimal compact-size (0xfe)")
		}
		return uint64(v), nil
	default:
		v, err := c.readU64LE()
		if err != nil {
			return 0, err
		}
		if v <= 0xffff_ffff {
			return 0, Reject(ErrBadEncoding, "non-minimal compact-size (0xff)")
		}
		return v, nil
	}
}

// AppendCompactSize encodes n as a CompactSize varint and appends it to dst.
func AppendCompactSize(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, 0xfd)
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], uint16(n))
		return append(dst, buf[:]...)
	case n <= 0xffff_ffff:
		dst = append(dst, 0xfe)
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(n))
		return append(dst, buf[:]...)
	default:
		dst = append(dst, 0xff)
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], n)
		return append(dst, buf[:]...)
	}
}

// AppendU32LE appends v as a 4-byte little-endian value to dst.
func AppendU32LE(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// AppendU64LE appends v as an 8-byte little-endian value to dst.
func AppendU64LE(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}
