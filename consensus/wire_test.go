package consensus

import "testing"

func TestCursor_ReadCompactSize_Roundtrip(t *testing.T) {
	cases := []uint64{0, 1, 0xfc, 0xfd, 0xfe, 0xffff, 0x1_0000, 0xffff_ffff, 0x1_0000_0000, 0x0123_4567_89ab_cdef}
	for _, v := range cases {
		buf := AppendCompactSize(nil, v)
		c := newCursor(buf)
		got, err := c.readCompactSize()
		if err != nil {
			t.Fatalf("v=%d: %v", v, err)
		}
		if got != v {
			t.Fatalf("v=%d: got=%d", v, got)
		}
		if c.remaining() != 0 {
			t.Fatalf("v=%d: expected cursor fully consumed, %d bytes left", v, c.remaining())
		}
	}
}

func TestCursor_ReadCompactSize_RejectsNonMinimal(t *testing.T) {
	cases := [][]byte{
		{0xfd, 0xfc, 0x00},
		{0xfe, 0xff, 0xff, 0x00, 0x00},
		{0xff, 0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0},
	}
	for _, b := range cases {
		c := newCursor(b)
		_, err := c.readCompactSize()
		if code, ok := CodeOf(err); !ok || code != ErrBadEncoding {
			t.Fatalf("expected ErrBadEncoding, got %v (ok=%v)", err, ok)
		}
	}
}

func TestCursor_ReadExact_Truncated(t *testing.T) {
	c := newCursor([]byte{0x01, 0x02})
	if _, err := c.readExact(3); err == nil {
		t.Fatalf("expected truncation error")
	}
}
