package wire

import "testing"

func TestVIntRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 63, 64, 127, 128, 1<<13 - 1, 1 << 13, 1 << 20, 1<<32 - 1, 1 << 40}
	for _, v := range cases {
		buf := AppendVInt(nil, v)
		got, err := DecodeVInt(NewSliceSource(buf), 10)
		if err != nil {
			t.Fatalf("decode(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}

func TestVIntTerminalByteHighBit(t *testing.T) {
	buf := AppendVInt(nil, 5)
	if len(buf) != 1 {
		t.Fatalf("expected single-byte vint, got %d bytes", len(buf))
	}
	if buf[0]&0x80 == 0 {
		t.Fatal("terminal byte must have high bit set")
	}
}

func TestVIntUnterminated(t *testing.T) {
	src := NewSliceSource([]byte{0x01, 0x02, 0x03})
	_, err := DecodeVInt(src, 2)
	if err != ErrUnterminatedVInt {
		t.Fatalf("expected ErrUnterminatedVInt, got %v", err)
	}
}

func TestVIntEOF(t *testing.T) {
	src := NewSliceSource([]byte{0x01})
	_, err := DecodeVInt(src, 5)
	if err != ErrEOF {
		t.Fatalf("expected ErrEOF, got %v", err)
	}
}

func TestZigZag32(t *testing.T) {
	cases := []int32{0, 1, -1, 2, -2, 1 << 20, -(1 << 20)}
	for _, v := range cases {
		if got := UnZigZag32(ZigZag32(v)); got != v {
			t.Errorf("zigzag32 round trip %d: got %d", v, got)
		}
	}
	if ZigZag32(-1) != 1 {
		t.Errorf("zigzag32(-1) = %d, want 1", ZigZag32(-1))
	}
}

func TestZigZag64(t *testing.T) {
	cases := []int64{0, 1, -1, 2, -2, 1 << 40, -(1 << 40)}
	for _, v := range cases {
		if got := UnZigZag64(ZigZag64(v)); got != v {
			t.Errorf("zigzag64 round trip %d: got %d", v, got)
		}
	}
}
