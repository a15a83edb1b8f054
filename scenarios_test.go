package smile

import (
	"bytes"
	"testing"
)

func encodeBytes(t *testing.T, v Value, opts ...Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := NewEncoder(&buf, opts...)
	if err := enc.EncodeValue(v); err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return buf.Bytes()
}

// S1: encode signed 32 value 0.
func TestScenarioS1Integer(t *testing.T) {
	got := encodeBytes(t, Int32Value(0))
	want := []byte{0x3A, 0x29, 0x0A, 0x01, 0xC0}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
	dec, err := NewDecoderFromSlice(got)
	if err != nil {
		t.Fatal(err)
	}
	v, err := dec.DecodeValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != KindInt32 || v.Int32 != 0 {
		t.Fatalf("decoded %+v", v)
	}
}

// S2: encode -10.
func TestScenarioS2Integer(t *testing.T) {
	got := encodeBytes(t, Int32Value(-10))
	want := []byte{0x3A, 0x29, 0x0A, 0x01, 0xD3}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

// S3: small struct.
func TestScenarioS3Map(t *testing.T) {
	m := NewOrderedMap()
	m.Set("number", Int32Value(1600))
	m.Set("street", StringValue("Pennsylvania Avenue"))
	got := encodeBytes(t, MapValue(m))

	want := []byte{0x3A, 0x29, 0x0A, 0x01, 0xFA, 0x85}
	want = append(want, []byte("number")...)
	want = append(want, 0x24, 0x32, 0x80, 0x85)
	want = append(want, []byte("street")...)
	want = append(want, 0x52)
	want = append(want, []byte("Pennsylvania Avenue")...)
	want = append(want, 0xFB)

	if !bytes.Equal(got, want) {
		t.Fatalf("got % x,\nwant % x", got, want)
	}

	dec, err := NewDecoderFromSlice(got)
	if err != nil {
		t.Fatal(err)
	}
	v, err := dec.DecodeValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != KindMap || v.Map.Len() != 2 {
		t.Fatalf("decoded %+v", v)
	}
	n, _ := v.Map.Get("number")
	if n.Int32 != 1600 {
		t.Fatalf("number = %+v", n)
	}
	s, _ := v.Map.Get("street")
	if s.String != "Pennsylvania Avenue" {
		t.Fatalf("street = %+v", s)
	}
}

// S4: raw binary.
func TestScenarioS4RawBinary(t *testing.T) {
	got := encodeBytes(t, BytesValue([]byte{0xDE, 0xAD, 0xBE, 0xEF}), WithRawBinary(true))
	want := []byte{0x3A, 0x29, 0x0A, 0x05, 0xFD, 0x84, 0xDE, 0xAD, 0xBE, 0xEF}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

// S5: shared value string.
func TestScenarioS5SharedString(t *testing.T) {
	got := encodeBytes(t, ArrayValue([]Value{StringValue("hi"), StringValue("hi")}), WithSharedStrings(true))
	want := []byte{0x3A, 0x29, 0x0A, 0x03, 0xF8, 0x41, 0x68, 0x69, 0x01, 0xF9}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
	dec, err := NewDecoderFromSlice(got, WithSharedStrings(true))
	if err != nil {
		t.Fatal(err)
	}
	v, err := dec.DecodeValue()
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Array) != 2 || v.Array[0].String != "hi" || v.Array[1].String != "hi" {
		t.Fatalf("decoded %+v", v)
	}
}

// S6: big integer 2^100.
func TestScenarioS6BigInteger(t *testing.T) {
	raw := make([]byte, 13)
	raw[0] = 0x10
	got := encodeBytes(t, BigIntValue(raw))
	if got[4] != 0x26 {
		t.Fatalf("expected token 0x26, got %#x", got[4])
	}
	dec, err := NewDecoderFromSlice(got)
	if err != nil {
		t.Fatal(err)
	}
	v, err := dec.DecodeValue()
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != KindBigInt || !bytes.Equal(v.BigInt, raw) {
		t.Fatalf("decoded %+v", v)
	}
}
