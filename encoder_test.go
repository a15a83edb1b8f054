package smile

import (
	"bytes"
	"fmt"
	"testing"
)

func TestHeaderWrittenOnceAndDeferred(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if buf.Len() != 0 {
		t.Fatal("header must not be written before the first token")
	}
	if err := enc.WriteNull(); err != nil {
		t.Fatal(err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x3A, 0x29, 0x0A, 0x01, 0x21}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestHeaderFlagsReflectOptions(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, WithRawBinary(true), WithSharedStrings(true), WithSharedProperties(false))
	if err := enc.WriteNull(); err != nil {
		t.Fatal(err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}
	if buf.Bytes()[3] != 0x06 {
		t.Fatalf("flags byte = %#x, want 0x06", buf.Bytes()[3])
	}
}

func TestCloseWritesEndMarkerOnce(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.WriteNull(); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x3A, 0x29, 0x0A, 0x01, 0x21, 0xFF}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestWriteMapKeyLongNonASCIIBoundary(t *testing.T) {
	// The non-ASCII short-key family covers lengths 2-56; a 57-byte (or
	// longer) key must fall back to the 0x34-framed long form, matching the
	// reference encoder's `if v.len() < 57`. Every case must still round
	// trip regardless of which token family was used.
	below := bytes.Repeat([]byte("é"), 28)                             // 56 bytes, non-ASCII
	exact57 := append(append([]byte(nil), below...), []byte("x")...)   // 57 bytes, non-ASCII
	above := append(append([]byte(nil), below...), []byte("é")...)     // 58 bytes, non-ASCII

	cases := []struct {
		key       []byte
		shortForm bool
	}{
		{below, true},
		{exact57, false},
		{above, false},
	}

	for _, c := range cases {
		var buf bytes.Buffer
		enc := NewEncoder(&buf)
		m := NewOrderedMap()
		m.Set(string(c.key), Int32Value(1))
		if err := enc.EncodeValue(MapValue(m)); err != nil {
			t.Fatal(err)
		}
		if err := enc.Flush(); err != nil {
			t.Fatal(err)
		}

		// header(4) + map-begin(0xfa) precede the key token.
		keyToken := buf.Bytes()[5]
		isShort := keyToken >= 0xc0 && keyToken <= 0xf7
		if isShort != c.shortForm {
			t.Fatalf("key of length %d: token %#x, short form = %v, want %v", len(c.key), keyToken, isShort, c.shortForm)
		}

		dec, err := NewDecoderFromSlice(buf.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		v, err := dec.DecodeValue()
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := v.Map.Get(string(c.key)); !ok {
			t.Fatalf("key of length %d not round-tripped", len(c.key))
		}
	}
}

func TestEncodeLogsWarnOnTerminalError(t *testing.T) {
	var buf bytes.Buffer
	spy := &spyLogger{}
	enc := NewEncoder(&buf, WithLogger(spy))
	if err := enc.EncodeValue(Value{Kind: ValueKind(999)}); err == nil {
		t.Fatal("expected an unsupported-kind error")
	}

	warns := spy.callsAt("warn")
	if len(warns) != 1 {
		t.Fatalf("expected exactly one Warn call, got %d", len(warns))
	}
	f := warns[0].f
	if f["kind"] != UnsupportedValue.String() {
		t.Errorf("kind = %v, want %v", f["kind"], UnsupportedValue.String())
	}
	if _, ok := f["offset"]; !ok {
		t.Error("expected an offset field")
	}
}

func TestEncodeLogsDebugOnCacheWrap(t *testing.T) {
	var buf bytes.Buffer
	spy := &spyLogger{}
	enc := NewEncoder(&buf, WithSharedStrings(true), WithLogger(spy))
	for i := 0; i < 1025; i++ {
		if err := enc.WriteString(fmt.Sprintf("s%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}

	debugs := spy.callsAt("debug")
	if len(debugs) == 0 {
		t.Fatal("expected at least one Debug call once the value cache wraps")
	}
	if debugs[0].f["cache"] != "value" {
		t.Errorf("cache field = %v, want \"value\"", debugs[0].f["cache"])
	}
}

func TestWriteBytesPackedFraming(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.WriteBytes([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}
	if buf.Bytes()[4] != 0xe8 {
		t.Fatalf("expected 0xE8 packed-binary token, got %#x", buf.Bytes()[4])
	}
}
