package smile

import (
	"bytes"
	"testing"
)

type recordingVisitor struct {
	events []string
}

func (r *recordingVisitor) VisitNull() error       { r.events = append(r.events, "null"); return nil }
func (r *recordingVisitor) VisitBool(b bool) error  { r.events = append(r.events, "bool"); return nil }
func (r *recordingVisitor) VisitInt32(v int32) error {
	r.events = append(r.events, "int32")
	return nil
}
func (r *recordingVisitor) VisitInt64(v int64) error {
	r.events = append(r.events, "int64")
	return nil
}
func (r *recordingVisitor) VisitBigInt(b []byte) error {
	r.events = append(r.events, "bigint")
	return nil
}
func (r *recordingVisitor) VisitFloat32(f float32) error {
	r.events = append(r.events, "float32")
	return nil
}
func (r *recordingVisitor) VisitFloat64(f float64) error {
	r.events = append(r.events, "float64")
	return nil
}
func (r *recordingVisitor) VisitBigDecimal(scale int32, unscaled []byte) error {
	r.events = append(r.events, "bigdecimal")
	return nil
}
func (r *recordingVisitor) VisitString(s string) error {
	r.events = append(r.events, "string:"+s)
	return nil
}
func (r *recordingVisitor) VisitBytes(b []byte) error {
	r.events = append(r.events, "bytes")
	return nil
}
func (r *recordingVisitor) VisitArrayBegin() error { r.events = append(r.events, "array("); return nil }
func (r *recordingVisitor) VisitArrayEnd() error    { r.events = append(r.events, ")array"); return nil }
func (r *recordingVisitor) VisitMapBegin() error    { r.events = append(r.events, "map("); return nil }
func (r *recordingVisitor) VisitMapKey(key string) error {
	r.events = append(r.events, "key:"+key)
	return nil
}
func (r *recordingVisitor) VisitMapEnd() error { r.events = append(r.events, ")map"); return nil }

func TestVisitDrivesCallbacksWithoutMaterializingValue(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	m := NewOrderedMap()
	m.Set("items", ArrayValue([]Value{Int32Value(1), StringValue("two")}))
	if err := enc.EncodeValue(MapValue(m)); err != nil {
		t.Fatal(err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatal(err)
	}

	dec, err := NewDecoderFromSlice(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	rv := &recordingVisitor{}
	if err := dec.Visit(rv); err != nil {
		t.Fatal(err)
	}
	want := []string{"map(", "key:items", "array(", "int32", "string:two", ")array", ")map"}
	if len(rv.events) != len(want) {
		t.Fatalf("events = %v, want %v", rv.events, want)
	}
	for i := range want {
		if rv.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", rv.events, want)
		}
	}
}

func TestDecodeEofWhileParsingValue(t *testing.T) {
	data := []byte{0x3A, 0x29, 0x0A, 0x01}
	dec, err := NewDecoderFromSlice(data)
	if err != nil {
		t.Fatal(err)
	}
	_, err = dec.DecodeValue()
	serr, ok := err.(*Error)
	if !ok || serr.Kind != EofWhileParsingValue {
		t.Fatalf("expected EofWhileParsingValue, got %v", err)
	}
}

func TestDecodeLogsWarnOnTerminalError(t *testing.T) {
	data := []byte{0x3A, 0x29, 0x0A, 0x01}
	spy := &spyLogger{}
	dec, err := NewDecoderFromSlice(data, WithLogger(spy))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dec.DecodeValue(); err == nil {
		t.Fatal("expected a terminal decode error")
	}

	warns := spy.callsAt("warn")
	if len(warns) != 1 {
		t.Fatalf("expected exactly one Warn call, got %d", len(warns))
	}
	f := warns[0].f
	if f["kind"] != EofWhileParsingValue.String() {
		t.Errorf("kind = %v, want %v", f["kind"], EofWhileParsingValue.String())
	}
	if _, ok := f["offset"]; !ok {
		t.Error("expected an offset field")
	}
	if _, ok := f["token"]; !ok {
		t.Error("expected a token field")
	}
}

func TestDecodeReservedToken(t *testing.T) {
	data := []byte{0x3A, 0x29, 0x0A, 0x01, 0x00}
	dec, err := NewDecoderFromSlice(data)
	if err != nil {
		t.Fatal(err)
	}
	_, err = dec.DecodeValue()
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ReservedToken {
		t.Fatalf("expected ReservedToken, got %v", err)
	}
}

func TestDecodeArrayMissingCloseToken(t *testing.T) {
	data := []byte{0x3A, 0x29, 0x0A, 0x01, 0xF8, 0xC0}
	dec, err := NewDecoderFromSlice(data)
	if err != nil {
		t.Fatal(err)
	}
	_, err = dec.DecodeValue()
	serr, ok := err.(*Error)
	if !ok || serr.Kind != EofWhileParsingArray {
		t.Fatalf("expected EofWhileParsingArray, got %v", err)
	}
}

func TestDecodeInvalidStringReferenceWhenCacheDisabled(t *testing.T) {
	data := []byte{0x3A, 0x29, 0x0A, 0x01, 0x01}
	dec, err := NewDecoderFromSlice(data)
	if err != nil {
		t.Fatal(err)
	}
	_, err = dec.DecodeValue()
	serr, ok := err.(*Error)
	if !ok || serr.Kind != InvalidStringReference {
		t.Fatalf("expected InvalidStringReference, got %v", err)
	}
}

func TestFloatAsymmetryBetween32And64(t *testing.T) {
	got32 := roundTrip(t, Float32Value(1.5))
	if got32.Float32 != 1.5 {
		t.Fatalf("float32 round trip: %v", got32.Float32)
	}
	got64 := roundTrip(t, Float64Value(-7.25))
	if got64.Float64 != -7.25 {
		t.Fatalf("float64 round trip: %v", got64.Float64)
	}
}
