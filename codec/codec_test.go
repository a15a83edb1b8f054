package codec_test

import (
	"testing"

	"github.com/unkn0wn-root/smile"
	"github.com/unkn0wn-root/smile/codec"
)

func sampleValue() smile.Value {
	m := smile.NewOrderedMap()
	m.Set("name", smile.StringValue("nyx"))
	m.Set("count", smile.Int32Value(7))
	m.Set("big", smile.Int64Value(1<<40))
	m.Set("ratio", smile.Float64Value(0.125))
	m.Set("tags", smile.ArrayValue([]smile.Value{smile.StringValue("a"), smile.StringValue("b")}))
	m.Set("nothing", smile.Null())
	return smile.MapValue(m)
}

func requireRoundTrip(t *testing.T, name string, c codec.Codec[smile.Value]) {
	t.Helper()
	want := sampleValue()
	b, err := c.Encode(want)
	if err != nil {
		t.Fatalf("%s: encode: %v", name, err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("%s: decode: %v", name, err)
	}
	if got.Kind != smile.KindMap || got.Map.Len() != want.Map.Len() {
		t.Fatalf("%s: round trip mismatch: %+v", name, got)
	}
	name2, _ := got.Map.Get("name")
	if name2.String != "nyx" {
		t.Fatalf("%s: name field = %+v", name, name2)
	}
	count, _ := got.Map.Get("count")
	if count.Kind != smile.KindInt32 || count.Int32 != 7 {
		t.Fatalf("%s: count field = %+v", name, count)
	}
}

func TestSmileCodecRoundTrip(t *testing.T) {
	requireRoundTrip(t, "smile", codec.NewSmile())
}

func TestJSONCodecRoundTrip(t *testing.T) {
	requireRoundTrip(t, "json", codec.JSON[smile.Value]{})
}

func TestCBORCodecRoundTrip(t *testing.T) {
	c, err := codec.NewCBOR[smile.Value](true)
	if err != nil {
		t.Fatal(err)
	}
	requireRoundTrip(t, "cbor", c)
}

func TestMsgpackCodecRoundTrip(t *testing.T) {
	requireRoundTrip(t, "msgpack", codec.Msgpack[smile.Value]{})
}

func TestProtobufCodecRoundTrip(t *testing.T) {
	requireRoundTrip(t, "protobuf", codec.Protobuf{})
}

func TestLimitCodecRejectsOversizedPayload(t *testing.T) {
	inner := codec.JSON[smile.Value]{}
	b, err := inner.Encode(sampleValue())
	if err != nil {
		t.Fatal(err)
	}
	limited := codec.LimitCodec[smile.Value]{Inner: inner, MaxDecode: len(b) - 1}
	if _, err := limited.Decode(b); err == nil {
		t.Fatal("expected oversized payload to be rejected")
	}
}
