package smile

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// ValueKind discriminates the tag of a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt32
	KindInt64
	KindBigInt
	KindFloat32
	KindFloat64
	KindBigDecimal
	KindString
	KindBytes
	KindArray
	KindMap
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindBigInt:
		return "bigint"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBigDecimal:
		return "bigdecimal"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// BigDecimal is a scale plus an opaque two's-complement big-endian unscaled
// value. No arithmetic is performed on either field.
type BigDecimal struct {
	Scale    int32
	Unscaled []byte
}

// Pair is one entry of an OrderedMap.
type Pair struct {
	Key   string
	Value Value
}

// OrderedMap is the smallest concrete container satisfying what the codec
// needs from a map: insertion-ordered key/value pairs addressable by key.
// It is not meant to be a general-purpose map implementation — callers
// needing one are expected to bring their own and convert.
type OrderedMap struct {
	pairs []Pair
	index map[string]int
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{index: make(map[string]int)}
}

// Set inserts or overwrites the value for key, preserving the original
// position on overwrite.
func (m *OrderedMap) Set(key string, v Value) {
	if i, ok := m.index[key]; ok {
		m.pairs[i].Value = v
		return
	}
	m.index[key] = len(m.pairs)
	m.pairs = append(m.pairs, Pair{Key: key, Value: v})
}

// Get returns the value stored for key, if any.
func (m *OrderedMap) Get(key string) (Value, bool) {
	i, ok := m.index[key]
	if !ok {
		return Value{}, false
	}
	return m.pairs[i].Value, true
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int { return len(m.pairs) }

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	keys := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		keys[i] = p.Key
	}
	return keys
}

// Pairs returns the entries in insertion order. The returned slice must not
// be mutated.
func (m *OrderedMap) Pairs() []Pair { return m.pairs }

// Value is a closed sum type over every kind the codec's wire format can
// carry. Only the field matching Kind is meaningful.
type Value struct {
	Kind       ValueKind
	Bool       bool
	Int32      int32
	Int64      int64
	BigInt     []byte
	Float32    float32
	Float64    float64
	BigDecimal BigDecimal
	String     string
	Bytes      []byte
	Array      []Value
	Map        *OrderedMap
}

// Null returns a Value of kind KindNull.
func Null() Value { return Value{Kind: KindNull} }

// BoolValue returns a Value wrapping a boolean.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Int32Value returns a Value wrapping a signed 32-bit integer.
func Int32Value(v int32) Value { return Value{Kind: KindInt32, Int32: v} }

// Int64Value returns a Value wrapping a signed 64-bit integer.
func Int64Value(v int64) Value { return Value{Kind: KindInt64, Int64: v} }

// BigIntValue returns a Value wrapping an opaque two's-complement
// big-endian byte string.
func BigIntValue(b []byte) Value { return Value{Kind: KindBigInt, BigInt: b} }

// BigIntFromInt64 returns a Value carrying v's minimal big-endian
// two's-complement representation as an opaque BigInt. Most callers should
// just use Int64Value; this exists for producing BigInt-kind test fixtures
// and for callers that need to force a value through the big-integer wire
// encoding.
func BigIntFromInt64(v int64) Value { return BigIntValue(bigEndianBytesFromInt64(v)) }

// Float32Value returns a Value wrapping a 32-bit float.
func Float32Value(f float32) Value { return Value{Kind: KindFloat32, Float32: f} }

// Float64Value returns a Value wrapping a 64-bit float.
func Float64Value(f float64) Value { return Value{Kind: KindFloat64, Float64: f} }

// BigDecimalValue returns a Value wrapping a scale and an opaque unscaled
// byte string.
func BigDecimalValue(scale int32, unscaled []byte) Value {
	return Value{Kind: KindBigDecimal, BigDecimal: BigDecimal{Scale: scale, Unscaled: unscaled}}
}

// StringValue returns a Value wrapping a UTF-8 string.
func StringValue(s string) Value { return Value{Kind: KindString, String: s} }

// BytesValue returns a Value wrapping a raw byte string.
func BytesValue(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// ArrayValue returns a Value wrapping an ordered sequence.
func ArrayValue(a []Value) Value { return Value{Kind: KindArray, Array: a} }

// MapValue returns a Value wrapping an ordered map.
func MapValue(m *OrderedMap) Value { return Value{Kind: KindMap, Map: m} }

// Variant is a tagged union value: on the wire it is indistinguishable from
// a one-entry map whose key is Name.
type Variant struct {
	Name  string
	Value Value
}

// VariantValue returns a Value representing a tagged variant, encoded as a
// one-entry map.
func VariantValue(name string, v Value) Value {
	m := NewOrderedMap()
	m.Set(name, v)
	return MapValue(m)
}

// AsVariant reports whether v is shaped like a tagged variant (a map with
// exactly one entry) and, if so, returns it as a Variant.
func AsVariant(v Value) (Variant, bool) {
	if v.Kind != KindMap || v.Map.Len() != 1 {
		return Variant{}, false
	}
	p := v.Map.Pairs()[0]
	return Variant{Name: p.Key, Value: p.Value}, true
}

// jsonValue is the intermediate shape used to marshal/unmarshal a Value to
// and from JSON, CBOR, or Msgpack, since Value's fields can't be tagged
// directly without emitting every zero field for every kind. The cbor and
// msgpack tags let smile/codec's CBOR and Msgpack codecs reuse this same
// shape (see value_cbor.go, value_msgpack.go).
type jsonValue struct {
	Kind  string      `json:"kind" cbor:"kind" msgpack:"kind"`
	Bool  *bool       `json:"bool,omitempty" cbor:"bool,omitempty" msgpack:"bool,omitempty"`
	I32   *int32      `json:"i32,omitempty" cbor:"i32,omitempty" msgpack:"i32,omitempty"`
	I64   *int64      `json:"i64,omitempty" cbor:"i64,omitempty" msgpack:"i64,omitempty"`
	Big   string      `json:"bigint,omitempty" cbor:"bigint,omitempty" msgpack:"bigint,omitempty"`
	F32   *float32    `json:"f32,omitempty" cbor:"f32,omitempty" msgpack:"f32,omitempty"`
	F64   *float64    `json:"f64,omitempty" cbor:"f64,omitempty" msgpack:"f64,omitempty"`
	Scale *int32      `json:"scale,omitempty" cbor:"scale,omitempty" msgpack:"scale,omitempty"`
	Unsc  string      `json:"unscaled,omitempty" cbor:"unscaled,omitempty" msgpack:"unscaled,omitempty"`
	Str   *string     `json:"str,omitempty" cbor:"str,omitempty" msgpack:"str,omitempty"`
	Bytes string      `json:"bytes,omitempty" cbor:"bytes,omitempty" msgpack:"bytes,omitempty"`
	Array []jsonValue `json:"array,omitempty" cbor:"array,omitempty" msgpack:"array,omitempty"`
	Map   []jsonPair  `json:"map,omitempty" cbor:"map,omitempty" msgpack:"map,omitempty"`
}

type jsonPair struct {
	Key   string    `json:"key" cbor:"key" msgpack:"key"`
	Value jsonValue `json:"value" cbor:"value" msgpack:"value"`
}

func (v Value) toJSONValue() jsonValue {
	jv := jsonValue{Kind: v.Kind.String()}
	switch v.Kind {
	case KindBool:
		b := v.Bool
		jv.Bool = &b
	case KindInt32:
		i := v.Int32
		jv.I32 = &i
	case KindInt64:
		i := v.Int64
		jv.I64 = &i
	case KindBigInt:
		jv.Big = base64.StdEncoding.EncodeToString(v.BigInt)
	case KindFloat32:
		f := v.Float32
		jv.F32 = &f
	case KindFloat64:
		f := v.Float64
		jv.F64 = &f
	case KindBigDecimal:
		s := v.BigDecimal.Scale
		jv.Scale = &s
		jv.Unsc = base64.StdEncoding.EncodeToString(v.BigDecimal.Unscaled)
	case KindString:
		s := v.String
		jv.Str = &s
	case KindBytes:
		jv.Bytes = base64.StdEncoding.EncodeToString(v.Bytes)
	case KindArray:
		jv.Array = make([]jsonValue, len(v.Array))
		for i, e := range v.Array {
			jv.Array[i] = e.toJSONValue()
		}
	case KindMap:
		pairs := v.Map.Pairs()
		jv.Map = make([]jsonPair, len(pairs))
		for i, p := range pairs {
			jv.Map[i] = jsonPair{Key: p.Key, Value: p.Value.toJSONValue()}
		}
	}
	return jv
}

func fromJSONValue(jv jsonValue) (Value, error) {
	switch jv.Kind {
	case "null":
		return Null(), nil
	case "bool":
		if jv.Bool == nil {
			return Value{}, fmt.Errorf("smile: json: missing bool field")
		}
		return BoolValue(*jv.Bool), nil
	case "int32":
		if jv.I32 == nil {
			return Value{}, fmt.Errorf("smile: json: missing i32 field")
		}
		return Int32Value(*jv.I32), nil
	case "int64":
		if jv.I64 == nil {
			return Value{}, fmt.Errorf("smile: json: missing i64 field")
		}
		return Int64Value(*jv.I64), nil
	case "bigint":
		b, err := base64.StdEncoding.DecodeString(jv.Big)
		if err != nil {
			return Value{}, err
		}
		return BigIntValue(b), nil
	case "float32":
		if jv.F32 == nil {
			return Value{}, fmt.Errorf("smile: json: missing f32 field")
		}
		return Float32Value(*jv.F32), nil
	case "float64":
		if jv.F64 == nil {
			return Value{}, fmt.Errorf("smile: json: missing f64 field")
		}
		return Float64Value(*jv.F64), nil
	case "bigdecimal":
		if jv.Scale == nil {
			return Value{}, fmt.Errorf("smile: json: missing scale field")
		}
		b, err := base64.StdEncoding.DecodeString(jv.Unsc)
		if err != nil {
			return Value{}, err
		}
		return BigDecimalValue(*jv.Scale, b), nil
	case "string":
		if jv.Str == nil {
			return Value{}, fmt.Errorf("smile: json: missing str field")
		}
		return StringValue(*jv.Str), nil
	case "bytes":
		b, err := base64.StdEncoding.DecodeString(jv.Bytes)
		if err != nil {
			return Value{}, err
		}
		return BytesValue(b), nil
	case "array":
		arr := make([]Value, len(jv.Array))
		for i, e := range jv.Array {
			v, err := fromJSONValue(e)
			if err != nil {
				return Value{}, err
			}
			arr[i] = v
		}
		return ArrayValue(arr), nil
	case "map":
		m := NewOrderedMap()
		for _, p := range jv.Map {
			v, err := fromJSONValue(p.Value)
			if err != nil {
				return Value{}, err
			}
			m.Set(p.Key, v)
		}
		return MapValue(m), nil
	default:
		return Value{}, fmt.Errorf("smile: json: unknown kind %q", jv.Kind)
	}
}

// MarshalJSON encodes v as a tagged JSON object so round-tripping through
// JSON preserves the kind distinctions Go's json package would otherwise
// collapse (int32 vs int64, string vs bytes, and so on).
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(v.toJSONValue()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a Value previously produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	out, err := fromJSONValue(jv)
	if err != nil {
		return err
	}
	*v = out
	return nil
}
