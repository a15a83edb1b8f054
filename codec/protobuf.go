package codec

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/smile"
)

// Protobuf is a Codec[smile.Value] built on the well-known structpb types.
// Value has no static .proto schema, so it is carried as a structpb.Struct
// the same way an open, reflection-free JSON-like value would be: each kind
// that structpb's own number/string/bool/null/list/struct kinds can't
// distinguish on their own (int32 vs int64 vs float64, string vs raw bytes)
// is tagged by a wrapper struct holding a "__kind" name and the "value"
// itself, mirroring the tagged-
// object shape MarshalJSON uses. Binary fields are base64-encoded since
// structpb.Value has no byte-string kind.
type Protobuf struct{}

var _ Codec[smile.Value] = Protobuf{}

func (Protobuf) Encode(v smile.Value) ([]byte, error) {
	s, err := valueToStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func (Protobuf) Decode(b []byte) (smile.Value, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return smile.Value{}, err
	}
	return structToValue(s.Fields)
}

func valueToStruct(v smile.Value) (*structpb.Struct, error) {
	pv, err := valueToProto(v)
	if err != nil {
		return nil, err
	}
	s := pv.GetStructValue()
	if s == nil {
		return nil, fmt.Errorf("codec: protobuf: top-level value must encode as a struct, got %T", pv.GetKind())
	}
	return s, nil
}

func valueToProto(v smile.Value) (*structpb.Value, error) {
	switch v.Kind {
	case smile.KindNull:
		return structpb.NewNullValue(), nil
	case smile.KindBool:
		return structpb.NewBoolValue(v.Bool), nil
	case smile.KindInt32:
		return wrapKind("int32", structpb.NewNumberValue(float64(v.Int32)))
	case smile.KindInt64:
		return wrapKind("int64", structpb.NewNumberValue(float64(v.Int64)))
	case smile.KindBigInt:
		return wrapKind("bigint", structpb.NewStringValue(base64.StdEncoding.EncodeToString(v.BigInt)))
	case smile.KindFloat32:
		return wrapKind("float32", structpb.NewNumberValue(float64(v.Float32)))
	case smile.KindFloat64:
		return wrapKind("float64", structpb.NewNumberValue(v.Float64))
	case smile.KindBigDecimal:
		inner, err := structpb.NewStruct(map[string]any{
			"scale":    float64(v.BigDecimal.Scale),
			"unscaled": base64.StdEncoding.EncodeToString(v.BigDecimal.Unscaled),
		})
		if err != nil {
			return nil, err
		}
		return wrapKind("bigdecimal", structpb.NewStructValue(inner))
	case smile.KindString:
		return structpb.NewStringValue(v.String), nil
	case smile.KindBytes:
		return wrapKind("bytes", structpb.NewStringValue(base64.StdEncoding.EncodeToString(v.Bytes)))
	case smile.KindArray:
		items := make([]*structpb.Value, len(v.Array))
		for i, e := range v.Array {
			pv, err := valueToProto(e)
			if err != nil {
				return nil, err
			}
			items[i] = pv
		}
		return structpb.NewListValue(&structpb.ListValue{Values: items}), nil
	case smile.KindMap:
		fields := make(map[string]*structpb.Value, v.Map.Len())
		for _, p := range v.Map.Pairs() {
			pv, err := valueToProto(p.Value)
			if err != nil {
				return nil, err
			}
			fields[p.Key] = pv
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
	default:
		return nil, fmt.Errorf("codec: protobuf: unsupported value kind %v", v.Kind)
	}
}

// wrapKind tags a Value kind as a struct with a "__kind" name and a
// "value" entry, since
// structpb has no way to distinguish an int32 from a float64 or a plain
// string from base64-encoded bytes on its own.
func wrapKind(kind string, inner *structpb.Value) (*structpb.Value, error) {
	s, err := structpb.NewStruct(map[string]any{"__kind": kind})
	if err != nil {
		return nil, err
	}
	s.Fields["value"] = inner
	return structpb.NewStructValue(s), nil
}

func structToValue(fields map[string]*structpb.Value) (smile.Value, error) {
	if kindField, ok := fields["__kind"]; ok {
		return protoToValue(kindField.GetStringValue(), fields["value"])
	}
	m := smile.NewOrderedMap()
	for k, pv := range fields {
		v, err := protoValueToValue(pv)
		if err != nil {
			return smile.Value{}, err
		}
		m.Set(k, v)
	}
	return smile.MapValue(m), nil
}

func protoToValue(kind string, inner *structpb.Value) (smile.Value, error) {
	switch kind {
	case "int32":
		return smile.Int32Value(int32(inner.GetNumberValue())), nil
	case "int64":
		return smile.Int64Value(int64(inner.GetNumberValue())), nil
	case "bigint":
		b, err := base64.StdEncoding.DecodeString(inner.GetStringValue())
		if err != nil {
			return smile.Value{}, err
		}
		return smile.BigIntValue(b), nil
	case "float32":
		return smile.Float32Value(float32(inner.GetNumberValue())), nil
	case "float64":
		return smile.Float64Value(inner.GetNumberValue()), nil
	case "bigdecimal":
		s := inner.GetStructValue()
		unsc, err := base64.StdEncoding.DecodeString(s.Fields["unscaled"].GetStringValue())
		if err != nil {
			return smile.Value{}, err
		}
		return smile.BigDecimalValue(int32(s.Fields["scale"].GetNumberValue()), unsc), nil
	case "bytes":
		b, err := base64.StdEncoding.DecodeString(inner.GetStringValue())
		if err != nil {
			return smile.Value{}, err
		}
		return smile.BytesValue(b), nil
	default:
		return smile.Value{}, fmt.Errorf("codec: protobuf: unknown wrapped kind %q", kind)
	}
}

func protoValueToValue(pv *structpb.Value) (smile.Value, error) {
	switch k := pv.GetKind().(type) {
	case *structpb.Value_NullValue:
		return smile.Null(), nil
	case *structpb.Value_BoolValue:
		return smile.BoolValue(k.BoolValue), nil
	case *structpb.Value_StringValue:
		return smile.StringValue(k.StringValue), nil
	case *structpb.Value_NumberValue:
		// Unwrapped numbers only arise from constructing a Struct by hand;
		// treat them as float64 since the int/float distinction needs the
		// __kind wrapper to survive the round trip.
		return smile.Float64Value(k.NumberValue), nil
	case *structpb.Value_ListValue:
		arr := make([]smile.Value, len(k.ListValue.Values))
		for i, e := range k.ListValue.Values {
			v, err := protoValueToValue(e)
			if err != nil {
				return smile.Value{}, err
			}
			arr[i] = v
		}
		return smile.ArrayValue(arr), nil
	case *structpb.Value_StructValue:
		return structToValue(k.StructValue.Fields)
	default:
		return smile.Value{}, fmt.Errorf("codec: protobuf: unsupported structpb kind %T", k)
	}
}
