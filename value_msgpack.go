package smile

import "github.com/vmihailenco/msgpack/v5"

// EncodeMsgpack implements msgpack/v5's CustomEncoder, reusing the same
// tagged intermediate as MarshalJSON and MarshalCBOR.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(v.toJSONValue())
}

// DecodeMsgpack implements msgpack/v5's CustomDecoder.
func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	var jv jsonValue
	if err := dec.Decode(&jv); err != nil {
		return err
	}
	out, err := fromJSONValue(jv)
	if err != nil {
		return err
	}
	*v = out
	return nil
}
