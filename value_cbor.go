package smile

import "github.com/fxamacker/cbor/v2"

// MarshalCBOR encodes v as a tagged CBOR map using the same intermediate
// shape as MarshalJSON, so the distinction between kinds that CBOR's own
// type system would otherwise blur (int32 vs int64, string vs bytes) survives
// the round trip.
func (v Value) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(v.toJSONValue())
}

// UnmarshalCBOR decodes a Value previously produced by MarshalCBOR.
func (v *Value) UnmarshalCBOR(data []byte) error {
	var jv jsonValue
	if err := cbor.Unmarshal(data, &jv); err != nil {
		return err
	}
	out, err := fromJSONValue(jv)
	if err != nil {
		return err
	}
	*v = out
	return nil
}
