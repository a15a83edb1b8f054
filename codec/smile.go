package codec

import (
	"bytes"

	"github.com/unkn0wn-root/smile"
)

// Smile is a Codec that serializes smile.Value using this module's own
// binary encoder and decoder. Options are passed to every Encode/Decode
// call. The flag options (shared strings, shared properties, raw binary
// framing) only shape Encode; Decode reads those flags from each
// document's header, so only WithLogger affects it.
type Smile struct {
	opts []smile.Option
}

var _ Codec[smile.Value] = Smile{}

// NewSmile constructs a Smile codec with the given options.
func NewSmile(opts ...smile.Option) Smile {
	return Smile{opts: opts}
}

func (c Smile) Encode(v smile.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := smile.NewEncoder(&buf, c.opts...)
	if err := enc.EncodeValue(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Smile) Decode(b []byte) (smile.Value, error) {
	dec, err := smile.NewDecoderFromSlice(b, c.opts...)
	if err != nil {
		return smile.Value{}, err
	}
	v, err := dec.DecodeValue()
	if err != nil {
		return smile.Value{}, err
	}
	if err := dec.End(); err != nil {
		return smile.Value{}, err
	}
	return v, nil
}
