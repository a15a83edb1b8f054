package smile

import (
	"bufio"
	"io"
	"unicode/utf8"

	"github.com/unkn0wn-root/smile/internal/wire"
)

// Encoder writes one Smile document to a byte sink through an imperative
// write/begin/end vocabulary. An Encoder is not safe for concurrent use.
type Encoder struct {
	w                *bufio.Writer
	logger           Logger
	rawBinary        bool
	sharedStrings    bool
	sharedProperties bool
	valueCache       *wire.WriterStringCache
	propCache        *wire.WriterStringCache
	headerWritten    bool
	closed           bool
	scratch          []byte
	pos              int64
}

// NewEncoder builds an Encoder writing to w. The header is not written
// until the first token is emitted or Flush is called explicitly.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	e := &Encoder{
		w:                bw,
		logger:           cfg.logger,
		rawBinary:        cfg.rawBinary,
		sharedStrings:    cfg.sharedStrings,
		sharedProperties: cfg.sharedProperties,
	}
	if e.sharedStrings {
		e.valueCache = wire.NewWriterStringCache()
	}
	if e.sharedProperties {
		e.propCache = wire.NewWriterStringCache()
	}
	return e
}

func (e *Encoder) ensureHeader() error {
	if e.headerWritten {
		return nil
	}
	cfg := config{rawBinary: e.rawBinary, sharedStrings: e.sharedStrings, sharedProperties: e.sharedProperties}
	flags := cfg.headerFlags()
	if _, err := e.w.Write([]byte{headerMagic[0], headerMagic[1], headerMagic[2], flags}); err != nil {
		return e.fail(ioErr(err), 0)
	}
	e.headerWritten = true
	e.pos += 4
	return nil
}

func (e *Encoder) writeByte(b byte) error {
	if err := e.ensureHeader(); err != nil {
		return err
	}
	if err := e.w.WriteByte(b); err != nil {
		return e.fail(ioErr(err), b)
	}
	e.pos++
	return nil
}

func (e *Encoder) writeBytes(b []byte) error {
	if err := e.ensureHeader(); err != nil {
		return err
	}
	if _, err := e.w.Write(b); err != nil {
		return e.fail(ioErr(err), 0)
	}
	e.pos += int64(len(b))
	return nil
}

// fail logs a terminal encode error at Warn with structured fields before
// returning it unchanged, so callers relying solely on Logger still see
// every failure even if they discard the error's own text.
func (e *Encoder) fail(err error, token byte) error {
	if serr, ok := err.(*Error); ok {
		e.logger.Warn("smile: encode failed", Fields{
			"offset": e.pos,
			"token":  token,
			"kind":   serr.Kind.String(),
		})
	}
	return err
}

// WriteNull emits the null token.
func (e *Encoder) WriteNull() error { return e.writeByte(0x21) }

// WriteBool emits the false or true token.
func (e *Encoder) WriteBool(b bool) error {
	if b {
		return e.writeByte(0x23)
	}
	return e.writeByte(0x22)
}

// WriteInt32 emits a signed 32-bit integer, using the single-byte small-int
// token when the ZigZag-folded magnitude fits in 5 bits.
func (e *Encoder) WriteInt32(v int32) error {
	z := wire.ZigZag32(v)
	if z < 32 {
		return e.writeByte(0xc0 + byte(z))
	}
	e.scratch = append(e.scratch[:0], 0x24)
	e.scratch = wire.AppendVInt(e.scratch, uint64(z))
	return e.writeBytes(e.scratch)
}

// WriteInt64 emits a signed 64-bit integer, narrowing to WriteInt32 when
// the value fits in 32 bits.
func (e *Encoder) WriteInt64(v int64) error {
	if v >= -(1<<31) && v <= (1<<31-1) {
		return e.WriteInt32(int32(v))
	}
	z := wire.ZigZag64(v)
	e.scratch = append(e.scratch[:0], 0x25)
	e.scratch = wire.AppendVInt(e.scratch, z)
	return e.writeBytes(e.scratch)
}

// WriteBigInt emits an opaque two's-complement byte string as the 0x26
// big-integer token. Callers are expected to only use this for values that
// do not fit in an Int64 — see Decoder's symmetric 0x26 handling.
func (e *Encoder) WriteBigInt(b []byte) error {
	return e.writePackedToken(0x26, b)
}

func (e *Encoder) writePackedToken(token byte, raw []byte) error {
	encLen, err := wire.Pack7BitLen(len(raw))
	if err != nil {
		return e.fail(newErr(BufferLengthOverflow, "packed length overflow for raw length %d", len(raw)), token)
	}
	e.scratch = append(e.scratch[:0], token)
	e.scratch = wire.AppendVInt(e.scratch, uint64(len(raw)))
	if err := e.writeBytes(e.scratch); err != nil {
		return err
	}
	packed := make([]byte, 0, encLen)
	packed = wire.AppendPack7Bit(packed, raw)
	return e.writeBytes(packed)
}

// WriteFloat32 emits a 32-bit float as five 7-bit septets, sign-extending
// into the top bit to match the reference implementation's asymmetry with
// WriteFloat64.
func (e *Encoder) WriteFloat32(f float32) error {
	bits := float32Bits(f)
	e.scratch = e.scratch[:0]
	e.scratch = append(e.scratch, 0x28)
	shifts := [5]uint{28, 21, 14, 7, 0}
	for _, sh := range shifts {
		e.scratch = append(e.scratch, byte(int32(bits)>>sh)&0x7f)
	}
	return e.writeBytes(e.scratch)
}

// WriteFloat64 emits a 64-bit float as ten 7-bit septets.
func (e *Encoder) WriteFloat64(f float64) error {
	bits := float64Bits(f)
	e.scratch = e.scratch[:0]
	e.scratch = append(e.scratch, 0x29)
	shifts := [10]uint{63, 56, 49, 42, 35, 28, 21, 14, 7, 0}
	for _, sh := range shifts {
		e.scratch = append(e.scratch, byte(bits>>sh)&0x7f)
	}
	return e.writeBytes(e.scratch)
}

// WriteBigDecimal emits the ZigZag-folded scale followed by the 7-bit
// packed unscaled value.
func (e *Encoder) WriteBigDecimal(scale int32, unscaled []byte) error {
	e.scratch = append(e.scratch[:0], 0x2a)
	e.scratch = wire.AppendVInt(e.scratch, uint64(wire.ZigZag32(scale)))
	e.scratch = wire.AppendVInt(e.scratch, uint64(len(unscaled)))
	if err := e.writeBytes(e.scratch); err != nil {
		return err
	}
	encLen, err := wire.Pack7BitLen(len(unscaled))
	if err != nil {
		return e.fail(newErr(BufferLengthOverflow, "packed length overflow for raw length %d", len(unscaled)), 0x2a)
	}
	packed := make([]byte, 0, encLen)
	packed = wire.AppendPack7Bit(packed, unscaled)
	return e.writeBytes(packed)
}

// WriteString emits a UTF-8 string, probing the shared-string cache first
// when enabled and otherwise selecting a length class by ASCII-ness and
// byte length.
func (e *Encoder) WriteString(s string) error {
	if s == "" {
		return e.writeByte(0x20)
	}
	if e.valueCache != nil {
		if idx, ok := e.valueCache.Lookup(s); ok {
			return e.writeValueBackref(idx)
		}
	}
	ascii := utf8.RuneCountInString(s) == len(s)
	n := len(s)
	switch {
	case ascii && n <= 32:
		if err := e.writeByte(0x40 + byte(n-1)); err != nil {
			return err
		}
		if err := e.writeBytes([]byte(s)); err != nil {
			return err
		}
	case ascii && n <= 64:
		if err := e.writeByte(0x60 + byte(n-33)); err != nil {
			return err
		}
		if err := e.writeBytes([]byte(s)); err != nil {
			return err
		}
	case !ascii && n <= 33:
		if err := e.writeByte(0x80 + byte(n-2)); err != nil {
			return err
		}
		if err := e.writeBytes([]byte(s)); err != nil {
			return err
		}
	case !ascii && n <= 64:
		if err := e.writeByte(0xa0 + byte(n-34)); err != nil {
			return err
		}
		if err := e.writeBytes([]byte(s)); err != nil {
			return err
		}
	default:
		token := byte(0xe0)
		if !ascii {
			token = 0xe4
		}
		if err := e.writeByte(token); err != nil {
			return err
		}
		if err := e.writeBytes([]byte(s)); err != nil {
			return err
		}
		if err := e.writeByte(0xfc); err != nil {
			return err
		}
	}
	if e.valueCache != nil && n <= wire.MaxSharedStringBytes {
		if e.valueCache.Intern(s) {
			e.logger.Debug("smile: value string cache wrapped", Fields{"cache": "value"})
		}
	}
	return nil
}

func (e *Encoder) writeValueBackref(idx int) error {
	if idx <= 30 {
		return e.writeByte(byte(idx + 1))
	}
	hi := byte(idx >> 8)
	lo := byte(idx)
	if err := e.writeByte(0xec | hi); err != nil {
		return err
	}
	return e.writeByte(lo)
}

// WriteMapKey emits a map key using the key-token families: empty key,
// shared back-reference, short string, or long terminated string.
func (e *Encoder) WriteMapKey(key string) error {
	if key == "" {
		return e.writeByte(0x20)
	}
	if e.propCache != nil {
		if idx, ok := e.propCache.Lookup(key); ok {
			return e.writePropBackref(idx)
		}
	}
	ascii := utf8.RuneCountInString(key) == len(key)
	n := len(key)
	switch {
	case ascii && n <= 64:
		if err := e.writeByte(0x80 + byte(n-1)); err != nil {
			return err
		}
		if err := e.writeBytes([]byte(key)); err != nil {
			return err
		}
	case !ascii && n <= 56:
		if err := e.writeByte(0xc0 + byte(n-2)); err != nil {
			return err
		}
		if err := e.writeBytes([]byte(key)); err != nil {
			return err
		}
	default:
		if err := e.writeByte(0x34); err != nil {
			return err
		}
		if err := e.writeBytes([]byte(key)); err != nil {
			return err
		}
		if err := e.writeByte(0xfc); err != nil {
			return err
		}
	}
	if e.propCache != nil && n <= wire.MaxSharedStringBytes {
		if e.propCache.Intern(key) {
			e.logger.Debug("smile: property string cache wrapped", Fields{"cache": "property"})
		}
	}
	return nil
}

func (e *Encoder) writePropBackref(idx int) error {
	if idx <= 63 {
		return e.writeByte(0x40 + byte(idx))
	}
	hi := byte(idx >> 8)
	lo := byte(idx)
	if err := e.writeByte(0x30 | hi); err != nil {
		return err
	}
	return e.writeByte(lo)
}

// WriteBytes emits a raw byte string, choosing between the literal-length
// framing (0xFD) and the 7-bit packed framing (0xE8) per the raw-binary
// option.
func (e *Encoder) WriteBytes(b []byte) error {
	if e.rawBinary {
		e.scratch = append(e.scratch[:0], 0xfd)
		e.scratch = wire.AppendVInt(e.scratch, uint64(len(b)))
		if err := e.writeBytes(e.scratch); err != nil {
			return err
		}
		return e.writeBytes(b)
	}
	return e.writePackedToken(0xe8, b)
}

// BeginArray opens a sequence.
func (e *Encoder) BeginArray() error { return e.writeByte(0xf8) }

// EndArray closes a sequence.
func (e *Encoder) EndArray() error { return e.writeByte(0xf9) }

// BeginMap opens a map.
func (e *Encoder) BeginMap() error { return e.writeByte(0xfa) }

// EndMap closes a map.
func (e *Encoder) EndMap() error { return e.writeByte(0xfb) }

// EncodeValue walks v and writes it as one top-level document.
func (e *Encoder) EncodeValue(v Value) error {
	switch v.Kind {
	case KindNull:
		return e.WriteNull()
	case KindBool:
		return e.WriteBool(v.Bool)
	case KindInt32:
		return e.WriteInt32(v.Int32)
	case KindInt64:
		return e.WriteInt64(v.Int64)
	case KindBigInt:
		return e.WriteBigInt(v.BigInt)
	case KindFloat32:
		return e.WriteFloat32(v.Float32)
	case KindFloat64:
		return e.WriteFloat64(v.Float64)
	case KindBigDecimal:
		return e.WriteBigDecimal(v.BigDecimal.Scale, v.BigDecimal.Unscaled)
	case KindString:
		return e.WriteString(v.String)
	case KindBytes:
		return e.WriteBytes(v.Bytes)
	case KindArray:
		if err := e.BeginArray(); err != nil {
			return err
		}
		for _, elem := range v.Array {
			if err := e.EncodeValue(elem); err != nil {
				return err
			}
		}
		return e.EndArray()
	case KindMap:
		if err := e.BeginMap(); err != nil {
			return err
		}
		for _, p := range v.Map.Pairs() {
			if err := e.WriteMapKey(p.Key); err != nil {
				return err
			}
			if err := e.EncodeValue(p.Value); err != nil {
				return err
			}
		}
		return e.EndMap()
	default:
		return e.fail(newErr(UnsupportedValue, "unknown value kind %v", v.Kind), 0)
	}
}

// Flush forces the header (if not yet written) and any buffered bytes to
// the underlying writer.
func (e *Encoder) Flush() error {
	if err := e.ensureHeader(); err != nil {
		return err
	}
	if err := e.w.Flush(); err != nil {
		return e.fail(ioErr(err), 0)
	}
	return nil
}

// Close writes the 0xFF end-of-stream marker and flushes. It is a no-op on
// a second call.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if err := e.writeByte(0xff); err != nil {
		return err
	}
	return e.Flush()
}
