package smile

import (
	"io"
	"math"
	"unicode/utf8"

	"github.com/unkn0wn-root/smile/internal/wire"
)

// maxDepth bounds container nesting so a malicious input cannot exhaust the
// native call stack.
const maxDepth = 128

var headerMagic = [3]byte{0x3A, 0x29, 0x0A}

// Visitor receives decode events one at a time without requiring the
// caller to materialize a Value tree. Decoder.DecodeValue is implemented as
// a built-in Visitor that does build one.
type Visitor interface {
	VisitNull() error
	VisitBool(b bool) error
	VisitInt32(v int32) error
	VisitInt64(v int64) error
	VisitBigInt(b []byte) error
	VisitFloat32(f float32) error
	VisitFloat64(f float64) error
	VisitBigDecimal(scale int32, unscaled []byte) error
	VisitString(s string) error
	VisitBytes(b []byte) error
	VisitArrayBegin() error
	VisitArrayEnd() error
	VisitMapBegin() error
	VisitMapKey(key string) error
	VisitMapEnd() error
}

// Decoder reads one Smile document (or, via StreamDecoder, a sequence of
// them) from a byte source. A Decoder is not safe for concurrent use.
type Decoder struct {
	src              wire.Source
	logger           Logger
	rawBinary        bool
	sharedStrings    bool
	sharedProperties bool
	valueCache       *wire.ReaderStringCache
	propCache        *wire.ReaderStringCache
	depth            int
	endSeen          bool
}

func newDecoder(src wire.Source, opts []Option) (*Decoder, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	d := &Decoder{
		src:    src,
		logger: cfg.logger,
		depth:  maxDepth,
	}
	if err := d.readHeader(); err != nil {
		return nil, d.fail(err, 0)
	}
	return d, nil
}

// fail logs a terminal decode error at Warn with structured fields before
// returning it unchanged, so callers relying solely on Logger still see
// every failure even if they discard the error's own text.
func (d *Decoder) fail(err error, token byte) error {
	if serr, ok := err.(*Error); ok {
		d.logger.Warn("smile: decode failed", Fields{
			"offset": d.src.Pos(),
			"token":  token,
			"kind":   serr.Kind.String(),
		})
	}
	return err
}

// NewDecoder builds a Decoder reading from r, which is wrapped in a
// *bufio.Reader if it isn't already one. WithRawBinary/WithSharedStrings/
// WithSharedProperties are accepted for symmetry with NewEncoder but have
// no effect here: on decode those three flags come from the header bytes
// on the wire, which are authoritative. Only WithLogger has an effect.
func NewDecoder(r io.Reader, opts ...Option) (*Decoder, error) {
	return newDecoder(wire.NewBufReaderSource(r), opts)
}

// NewDecoderFromSlice builds a Decoder over a shared, read-only byte slice.
// Mutable re-packing reads copy into internal scratch.
func NewDecoderFromSlice(b []byte, opts ...Option) (*Decoder, error) {
	return newDecoder(wire.NewSliceSource(b), opts)
}

// NewDecoderFromMutSlice builds a Decoder over an exclusively-owned byte
// slice, allowing zero-copy reads including the mutable ones 7-bit
// unpacking uses.
func NewDecoderFromMutSlice(b []byte, opts ...Option) (*Decoder, error) {
	return newDecoder(wire.NewMutSliceSource(b), opts)
}

func (d *Decoder) readHeader() error {
	buf, ok, err := d.src.Read(4)
	if err != nil {
		return ioErr(err)
	}
	if !ok {
		return newErr(EofWhileParsingHeader, "need 4 bytes, stream ended early")
	}
	h := buf.B
	if h[0] != headerMagic[0] || h[1] != headerMagic[1] || h[2] != headerMagic[2] {
		return newErr(InvalidHeader, "bad magic bytes")
	}
	if h[3]&0xf0 != 0 {
		return newErr(UnsupportedVersion, "nonzero version nibble")
	}
	d.sharedProperties = h[3]&0x01 != 0
	d.sharedStrings = h[3]&0x02 != 0
	d.rawBinary = h[3]&0x04 != 0
	if d.sharedStrings {
		d.valueCache = wire.NewReaderStringCache()
	}
	if d.sharedProperties {
		d.propCache = wire.NewReaderStringCache()
	}
	return nil
}

// End consumes the 0xFF end-of-stream marker or EOF. Any other trailing
// byte is TrailingData.
func (d *Decoder) End() error {
	b, ok, err := d.src.Peek()
	if err != nil {
		return d.fail(ioErr(err), 0)
	}
	if !ok {
		return nil
	}
	if b == 0xff {
		d.src.Consume()
		return nil
	}
	return d.fail(newErr(TrailingData, "unexpected byte %#x at end of document", b), b)
}

// DecodeValue decodes one top-level value into a Value tree.
func (d *Decoder) DecodeValue() (Value, error) {
	vv := &valueVisitor{}
	if err := d.Visit(vv); err != nil {
		return Value{}, err
	}
	return vv.result, nil
}

// Visit decodes one top-level value, driving v with the corresponding
// events.
func (d *Decoder) Visit(v Visitor) error {
	b, ok, err := d.src.Next()
	if err != nil {
		return d.fail(ioErr(err), 0)
	}
	if !ok {
		return d.fail(newErr(EofWhileParsingValue, "stream ended before any value"), 0)
	}
	if err := d.dispatchValue(b, v); err != nil {
		return d.fail(err, b)
	}
	return nil
}

func (d *Decoder) enterContainer() error {
	if d.depth == 0 {
		return newErr(RecursionLimitExceeded, "container nesting exceeds %d", maxDepth)
	}
	d.depth--
	return nil
}

func (d *Decoder) leaveContainer() { d.depth++ }

func (d *Decoder) dispatchValue(lead byte, v Visitor) error {
	switch {
	case lead == 0x00:
		return newErr(ReservedToken, "reserved lead byte 0x00")
	case lead >= 0x01 && lead <= 0x1f:
		s, err := d.resolveValueRef(int(lead) - 1)
		if err != nil {
			return err
		}
		return v.VisitString(s)
	case lead == 0x20:
		return v.VisitString("")
	case lead == 0x21:
		return v.VisitNull()
	case lead == 0x22:
		return v.VisitBool(false)
	case lead == 0x23:
		return v.VisitBool(true)
	case lead == 0x24:
		u, err := wire.DecodeVInt(d.src, 5)
		if err != nil {
			return translateVIntErr(err)
		}
		return v.VisitInt32(wire.UnZigZag32(uint32(u)))
	case lead == 0x25:
		u, err := wire.DecodeVInt(d.src, 10)
		if err != nil {
			return translateVIntErr(err)
		}
		return v.VisitInt64(wire.UnZigZag64(u))
	case lead == 0x26:
		b, err := d.readPacked()
		if err != nil {
			return err
		}
		// A payload that fits in 8 bytes is sign-extended to Int64 rather
		// than surfaced as an opaque BigInt: a conforming encoder never
		// emits this token for a value that narrows, so any payload this
		// short only arises from a caller that handed BigInt bytes which
		// should have been an Int64 to begin with.
		if len(b) <= 8 {
			return v.VisitInt64(signExtendBigEndian(b))
		}
		return v.VisitBigInt(b)
	case lead == 0x27:
		return newErr(ReservedToken, "reserved lead byte 0x27")
	case lead == 0x28:
		f, err := d.readFloat32()
		if err != nil {
			return err
		}
		return v.VisitFloat32(f)
	case lead == 0x29:
		f, err := d.readFloat64()
		if err != nil {
			return err
		}
		return v.VisitFloat64(f)
	case lead == 0x2a:
		scale, unscaled, err := d.readBigDecimal()
		if err != nil {
			return err
		}
		return v.VisitBigDecimal(scale, unscaled)
	case lead == 0x2b || (lead >= 0x2c && lead <= 0x3f):
		return newErr(ReservedToken, "reserved lead byte %#x", lead)
	case lead >= 0x40 && lead <= 0x5f:
		s, err := d.readShortString(int(lead-0x40) + 1)
		if err != nil {
			return err
		}
		return v.VisitString(s)
	case lead >= 0x60 && lead <= 0x7f:
		s, err := d.readShortString(int(lead-0x60) + 33)
		if err != nil {
			return err
		}
		return v.VisitString(s)
	case lead >= 0x80 && lead <= 0x9f:
		s, err := d.readShortString(int(lead-0x80) + 2)
		if err != nil {
			return err
		}
		return v.VisitString(s)
	case lead >= 0xa0 && lead <= 0xbf:
		s, err := d.readShortString(int(lead-0xa0) + 34)
		if err != nil {
			return err
		}
		return v.VisitString(s)
	case lead >= 0xc0 && lead <= 0xdf:
		return v.VisitInt32(wire.UnZigZag32(uint32(lead - 0xc0)))
	case lead == 0xe0:
		s, err := d.readLongString()
		if err != nil {
			return err
		}
		return v.VisitString(s)
	case lead == 0xe4:
		s, err := d.readLongString()
		if err != nil {
			return err
		}
		return v.VisitString(s)
	case lead == 0xe8:
		b, err := d.readPacked()
		if err != nil {
			return err
		}
		return v.VisitBytes(b)
	case lead >= 0xec && lead <= 0xef:
		next, ok, err := d.src.Next()
		if err != nil {
			return ioErr(err)
		}
		if !ok {
			return newErr(EofWhileParsingValue, "truncated long back-reference")
		}
		idx := (int(lead-0xec) << 8) | int(next)
		s, err := d.resolveValueRef(idx)
		if err != nil {
			return err
		}
		return v.VisitString(s)
	case lead == 0xf8:
		return d.decodeArray(v)
	case lead == 0xfa:
		return d.decodeMap(v)
	case lead == 0xfd:
		b, err := d.readRawBinary()
		if err != nil {
			return err
		}
		return v.VisitBytes(b)
	case lead == 0xff:
		return newErr(UnexpectedToken, "end-of-stream marker at value position")
	default:
		return newErr(UnexpectedToken, "unexpected lead byte %#x", lead)
	}
}

func (d *Decoder) decodeArray(v Visitor) error {
	if err := d.enterContainer(); err != nil {
		return err
	}
	defer d.leaveContainer()
	if err := v.VisitArrayBegin(); err != nil {
		return err
	}
	for {
		b, ok, err := d.src.Next()
		if err != nil {
			return ioErr(err)
		}
		if !ok {
			return newErr(EofWhileParsingArray, "eof before array close")
		}
		if b == 0xf9 {
			return v.VisitArrayEnd()
		}
		if err := d.dispatchValue(b, v); err != nil {
			return err
		}
	}
}

func (d *Decoder) decodeMap(v Visitor) error {
	if err := d.enterContainer(); err != nil {
		return err
	}
	defer d.leaveContainer()
	if err := v.VisitMapBegin(); err != nil {
		return err
	}
	for {
		b, ok, err := d.src.Next()
		if err != nil {
			return ioErr(err)
		}
		if !ok {
			return newErr(EofWhileParsingMap, "eof before map close")
		}
		if b == 0xfb {
			return v.VisitMapEnd()
		}
		key, err := d.dispatchKey(b)
		if err != nil {
			return err
		}
		if err := v.VisitMapKey(key); err != nil {
			return err
		}
		vb, ok, err := d.src.Next()
		if err != nil {
			return ioErr(err)
		}
		if !ok {
			return newErr(EofWhileParsingMap, "eof before map value")
		}
		if err := d.dispatchValue(vb, v); err != nil {
			return err
		}
	}
}

// dispatchKey decodes one map-key token using the disjoint key-position
// table: empty key 0x20; short shared key 0x40-0x7F; long shared key
// 0x30-0x33 with a following low byte; short strings at 0x80-0xBF and
// 0xC0-0xF7; long key 0x34 terminated by 0xFC.
func (d *Decoder) dispatchKey(lead byte) (string, error) {
	switch {
	case lead == 0x20:
		return "", nil
	case lead >= 0x30 && lead <= 0x33:
		next, ok, err := d.src.Next()
		if err != nil {
			return "", ioErr(err)
		}
		if !ok {
			return "", newErr(EofWhileParsingMap, "truncated long shared key reference")
		}
		idx := (int(lead-0x30) << 8) | int(next)
		return d.resolvePropRef(idx)
	case lead == 0x34:
		buf, ok, err := d.src.ReadUntil(0xfc)
		if err != nil {
			return "", ioErr(err)
		}
		if !ok {
			return "", newErr(EofWhileParsingMap, "unterminated long key")
		}
		s, err := d.bytesToUTF8(buf.B)
		if err != nil {
			return "", err
		}
		d.internProp(s)
		return s, nil
	case lead >= 0x40 && lead <= 0x7f:
		return d.resolvePropRef(int(lead - 0x40))
	case lead >= 0x80 && lead <= 0xbf:
		return d.readKeyShortString(int(lead-0x80) + 1)
	case lead >= 0xc0 && lead <= 0xf7:
		return d.readKeyShortString(int(lead-0xc0) + 2)
	default:
		return "", newErr(InvalidType, "lead byte %#x is not a valid key token", lead)
	}
}

func (d *Decoder) readKeyShortString(n int) (string, error) {
	buf, ok, err := d.src.Read(n)
	if err != nil {
		return "", ioErr(err)
	}
	if !ok {
		return "", newErr(EofWhileParsingMap, "truncated short key")
	}
	s, err := d.bytesToUTF8(buf.B)
	if err != nil {
		return "", err
	}
	d.internProp(s)
	return s, nil
}

func (d *Decoder) resolveValueRef(idx int) (string, error) {
	if d.valueCache == nil {
		return "", newErr(InvalidStringReference, "shared value strings disabled")
	}
	s, ok := d.valueCache.Get(idx)
	if !ok {
		return "", newErr(InvalidStringReference, "index %d out of range", idx)
	}
	return s, nil
}

func (d *Decoder) resolvePropRef(idx int) (string, error) {
	if d.propCache == nil {
		return "", newErr(InvalidStringReference, "shared properties disabled")
	}
	s, ok := d.propCache.Get(idx)
	if !ok {
		return "", newErr(InvalidStringReference, "index %d out of range", idx)
	}
	return s, nil
}

func (d *Decoder) internValue(s string) {
	if d.valueCache != nil && len(s) <= wire.MaxSharedStringBytes {
		if d.valueCache.Intern(s) {
			d.logger.Debug("smile: value string cache wrapped", Fields{"cache": "value"})
		}
	}
}

func (d *Decoder) internProp(s string) {
	if d.propCache != nil && len(s) <= wire.MaxSharedStringBytes {
		if d.propCache.Intern(s) {
			d.logger.Debug("smile: property string cache wrapped", Fields{"cache": "property"})
		}
	}
}

func (d *Decoder) bytesToUTF8(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", newErr(InvalidUtf8, "decoded bytes are not valid utf-8")
	}
	return string(b), nil
}

func (d *Decoder) readShortString(n int) (string, error) {
	buf, ok, err := d.src.Read(n)
	if err != nil {
		return "", ioErr(err)
	}
	if !ok {
		return "", newErr(EofWhileParsingValue, "truncated short string")
	}
	s, err := d.bytesToUTF8(buf.B)
	if err != nil {
		return "", err
	}
	d.internValue(s)
	return s, nil
}

func (d *Decoder) readLongString() (string, error) {
	buf, ok, err := d.src.ReadUntil(0xfc)
	if err != nil {
		return "", ioErr(err)
	}
	if !ok {
		return "", newErr(EofWhileParsingValue, "unterminated long string")
	}
	s, err := d.bytesToUTF8(buf.B)
	if err != nil {
		return "", err
	}
	d.internValue(s)
	return s, nil
}

func (d *Decoder) readRawBinary() ([]byte, error) {
	n, err := wire.DecodeVInt(d.src, 10)
	if err != nil {
		return nil, translateVIntErr(err)
	}
	if n > math.MaxInt32 {
		return nil, newErr(BufferLengthOverflow, "raw binary length %d overflows", n)
	}
	buf, ok, err := d.src.Read(int(n))
	if err != nil {
		return nil, ioErr(err)
	}
	if !ok {
		return nil, newErr(EofWhileParsingValue, "truncated raw binary payload")
	}
	return append([]byte(nil), buf.B...), nil
}

func (d *Decoder) readPacked() ([]byte, error) {
	n, err := wire.DecodeVInt(d.src, 10)
	if err != nil {
		return nil, translateVIntErr(err)
	}
	if n > math.MaxInt32 {
		return nil, newErr(BufferLengthOverflow, "packed raw length %d overflows", n)
	}
	encLen, err := wire.Pack7BitLen(int(n))
	if err != nil {
		return nil, newErr(BufferLengthOverflow, "packed length overflow for raw length %d", n)
	}
	buf, ok, err := d.src.ReadMut(encLen)
	if err != nil {
		return nil, ioErr(err)
	}
	if !ok {
		return nil, newErr(EofWhileParsingValue, "truncated 7-bit packed payload")
	}
	return wire.UnpackBits7(buf.B, int(n)), nil
}

func (d *Decoder) readFloat32() (float32, error) {
	buf, ok, err := d.src.Read(5)
	if err != nil {
		return 0, ioErr(err)
	}
	if !ok {
		return 0, newErr(EofWhileParsingValue, "truncated float32 payload")
	}
	shifts := [5]uint{28, 21, 14, 7, 0}
	var bits uint32
	for i, sh := range shifts {
		bits |= uint32(buf.B[i]&0x7f) << sh
	}
	return float32FromBits(bits), nil
}

func (d *Decoder) readFloat64() (float64, error) {
	buf, ok, err := d.src.Read(10)
	if err != nil {
		return 0, ioErr(err)
	}
	if !ok {
		return 0, newErr(EofWhileParsingValue, "truncated float64 payload")
	}
	shifts := [10]uint{63, 56, 49, 42, 35, 28, 21, 14, 7, 0}
	var bits uint64
	for i, sh := range shifts {
		bits |= uint64(buf.B[i]&0x7f) << sh
	}
	return float64FromBits(bits), nil
}

func (d *Decoder) readBigDecimal() (int32, []byte, error) {
	u, err := wire.DecodeVInt(d.src, 5)
	if err != nil {
		return 0, nil, translateVIntErr(err)
	}
	scale := wire.UnZigZag32(uint32(u))
	unscaled, err := d.readPacked()
	if err != nil {
		return 0, nil, err
	}
	return scale, unscaled, nil
}

func translateVIntErr(err error) error {
	if err == wire.ErrUnterminatedVInt {
		return newErr(UnterminatedVint, "vint did not terminate within its byte budget")
	}
	if err == wire.ErrEOF {
		return newErr(EofWhileParsingValue, "eof while parsing vint")
	}
	if ioe, ok := err.(*wire.ErrIO); ok {
		return ioErr(ioe.Err)
	}
	return newErr(Custom, "%v", err)
}
