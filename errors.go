package smile

import "fmt"

// Kind discriminates the terminal error conditions a Decoder or Encoder can
// raise. Only Io carries a wrapped cause; every other kind is self-describing.
type Kind int

const (
	// Io wraps an underlying stream-level error from the byte source.
	Io Kind = iota
	// Custom carries a caller- or adapter-supplied message.
	Custom
	// KeyMustBeAString names the format's non-string-key error. Neither
	// Decoder nor Encoder raises it: a token outside the key table is
	// InvalidType, and Encoder.WriteMapKey only accepts a string.
	KeyMustBeAString
	// EofWhileParsingValue is raised when the byte source runs out of input
	// mid-value.
	EofWhileParsingValue
	// EofWhileParsingHeader is raised when fewer than four header bytes are
	// available.
	EofWhileParsingHeader
	// EofWhileParsingArray is raised when EOF is seen before an array's
	// closing token.
	EofWhileParsingArray
	// EofWhileParsingMap is raised when EOF is seen before a map's closing
	// token.
	EofWhileParsingMap
	// ReservedToken is raised when a lead byte in a reserved range is seen.
	ReservedToken
	// InvalidStringReference is raised when a back-reference token points
	// outside the live range of its cache, or when the relevant cache is
	// disabled by the header flags.
	InvalidStringReference
	// UnterminatedVint is raised when a VInt does not terminate within its
	// byte budget.
	UnterminatedVint
	// BufferLengthOverflow is raised when a 7-bit packed length computation
	// overflows.
	BufferLengthOverflow
	// InvalidUtf8 is raised when a decoded string's bytes are not valid
	// UTF-8.
	InvalidUtf8
	// RecursionLimitExceeded is raised when container nesting exceeds the
	// fixed depth budget.
	RecursionLimitExceeded
	// TrailingData is raised when bytes other than the 0xFF end marker
	// follow a successfully decoded top-level value.
	TrailingData
	// UnexpectedToken is raised when a lead byte does not belong to any
	// valid family at the current parse position.
	UnexpectedToken
	// InvalidHeader is raised when the leading three magic bytes don't
	// match.
	InvalidHeader
	// UnsupportedVersion is raised when the header's high nibble is
	// nonzero.
	UnsupportedVersion
	// InvalidType is raised when a map-key position holds a token outside
	// the key-token table, or when the built-in Value visitor receives a map
	// value without a preceding key.
	InvalidType
	// UnsupportedValue is raised when EncodeValue is given a Value whose
	// Kind is not one of the defined ValueKind constants.
	UnsupportedValue
)

func (k Kind) String() string {
	switch k {
	case Io:
		return "io"
	case Custom:
		return "custom"
	case KeyMustBeAString:
		return "key must be a string"
	case EofWhileParsingValue:
		return "eof while parsing value"
	case EofWhileParsingHeader:
		return "eof while parsing header"
	case EofWhileParsingArray:
		return "eof while parsing array"
	case EofWhileParsingMap:
		return "eof while parsing map"
	case ReservedToken:
		return "reserved token"
	case InvalidStringReference:
		return "invalid string reference"
	case UnterminatedVint:
		return "unterminated vint"
	case BufferLengthOverflow:
		return "buffer length overflow"
	case InvalidUtf8:
		return "invalid utf-8"
	case RecursionLimitExceeded:
		return "recursion limit exceeded"
	case TrailingData:
		return "trailing data"
	case UnexpectedToken:
		return "unexpected token"
	case InvalidHeader:
		return "invalid header"
	case UnsupportedVersion:
		return "unsupported version"
	case InvalidType:
		return "invalid type"
	case UnsupportedValue:
		return "unsupported value"
	default:
		return "unknown"
	}
}

// Error is the single error type Decoder and Encoder operations return. It
// carries a Kind, an optional message, and — for the Io kind only — a
// wrapped underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("smile: %s: %s", e.Kind, e.Message)
	}
	return "smile: " + e.Kind.String()
}

// Unwrap returns the wrapped cause for an Io error, and nil otherwise,
// letting errors.Is/errors.As reach the underlying stream error.
func (e *Error) Unwrap() error {
	if e.Kind == Io {
		return e.Cause
	}
	return nil
}

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ioErr(cause error) *Error {
	return &Error{Kind: Io, Message: cause.Error(), Cause: cause}
}
