package smile

import (
	"io"

	"github.com/unkn0wn-root/smile/internal/wire"
)

// StreamDecoder yields a lazy sequence of top-level documents from one byte
// source, implementing the "concatenated headered documents" interpretation
// of the format: a fresh four-byte header is expected before every
// document, including the first. See DESIGN.md for why this variant was
// chosen over the single-header/multiple-document alternative.
type StreamDecoder struct {
	src     wire.Source
	opts    []Option
	stopped bool
	err     error
}

// NewStreamDecoder builds a StreamDecoder reading from r.
func NewStreamDecoder(r io.Reader, opts ...Option) *StreamDecoder {
	return &StreamDecoder{src: wire.NewBufReaderSource(r), opts: opts}
}

// NewStreamDecoderFromSlice builds a StreamDecoder over a shared, read-only
// byte slice.
func NewStreamDecoderFromSlice(b []byte, opts ...Option) *StreamDecoder {
	return &StreamDecoder{src: wire.NewSliceSource(b), opts: opts}
}

// Next decodes the next document, if any. ok is false once the stream is
// exhausted (via EOF or an explicit 0xFF at the position a header would
// otherwise start) or after an error has already been surfaced once.
func (s *StreamDecoder) Next() (v Value, ok bool, err error) {
	if s.stopped {
		return Value{}, false, nil
	}

	b, has, ierr := s.src.Peek()
	if ierr != nil {
		s.stopped = true
		s.err = ioErr(ierr)
		return Value{}, false, s.err
	}
	if !has {
		s.stopped = true
		return Value{}, false, nil
	}
	if b == 0xff {
		s.src.Consume()
		s.stopped = true
		return Value{}, false, nil
	}

	d, derr := newDecoder(s.src, s.opts)
	if derr != nil {
		s.stopped = true
		s.err = derr
		return Value{}, false, derr
	}
	val, derr := d.DecodeValue()
	if derr != nil {
		s.stopped = true
		s.err = derr
		return Value{}, false, derr
	}
	return val, true, nil
}

// Err returns the error, if any, that caused the stream to stop.
func (s *StreamDecoder) Err() error { return s.err }
