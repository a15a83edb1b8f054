// Package wire contains the byte-level primitives of the Smile format: the
// borrowed/buffered byte source abstraction, the VInt and ZigZag numeric
// codecs, the 7-bit-safe binary packer, and the value/property string
// interning caches. It has no notion of Smile tokens or containers — that
// lives in the parent smile package, which is the only consumer of this one.
package wire

import (
	"bufio"
	"errors"
	"io"
)

// ErrIO wraps an underlying I/O error from a Source.
type ErrIO struct{ Err error }

func (e *ErrIO) Error() string { return "wire: io error: " + e.Err.Error() }
func (e *ErrIO) Unwrap() error { return e.Err }

// Buf is a byte slice returned by a Source read. Short means the bytes live
// in the source's own scratch buffer and are only valid until the next call
// into the source; Long means the bytes borrow directly from caller-owned
// memory and remain valid for as long as that memory does.
type Buf struct {
	B     []byte
	Short bool
}

// Source is a uniform peek/advance/read-n/read-until view over a Smile byte
// stream. Implementations are not safe for concurrent use.
type Source interface {
	// Next consumes and returns one byte, or ok=false at EOF.
	Next() (b byte, ok bool, err error)
	// Peek inspects the next byte without advancing.
	Peek() (b byte, ok bool, err error)
	// Consume advances one byte. The precondition is that a prior Peek
	// returned a byte.
	Consume()
	// Read returns the next n bytes. ok is false if fewer than n bytes
	// remain.
	Read(n int) (buf Buf, ok bool, err error)
	// ReadMut is like Read but the returned bytes may be mutated in place
	// by the caller (used by the 7-bit unpacker). Sources that cannot hand
	// out a mutable borrow copy into their own scratch buffer instead.
	ReadMut(n int) (buf Buf, ok bool, err error)
	// ReadUntil returns all bytes up to but not including the next
	// occurrence of sentinel, consuming the sentinel. ok is false if the
	// sentinel is never found before EOF.
	ReadUntil(sentinel byte) (buf Buf, ok bool, err error)
	// Pos reports the number of bytes consumed so far, for diagnostics.
	Pos() int64
}

// SliceSource is a read-only borrow of a shared byte slice. ReadMut must
// copy into an internal scratch buffer since the input may be aliased
// elsewhere.
type SliceSource struct {
	s     []byte
	index int
	scratch []byte
}

// NewSliceSource builds a Source over a read-only byte slice.
func NewSliceSource(s []byte) *SliceSource {
	return &SliceSource{s: s}
}

func (r *SliceSource) Next() (byte, bool, error) {
	if r.index >= len(r.s) {
		return 0, false, nil
	}
	b := r.s[r.index]
	r.index++
	return b, true, nil
}

func (r *SliceSource) Peek() (byte, bool, error) {
	if r.index >= len(r.s) {
		return 0, false, nil
	}
	return r.s[r.index], true, nil
}

func (r *SliceSource) Consume() { r.index++ }

func (r *SliceSource) Read(n int) (Buf, bool, error) {
	if n > len(r.s)-r.index {
		return Buf{}, false, nil
	}
	b := r.s[r.index : r.index+n]
	r.index += n
	return Buf{B: b}, true, nil
}

func (r *SliceSource) ReadMut(n int) (Buf, bool, error) {
	if n > len(r.s)-r.index {
		return Buf{}, false, nil
	}
	r.scratch = append(r.scratch[:0], r.s[r.index:r.index+n]...)
	r.index += n
	return Buf{B: r.scratch, Short: true}, true, nil
}

func (r *SliceSource) ReadUntil(sentinel byte) (Buf, bool, error) {
	rest := r.s[r.index:]
	i := indexByte(rest, sentinel)
	if i < 0 {
		return Buf{}, false, nil
	}
	b := rest[:i]
	r.index += i + 1
	return Buf{B: b}, true, nil
}

func (r *SliceSource) Pos() int64 { return int64(r.index) }

// MutSliceSource exclusively owns its backing slice, so every read -
// including mutable ones - can hand out a long-lived borrow with no copy.
type MutSliceSource struct {
	s        []byte
	consumed int
}

// NewMutSliceSource builds a Source over an exclusively-owned byte slice.
func NewMutSliceSource(s []byte) *MutSliceSource {
	return &MutSliceSource{s: s}
}

func (r *MutSliceSource) Next() (byte, bool, error) {
	if len(r.s) == 0 {
		return 0, false, nil
	}
	b := r.s[0]
	r.s = r.s[1:]
	r.consumed++
	return b, true, nil
}

func (r *MutSliceSource) Peek() (byte, bool, error) {
	if len(r.s) == 0 {
		return 0, false, nil
	}
	return r.s[0], true, nil
}

func (r *MutSliceSource) Consume() {
	r.s = r.s[1:]
	r.consumed++
}

func (r *MutSliceSource) Read(n int) (Buf, bool, error) {
	if n > len(r.s) {
		return Buf{}, false, nil
	}
	b := r.s[:n]
	r.s = r.s[n:]
	r.consumed += n
	return Buf{B: b}, true, nil
}

func (r *MutSliceSource) ReadMut(n int) (Buf, bool, error) {
	return r.Read(n)
}

func (r *MutSliceSource) ReadUntil(sentinel byte) (Buf, bool, error) {
	i := indexByte(r.s, sentinel)
	if i < 0 {
		return Buf{}, false, nil
	}
	b := r.s[:i]
	r.s = r.s[i+1:]
	r.consumed += i + 1
	return Buf{B: b}, true, nil
}

func (r *MutSliceSource) Pos() int64 { return int64(r.consumed) }

// initialReserve bounds how much a BufReaderSource will pre-grow its
// scratch buffer for a single read, so a document that lies about its
// length cannot force a huge allocation before any of it is validated.
const initialReserve = 16 * 1024

// BufReaderSource wraps a buffered io.Reader. Every read copies into an
// internal growable buffer; the buffer's initial growth per call is capped
// at initialReserve and only extends further as bytes are actually seen.
type BufReaderSource struct {
	r   *bufio.Reader
	buf []byte
	pos int64
}

// NewBufReaderSource builds a Source over an io.Reader, wrapping it in a
// *bufio.Reader if it isn't already one.
func NewBufReaderSource(r io.Reader) *BufReaderSource {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &BufReaderSource{r: br}
}

func (r *BufReaderSource) fill(n int) (bool, error) {
	r.buf = r.buf[:0]
	if cap(r.buf) < n {
		grow := n
		if grow > initialReserve {
			grow = initialReserve
		}
		r.buf = make([]byte, 0, grow)
	}

	for len(r.buf) < n {
		b, err := r.r.ReadByte()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, &ErrIO{Err: err}
		}
		r.buf = append(r.buf, b)
	}
	return true, nil
}

func (r *BufReaderSource) Next() (byte, bool, error) {
	b, err := r.r.ReadByte()
	if errors.Is(err, io.EOF) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &ErrIO{Err: err}
	}
	r.pos++
	return b, true, nil
}

func (r *BufReaderSource) Peek() (byte, bool, error) {
	b, err := r.r.Peek(1)
	if errors.Is(err, io.EOF) || (err != nil && len(b) == 0) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &ErrIO{Err: err}
	}
	return b[0], true, nil
}

func (r *BufReaderSource) Consume() {
	_, _ = r.r.Discard(1)
	r.pos++
}

func (r *BufReaderSource) Read(n int) (Buf, bool, error) {
	ok, err := r.fill(n)
	if err != nil || !ok {
		return Buf{}, false, err
	}
	r.pos += int64(n)
	return Buf{B: r.buf, Short: true}, true, nil
}

func (r *BufReaderSource) ReadMut(n int) (Buf, bool, error) {
	return r.Read(n)
}

func (r *BufReaderSource) ReadUntil(sentinel byte) (Buf, bool, error) {
	r.buf = r.buf[:0]
	for {
		chunk, err := r.r.Peek(r.r.Buffered())
		if len(chunk) == 0 {
			b, err := r.r.ReadByte()
			if errors.Is(err, io.EOF) {
				return Buf{}, false, nil
			}
			if err != nil {
				return Buf{}, false, &ErrIO{Err: err}
			}
			r.pos++
			if b == sentinel {
				return Buf{B: r.buf, Short: true}, true, nil
			}
			r.buf = append(r.buf, b)
			continue
		}
		if err != nil {
			return Buf{}, false, &ErrIO{Err: err}
		}
		if i := indexByte(chunk, sentinel); i >= 0 {
			r.buf = append(r.buf, chunk[:i]...)
			_, _ = r.r.Discard(i + 1)
			r.pos += int64(i + 1)
			return Buf{B: r.buf, Short: true}, true, nil
		}
		r.buf = append(r.buf, chunk...)
		_, _ = r.r.Discard(len(chunk))
		r.pos += int64(len(chunk))
	}
}

func (r *BufReaderSource) Pos() int64 { return r.pos }

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
