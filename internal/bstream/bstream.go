// Package bstream implements the cursor abstraction every other P3S codec
// layer is built on: typed little-endian reads over a seekable in-memory
// buffer, plus the mirrored append-only sink used by writers.
//
// The shape is generalized from the teacher repo's hand-rolled readChunk,
// which read fixed-size buffers straight off an io.Reader with no cursor at
// all; here the whole payload is materialized once (chunks are already
// length-prefixed, so their bytes are available up front) and every
// multi-byte field is decoded relative to a single moving offset.
package bstream

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/shykes/cubzh/internal/perr"
)

// Reader is a cursor over an in-memory byte buffer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential (and occasionally seeking) reads.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Position returns the current cursor offset.
func (r *Reader) Position() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Seek moves the cursor to an absolute offset. Seeking out of bounds fails.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.buf) {
		return errors.Wrapf(perr.ErrTruncated, "seek to %d out of bounds (len %d)", pos, len(r.buf))
	}
	r.pos = pos
	return nil
}

// Skip advances the cursor by n bytes without returning them. An
// out-of-bounds skip fails with ErrTruncated.
func (r *Reader) Skip(n int) error {
	if n < 0 || n > r.Remaining() {
		return errors.Wrapf(perr.ErrTruncated, "skip(%d) exceeds remaining %d", n, r.Remaining())
	}
	r.pos += n
	return nil
}

// ReadExact returns the next n bytes and advances the cursor.
func (r *Reader) ReadExact(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, errors.Wrapf(perr.ErrTruncated, "readExact(%d) exceeds remaining %d", n, r.Remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU8 reads a single unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadF32 reads a little-endian IEEE-754 float32.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Sink is the append-only mirror of Reader, used by writers.
type Sink struct {
	buf []byte
}

// NewSink returns an empty Sink.
func NewSink() *Sink { return &Sink{} }

// Bytes returns the accumulated buffer.
func (s *Sink) Bytes() []byte { return s.buf }

// Len returns the number of bytes written so far.
func (s *Sink) Len() int { return len(s.buf) }

// WriteU8 appends a single byte.
func (s *Sink) WriteU8(v uint8) { s.buf = append(s.buf, v) }

// WriteU16 appends a little-endian uint16.
func (s *Sink) WriteU16(v uint16) {
	s.buf = append(s.buf, byte(v), byte(v>>8))
}

// WriteU32 appends a little-endian uint32.
func (s *Sink) WriteU32(v uint32) {
	s.buf = append(s.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// WriteF32 appends a little-endian IEEE-754 float32.
func (s *Sink) WriteF32(v float32) {
	s.WriteU32(math.Float32bits(v))
}

// WriteBytes appends raw bytes verbatim.
func (s *Sink) WriteBytes(b []byte) {
	s.buf = append(s.buf, b...)
}

// PatchU32 overwrites 4 bytes at offset with a little-endian uint32. Used to
// patch size fields after the fact (e.g. totalSize, storedSize).
func (s *Sink) PatchU32(offset int, v uint32) {
	binary.LittleEndian.PutUint32(s.buf[offset:offset+4], v)
}
