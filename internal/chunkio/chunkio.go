// Package chunkio frames and unframes the top-level chunks of a P3S file.
//
// Two header shapes coexist for historical reasons: the V5 header (used only
// by the PREVIEW chunk, payload always raw) and the V6 header (used by
// PALETTE, PALETTE_LEGACY, PALETTE_ID, and SHAPE, payload optionally
// zlib-compressed). The caller picks the header shape by chunk id; chunkio
// does not infer it from the bytes.
//
// This generalizes the teacher repo's readChunk (one fixed frame shape,
// dispatch by 4-byte ASCII chunk code) into two frame shapes dispatched by a
// numeric id, with transparent zlib handling layered on top.
package chunkio

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"

	"github.com/shykes/cubzh/internal/bstream"
	"github.com/shykes/cubzh/internal/perr"
)

// Chunk ids recognized at the scene level.
const (
	Preview       = uint8(1)
	PaletteLegacy = uint8(2)
	Shape         = uint8(3)
	PaletteID     = uint8(15)
	Palette       = uint8(16)
)

// CompressNone and CompressZlib are the per-chunk compression flags.
const (
	CompressNone = uint8(0)
	CompressZlib = uint8(1)
)

// Algo values for the scene-level header's compressionAlgo byte.
const (
	AlgoNone = uint8(0)
	AlgoZip  = uint8(1)
)

// UsesV5Header reports whether id is framed with the legacy V5 header
// (PREVIEW, and any chunk id the reader does not recognize).
func UsesV5Header(id uint8) bool {
	return !UsesV6Header(id)
}

// UsesV6Header reports whether id is one of the known chunk ids framed with
// the V6 header (PALETTE_LEGACY, SHAPE, PALETTE_ID, PALETTE). Any id that is
// neither this nor PREVIEW is unknown and falls back to V5 framing.
func UsesV6Header(id uint8) bool {
	switch id {
	case PaletteLegacy, Shape, PaletteID, Palette:
		return true
	default:
		return false
	}
}

// Frame is a materialized, decompressed top-level chunk.
type Frame struct {
	ID      uint8
	Payload []byte
}

// ReadFrame reads one chunk starting at r's current position. Dispatch
// between the V5 and V6 header shapes is purely by id: V5 for PREVIEW,
// V6 for everything else known to the scene layer. Unknown ids are read
// with the V5 shape, per the format's "tolerate what you don't understand"
// rule (spec: unknown top-level chunks are skipped using V5 framing).
func ReadFrame(r *bstream.Reader) (Frame, error) {
	id, err := r.ReadU8()
	if err != nil {
		return Frame{}, errors.Wrap(err, "chunkio: read chunk id")
	}
	if UsesV6Header(id) {
		return readV6(r, id)
	}
	return readV5(r, id)
}

func readV5(r *bstream.Reader, id uint8) (Frame, error) {
	size, err := r.ReadU32()
	if err != nil {
		return Frame{}, errors.Wrapf(err, "chunkio: read v5 size for chunk %d", id)
	}
	payload, err := r.ReadExact(int(size))
	if err != nil {
		return Frame{}, errors.Wrapf(err, "chunkio: read v5 payload for chunk %d", id)
	}
	return Frame{ID: id, Payload: payload}, nil
}

func readV6(r *bstream.Reader, id uint8) (Frame, error) {
	storedSize, err := r.ReadU32()
	if err != nil {
		return Frame{}, errors.Wrapf(err, "chunkio: read v6 storedSize for chunk %d", id)
	}
	isCompressed, err := r.ReadU8()
	if err != nil {
		return Frame{}, errors.Wrapf(err, "chunkio: read v6 compressed flag for chunk %d", id)
	}
	uncompressedSize, err := r.ReadU32()
	if err != nil {
		return Frame{}, errors.Wrapf(err, "chunkio: read v6 uncompressedSize for chunk %d", id)
	}
	stored, err := r.ReadExact(int(storedSize))
	if err != nil {
		return Frame{}, errors.Wrapf(err, "chunkio: read v6 payload for chunk %d", id)
	}
	switch isCompressed {
	case CompressNone:
		return Frame{ID: id, Payload: stored}, nil
	case CompressZlib:
		payload, err := inflate(stored, int(uncompressedSize))
		if err != nil {
			return Frame{}, errors.Wrapf(perr.ErrBadCompression, "chunkio: inflate chunk %d: %v", id, err)
		}
		return Frame{ID: id, Payload: payload}, nil
	default:
		return Frame{}, errors.Wrapf(perr.ErrBadCompression, "chunkio: unknown compression flag %d for chunk %d", isCompressed, id)
	}
}

func inflate(src []byte, expected int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	dst := make([]byte, 0, expected)
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, zr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deflate(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFrame appends a chunk with the given id and raw (uncompressed)
// payload to sink, using whichever header shape the id requires. If
// compress is true and id uses the V6 header, the payload is zlib-deflated
// and storedSize reflects the compressed length actually written.
func WriteFrame(sink *bstream.Sink, id uint8, payload []byte, compress bool) error {
	if UsesV5Header(id) {
		sink.WriteU8(id)
		sink.WriteU32(uint32(len(payload)))
		sink.WriteBytes(payload)
		return nil
	}
	sink.WriteU8(id)
	if compress {
		stored, err := deflate(payload)
		if err != nil {
			return errors.Wrapf(perr.ErrBadCompression, "chunkio: deflate chunk %d: %v", id, err)
		}
		sink.WriteU32(uint32(len(stored)))
		sink.WriteU8(CompressZlib)
		sink.WriteU32(uint32(len(payload)))
		sink.WriteBytes(stored)
		return nil
	}
	sink.WriteU32(uint32(len(payload)))
	sink.WriteU8(CompressNone)
	sink.WriteU32(uint32(len(payload)))
	sink.WriteBytes(payload)
	return nil
}
