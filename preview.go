package p3s

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/shykes/cubzh/internal/chunkio"
	"github.com/shykes/cubzh/internal/perr"
)

// GetPreview scans r only until the PREVIEW chunk is found, reading
// sequentially and never decompressing a SHAPE (or any other V6-framed)
// chunk along the way: non-PREVIEW chunks are skipped by their own framing
// without touching their payload bytes. If the stream has no PREVIEW chunk,
// GetPreview returns (nil, nil).
func GetPreview(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, errors.Wrap(perr.ErrTruncated, "p3s: read magic")
	}
	if !bytes.Equal(magic, MagicBytes) {
		return nil, errors.Wrap(perr.ErrBadMagic, "p3s: magic mismatch")
	}
	var header [9]byte // u32 version | u8 algo | u32 totalSize
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, errors.Wrap(perr.ErrTruncated, "p3s: read header")
	}
	version := binary.LittleEndian.Uint32(header[0:4])
	if version != FormatVersion {
		return nil, errors.Wrapf(perr.ErrUnsupportedVersion, "p3s: version %d", version)
	}

	for {
		id, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, errors.Wrap(perr.ErrTruncated, "p3s: read chunk id")
		}
		if id == chunkio.Preview {
			var sizeBuf [4]byte
			if _, err := io.ReadFull(br, sizeBuf[:]); err != nil {
				return nil, errors.Wrap(perr.ErrTruncated, "p3s: read preview size")
			}
			size := binary.LittleEndian.Uint32(sizeBuf[:])
			payload := make([]byte, size)
			if _, err := io.ReadFull(br, payload); err != nil {
				return nil, errors.Wrap(perr.ErrTruncated, "p3s: read preview payload")
			}
			return payload, nil
		}
		if err := skipChunk(br, id); err != nil {
			return nil, err
		}
	}
}

// skipChunk advances past one chunk's payload (of either framing shape)
// without materializing or decompressing it.
func skipChunk(br *bufio.Reader, id byte) error {
	if chunkio.UsesV6Header(id) {
		var head [9]byte // u32 storedSize | u8 isCompressed | u32 uncompressedSize
		if _, err := io.ReadFull(br, head[:]); err != nil {
			return errors.Wrap(perr.ErrTruncated, "p3s: read v6 header")
		}
		storedSize := binary.LittleEndian.Uint32(head[0:4])
		_, err := io.CopyN(io.Discard, br, int64(storedSize))
		if err != nil {
			return errors.Wrap(perr.ErrTruncated, "p3s: skip v6 payload")
		}
		return nil
	}
	var sizeBuf [4]byte
	if _, err := io.ReadFull(br, sizeBuf[:]); err != nil {
		return errors.Wrap(perr.ErrTruncated, "p3s: read v5 size")
	}
	size := binary.LittleEndian.Uint32(sizeBuf[:])
	_, err := io.CopyN(io.Discard, br, int64(size))
	if err != nil {
		return errors.Wrap(perr.ErrTruncated, "p3s: skip v5 payload")
	}
	return nil
}
