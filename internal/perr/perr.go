// Package perr holds the sentinel error kinds shared by every layer of the
// P3S codec (bstream, chunkio, palette, shape, and the root p3s package).
// Call sites wrap these with github.com/pkg/errors so errors.Is still
// matches the sentinel while the wrap carries a stack trace and context.
package perr

import "errors"

var (
	// ErrTruncated means the stream ended mid-field or mid-chunk.
	ErrTruncated = errors.New("p3s: truncated stream")
	// ErrBadMagic means the header magic did not match.
	ErrBadMagic = errors.New("p3s: bad magic")
	// ErrUnsupportedVersion means the format version was not 6.
	ErrUnsupportedVersion = errors.New("p3s: unsupported format version")
	// ErrBadCompression means an unknown algo byte, or zlib failed.
	ErrBadCompression = errors.New("p3s: bad compression")
	// ErrBadChunk means a required sub-chunk was absent, or a field size
	// was self-inconsistent.
	ErrBadChunk = errors.New("p3s: bad chunk")
	// ErrAllocationFailed means a requested buffer could not be obtained.
	ErrAllocationFailed = errors.New("p3s: allocation failed")
)
