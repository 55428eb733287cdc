package p3s

import "github.com/shykes/cubzh/internal/perr"

// Error kinds a Load or Save call can fail with (spec.md §7). Each is a
// sentinel value; wrap sites throughout this module use
// github.com/pkg/errors so errors.Is still matches while the wrap carries a
// stack trace and context.
var (
	ErrTruncated          = perr.ErrTruncated
	ErrBadMagic           = perr.ErrBadMagic
	ErrUnsupportedVersion = perr.ErrUnsupportedVersion
	ErrBadCompression     = perr.ErrBadCompression
	ErrBadChunk           = perr.ErrBadChunk
	ErrAllocationFailed   = perr.ErrAllocationFailed
)
