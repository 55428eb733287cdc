package shape

import (
	"github.com/pkg/errors"

	"github.com/shykes/cubzh/internal/bstream"
	"github.com/shykes/cubzh/internal/palette"
	"github.com/shykes/cubzh/internal/perr"
)

// Sub-chunk ids, recognized only inside a SHAPE envelope.
const (
	subSize             = uint8(4)
	subBlocks           = uint8(5)
	subPoint            = uint8(6)
	subBakedLighting    = uint8(7)
	subPointRotation    = uint8(8)
	subShapeID          = uint8(17)
	subShapeName        = uint8(18) // irregular: no u32 size prefix, see spec.md §4.4
	subShapeParentID    = uint8(19)
	subShapeTransform   = uint8(20)
	subShapePivot       = uint8(21)
	subShapePalette     = uint8(22)
	subObjectCollision  = uint8(23)
	subObjectIsHidden   = uint8(24)
)

// Logger is the minimal diagnostic sink used to report non-fatal drops
// (e.g. a bad baked-lighting size). A nil Logger means "don't log".
type Logger interface {
	Printf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// Decode parses a single shape's already-decompressed sub-chunk stream.
// SHAPE_SIZE must be discoverable somewhere in the envelope before
// SHAPE_BLOCKS can be materialized; if SHAPE_BLOCKS is encountered first,
// its bytes are buffered and decoded once SHAPE_SIZE is seen (or the
// envelope ends, in which case decoding fails with perr.ErrBadChunk).
//
// Points, point rotations, and the pivot are NOT translated back to an
// external origin on read: the caller observes them in the shape's
// local-origin (AABB-min) frame, exactly as spec.md §3 and §4.4 require.
//
// A SHAPE envelope that decompresses to zero bytes is rejected outright
// (spec.md §7): there is no such thing as an empty shape, only a malformed
// one.
func Decode(envelope []byte, log Logger) (*Shape, error) {
	if len(envelope) == 0 {
		return nil, errors.Wrap(perr.ErrBadChunk, "shape: empty envelope")
	}
	if log == nil {
		log = noopLogger{}
	}
	r := bstream.NewReader(envelope)
	s := New()

	sizeSet := false
	var w, h, d int
	var pendingBlocks []byte
	var pendingLighting []byte

	for {
		if r.Remaining() < 1 {
			break
		}
		start := r.Position()
		subID, err := r.ReadU8()
		if err != nil {
			return nil, errors.Wrap(err, "shape: read sub-chunk id")
		}

		if subID == subShapeName {
			nameLen, err := r.ReadU8()
			if err != nil {
				return nil, errors.Wrap(err, "shape: read SHAPE_NAME length")
			}
			nameBytes, err := r.ReadExact(int(nameLen))
			if err != nil {
				return nil, errors.Wrap(err, "shape: read SHAPE_NAME bytes")
			}
			s.Name = string(nameBytes)
			continue
		}

		if r.Remaining() < 4 {
			// Not enough bytes left to even read a subSize: stop here per
			// spec.md §4.4's unknown-sub-chunk tail-padding rule.
			_ = r.Seek(start)
			break
		}
		subSizeVal, err := r.ReadU32()
		if err != nil {
			return nil, errors.Wrap(err, "shape: read sub-chunk size")
		}
		payload, err := r.ReadExact(int(subSizeVal))
		if err != nil {
			return nil, errors.Wrap(err, "shape: read sub-chunk payload")
		}

		switch subID {
		case subSize:
			if len(payload) != 6 {
				return nil, errors.Wrapf(perr.ErrBadChunk, "shape: SHAPE_SIZE payload is %d bytes, want 6", len(payload))
			}
			pr := bstream.NewReader(payload)
			wv, _ := pr.ReadU16()
			hv, _ := pr.ReadU16()
			dv, _ := pr.ReadU16()
			s.Size = [3]uint16{wv, hv, dv}
			w, h, d = int(wv), int(hv), int(dv)
			sizeSet = true
			if pendingBlocks != nil {
				if err := applyBlocks(s, pendingBlocks, w, h, d); err != nil {
					return nil, err
				}
				pendingBlocks = nil
			}
			if pendingLighting != nil {
				applyLighting(s, pendingLighting, w, h, d, log)
				pendingLighting = nil
			}
		case subBlocks:
			if !sizeSet {
				pendingBlocks = append([]byte(nil), payload...)
			} else if err := applyBlocks(s, payload, w, h, d); err != nil {
				return nil, err
			}
		case subPoint:
			name, pos, err := decodeNamedVec3(payload)
			if err != nil {
				return nil, errors.Wrap(err, "shape: decode SHAPE_POINT")
			}
			s.Points[name] = pos
		case subPointRotation:
			name, rot, err := decodeNamedVec3(payload)
			if err != nil {
				return nil, errors.Wrap(err, "shape: decode SHAPE_POINT_ROTATION")
			}
			s.PointRotations[name] = rot
		case subBakedLighting:
			if !sizeSet {
				pendingLighting = append([]byte(nil), payload...)
			} else {
				applyLighting(s, payload, w, h, d, log)
			}
		case subShapeID:
			pr := bstream.NewReader(payload)
			v, err := pr.ReadU16()
			if err != nil {
				return nil, errors.Wrap(err, "shape: decode SHAPE_ID")
			}
			s.ShapeID = v
		case subShapeParentID:
			pr := bstream.NewReader(payload)
			v, err := pr.ReadU16()
			if err != nil {
				return nil, errors.Wrap(err, "shape: decode SHAPE_PARENT_ID")
			}
			s.ParentID = v
		case subShapeTransform:
			t, err := decodeTransform(payload)
			if err != nil {
				return nil, errors.Wrap(err, "shape: decode SHAPE_TRANSFORM")
			}
			s.Transform = t
		case subShapePivot:
			v, err := decodeVec3(payload)
			if err != nil {
				return nil, errors.Wrap(err, "shape: decode SHAPE_PIVOT")
			}
			s.Pivot = v
		case subShapePalette:
			pr := bstream.NewReader(payload)
			pal, err := palette.Decode(pr)
			if err != nil {
				return nil, errors.Wrap(err, "shape: decode SHAPE_PALETTE")
			}
			s.Palette = pal
		case subObjectCollision:
			if len(payload) != 24 {
				return nil, errors.Wrapf(perr.ErrBadChunk, "shape: OBJECT_COLLISION_BOX payload is %d bytes, want 24", len(payload))
			}
			min, _ := decodeVec3(payload[:12])
			max, _ := decodeVec3(payload[12:])
			box := AABB{Min: min, Max: max}
			s.Collision = &box
		case subObjectIsHidden:
			if len(payload) != 1 {
				return nil, errors.Wrapf(perr.ErrBadChunk, "shape: OBJECT_IS_HIDDEN payload is %d bytes, want 1", len(payload))
			}
			s.Hidden = payload[0] != 0
		default:
			// unknown sub-chunk: already skipped by virtue of having read
			// and discarded its length-prefixed payload above.
		}
	}

	if pendingBlocks != nil {
		return nil, errors.Wrapf(perr.ErrBadChunk, "shape: SHAPE_BLOCKS present but SHAPE_SIZE never found in envelope")
	}
	if pendingLighting != nil {
		log.Printf("shape: dropping SHAPE_BAKED_LIGHTING, SHAPE_SIZE never found in envelope")
	}
	return s, nil
}

func applyBlocks(s *Shape, payload []byte, w, h, d int) error {
	want := w * h * d
	if len(payload) != want {
		return errors.Wrapf(perr.ErrBadChunk, "shape: SHAPE_BLOCKS is %d bytes, want %d (%dx%dx%d)", len(payload), want, w, h, d)
	}
	s.Blocks = append([]byte(nil), payload...)
	return nil
}

func applyLighting(s *Shape, payload []byte, w, h, d int, log Logger) {
	const recSize = 6
	want := w * h * d * recSize
	if len(payload) != want {
		log.Printf("shape: dropping SHAPE_BAKED_LIGHTING, size %d != expected %d (%dx%dx%d cells)", len(payload), want, w, h, d)
		return
	}
	n := w * h * d
	recs := make([]LightingRecord, n)
	for i := 0; i < n; i++ {
		o := i * recSize
		recs[i] = LightingRecord{
			SunR: payload[o], SunG: payload[o+1], SunB: payload[o+2],
			EmitR: payload[o+3], EmitG: payload[o+4], EmitB: payload[o+5],
		}
	}
	s.Lighting = recs
}

func decodeVec3(b []byte) (Vec3, error) {
	if len(b) != 12 {
		return Vec3{}, errors.Wrapf(perr.ErrBadChunk, "shape: vec3 payload is %d bytes, want 12", len(b))
	}
	r := bstream.NewReader(b)
	x, _ := r.ReadF32()
	y, _ := r.ReadF32()
	z, _ := r.ReadF32()
	return Vec3{X: x, Y: y, Z: z}, nil
}

func decodeTransform(b []byte) (Transform, error) {
	if len(b) != 36 {
		return Transform{}, errors.Wrapf(perr.ErrBadChunk, "shape: transform payload is %d bytes, want 36", len(b))
	}
	pos, _ := decodeVec3(b[0:12])
	rot, _ := decodeVec3(b[12:24])
	scale, _ := decodeVec3(b[24:36])
	return Transform{Position: pos, Rotation: rot, Scale: scale}, nil
}

func decodeNamedVec3(b []byte) (string, Vec3, error) {
	if len(b) < 1 {
		return "", Vec3{}, errors.Wrap(perr.ErrBadChunk, "shape: named vec3 payload too short for name length")
	}
	nameLen := int(b[0])
	if len(b) < 1+nameLen+12 {
		return "", Vec3{}, errors.Wrapf(perr.ErrBadChunk, "shape: named vec3 payload is %d bytes, want >= %d", len(b), 1+nameLen+12)
	}
	name := string(b[1 : 1+nameLen])
	v, err := decodeVec3(b[1+nameLen : 1+nameLen+12])
	if err != nil {
		return "", Vec3{}, err
	}
	return name, v, nil
}
