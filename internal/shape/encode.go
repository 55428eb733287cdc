package shape

import (
	"sort"

	"github.com/shykes/cubzh/internal/bstream"
	"github.com/shykes/cubzh/internal/palette"
)

// Encode flattens s into an uncompressed sub-chunk stream (the payload of a
// SHAPE envelope before ChunkCodec compresses and frames it).
//
// If pal is non-nil it is written as an embedded SHAPE_PALETTE sub-chunk
// (the caller decides, per the scene's palette-compatibility mode, whether
// this shape should own an embedded palette or share the root shape's); pal is
// expected to already be in canonical/serialized order. remap, if non-nil,
// rewrites each non-AIR block byte from its in-memory index to its
// serialized index before the grid is written (spec.md §4.3); a nil remap
// leaves block bytes untouched.
//
// The occupied bounding box of s.Blocks is computed first; only that box is
// written, and the shape's pivot and points of interest are translated by
// its minimum corner (point *rotations* are written unchanged), per
// spec.md §4.4.
func Encode(sink *bstream.Sink, s *Shape, pal *palette.Palette, remap palette.Remap) error {
	w, h, d := s.Dims()
	minX, minY, minZ, maxX, maxY, maxZ, any := occupiedBounds(s.Blocks, w, h, d)
	if !any {
		minX, minY, minZ = 0, 0, 0
		maxX, maxY, maxZ = w-1, h-1, d-1
		if w == 0 {
			maxX = -1
		}
		if h == 0 {
			maxY = -1
		}
		if d == 0 {
			maxZ = -1
		}
	}
	tw, th, td := maxX-minX+1, maxY-minY+1, maxZ-minZ+1
	if tw < 0 {
		tw = 0
	}
	if th < 0 {
		th = 0
	}
	if td < 0 {
		td = 0
	}
	start := Vec3{X: float32(minX), Y: float32(minY), Z: float32(minZ)}

	trimmed := trimBlocks(s.Blocks, w, h, minX, minY, minZ, tw, th, td)
	if remap != nil {
		for i, b := range trimmed {
			if b == AirBlock {
				continue
			}
			if nv, ok := remap[b]; ok {
				trimmed[i] = nv
			}
		}
	}

	sink.WriteU8(subSize)
	sink.WriteU32(6)
	sink.WriteU16(uint16(tw))
	sink.WriteU16(uint16(th))
	sink.WriteU16(uint16(td))

	sink.WriteU8(subBlocks)
	sink.WriteU32(uint32(len(trimmed)))
	sink.WriteBytes(trimmed)

	sink.WriteU8(subShapeID)
	sink.WriteU32(2)
	sink.WriteU16(s.ShapeID)

	sink.WriteU8(subShapeParentID)
	sink.WriteU32(2)
	sink.WriteU16(s.ParentID)

	if s.Name != "" {
		sink.WriteU8(subShapeName)
		sink.WriteU8(uint8(len(s.Name)))
		sink.WriteBytes([]byte(s.Name))
	}

	sink.WriteU8(subShapeTransform)
	sink.WriteU32(36)
	writeVec3(sink, s.Transform.Position)
	writeVec3(sink, s.Transform.Rotation)
	writeVec3(sink, s.Transform.Scale)

	sink.WriteU8(subShapePivot)
	sink.WriteU32(12)
	writeVec3(sink, s.Pivot.Sub(start))

	if pal != nil {
		palSink := bstream.NewSink()
		if err := palette.Encode(palSink, pal); err != nil {
			return err
		}
		sink.WriteU8(subShapePalette)
		sink.WriteU32(uint32(palSink.Len()))
		sink.WriteBytes(palSink.Bytes())
	}

	for _, name := range sortedKeys(s.Points) {
		writeNamedVec3(sink, subPoint, name, s.Points[name].Sub(start))
	}
	for _, name := range sortedKeys(s.PointRotations) {
		writeNamedVec3(sink, subPointRotation, name, s.PointRotations[name])
	}

	if s.Collision != nil {
		sink.WriteU8(subObjectCollision)
		sink.WriteU32(24)
		writeVec3(sink, s.Collision.Min)
		writeVec3(sink, s.Collision.Max)
	}

	if s.Hidden {
		sink.WriteU8(subObjectIsHidden)
		sink.WriteU32(1)
		sink.WriteU8(1)
	}

	if s.Lighting != nil {
		trimmedLighting := trimLighting(s.Lighting, w, h, minX, minY, minZ, tw, th, td)
		sink.WriteU8(subBakedLighting)
		sink.WriteU32(uint32(len(trimmedLighting) * 6))
		for _, rec := range trimmedLighting {
			sink.WriteBytes([]byte{rec.SunR, rec.SunG, rec.SunB, rec.EmitR, rec.EmitG, rec.EmitB})
		}
	}

	return nil
}

func occupiedBounds(blocks []byte, w, h, d int) (minX, minY, minZ, maxX, maxY, maxZ int, any bool) {
	minX, minY, minZ = w, h, d
	maxX, maxY, maxZ = -1, -1, -1
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if blocks[Index(w, h, x, y, z)] == AirBlock {
					continue
				}
				any = true
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if z < minZ {
					minZ = z
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
				if z > maxZ {
					maxZ = z
				}
			}
		}
	}
	return
}

func trimBlocks(blocks []byte, w, h, minX, minY, minZ, tw, th, td int) []byte {
	out := make([]byte, tw*th*td)
	for i := range out {
		out[i] = AirBlock
	}
	for z := 0; z < td; z++ {
		for y := 0; y < th; y++ {
			for x := 0; x < tw; x++ {
				out[Index(tw, th, x, y, z)] = blocks[Index(w, h, x+minX, y+minY, z+minZ)]
			}
		}
	}
	return out
}

func trimLighting(lighting []LightingRecord, w, h, minX, minY, minZ, tw, th, td int) []LightingRecord {
	out := make([]LightingRecord, tw*th*td)
	for z := 0; z < td; z++ {
		for y := 0; y < th; y++ {
			for x := 0; x < tw; x++ {
				out[Index(tw, th, x, y, z)] = lighting[Index(w, h, x+minX, y+minY, z+minZ)]
			}
		}
	}
	return out
}

func writeVec3(sink *bstream.Sink, v Vec3) {
	sink.WriteF32(v.X)
	sink.WriteF32(v.Y)
	sink.WriteF32(v.Z)
}

func writeNamedVec3(sink *bstream.Sink, subID uint8, name string, v Vec3) {
	sink.WriteU8(subID)
	sink.WriteU32(uint32(1 + len(name) + 12))
	sink.WriteU8(uint8(len(name)))
	sink.WriteBytes([]byte(name))
	writeVec3(sink, v)
}

func sortedKeys(m map[string]Vec3) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
