// Package shape implements ShapeCodec: encoding and decoding a single P3S
// shape chunk as a stream of typed sub-chunks inside an already-decompressed
// envelope, including the AABB-relative coordinate normalization described
// in spec.md §4.4.
package shape

import "github.com/shykes/cubzh/internal/palette"

// AirBlock is the reserved sentinel marking an empty grid cell.
const AirBlock = uint8(255)

// Vec3 is a float32 3-vector: a position, a scale, or an Euler rotation in
// radians depending on context.
type Vec3 struct {
	X, Y, Z float32
}

// Sub subtracts o from v component-wise.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Transform is a shape's local transform relative to its parent.
type Transform struct {
	Position Vec3
	Rotation Vec3 // Euler XYZ radians, written directly without normalization
	Scale    Vec3
}

// AABB is an axis-aligned box in block-grid integer coordinates, half-open
// on the max corner: occupied cells satisfy Min <= cell < Max per axis.
type AABB struct {
	Min, Max Vec3
}

// LightingRecord is one baked-vertex-lighting cell: a direct sunlight color
// and an emissive color, 6 bytes total. See DESIGN.md for why this specific
// layout was chosen (no original-source bytes were available to confirm the
// historical layout).
type LightingRecord struct {
	SunR, SunG, SunB    uint8
	EmitR, EmitG, EmitB uint8
}

// Shape is a single voxel object: the in-memory form ShapeCodec produces on
// read and consumes on write.
type Shape struct {
	ShapeID  uint16
	ParentID uint16 // 0 = root

	Size   [3]uint16 // w, h, d as stored/loaded (the occupied-AABB-trimmed box)
	Blocks []byte    // len == w*h*d, one palette index per cell, AirBlock = empty

	Palette *palette.Palette // owned, or a shared reference to the root's

	Name string // <=255 bytes, UTF-8 opaque

	Transform Transform
	Pivot     Vec3

	Collision *AABB // nil = default collider
	Hidden    bool

	Points         map[string]Vec3
	PointRotations map[string]Vec3

	Lighting []LightingRecord // nil if absent or dropped (bad size)

	Children []*Shape
}

// New returns a Shape with its maps initialized.
func New() *Shape {
	return &Shape{
		Points:         make(map[string]Vec3),
		PointRotations: make(map[string]Vec3),
	}
}

// Dims returns the shape's block-grid dimensions as ints.
func (s *Shape) Dims() (w, h, d int) {
	return int(s.Size[0]), int(s.Size[1]), int(s.Size[2])
}

// Index returns the linear block-array offset for grid coordinate (x,y,z):
// x-major, then y, then z (x varies fastest), per spec.md §4.4.
func Index(w, h, x, y, z int) int {
	return x + y*w + z*w*h
}
