// Package p3s implements the P3S (.3zh) version-6 voxel scene codec: a
// chunked, optionally zlib-compressed container holding a hierarchy of
// voxel shapes, each with its own color palette, block grid, named points,
// local transform, optional collision box, optional baked lighting, and an
// optional PNG preview.
//
// The only surfaces this package exposes are loading assets from a byte
// stream and saving a shape tree to a stream or buffer; rendering, editing,
// pathfinding, and physics are out of scope (see SPEC_FULL.md §1, §12).
package p3s

import (
	"github.com/shykes/cubzh/internal/legacy"
	"github.com/shykes/cubzh/internal/palette"
	"github.com/shykes/cubzh/internal/shape"
)

// MagicBytes identifies a P3S container. No original_source bytes were
// retrievable for this pack to confirm the historical magic value (see
// DESIGN.md); this is a documented placeholder, not a reproduction of any
// real on-disk constant.
var MagicBytes = []byte{'P', '3', 'S', '!'}

// FormatVersion is the only version this codec understands; spec.md §1
// explicitly leaves versions <= 5 to a separate legacy reader.
const FormatVersion = uint32(6)

// Shape, Vec3, Transform, AABB, and LightingRecord are the domain types
// ShapeCodec operates on (internal/shape); aliased here so callers never
// need to import the internal package directly.
type (
	Shape          = shape.Shape
	Vec3           = shape.Vec3
	Transform      = shape.Transform
	AABB           = shape.AABB
	LightingRecord = shape.LightingRecord
)

// AirBlock is the reserved sentinel marking an empty grid cell.
const AirBlock = shape.AirBlock

// NewShape returns a Shape with its point maps initialized.
func NewShape() *Shape { return shape.New() }

// Palette and Color are PaletteCodec's domain types (internal/palette).
type (
	Palette = palette.Palette
	Color   = palette.Color
)

// NewPalette returns an empty palette.
func NewPalette() *Palette { return palette.New() }

// LegacyPaletteID selects one of the built-in LEGACY-mode palettes
// (spec.md §4.5).
type LegacyPaletteID = legacy.PaletteID

const (
	IOSItemEditorLegacy = legacy.IOSItemEditorLegacy
	Palette2021         = legacy.Palette2021
)

// ColorAtlas is the externally-owned, borrowed-reference collaborator this
// codec queries for legacy-palette colors by built-in palette id. It is
// consulted before this package's own built-in ramps, so a caller with the
// real historical palette data can override the placeholder ramps in
// internal/legacy without forking this package.
type ColorAtlas interface {
	Lookup(id LegacyPaletteID, blockIndex uint8) (color Color, emissive bool, ok bool)
}

// AssetFilter is a bitmask selecting which asset kinds LoadAssets returns.
type AssetFilter uint8

const (
	FilterPalette AssetFilter = 1 << iota
	FilterShape
	// FilterObject is kept distinct from FilterShape in the bitmask (per
	// spec.md §6's {Palette, Shape, Object, Any} filter) but this codec
	// treats "object" and "shape" as the same node kind: the format's own
	// sub-chunk names (OBJECT_COLLISION_BOX, OBJECT_IS_HIDDEN) describe
	// shape-level flags, not a distinct asset kind. FilterObject is an
	// alias of FilterShape rather than a separate filtering dimension.
	FilterObject = FilterShape

	FilterAny = FilterPalette | FilterShape
)

// AssetKind discriminates the tagged union Asset.
type AssetKind int

const (
	AssetKindPalette AssetKind = iota
	AssetKindShape
)

// Asset is one entry of a LoadAssets result: either a standalone Palette
// (the MULTI-mode "artist palette", spec.md §4.5) or a Shape.
type Asset struct {
	Kind    AssetKind
	Palette *Palette
	Shape   *Shape
}

// ShapeSettings configures how LoadAssets materializes shapes.
type ShapeSettings struct {
	// Mutable reports whether loaded shapes should be usable as mutable
	// (editable) objects by the caller. This codec never mutates a shape
	// itself after decode; the flag is surfaced for collaborators that
	// wrap the result in a copy-on-write or immutable view.
	Mutable bool
	// MaterializeLighting controls whether SHAPE_BAKED_LIGHTING payloads
	// are decoded into Shape.Lighting at all; when false, baked lighting
	// sub-chunks are parsed (to keep the envelope cursor correct) but
	// discarded rather than retained.
	MaterializeLighting bool
}
