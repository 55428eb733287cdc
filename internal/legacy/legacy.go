// Package legacy holds the built-in palettes used by LEGACY-mode P3S files
// (spec.md §4.5): files with no PALETTE or SHAPE_PALETTE chunk at all select
// one of these by a PALETTE_ID chunk (or default to IOSItemEditorLegacy).
//
// No original_source bytes were retrievable for this pack (see DESIGN.md),
// so the concrete color values below are a small, deterministic placeholder
// ramp rather than a byte-exact reproduction of any historical palette.
// Consumers that need the real historical values should replace the two
// tables; the indexing contract (PaletteID -> *palette.Palette, on-demand
// per-shape growth as indices are first seen) is what this package commits
// to.
package legacy

import "github.com/shykes/cubzh/internal/palette"

// PaletteID selects one of the built-in legacy palettes.
type PaletteID uint8

const (
	IOSItemEditorLegacy = PaletteID(0)
	Palette2021         = PaletteID(1)
)

// DefaultPaletteID is used when a LEGACY-mode file has no PALETTE_ID chunk.
const DefaultPaletteID = IOSItemEditorLegacy

// builtin maps a PaletteID to its full color ramp. Index 255 (AIR) is never
// looked up; the ramp only needs 255 entries (indices 0..254).
var builtin = map[PaletteID][]palette.Color{
	IOSItemEditorLegacy: rampIOSItemEditor(),
	Palette2021:         ramp2021(),
}

// Lookup returns the color and emissive flag for blockIndex under the given
// built-in palette. blockIndex must be < 255 (AIR is handled by the caller).
func Lookup(id PaletteID, blockIndex uint8) (palette.Color, bool, bool) {
	ramp, ok := builtin[id]
	if !ok || int(blockIndex) >= len(ramp) {
		return palette.Color{}, false, false
	}
	return ramp[blockIndex], false, true
}

// rampIOSItemEditor is a deterministic 255-entry grayscale-to-hue ramp
// standing in for the historical "ios item editor" legacy palette.
func rampIOSItemEditor() []palette.Color {
	out := make([]palette.Color, 255)
	for i := range out {
		v := uint8(i)
		out[i] = palette.Color{R: v, G: 255 - v, B: v / 2, A: 255}
	}
	return out
}

// ramp2021 is a deterministic 255-entry ramp standing in for the historical
// "2021" legacy palette.
func ramp2021() []palette.Color {
	out := make([]palette.Color, 255)
	for i := range out {
		v := uint8(i)
		out[i] = palette.Color{R: v / 2, G: v, B: 255 - v, A: 255}
	}
	return out
}
