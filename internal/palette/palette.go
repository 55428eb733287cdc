// Package palette encodes and decodes P3S color palettes: the legacy
// on-wire layout (rows/cols/defaultColor/defaultBg header, now discarded on
// read), the current layout shared by the top-level PALETTE chunk and the
// shape-embedded SHAPE_PALETTE sub-chunk, and the canonical-order projection
// writers use to remap block indices.
package palette

import (
	"github.com/pkg/errors"

	"github.com/shykes/cubzh/internal/bstream"
	"github.com/shykes/cubzh/internal/perr"
)

// MaxColors is the maximum number of entries a single palette may hold.
const MaxColors = 255

// Color is an RGBA color, one entry of a Palette.
type Color struct {
	R, G, B, A uint8
}

// Palette is an ordered list of colors plus a parallel emissive flag per
// entry.
type Palette struct {
	Colors   []Color
	Emissive []bool
}

// New returns an empty palette.
func New() *Palette {
	return &Palette{}
}

// Count returns the number of entries.
func (p *Palette) Count() int { return len(p.Colors) }

// Append adds a color (and its emissive flag) and returns its index.
func (p *Palette) Append(c Color, emissive bool) (uint8, error) {
	if len(p.Colors) >= MaxColors {
		return 0, errors.Wrap(perr.ErrAllocationFailed, "palette: exceeds max color count")
	}
	p.Colors = append(p.Colors, c)
	p.Emissive = append(p.Emissive, emissive)
	return uint8(len(p.Colors) - 1), nil
}

// Clone returns a deep, independent copy of p.
func (p *Palette) Clone() *Palette {
	cp := &Palette{
		Colors:   make([]Color, len(p.Colors)),
		Emissive: make([]bool, len(p.Emissive)),
	}
	copy(cp.Colors, p.Colors)
	copy(cp.Emissive, p.Emissive)
	return cp
}

// DecodeLegacy parses the PALETTE_LEGACY on-wire layout:
//
//	u8 rows | u8 cols | u16 colorCount | u8 defaultColor | u8 defaultBg |
//	RGBA[colorCount] | bool[colorCount] emissive
//
// rows, cols, defaultColor, and defaultBg are consumed and discarded; they
// carried no information this codec (or spec.md) assigns any meaning to.
func DecodeLegacy(r *bstream.Reader) (*Palette, error) {
	if _, err := r.ReadU8(); err != nil { // rows
		return nil, errors.Wrap(err, "palette: read legacy rows")
	}
	if _, err := r.ReadU8(); err != nil { // cols
		return nil, errors.Wrap(err, "palette: read legacy cols")
	}
	colorCount, err := r.ReadU16()
	if err != nil {
		return nil, errors.Wrap(err, "palette: read legacy colorCount")
	}
	if _, err := r.ReadU8(); err != nil { // defaultColor
		return nil, errors.Wrap(err, "palette: read legacy defaultColor")
	}
	if _, err := r.ReadU8(); err != nil { // defaultBg
		return nil, errors.Wrap(err, "palette: read legacy defaultBg")
	}
	return decodeColors(r, int(colorCount))
}

// Decode parses the current on-wire layout:
//
//	u8 colorCount | RGBA[colorCount] | bool[colorCount] emissive
func Decode(r *bstream.Reader) (*Palette, error) {
	colorCount, err := r.ReadU8()
	if err != nil {
		return nil, errors.Wrap(err, "palette: read colorCount")
	}
	return decodeColors(r, int(colorCount))
}

func decodeColors(r *bstream.Reader, count int) (*Palette, error) {
	p := &Palette{
		Colors:   make([]Color, count),
		Emissive: make([]bool, count),
	}
	for i := 0; i < count; i++ {
		rgba, err := r.ReadExact(4)
		if err != nil {
			return nil, errors.Wrapf(err, "palette: read color %d", i)
		}
		p.Colors[i] = Color{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
	}
	for i := 0; i < count; i++ {
		b, err := r.ReadU8()
		if err != nil {
			return nil, errors.Wrapf(err, "palette: read emissive flag %d", i)
		}
		p.Emissive[i] = b != 0
	}
	return p, nil
}

// Encode writes the current on-wire layout (used for both the top-level
// PALETTE chunk and the embedded SHAPE_PALETTE sub-chunk payload).
func Encode(sink *bstream.Sink, p *Palette) error {
	if p.Count() > MaxColors {
		return errors.Wrapf(perr.ErrAllocationFailed, "palette: %d colors exceeds max %d", p.Count(), MaxColors)
	}
	sink.WriteU8(uint8(p.Count()))
	for _, c := range p.Colors {
		sink.WriteBytes([]byte{c.R, c.G, c.B, c.A})
	}
	for _, e := range p.Emissive {
		if e {
			sink.WriteU8(1)
		} else {
			sink.WriteU8(0)
		}
	}
	return nil
}

// Remap is a permutation from an in-memory color index to its serialized
// index.
type Remap map[uint8]uint8

// OrderedProjection returns the canonical serialized form of p (this
// implementation's canonical order is simply insertion order: palettes are
// never reordered, sorted, or deduplicated) together with the identity
// remap table block indices are rewritten through on write.
//
// Keeping canonical order equal to insertion order means the remap table is
// always the identity permutation for palettes built in-process; it still
// exists as a named, first-class value (rather than being inlined away)
// because the SINGLE-mode "shrink" path (spec.md SceneCodec) builds a
// genuinely non-identity per-shape remap as it streams blocks through a
// fresh, growing palette.
func (p *Palette) OrderedProjection() (*Palette, Remap) {
	remap := make(Remap, p.Count())
	for i := range p.Colors {
		remap[uint8(i)] = uint8(i)
	}
	return p, remap
}
