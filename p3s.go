package p3s

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/shykes/cubzh/internal/bstream"
	"github.com/shykes/cubzh/internal/chunkio"
	"github.com/shykes/cubzh/internal/legacy"
	"github.com/shykes/cubzh/internal/palette"
	"github.com/shykes/cubzh/internal/perr"
	"github.com/shykes/cubzh/internal/shape"
)

// LoadAssets reads a full P3S container from r and returns the assets it
// asked for via filter. atlas may be nil, in which case this package's
// built-in placeholder legacy ramps (internal/legacy) are used for
// LEGACY-mode files.
//
// Errors during a load abort the whole load: either a complete result is
// returned, or a single error is, never both (spec.md §7).
func LoadAssets(r io.Reader, atlas ColorAtlas, filter AssetFilter, settings ShapeSettings) ([]Asset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "p3s: read stream")
	}
	br := bstream.NewReader(data)

	magic, err := br.ReadExact(len(MagicBytes))
	if err != nil {
		return nil, errors.Wrap(perr.ErrTruncated, "p3s: read magic")
	}
	if !bytes.Equal(magic, MagicBytes) {
		return nil, errors.Wrap(perr.ErrBadMagic, "p3s: magic mismatch")
	}
	version, err := br.ReadU32()
	if err != nil {
		return nil, errors.Wrap(perr.ErrTruncated, "p3s: read version")
	}
	if version != FormatVersion {
		return nil, errors.Wrapf(perr.ErrUnsupportedVersion, "p3s: version %d", version)
	}
	if _, err := br.ReadU8(); err != nil { // compression algo: informational only, see spec.md §4.5
		return nil, errors.Wrap(perr.ErrTruncated, "p3s: read compression algo")
	}
	totalSize, err := br.ReadU32()
	if err != nil {
		return nil, errors.Wrap(perr.ErrTruncated, "p3s: read total size")
	}
	end := br.Position() + int(totalSize)
	if end > len(data) {
		return nil, errors.Wrapf(perr.ErrTruncated, "p3s: totalSize %d exceeds stream", totalSize)
	}

	var preview []byte
	var topPalette *palette.Palette
	legacyID := legacy.DefaultPaletteID
	haveLegacyID := false
	var declared []*shape.Shape

	for br.Position() < end {
		frame, err := chunkio.ReadFrame(br)
		if err != nil {
			return nil, err
		}
		switch frame.ID {
		case chunkio.Preview:
			preview = frame.Payload
		case chunkio.PaletteLegacy:
			pal, err := palette.DecodeLegacy(bstream.NewReader(frame.Payload))
			if err != nil {
				return nil, err
			}
			topPalette = pal
		case chunkio.Palette:
			pal, err := palette.Decode(bstream.NewReader(frame.Payload))
			if err != nil {
				return nil, err
			}
			topPalette = pal
		case chunkio.PaletteID:
			if len(frame.Payload) < 1 {
				return nil, errors.Wrap(perr.ErrBadChunk, "p3s: empty PALETTE_ID payload")
			}
			legacyID = legacy.PaletteID(frame.Payload[0])
			haveLegacyID = true
		case chunkio.Shape:
			s, err := shape.Decode(frame.Payload, pkgLogger)
			if err != nil {
				return nil, err
			}
			if !settings.MaterializeLighting {
				s.Lighting = nil
			}
			declared = append(declared, s)
			if s.ParentID != 0 {
				if int(s.ParentID) > len(declared)-1 || s.ParentID < 1 {
					return nil, errors.Wrapf(perr.ErrBadChunk, "p3s: shape %d has out-of-range parentId %d", s.ShapeID, s.ParentID)
				}
				parent := declared[s.ParentID-1]
				parent.Children = append(parent.Children, s)
			}
		default:
			// unrecognized top-level chunk: already consumed by ReadFrame's
			// fallback V5 path; only reported to the diagnostic logger.
			pkgLogger.Printf("p3s: skipping unknown chunk id %d (%d bytes)", frame.ID, len(frame.Payload))
		}
	}

	if err := resolvePalettes(declared, topPalette, legacyID, haveLegacyID, atlas); err != nil {
		return nil, err
	}

	var assets []Asset
	if filter&FilterShape != 0 {
		for _, s := range declared {
			assets = append(assets, Asset{Kind: AssetKindShape, Shape: s})
		}
	}
	if filter&FilterPalette != 0 && anyEmbedded(declared) && topPalette != nil {
		assets = append(assets, Asset{Kind: AssetKindPalette, Palette: topPalette})
	}
	_ = preview // preview is retrieved via GetPreview, not LoadAssets; kept parsed above to advance the cursor correctly
	return assets, nil
}

func anyEmbedded(declared []*shape.Shape) bool {
	for _, s := range declared {
		if s.Palette != nil {
			return true
		}
	}
	return false
}

// resolvePalettes implements the three palette-compatibility modes from
// spec.md §4.5 (MULTI / SINGLE / LEGACY), dispatched by what was actually
// observed while streaming the file.
func resolvePalettes(declared []*shape.Shape, topPalette *palette.Palette, legacyID legacy.PaletteID, haveLegacyID bool, atlas ColorAtlas) error {
	if anyEmbedded(declared) {
		var root *shape.Shape
		for _, s := range declared {
			if s.ParentID == 0 {
				root = s
				break
			}
		}
		for _, s := range declared {
			if s.Palette == nil && root != nil {
				s.Palette = root.Palette
			}
		}
		return nil
	}
	if topPalette != nil {
		if topPalette.Count() <= palette.MaxColors {
			for _, s := range declared {
				s.Palette = topPalette.Clone()
			}
			return nil
		}
		for _, s := range declared {
			pal, blocks, err := shrinkPalette(topPalette, s.Blocks)
			if err != nil {
				return err
			}
			s.Palette, s.Blocks = pal, blocks
		}
		return nil
	}
	_ = haveLegacyID
	for _, s := range declared {
		pal, blocks, err := buildLegacyPalette(atlas, legacyID, s.Blocks)
		if err != nil {
			return err
		}
		s.Palette, s.Blocks = pal, blocks
	}
	return nil
}

// shrinkPalette implements the SINGLE-mode overflow path: the top-level
// palette exceeds the 255-entry per-shape limit, so each shape gets a fresh,
// empty palette populated on demand from the colors its own blocks actually
// reference, with block indices remapped to the fresh palette.
func shrinkPalette(top *palette.Palette, blocks []byte) (*palette.Palette, []byte, error) {
	fresh := palette.New()
	mapping := make(map[uint8]uint8)
	out := make([]byte, len(blocks))
	for i, b := range blocks {
		if b == shape.AirBlock {
			out[i] = shape.AirBlock
			continue
		}
		nv, ok := mapping[b]
		if !ok {
			if int(b) >= top.Count() {
				return nil, nil, errors.Wrapf(perr.ErrBadChunk, "p3s: block index %d out of range for top-level palette (%d colors)", b, top.Count())
			}
			idx, err := fresh.Append(top.Colors[b], top.Emissive[b])
			if err != nil {
				return nil, nil, err
			}
			nv = idx
			mapping[b] = nv
		}
		out[i] = nv
	}
	return fresh, out, nil
}

// buildLegacyPalette implements LEGACY mode: there is no palette chunk at
// all, so each shape's colors come from a built-in ramp (atlas first, then
// this package's placeholder ramps), appended to a fresh per-shape palette
// on demand as each distinct block index is first seen.
func buildLegacyPalette(atlas ColorAtlas, id legacy.PaletteID, blocks []byte) (*palette.Palette, []byte, error) {
	fresh := palette.New()
	mapping := make(map[uint8]uint8)
	out := make([]byte, len(blocks))
	for i, b := range blocks {
		if b == shape.AirBlock {
			out[i] = shape.AirBlock
			continue
		}
		nv, ok := mapping[b]
		if !ok {
			var c palette.Color
			var emissive, found bool
			if atlas != nil {
				c, emissive, found = atlas.Lookup(id, b)
			}
			if !found {
				c, emissive, found = legacy.Lookup(id, b)
			}
			idx, err := fresh.Append(c, emissive)
			if err != nil {
				return nil, nil, err
			}
			nv = idx
			mapping[b] = nv
		}
		out[i] = nv
	}
	return fresh, out, nil
}

// SaveShape serializes the shape tree rooted at root (plus an optional
// opaque preview) to w in full P3S format.
func SaveShape(w io.Writer, root *Shape, preview []byte) error {
	buf, err := SaveShapeToBuffer(root, nil, preview)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return errors.Wrap(err, "p3s: write shape buffer")
}

// SaveShapeToBuffer is SaveShape, returning a freshly allocated buffer
// instead of writing to a stream. artistPalette, if non-nil, is written as a
// standalone top-level PALETTE chunk (the MULTI-mode "artist palette"). A
// nil root writes a scene with zero shape chunks (an empty scene).
func SaveShapeToBuffer(root *Shape, artistPalette *Palette, preview []byte) ([]byte, error) {
	sink := bstream.NewSink()
	sink.WriteBytes(MagicBytes)
	sink.WriteU32(FormatVersion)
	sink.WriteU8(chunkio.AlgoZip)
	totalSizeOffset := sink.Len()
	sink.WriteU32(0)
	chunkRegionStart := sink.Len()

	if preview != nil {
		if err := chunkio.WriteFrame(sink, chunkio.Preview, preview, false); err != nil {
			return nil, err
		}
	}
	if artistPalette != nil {
		orderedPal, _ := artistPalette.OrderedProjection()
		palSink := bstream.NewSink()
		if err := palette.Encode(palSink, orderedPal); err != nil {
			return nil, err
		}
		if err := chunkio.WriteFrame(sink, chunkio.Palette, palSink.Bytes(), true); err != nil {
			return nil, err
		}
	}

	var ordered []*Shape
	if root != nil {
		ordered = assignShapeIDs(root)
	}
	for _, s := range ordered {
		var embed *palette.Palette
		var remap palette.Remap
		if s.Palette != nil && (s == root || root.Palette == nil || s.Palette != root.Palette) {
			orderedPal, rm := s.Palette.OrderedProjection()
			embed = orderedPal
			remap = rm
		}
		envelope := bstream.NewSink()
		if err := shape.Encode(envelope, s, embed, remap); err != nil {
			return nil, err
		}
		if err := chunkio.WriteFrame(sink, chunkio.Shape, envelope.Bytes(), true); err != nil {
			return nil, err
		}
	}

	totalSize := sink.Len() - chunkRegionStart
	sink.PatchU32(totalSizeOffset, uint32(totalSize))
	return sink.Bytes(), nil
}

// assignShapeIDs walks root in pre-order DFS, assigning a 1-based
// monotonically increasing ShapeID and setting each shape's ParentID to its
// parent's freshly assigned id (0 for root), per spec.md §4.5.
func assignShapeIDs(root *Shape) []*Shape {
	var ordered []*Shape
	var walk func(s *Shape, parentID uint16)
	walk = func(s *Shape, parentID uint16) {
		s.ShapeID = uint16(len(ordered) + 1)
		s.ParentID = parentID
		ordered = append(ordered, s)
		for _, c := range s.Children {
			walk(c, s.ShapeID)
		}
	}
	walk(root, 0)
	return ordered
}
