package p3s

import (
	"bytes"
	"testing"

	"github.com/shykes/cubzh/internal/bstream"
	"github.com/shykes/cubzh/internal/chunkio"
	"github.com/shykes/cubzh/internal/legacy"
	"github.com/shykes/cubzh/internal/palette"
	"github.com/shykes/cubzh/internal/shape"
)

// (a) LEGACY mode: no PALETTE or embedded SHAPE_PALETTE chunk anywhere, only
// a PALETTE_ID chunk. Each shape's colors must come from the matching
// built-in ramp (internal/legacy), on-demand per distinct block index.
func TestLegacyModeViaPaletteID(t *testing.T) {
	s := shape.New()
	s.Size = [3]uint16{1, 1, 1}
	s.Blocks = []byte{3}
	envelope := bstream.NewSink()
	if err := shape.Encode(envelope, s, nil, nil); err != nil {
		t.Fatal(err)
	}

	sink := bstream.NewSink()
	sink.WriteBytes(MagicBytes)
	sink.WriteU32(FormatVersion)
	sink.WriteU8(chunkio.AlgoZip)
	totalOff := sink.Len()
	sink.WriteU32(0)
	chunkStart := sink.Len()

	if err := chunkio.WriteFrame(sink, chunkio.PaletteID, []byte{byte(legacy.Palette2021)}, false); err != nil {
		t.Fatal(err)
	}
	if err := chunkio.WriteFrame(sink, chunkio.Shape, envelope.Bytes(), true); err != nil {
		t.Fatal(err)
	}
	sink.PatchU32(totalOff, uint32(sink.Len()-chunkStart))

	assets, err := LoadAssets(bytes.NewReader(sink.Bytes()), nil, FilterAny, ShapeSettings{})
	if err != nil {
		t.Fatal(err)
	}
	if len(assets) != 1 || assets[0].Kind != AssetKindShape {
		t.Fatalf("got %d assets, want exactly 1 shape asset", len(assets))
	}
	got := assets[0].Shape
	wantColor, wantEmissive, ok := legacy.Lookup(legacy.Palette2021, 3)
	if !ok {
		t.Fatal("legacy.Lookup(Palette2021, 3) unexpectedly not found")
	}
	if got.Palette == nil || got.Palette.Count() != 1 {
		t.Fatalf("palette = %+v, want exactly 1 on-demand color", got.Palette)
	}
	if got.Palette.Colors[0] != wantColor || got.Palette.Emissive[0] != wantEmissive {
		t.Fatalf("color = %+v emissive=%v, want %+v emissive=%v", got.Palette.Colors[0], got.Palette.Emissive[0], wantColor, wantEmissive)
	}
	if got.Blocks[0] != 0 {
		t.Fatalf("remapped block index = %d, want 0 (first on-demand palette slot)", got.Blocks[0])
	}
}

// (b) SINGLE mode: a shared top-level PALETTE chunk, no embedded
// SHAPE_PALETTE anywhere. Every shape gets its own clone of the exact same
// palette contents.
func TestSingleModeSharedTopPalette(t *testing.T) {
	top := palette.New()
	top.Append(palette.Color{R: 1, A: 255}, false)
	top.Append(palette.Color{R: 2, A: 255}, true)

	s1 := shape.New()
	s1.Size = [3]uint16{1, 1, 1}
	s1.Blocks = []byte{0}
	s2 := shape.New()
	s2.Size = [3]uint16{1, 1, 1}
	s2.Blocks = []byte{1}

	env1 := bstream.NewSink()
	if err := shape.Encode(env1, s1, nil, nil); err != nil {
		t.Fatal(err)
	}
	env2 := bstream.NewSink()
	if err := shape.Encode(env2, s2, nil, nil); err != nil {
		t.Fatal(err)
	}

	sink := bstream.NewSink()
	sink.WriteBytes(MagicBytes)
	sink.WriteU32(FormatVersion)
	sink.WriteU8(chunkio.AlgoZip)
	totalOff := sink.Len()
	sink.WriteU32(0)
	chunkStart := sink.Len()

	palSink := bstream.NewSink()
	if err := palette.Encode(palSink, top); err != nil {
		t.Fatal(err)
	}
	if err := chunkio.WriteFrame(sink, chunkio.Palette, palSink.Bytes(), true); err != nil {
		t.Fatal(err)
	}
	if err := chunkio.WriteFrame(sink, chunkio.Shape, env1.Bytes(), true); err != nil {
		t.Fatal(err)
	}
	if err := chunkio.WriteFrame(sink, chunkio.Shape, env2.Bytes(), true); err != nil {
		t.Fatal(err)
	}
	sink.PatchU32(totalOff, uint32(sink.Len()-chunkStart))

	assets, err := LoadAssets(bytes.NewReader(sink.Bytes()), nil, FilterShape, ShapeSettings{})
	if err != nil {
		t.Fatal(err)
	}
	if len(assets) != 2 {
		t.Fatalf("got %d shapes, want 2", len(assets))
	}
	for _, a := range assets {
		if a.Shape.Palette == nil || a.Shape.Palette.Count() != 2 {
			t.Fatalf("shape %d palette = %+v, want 2-color clone of shared top palette", a.Shape.ShapeID, a.Shape.Palette)
		}
		if a.Shape.Palette.Colors[0] != top.Colors[0] || a.Shape.Palette.Colors[1] != top.Colors[1] {
			t.Fatalf("shape %d palette colors = %+v, want %+v", a.Shape.ShapeID, a.Shape.Palette.Colors, top.Colors)
		}
	}
}

// SINGLE-mode overflow ("shrink"): a top-level palette with more than 255
// colors (Palette.Append and the current layout's u8 colorCount cap at 255;
// only the PALETTE_LEGACY layout's u16 colorCount or a Palette literal, as
// built here, exceed it) must still resolve, giving each shape a fresh,
// minimal, remapped palette built only from the colors its own blocks
// reference.
func TestResolvePalettesSingleModeShrinkOverflow(t *testing.T) {
	top := &palette.Palette{
		Colors:   make([]palette.Color, 300),
		Emissive: make([]bool, 300),
	}
	for i := range top.Colors {
		top.Colors[i] = palette.Color{R: uint8(i), A: 255}
	}

	s := shape.New()
	s.Size = [3]uint16{1, 1, 1}
	s.Blocks = []byte{200}
	declared := []*shape.Shape{s}

	if err := resolvePalettes(declared, top, legacy.DefaultPaletteID, false, nil); err != nil {
		t.Fatal(err)
	}
	if s.Palette == nil || s.Palette.Count() != 1 {
		t.Fatalf("shrunk palette = %+v, want exactly 1 color", s.Palette)
	}
	if s.Palette.Colors[0] != top.Colors[200] {
		t.Fatalf("shrunk palette color = %+v, want %+v", s.Palette.Colors[0], top.Colors[200])
	}
	if s.Blocks[0] != 0 {
		t.Fatalf("remapped block index = %d, want 0 (first slot of fresh palette)", s.Blocks[0])
	}
}

// (c) MULTI mode: shapes carry their own embedded SHAPE_PALETTE, and an
// unrelated top-level PALETTE chunk (the "artist palette") is present too.
// LoadAssets must return the artist palette as its own standalone
// AssetKindPalette asset rather than assigning it to any shape.
func TestMultiModeUnattachedTopPalette(t *testing.T) {
	root := NewShape()
	root.Size = [3]uint16{1, 1, 1}
	root.Blocks = []byte{0}
	root.Palette = NewPalette()
	root.Palette.Append(Color{R: 9, A: 255}, false)

	artist := NewPalette()
	artist.Append(Color{R: 1, A: 255}, false)
	artist.Append(Color{R: 2, A: 255}, false)

	buf, err := SaveShapeToBuffer(root, artist, nil)
	if err != nil {
		t.Fatal(err)
	}

	assets, err := LoadAssets(bytes.NewReader(buf), nil, FilterAny, ShapeSettings{})
	if err != nil {
		t.Fatal(err)
	}

	var shapeCount, paletteCount int
	var standalone *Asset
	for i := range assets {
		switch assets[i].Kind {
		case AssetKindShape:
			shapeCount++
		case AssetKindPalette:
			paletteCount++
			standalone = &assets[i]
		}
	}
	if shapeCount != 1 {
		t.Fatalf("got %d shape assets, want 1", shapeCount)
	}
	if paletteCount != 1 {
		t.Fatalf("got %d standalone palette assets, want 1 (the unattached artist palette)", paletteCount)
	}
	if standalone.Palette.Count() != 2 || standalone.Palette.Colors[0].R != 1 || standalone.Palette.Colors[1].R != 2 {
		t.Fatalf("standalone palette = %+v, want the 2-color artist palette", standalone.Palette)
	}
}
