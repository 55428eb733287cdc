package palette

import (
	"testing"

	"github.com/shykes/cubzh/internal/bstream"
)

func TestDecodeLegacy(t *testing.T) {
	sink := bstream.NewSink()
	sink.WriteU8(8)     // rows
	sink.WriteU8(8)     // cols
	sink.WriteU16(2)    // colorCount
	sink.WriteU8(0)     // defaultColor
	sink.WriteU8(0)     // defaultBg
	sink.WriteBytes([]byte{255, 0, 0, 255})
	sink.WriteBytes([]byte{0, 255, 0, 128})
	sink.WriteU8(0)
	sink.WriteU8(1)

	r := bstream.NewReader(sink.Bytes())
	p, err := DecodeLegacy(r)
	if err != nil {
		t.Fatal(err)
	}
	if p.Count() != 2 {
		t.Fatalf("count = %d, want 2", p.Count())
	}
	if p.Colors[0] != (Color{255, 0, 0, 255}) {
		t.Fatalf("colors[0] = %+v", p.Colors[0])
	}
	if p.Emissive[0] || !p.Emissive[1] {
		t.Fatalf("emissive = %v", p.Emissive)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := New()
	if _, err := p.Append(Color{1, 2, 3, 4}, false); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Append(Color{5, 6, 7, 8}, true); err != nil {
		t.Fatal(err)
	}

	sink := bstream.NewSink()
	if err := Encode(sink, p); err != nil {
		t.Fatal(err)
	}
	r := bstream.NewReader(sink.Bytes())
	got, err := Decode(r)
	if err != nil {
		t.Fatal(err)
	}
	if got.Count() != 2 || got.Colors[0] != p.Colors[0] || got.Colors[1] != p.Colors[1] {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
	if got.Emissive[0] != false || got.Emissive[1] != true {
		t.Fatalf("emissive round trip mismatch: %v", got.Emissive)
	}
}

func TestAppendOverflow(t *testing.T) {
	p := New()
	for i := 0; i < MaxColors; i++ {
		if _, err := p.Append(Color{}, false); err != nil {
			t.Fatalf("unexpected error at %d: %v", i, err)
		}
	}
	if _, err := p.Append(Color{}, false); err == nil {
		t.Fatal("expected overflow error at MaxColors+1")
	}
}

func TestOrderedProjectionIdentity(t *testing.T) {
	p := New()
	p.Append(Color{1, 1, 1, 1}, false)
	p.Append(Color{2, 2, 2, 2}, false)
	p.Append(Color{3, 3, 3, 3}, false)

	proj, remap := p.OrderedProjection()
	if proj != p {
		t.Fatal("expected OrderedProjection to return same palette (insertion-order canonical)")
	}
	for i := uint8(0); i < uint8(p.Count()); i++ {
		if remap[i] != i {
			t.Fatalf("remap[%d] = %d, want identity", i, remap[i])
		}
	}
}

func TestCloneIndependence(t *testing.T) {
	p := New()
	p.Append(Color{9, 9, 9, 9}, false)
	cp := p.Clone()
	cp.Colors[0] = Color{1, 1, 1, 1}
	if p.Colors[0] == cp.Colors[0] {
		t.Fatal("mutating clone affected original")
	}
}
