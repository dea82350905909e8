package pngsurface

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/color"
	"testing"

	"github.com/jdeng/gopngsurface/internal/pngtest"
)

var little = Options{PrefixOrder: binary.LittleEndian, PixelOrder: binary.LittleEndian}

func redPixel() []byte {
	return pngtest.MustEncode(pngtest.Image{Width: 1, Height: 1, BitDepth: 8, ColorType: 2, Rows: [][]byte{{255, 0, 0}}})
}

func TestFrame(t *testing.T) {
	got := Frame([]byte{1, 2, 3}, binary.BigEndian)
	want := []byte{0, 0, 0, 3, 1, 2, 3}
	if !bytes.Equal(got, want) {
		t.Fatalf("Frame = %v, want %v", got, want)
	}
	if host := Frame([]byte{9}, nil); len(host) != 5 || binary.NativeEndian.Uint32(host) != 1 {
		t.Fatalf("host-order frame = %v", host)
	}
}

func TestLoadSurfaceAccessors(t *testing.T) {
	s, err := LoadWithOptions(Frame(redPixel(), binary.LittleEndian), nil, little)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Width() != 1 || s.Height() != 1 || s.Pitch() != 4 || s.BitsPerPixel() != 24 {
		t.Fatalf("unexpected geometry %dx%d pitch %d bpp %d", s.Width(), s.Height(), s.Pitch(), s.BitsPerPixel())
	}
	r, g, b, a := s.Masks()
	if r != 0xff || g != 0xff00 || b != 0xff0000 || a != 0 {
		t.Fatalf("unexpected masks %#x %#x %#x %#x", r, g, b, a)
	}
	if s.PixelAt(0, 0) != 0xff {
		t.Fatalf("pixel = %#x", s.PixelAt(0, 0))
	}
	if !bytes.Equal(s.Pixels()[:3], []byte{255, 0, 0}) {
		t.Fatalf("pixels = %v", s.Pixels())
	}
	if s.Palette() != nil || s.Transparency() != TransparencyNone {
		t.Fatal("truecolor image should have no palette or transparency")
	}
	if c := s.Image().At(0, 0); c != (color.NRGBA{R: 255, A: 255}) {
		t.Fatalf("image color = %v", c)
	}
	s.Free()
	if s.Pixels() != nil {
		t.Fatal("Free should drop pixels")
	}
}

func TestLoadHostOrder(t *testing.T) {
	var counter uint32
	s, err := Load(Frame(redPixel(), nil), &counter)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if r, g, b, _ := s.RGBA(0, 0); r != 255 || g != 0 || b != 0 {
		t.Fatalf("pixel = %d,%d,%d", r, g, b)
	}
	if counter != uint32(4+len(redPixel())) {
		t.Fatalf("counter = %d", counter)
	}
}

func TestColorKeyedPaletteImage(t *testing.T) {
	png := pngtest.MustEncode(pngtest.Image{
		Width: 2, Height: 1, BitDepth: 1, ColorType: 3,
		Palette: [][3]uint8{{0, 0, 0}, {0, 255, 0}},
		Trns:    []byte{0},
		Rows:    [][]byte{pngtest.PackRow([]uint8{0, 1}, 1)},
		Text:    map[string]string{"Title": "keyed"},
	})
	s, err := LoadWithOptions(Frame(png, binary.LittleEndian), nil, little)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Transparency() != TransparencyColorKey {
		t.Fatalf("transparency = %v", s.Transparency())
	}
	if key, ok := s.ColorKey(); !ok || key != 0 {
		t.Fatalf("color key = %d,%v", key, ok)
	}
	if p := s.Palette(); len(p) != 2 || p[1] != (Color{G: 255}) {
		t.Fatalf("palette = %v", p)
	}
	img := s.Image()
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Fatal("keyed pixel should be transparent")
	}
	if _, _, _, a := img.At(1, 0).RGBA(); a == 0 {
		t.Fatal("unkeyed pixel should be opaque")
	}
	text := s.Text()
	if len(text) != 1 || text[0] != [2]string{"Title", "keyed"} {
		t.Fatalf("text = %v", text)
	}
}

func TestLoadAll(t *testing.T) {
	gray := pngtest.MustEncode(pngtest.Image{Width: 3, Height: 2, BitDepth: 8, ColorType: 0, Rows: [][]byte{{1, 2, 3}, {4, 5, 6}}})
	var pack []byte
	pack = append(pack, Frame(redPixel(), binary.LittleEndian)...)
	pack = append(pack, Frame(gray, binary.LittleEndian)...)

	surfaces, n, err := LoadAll(pack, little)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(surfaces) != 2 || n != uint32(len(pack)) {
		t.Fatalf("got %d surfaces consuming %d bytes, want 2 and %d", len(surfaces), n, len(pack))
	}
	if surfaces[1].Width() != 3 || len(surfaces[1].Palette()) != 256 {
		t.Fatalf("unexpected second surface %dx%d", surfaces[1].Width(), surfaces[1].Height())
	}

	bad := append(append([]byte(nil), pack...), Frame([]byte("notapng"), binary.LittleEndian)...)
	surfaces, _, err = LoadAll(bad, little)
	if len(surfaces) != 2 {
		t.Fatalf("expected the two good frames before failure, got %d", len(surfaces))
	}
	if !errors.Is(err, ErrHeaderCorrupt) || KindOf(err) != KindHeaderCorrupt {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind ErrorKind
	}{
		{"empty", nil, KindSourceUnavailable},
		{"zero length", []byte{0, 0, 0, 0}, KindSourceUnavailable},
		{"garbage", Frame([]byte("garbage!"), binary.LittleEndian), KindHeaderCorrupt},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := LoadWithOptions(test.data, nil, little)
			if s != nil {
				t.Fatal("expected no surface")
			}
			if KindOf(err) != test.kind {
				t.Fatalf("kind = %v, want %v (err %v)", KindOf(err), test.kind, err)
			}
		})
	}
	if KindOf(errors.New("other")) != 0 {
		t.Fatal("foreign errors have no kind")
	}
}

func TestNilSurface(t *testing.T) {
	var s *Surface
	if s.Width() != 0 || s.Pixels() != nil || s.Palette() != nil || s.Image() != nil {
		t.Fatal("nil surface accessors should return zero values")
	}
	if _, ok := s.ColorKey(); ok {
		t.Fatal("nil surface has no color key")
	}
	s.Free()
}
