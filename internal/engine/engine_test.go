package engine

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/jdeng/gopngsurface/internal/pngtest"
)

func decodeAll(t *testing.T, data []byte, setup func(r *Reader)) (*Reader, [][]byte) {
	t.Helper()
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	if err := r.ReadInfo(); err != nil {
		t.Fatalf("ReadInfo failed: %v", err)
	}
	if setup != nil {
		setup(r)
	}
	if err := r.UpdateInfo(); err != nil {
		t.Fatalf("UpdateInfo failed: %v", err)
	}
	rows := make([][]byte, r.Header().Height)
	for y := range rows {
		rows[y] = make([]byte, r.RowBytes())
	}
	if err := r.ReadImage(rows); err != nil {
		t.Fatalf("ReadImage failed: %v", err)
	}
	if err := r.ReadEnd(); err != nil {
		t.Fatalf("ReadEnd failed: %v", err)
	}
	return r, rows
}

func rgbRows(w, h int) [][]byte {
	rows := make([][]byte, h)
	for y := range rows {
		row := make([]byte, 3*w)
		for x := 0; x < w; x++ {
			row[3*x] = uint8(x * 17)
			row[3*x+1] = uint8(y * 29)
			row[3*x+2] = uint8(x*y + 3)
		}
		rows[y] = row
	}
	return rows
}

func TestColorTypeString(t *testing.T) {
	tests := []struct {
		ct       ColorType
		expected string
		channels int
	}{
		{ColorGrayscale, "Grayscale", 1},
		{ColorRGB, "RGB", 3},
		{ColorPalette, "Palette", 1},
		{ColorGrayscaleAlpha, "GrayscaleAlpha", 2},
		{ColorRGBA, "RGBA", 4},
	}
	for _, test := range tests {
		if got := test.ct.String(); got != test.expected {
			t.Errorf("ColorType %d string mismatch: got %q, want %q", test.ct, got, test.expected)
		}
		if got := test.ct.Channels(); got != test.channels {
			t.Errorf("ColorType %s channels: got %d, want %d", test.ct, got, test.channels)
		}
	}
	if got := ColorType(9).String(); got != "ColorType(9)" {
		t.Errorf("Unexpected fallback string: got %q", got)
	}
}

func TestNewReaderNilSource(t *testing.T) {
	if _, err := NewReader(nil); err != ErrNoSource {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestReadInfoHeader(t *testing.T) {
	data := pngtest.MustEncode(pngtest.Image{
		Width: 5, Height: 3, BitDepth: 8, ColorType: 2, Rows: rgbRows(5, 3),
	})
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if err := r.ReadInfo(); err != nil {
		t.Fatalf("ReadInfo failed: %v", err)
	}
	want := Header{Width: 5, Height: 3, BitDepth: 8, ColorType: ColorRGB}
	if got := r.Header(); got != want {
		t.Fatalf("header mismatch: got %+v, want %+v", got, want)
	}
	if _, ok := r.Transparency(); ok {
		t.Fatal("unexpected tRNS")
	}
	if r.Channels() != 3 || r.RowBytes() != 15 {
		t.Fatalf("unexpected layout: channels=%d rowbytes=%d", r.Channels(), r.RowBytes())
	}
}

func TestDecodeMatchesStdlib(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 13, 7))
	for y := 0; y < 7; y++ {
		for x := 0; x < 13; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 19), G: uint8(y * 31), B: uint8(x ^ y), A: uint8(40 + x*y)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	r, rows := decodeAll(t, buf.Bytes(), nil)
	if got := r.Header().ColorType; got != ColorRGBA {
		t.Fatalf("unexpected color type %s", got)
	}
	for y, row := range rows {
		want := src.Pix[y*src.Stride : y*src.Stride+13*4]
		if !bytes.Equal(row, want) {
			t.Fatalf("row %d mismatch:\n got %v\nwant %v", y, row, want)
		}
	}
}

func TestFilters(t *testing.T) {
	rows := rgbRows(9, 4)
	for ft := byte(0); ft <= 4; ft++ {
		data := pngtest.MustEncode(pngtest.Image{
			Width: 9, Height: 4, BitDepth: 8, ColorType: 2, Rows: rows, Filter: ft,
		})
		_, got := decodeAll(t, data, nil)
		for y := range rows {
			if !bytes.Equal(got[y], rows[y]) {
				t.Errorf("filter %d row %d mismatch: got %v, want %v", ft, y, got[y], rows[y])
			}
		}
	}
}

func TestInterlacedMatchesProgressive(t *testing.T) {
	rows := rgbRows(11, 9)
	plain := pngtest.MustEncode(pngtest.Image{Width: 11, Height: 9, BitDepth: 8, ColorType: 2, Rows: rows})
	adam := pngtest.MustEncode(pngtest.Image{Width: 11, Height: 9, BitDepth: 8, ColorType: 2, Rows: rows, Interlace: true, Filter: 4})
	_, a := decodeAll(t, plain, nil)
	r, b := decodeAll(t, adam, nil)
	if !r.Header().Interlace {
		t.Fatal("expected interlace flag")
	}
	for y := range a {
		if !bytes.Equal(a[y], b[y]) {
			t.Fatalf("row %d differs: %v vs %v", y, a[y], b[y])
		}
	}
}

func TestInterlacedSubBytePacked(t *testing.T) {
	for _, depth := range []uint8{1, 2, 4} {
		rows := make([][]byte, 10)
		for y := range rows {
			samples := make([]uint8, 13)
			for x := range samples {
				samples[x] = uint8(x*3+y*5) & (1<<depth - 1)
			}
			rows[y] = pngtest.PackRow(samples, depth)
		}
		img := pngtest.Image{Width: 13, Height: 10, BitDepth: depth, ColorType: 0, Rows: rows}
		_, a := decodeAll(t, pngtest.MustEncode(img), nil)
		img.Interlace = true
		r, b := decodeAll(t, pngtest.MustEncode(img), nil)
		if h := r.Header(); h.BitDepth != depth {
			t.Fatalf("depth %d: unexpected effective header %+v", depth, h)
		}
		for y := range a {
			if !bytes.Equal(a[y], rows[y]) {
				t.Fatalf("depth %d: progressive row %d = %v, want %v", depth, y, a[y], rows[y])
			}
			if !bytes.Equal(a[y], b[y]) {
				t.Fatalf("depth %d: row %d differs: %v vs %v", depth, y, a[y], b[y])
			}
		}
	}
}

func TestExpandGrayscale(t *testing.T) {
	row := pngtest.PackRow([]uint8{0, 1, 2, 3, 3}, 2)
	data := pngtest.MustEncode(pngtest.Image{Width: 5, Height: 1, BitDepth: 2, ColorType: 0, Rows: [][]byte{row}})
	r, rows := decodeAll(t, data, func(r *Reader) {
		r.SetPacking()
		r.SetExpand()
	})
	if h := r.Header(); h.BitDepth != 8 || h.ColorType != ColorGrayscale {
		t.Fatalf("unexpected effective header %+v", h)
	}
	want := []byte{0, 85, 170, 255, 255}
	if !bytes.Equal(rows[0], want) {
		t.Fatalf("got %v, want %v", rows[0], want)
	}
}

func TestPackingPalette(t *testing.T) {
	row := pngtest.PackRow([]uint8{1, 0, 1, 1, 0, 0, 1, 0, 1}, 1)
	data := pngtest.MustEncode(pngtest.Image{
		Width: 9, Height: 1, BitDepth: 1, ColorType: 3,
		Palette: [][3]uint8{{0, 0, 0}, {255, 255, 255}},
		Rows:    [][]byte{row},
	})
	_, rows := decodeAll(t, data, func(r *Reader) { r.SetPacking() })
	want := []byte{1, 0, 1, 1, 0, 0, 1, 0, 1}
	if !bytes.Equal(rows[0], want) {
		t.Fatalf("got %v, want %v", rows[0], want)
	}
}

func TestExpandPaletteWithTransparency(t *testing.T) {
	data := pngtest.MustEncode(pngtest.Image{
		Width: 3, Height: 1, BitDepth: 8, ColorType: 3,
		Palette: [][3]uint8{{10, 20, 30}, {40, 50, 60}, {70, 80, 90}},
		Trns:    []byte{0, 128},
		Rows:    [][]byte{{0, 1, 2}},
	})
	r, rows := decodeAll(t, data, func(r *Reader) { r.SetExpand() })
	if r.Header().ColorType != ColorRGBA || r.Channels() != 4 {
		t.Fatalf("expected RGBA output, got %s/%d", r.Header().ColorType, r.Channels())
	}
	want := []byte{10, 20, 30, 0, 40, 50, 60, 128, 70, 80, 90, 255}
	if !bytes.Equal(rows[0], want) {
		t.Fatalf("got %v, want %v", rows[0], want)
	}
	trns, ok := r.Transparency()
	if !ok || len(trns.Alpha) != 2 {
		t.Fatalf("unexpected transparency %+v (ok=%v)", trns, ok)
	}
}

func TestStrip16AndGrayToRGB(t *testing.T) {
	row := []byte{0x12, 0x34, 0xab, 0xcd, 0xff, 0x00, 0x01, 0x02}
	data := pngtest.MustEncode(pngtest.Image{Width: 2, Height: 1, BitDepth: 16, ColorType: 4, Rows: [][]byte{row}})
	r, rows := decodeAll(t, data, func(r *Reader) {
		r.SetStrip16()
		r.SetGrayToRGB()
	})
	if h := r.Header(); h.BitDepth != 8 || h.ColorType != ColorRGBA {
		t.Fatalf("unexpected effective header %+v", h)
	}
	want := []byte{0x12, 0x12, 0x12, 0xab, 0xff, 0xff, 0xff, 0x01}
	if !bytes.Equal(rows[0], want) {
		t.Fatalf("got %x, want %x", rows[0], want)
	}
}

func TestGrayTransparencyReference(t *testing.T) {
	data := pngtest.MustEncode(pngtest.Image{
		Width: 1, Height: 1, BitDepth: 16, ColorType: 0,
		Trns: []byte{0x80, 0x01},
		Rows: [][]byte{{0, 0}},
	})
	r, _ := decodeAll(t, data, nil)
	trns, ok := r.Transparency()
	if !ok || trns.Gray != 0x8001 {
		t.Fatalf("unexpected transparency %+v (ok=%v)", trns, ok)
	}
}

func TestReadEndCollectsText(t *testing.T) {
	data := pngtest.MustEncode(pngtest.Image{
		Width: 1, Height: 1, BitDepth: 8, ColorType: 0,
		Rows: [][]byte{{7}},
		Text: map[string]string{"Title": "sprite"},
	})
	r, _ := decodeAll(t, data, nil)
	text := r.Text()
	if len(text) != 1 || text[0].Keyword != "Title" || text[0].Text != "sprite" {
		t.Fatalf("unexpected text chunks %+v", text)
	}
}

func TestCorruptInputs(t *testing.T) {
	good := pngtest.MustEncode(pngtest.Image{Width: 4, Height: 4, BitDepth: 8, ColorType: 2, Rows: rgbRows(4, 4)})

	badCRC := append([]byte(nil), good...)
	badCRC[20] ^= 0xff // inside IHDR data

	badSig := append([]byte(nil), good...)
	badSig[1] = 'X'

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"signature only", good[:8]},
		{"bad signature", badSig},
		{"bad checksum", badCRC},
		{"truncated image data", good[:len(good)-20]},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(test.data))
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			if err := decodeErr(r); err == nil {
				t.Fatal("expected decode error")
			}
		})
	}
}

func decodeErr(r *Reader) error {
	if err := r.ReadInfo(); err != nil {
		return err
	}
	if err := r.UpdateInfo(); err != nil {
		return err
	}
	rows := make([][]byte, r.Header().Height)
	for y := range rows {
		rows[y] = make([]byte, r.RowBytes())
	}
	if err := r.ReadImage(rows); err != nil {
		return err
	}
	return r.ReadEnd()
}

func TestReadImageRejectsShortRows(t *testing.T) {
	data := pngtest.MustEncode(pngtest.Image{Width: 4, Height: 2, BitDepth: 8, ColorType: 2, Rows: rgbRows(4, 2)})
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if err := r.ReadInfo(); err != nil {
		t.Fatal(err)
	}
	if err := r.ReadImage([][]byte{make([]byte, 12), make([]byte, 11)}); err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestCallsOutOfOrder(t *testing.T) {
	r, err := NewReader(bytes.NewReader(nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateInfo(); err == nil {
		t.Error("UpdateInfo before ReadInfo should fail")
	}
	if err := r.ReadEnd(); err == nil {
		t.Error("ReadEnd before ReadImage should fail")
	}
	if err := r.ReadInfo(); err != io.ErrUnexpectedEOF {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := r.ReadInfo(); err == nil {
		t.Error("ReadInfo after Close should fail")
	}
}

func TestPaeth(t *testing.T) {
	tests := []struct{ a, b, c, want uint8 }{
		{0, 0, 0, 0},
		{10, 20, 10, 20},
		{20, 10, 10, 20},
		{10, 10, 20, 10},
		{100, 50, 70, 70},
	}
	for _, test := range tests {
		if got := paeth(test.a, test.b, test.c); got != test.want {
			t.Errorf("paeth(%d,%d,%d) = %d, want %d", test.a, test.b, test.c, got, test.want)
		}
	}
}
