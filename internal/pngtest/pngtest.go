// Package pngtest builds small PNG streams with exact control over chunk
// content, for fixtures and sample packs.
package pngtest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/klauspost/compress/zlib"
)

const pngHeader = "\x89PNG\r\n\x1a\n"

// Image describes a PNG stream to build. Rows hold unfiltered scanlines in
// PNG sample layout at the declared bit depth, without filter bytes.
type Image struct {
	Width     uint32
	Height    uint32
	BitDepth  uint8
	ColorType uint8
	Interlace bool
	// Palette holds PLTE entries as RGB triples.
	Palette [][3]uint8
	// Trns is the raw tRNS chunk body; nil omits the chunk.
	Trns []byte
	Rows [][]byte
	// Filter is applied to every scanline (0..4).
	Filter byte
	Text   map[string]string
}

// Encode returns the PNG stream for img.
func Encode(img Image) ([]byte, error) {
	if img.Width == 0 || img.Height == 0 {
		return nil, errors.New("pngtest: empty image")
	}
	if len(img.Rows) != int(img.Height) {
		return nil, fmt.Errorf("pngtest: got %d rows, want %d", len(img.Rows), img.Height)
	}
	bpp := int(img.BitDepth) * channels(img.ColorType)
	if bpp == 0 {
		return nil, fmt.Errorf("pngtest: bad color type %d", img.ColorType)
	}

	var raw bytes.Buffer
	if img.Interlace {
		for _, p := range adam7 {
			pw := (int(img.Width) - p[2] + p[0] - 1) / p[0]
			ph := (int(img.Height) - p[3] + p[1] - 1) / p[1]
			if pw == 0 || ph == 0 {
				continue
			}
			pass := make([][]byte, ph)
			for y := range pass {
				src := img.Rows[y*p[1]+p[3]]
				row := make([]byte, (pw*bpp+7)/8)
				for x := 0; x < pw; x++ {
					copyPixel(row, x, src, x*p[0]+p[2], bpp)
				}
				pass[y] = row
			}
			writeFiltered(&raw, pass, bpp, img.Filter)
		}
	} else {
		writeFiltered(&raw, img.Rows, bpp, img.Filter)
	}

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString(pngHeader)
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], img.Width)
	binary.BigEndian.PutUint32(ihdr[4:8], img.Height)
	ihdr[8] = img.BitDepth
	ihdr[9] = img.ColorType
	if img.Interlace {
		ihdr[12] = 1
	}
	WriteChunk(&out, "IHDR", ihdr)
	if len(img.Palette) > 0 {
		plte := make([]byte, 0, 3*len(img.Palette))
		for _, c := range img.Palette {
			plte = append(plte, c[0], c[1], c[2])
		}
		WriteChunk(&out, "PLTE", plte)
	}
	if img.Trns != nil {
		WriteChunk(&out, "tRNS", img.Trns)
	}
	// Split the image data over two chunks to exercise IDAT continuation.
	data := idat.Bytes()
	half := len(data) / 2
	WriteChunk(&out, "IDAT", data[:half])
	WriteChunk(&out, "IDAT", data[half:])
	for k, v := range img.Text {
		WriteChunk(&out, "tEXt", append(append([]byte(k), 0), v...))
	}
	WriteChunk(&out, "IEND", nil)
	return out.Bytes(), nil
}

// MustEncode is like Encode but panics on error.
func MustEncode(img Image) []byte {
	b, err := Encode(img)
	if err != nil {
		panic(err)
	}
	return b
}

// WriteChunk appends a length-prefixed, CRC-terminated chunk to buf.
func WriteChunk(buf *bytes.Buffer, typ string, data []byte) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(len(data)))
	buf.Write(tmp[:])
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	buf.WriteString(typ)
	buf.Write(data)
	binary.BigEndian.PutUint32(tmp[:], crc.Sum32())
	buf.Write(tmp[:])
}

// Frame prepends the 4-byte payload length in the given byte order.
func Frame(payload []byte, order binary.ByteOrder) []byte {
	out := make([]byte, 4+len(payload))
	order.PutUint32(out, uint32(len(payload)))
	copy(out[4:], payload)
	return out
}

// adam7 lists xFactor, yFactor, xOffset, yOffset per pass.
var adam7 = [7][4]int{
	{8, 8, 0, 0},
	{8, 8, 4, 0},
	{4, 8, 0, 4},
	{4, 4, 2, 0},
	{2, 4, 0, 2},
	{2, 2, 1, 0},
	{1, 2, 0, 1},
}

func channels(ct uint8) int {
	switch ct {
	case 0, 3:
		return 1
	case 4:
		return 2
	case 2:
		return 3
	case 6:
		return 4
	}
	return 0
}

func writeFiltered(buf *bytes.Buffer, rows [][]byte, bpp int, ft byte) {
	bytesPerPixel := (bpp + 7) / 8
	var prev []byte
	for _, row := range rows {
		if prev == nil {
			prev = make([]byte, len(row))
		}
		buf.WriteByte(ft)
		for i := range row {
			var a, b, c int
			if i >= bytesPerPixel {
				a = int(row[i-bytesPerPixel])
				c = int(prev[i-bytesPerPixel])
			}
			b = int(prev[i])
			var pred int
			switch ft {
			case 1:
				pred = a
			case 2:
				pred = b
			case 3:
				pred = (a + b) / 2
			case 4:
				pred = paeth(a, b, c)
			}
			buf.WriteByte(row[i] - uint8(pred))
		}
		prev = row
	}
}

func paeth(a, b, c int) int {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// copyPixel copies pixel sx of src to pixel dx of dst. Sub-byte pixels are
// packed MSB first.
func copyPixel(dst []byte, dx int, src []byte, sx int, bpp int) {
	if bpp%8 == 0 {
		n := bpp / 8
		copy(dst[dx*n:(dx+1)*n], src[sx*n:(sx+1)*n])
		return
	}
	mask := byte(1<<bpp - 1)
	sbit, dbit := sx*bpp, dx*bpp
	v := src[sbit/8] >> (8 - bpp - sbit%8) & mask
	dst[dbit/8] |= v << (8 - bpp - dbit%8)
}

// PackRow packs one sample per byte into a sub-byte-depth scanline.
func PackRow(samples []uint8, depth uint8) []byte {
	if depth >= 8 {
		return append([]byte(nil), samples...)
	}
	row := make([]byte, (len(samples)*int(depth)+7)/8)
	for i, s := range samples {
		bit := i * int(depth)
		row[bit/8] |= (s & (1<<depth - 1)) << (8 - int(depth) - bit%8)
	}
	return row
}
