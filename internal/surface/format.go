package surface

import (
	"encoding/binary"
	"math/bits"
)

// Color is one palette entry.
type Color struct {
	R, G, B uint8
}

// Palette is the index-to-color table of an indexed surface. Colors always
// has room for 256 entries; NColors is the logical count.
type Palette struct {
	Colors  []Color
	NColors int
}

func newPalette(n int) *Palette {
	return &Palette{Colors: make([]Color, n), NColors: n}
}

// Nearest returns the index of the entry closest to (r, g, b).
func (p *Palette) Nearest(r, g, b uint8) uint32 {
	best, bestDist := 0, int(^uint(0)>>1)
	for i := 0; i < p.NColors && i < len(p.Colors); i++ {
		c := p.Colors[i]
		dr, dg, db := int(c.R)-int(r), int(c.G)-int(g), int(c.B)-int(b)
		d := dr*dr + dg*dg + db*db
		if d < bestDist {
			best, bestDist = i, d
			if d == 0 {
				break
			}
		}
	}
	return uint32(best)
}

// PixelFormat describes how a packed pixel value maps to color channels.
type PixelFormat struct {
	BitsPerPixel  uint8
	BytesPerPixel uint8

	Rmask, Gmask, Bmask, Amask     uint32
	Rshift, Gshift, Bshift, Ashift uint8
	Rloss, Gloss, Bloss, Aloss     uint8

	// Palette is non-nil only for indexed formats.
	Palette *Palette

	order  binary.ByteOrder
	little bool
}

func newPixelFormat(bpp int, rmask, gmask, bmask, amask uint32, order binary.ByteOrder) *PixelFormat {
	f := &PixelFormat{
		BitsPerPixel:  uint8(bpp),
		BytesPerPixel: uint8((bpp + 7) / 8),
		Rmask:         rmask,
		Gmask:         gmask,
		Bmask:         bmask,
		Amask:         amask,
		order:         order,
		little:        IsLittleEndian(order),
	}
	f.Rshift, f.Rloss = maskShiftLoss(rmask)
	f.Gshift, f.Gloss = maskShiftLoss(gmask)
	f.Bshift, f.Bloss = maskShiftLoss(bmask)
	f.Ashift, f.Aloss = maskShiftLoss(amask)
	if bpp <= 8 && rmask|gmask|bmask|amask == 0 {
		f.Palette = newPalette(1 << bpp)
	}
	return f
}

func maskShiftLoss(mask uint32) (shift, loss uint8) {
	if mask == 0 {
		return 0, 8
	}
	shift = uint8(bits.TrailingZeros32(mask))
	width := bits.OnesCount32(mask)
	if width < 8 {
		loss = uint8(8 - width)
	}
	return shift, loss
}

// MapRGB returns the pixel value for an opaque color. Indexed formats return
// the closest palette index.
func (f *PixelFormat) MapRGB(r, g, b uint8) uint32 {
	if f.Palette != nil {
		return f.Palette.Nearest(r, g, b)
	}
	return f.pack(r, f.Rshift, f.Rloss, f.Rmask) |
		f.pack(g, f.Gshift, f.Gloss, f.Gmask) |
		f.pack(b, f.Bshift, f.Bloss, f.Bmask) |
		f.Amask
}

// GetRGB splits a pixel value into its color channels.
func (f *PixelFormat) GetRGB(pixel uint32) (r, g, b uint8) {
	r, g, b, _ = f.GetRGBA(pixel)
	return r, g, b
}

// GetRGBA splits a pixel value into color and alpha. Formats without an
// alpha mask report full opacity.
func (f *PixelFormat) GetRGBA(pixel uint32) (r, g, b, a uint8) {
	if f.Palette != nil {
		if int(pixel) >= f.Palette.NColors || int(pixel) >= len(f.Palette.Colors) {
			return 0, 0, 0, 0xff
		}
		c := f.Palette.Colors[pixel]
		return c.R, c.G, c.B, 0xff
	}
	r = unpack(pixel, f.Rshift, f.Rloss, f.Rmask)
	g = unpack(pixel, f.Gshift, f.Gloss, f.Gmask)
	b = unpack(pixel, f.Bshift, f.Bloss, f.Bmask)
	a = 0xff
	if f.Amask != 0 {
		a = unpack(pixel, f.Ashift, f.Aloss, f.Amask)
	}
	return r, g, b, a
}

func (f *PixelFormat) pack(v, shift, loss uint8, mask uint32) uint32 {
	if mask == 0 {
		return 0
	}
	return (uint32(v>>loss) << shift) & mask
}

func unpack(pixel uint32, shift, loss uint8, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	return uint8(((pixel & mask) >> shift) << loss)
}

// IsLittleEndian reports whether order stores the low byte first.
func IsLittleEndian(order binary.ByteOrder) bool {
	var buf [2]byte
	order.PutUint16(buf[:], 1)
	return buf[0] == 1
}
