// Package surface provides the raster buffer the loader decodes into: a
// row-major pixel grid with a 4-byte aligned pitch, a packed pixel format
// and an optional palette.
package surface

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
)

const maxSurfaceBytes = int(^uint32(0)>>1) - 31

var (
	// ErrTooLarge reports dimensions the buffer cannot hold.
	ErrTooLarge = errors.New("surface: image too large")
	// ErrBadDepth reports an unsupported bits-per-pixel value.
	ErrBadDepth = errors.New("surface: unsupported bits per pixel")
)

// Surface is an allocated pixel buffer.
type Surface struct {
	Width  int
	Height int
	// Pitch is the number of bytes per row, including padding.
	Pitch  int
	Pix    []byte
	Format *PixelFormat

	colorKey    uint32
	hasColorKey bool
}

// New allocates a zeroed surface. The surface is indexed, with a palette
// slot, when bpp is at most 8 and all masks are zero. A nil order means host order.
func New(w, h, bpp int, rmask, gmask, bmask, amask uint32, order binary.ByteOrder) (*Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("surface: invalid dimensions %dx%d", w, h)
	}
	switch bpp {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadDepth, bpp)
	}
	if order == nil {
		order = binary.NativeEndian
	}
	if w > maxSurfaceBytes/bpp {
		return nil, ErrTooLarge
	}
	pitch := alignTo4((w*bpp + 7) / 8)
	if h > maxSurfaceBytes/pitch {
		return nil, ErrTooLarge
	}
	return &Surface{
		Width:  w,
		Height: h,
		Pitch:  pitch,
		Pix:    make([]byte, pitch*h),
		Format: newPixelFormat(bpp, rmask, gmask, bmask, amask, order),
	}, nil
}

// Row returns the bytes of row y, padding included, or nil when y is out of range.
func (s *Surface) Row(y int) []byte {
	if s == nil || s.Pix == nil || y < 0 || y >= s.Height {
		return nil
	}
	start := y * s.Pitch
	return s.Pix[start : start+s.Pitch]
}

// PixelAt returns the packed pixel value at (x, y), or 0 outside the surface.
func (s *Surface) PixelAt(x, y int) uint32 {
	row := s.Row(y)
	if row == nil || x < 0 || x >= s.Width {
		return 0
	}
	bpp := int(s.Format.BytesPerPixel)
	p := row[x*bpp : (x+1)*bpp]
	switch bpp {
	case 1:
		return uint32(p[0])
	case 2:
		return uint32(s.Format.order.Uint16(p))
	case 3:
		if s.Format.little {
			return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
		}
		return uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
	default:
		return s.Format.order.Uint32(p)
	}
}

// SetPixel stores a packed pixel value at (x, y). Out-of-range writes are ignored.
func (s *Surface) SetPixel(x, y int, v uint32) {
	row := s.Row(y)
	if row == nil || x < 0 || x >= s.Width {
		return
	}
	bpp := int(s.Format.BytesPerPixel)
	p := row[x*bpp : (x+1)*bpp]
	switch bpp {
	case 1:
		p[0] = uint8(v)
	case 2:
		s.Format.order.PutUint16(p, uint16(v))
	case 3:
		if s.Format.little {
			p[0], p[1], p[2] = uint8(v), uint8(v>>8), uint8(v>>16)
		} else {
			p[0], p[1], p[2] = uint8(v>>16), uint8(v>>8), uint8(v)
		}
	default:
		s.Format.order.PutUint32(p, v)
	}
}

// SetColorKey designates key as the transparent pixel value.
func (s *Surface) SetColorKey(key uint32) {
	s.colorKey = key
	s.hasColorKey = true
}

// ColorKey returns the transparent pixel value and whether one is set.
func (s *Surface) ColorKey() (uint32, bool) { return s.colorKey, s.hasColorKey }

// Palette returns the palette slot, or nil for non-indexed surfaces.
func (s *Surface) Palette() *Palette {
	if s == nil || s.Format == nil {
		return nil
	}
	return s.Format.Palette
}

// Image converts the surface to an NRGBA image. Pixels equal to the color
// key become fully transparent.
func (s *Surface) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			v := s.PixelAt(x, y)
			r, g, b, a := s.Format.GetRGBA(v)
			if s.hasColorKey && v == s.colorKey {
				a = 0
			}
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: a})
		}
	}
	return img
}

// Free drops the pixel buffer and palette.
func (s *Surface) Free() {
	if s == nil {
		return
	}
	s.Pix = nil
	if s.Format != nil {
		s.Format.Palette = nil
	}
}

func alignTo4(v int) int {
	return (v + 3) / 4 * 4
}
