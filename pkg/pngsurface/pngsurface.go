// Package pngsurface decodes length-prefixed PNG payloads into raster
// surfaces with packed pixels, channel masks and an optional color key.
package pngsurface

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"github.com/jdeng/gopngsurface/internal/loader"
	"github.com/jdeng/gopngsurface/internal/surface"
)

// Options configures byte orders. Nil fields mean host order.
type Options struct {
	// PrefixOrder is the byte order of the 4-byte length prefix.
	PrefixOrder binary.ByteOrder
	// PixelOrder is the byte order pixels are packed in on the surface.
	PixelOrder binary.ByteOrder
}

// Error is the failure value returned by every load.
type Error = loader.Error

// ErrorKind classifies a failed load.
type ErrorKind = loader.ErrorKind

const (
	KindSourceUnavailable = loader.KindSourceUnavailable
	KindEngineInit        = loader.KindEngineInit
	KindHeaderCorrupt     = loader.KindHeaderCorrupt
	KindAllocation        = loader.KindAllocation
)

// Sentinels matched by errors.Is against any load error of that kind.
var (
	ErrSourceUnavailable = loader.ErrSourceUnavailable
	ErrEngineInit        = loader.ErrEngineInit
	ErrHeaderCorrupt     = loader.ErrHeaderCorrupt
	ErrAllocation        = loader.ErrAllocation
)

// TransparencyKind is how a tRNS chunk ended up on the surface.
type TransparencyKind = loader.TransparencyKind

const (
	TransparencyNone          = loader.TransparencyNone
	TransparencyColorKey      = loader.TransparencyColorKey
	TransparencyExpandToAlpha = loader.TransparencyExpandToAlpha
)

// Load decodes the framed PNG at the start of data using host byte order.
// When memCounter is not nil it is advanced by the frame size.
func Load(data []byte, memCounter *uint32) (*Surface, error) {
	return LoadWithOptions(data, memCounter, Options{})
}

// LoadWithOptions is Load with explicit byte orders.
func LoadWithOptions(data []byte, memCounter *uint32, opts Options) (*Surface, error) {
	res, err := loader.LoadResult(data, memCounter, loader.Options{
		PrefixOrder: opts.PrefixOrder,
		PixelOrder:  opts.PixelOrder,
	})
	if err != nil {
		return nil, err
	}
	return &Surface{res: res}, nil
}

// LoadAll decodes consecutive frames from pack. It stops at the first
// failure and returns the surfaces decoded so far with the error, which
// names the failing frame. The total framed size consumed is returned too.
func LoadAll(pack []byte, opts Options) ([]*Surface, uint32, error) {
	var (
		surfaces []*Surface
		counter  uint32
	)
	for i := 0; uint64(counter) < uint64(len(pack)); i++ {
		before := counter
		s, err := LoadWithOptions(pack[counter:], &counter, opts)
		if err != nil {
			return surfaces, counter, fmt.Errorf("pngsurface: frame %d at offset %d: %w", i, before, err)
		}
		surfaces = append(surfaces, s)
	}
	return surfaces, counter, nil
}

// Frame prepends the 4-byte length prefix to a PNG stream.
func Frame(png []byte, order binary.ByteOrder) []byte {
	if order == nil {
		order = binary.NativeEndian
	}
	out := make([]byte, loader.PrefixSize+len(png))
	order.PutUint32(out, uint32(len(png)))
	copy(out[loader.PrefixSize:], png)
	return out
}

// KindOf returns the kind of a load error, or 0 if err is not one.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Color is an 8-bit RGB palette entry.
type Color = surface.Color

// Surface is a decoded image.
type Surface struct {
	res *loader.Result
}

func (s *Surface) raw() *surface.Surface {
	if s == nil || s.res == nil {
		return nil
	}
	return s.res.Surface
}

// Width returns the width in pixels.
func (s *Surface) Width() int {
	if r := s.raw(); r != nil {
		return r.Width
	}
	return 0
}

// Height returns the height in pixels.
func (s *Surface) Height() int {
	if r := s.raw(); r != nil {
		return r.Height
	}
	return 0
}

// Pitch returns the number of bytes per row, padding included.
func (s *Surface) Pitch() int {
	if r := s.raw(); r != nil {
		return r.Pitch
	}
	return 0
}

// BitsPerPixel returns 8, 24 or 32.
func (s *Surface) BitsPerPixel() int {
	if r := s.raw(); r != nil {
		return int(r.Format.BitsPerPixel)
	}
	return 0
}

// Masks returns the red, green, blue and alpha channel masks. An indexed
// surface has all four masks zero.
func (s *Surface) Masks() (r, g, b, a uint32) {
	raw := s.raw()
	if raw == nil {
		return 0, 0, 0, 0
	}
	f := raw.Format
	return f.Rmask, f.Gmask, f.Bmask, f.Amask
}

// Pixels returns the pixel buffer, Height rows of Pitch bytes.
func (s *Surface) Pixels() []byte {
	if r := s.raw(); r != nil {
		return r.Pix
	}
	return nil
}

// PixelAt returns the packed pixel value at (x, y).
func (s *Surface) PixelAt(x, y int) uint32 {
	return s.raw().PixelAt(x, y)
}

// RGBA unpacks the pixel at (x, y). Indexed pixels are looked up in the
// palette and are reported opaque.
func (s *Surface) RGBA(x, y int) (r, g, b, a uint8) {
	raw := s.raw()
	if raw == nil {
		return 0, 0, 0, 0
	}
	return raw.Format.GetRGBA(raw.PixelAt(x, y))
}

// ColorKey returns the transparent pixel value, if one was set.
func (s *Surface) ColorKey() (uint32, bool) {
	if r := s.raw(); r != nil {
		return r.ColorKey()
	}
	return 0, false
}

// Palette returns the used palette entries of an indexed surface, or nil.
func (s *Surface) Palette() []Color {
	r := s.raw()
	if r == nil {
		return nil
	}
	p := r.Palette()
	if p == nil {
		return nil
	}
	return p.Colors[:p.NColors]
}

// Transparency reports how the image's tRNS chunk was represented.
func (s *Surface) Transparency() TransparencyKind {
	if s == nil || s.res == nil {
		return TransparencyNone
	}
	return s.res.Transparency.Kind
}

// Text returns the tEXt keyword/value pairs in stream order.
func (s *Surface) Text() [][2]string {
	if s == nil || s.res == nil {
		return nil
	}
	out := make([][2]string, len(s.res.Text))
	for i, t := range s.res.Text {
		out[i] = [2]string{t.Keyword, t.Text}
	}
	return out
}

// Image converts the surface to an image.Image. Color-keyed pixels are
// fully transparent.
func (s *Surface) Image() image.Image {
	r := s.raw()
	if r == nil {
		return nil
	}
	return r.Image()
}

// Free releases the pixel buffer. The surface must not be used afterwards.
func (s *Surface) Free() {
	if r := s.raw(); r != nil {
		r.Free()
	}
}
