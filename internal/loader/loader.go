// Package loader turns one length-prefixed PNG payload into a surface.
//
// The load runs as a single synchronous pipeline: unframe the payload, read
// and normalize the header, resolve transparency, plan the pixel format,
// allocate the surface, decode every row into it and build the palette. A
// load either returns a fully populated surface or an *Error, never both.
package loader

import (
	"encoding/binary"
	"fmt"

	"github.com/jdeng/gopngsurface/internal/engine"
	"github.com/jdeng/gopngsurface/internal/surface"
)

// Options configures byte orders. Nil fields mean host order.
type Options struct {
	// PrefixOrder is the byte order of the length prefix.
	PrefixOrder binary.ByteOrder
	// PixelOrder is the byte order of packed pixels on the surface.
	PixelOrder binary.ByteOrder
}

func (o Options) prefixOrder() binary.ByteOrder {
	if o.PrefixOrder == nil {
		return binary.NativeEndian
	}
	return o.PrefixOrder
}

func (o Options) pixelOrder() binary.ByteOrder {
	if o.PixelOrder == nil {
		return binary.NativeEndian
	}
	return o.PixelOrder
}

// Result is a decoded surface together with what the loader decided.
type Result struct {
	Surface      *surface.Surface
	Header       Header
	Transparency Transparency
	Plan         FormatPlan
	Text         []engine.TextChunk
}

// Load decodes the framed PNG at the start of data. When memCounter is not
// nil the frame size (prefix plus declared payload) is added to it as soon
// as the prefix is read, whether or not decoding succeeds.
func Load(data []byte, memCounter *uint32, opts Options) (*surface.Surface, error) {
	res, err := LoadResult(data, memCounter, opts)
	if err != nil {
		return nil, err
	}
	return res.Surface, nil
}

// LoadResult is like Load but also reports the decisions taken.
func LoadResult(data []byte, memCounter *uint32, opts Options) (res *Result, err error) {
	src, err := Unframe(data, opts.prefixOrder())
	if err != nil {
		return nil, err
	}
	if memCounter != nil {
		*memCounter += src.Framed()
	}
	if len(src.Payload) == 0 {
		return nil, newError(KindSourceUnavailable, "empty PNG payload", nil)
	}

	r, err := engine.NewReader(src.Reader())
	if err != nil {
		return nil, newError(KindEngineInit, "Couldn't allocate memory for PNG file", err)
	}
	defer r.Close()

	var s *surface.Surface
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, corrupt(fmt.Errorf("engine panic: %v", p))
		}
		if err != nil && s != nil {
			s.Free()
		}
	}()

	hdr, t, err := interpretHeader(r)
	if err != nil {
		return nil, corrupt(clipped(src, err))
	}

	plan := PlanFormat(hdr.Effective.BitDepth, hdr.Channels, surface.IsLittleEndian(opts.pixelOrder()))
	s, err = surface.New(int(hdr.Effective.Width), int(hdr.Effective.Height), plan.BitsPerPixel,
		plan.Rmask, plan.Gmask, plan.Bmask, plan.Amask, opts.pixelOrder())
	if err != nil {
		return nil, newError(KindAllocation, "Out of memory", err)
	}

	if err = materialize(r, s); err != nil {
		return nil, corrupt(clipped(src, err))
	}
	if err = r.ReadEnd(); err != nil {
		return nil, corrupt(clipped(src, err))
	}

	buildPalette(s, hdr.Effective.ColorType, r.Palette())
	applyColorKey(s, t)

	return &Result{
		Surface:      s,
		Header:       hdr,
		Transparency: t,
		Plan:         plan,
		Text:         r.Text(),
	}, nil
}

// materialize decodes the image straight into the surface rows.
func materialize(r *engine.Reader, s *surface.Surface) error {
	rows := make([][]byte, s.Height)
	for y := range rows {
		rows[y] = s.Row(y)
	}
	return r.ReadImage(rows)
}

// clipped annotates an engine failure on a payload shorter than declared.
func clipped(src Source, err error) error {
	if !src.Truncated() {
		return err
	}
	return fmt.Errorf("%w (payload holds %d of %d declared bytes)", err, len(src.Payload), src.Size)
}

func corrupt(err error) *Error {
	return newError(KindHeaderCorrupt, "Error reading the PNG file", err)
}
