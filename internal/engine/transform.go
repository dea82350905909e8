package engine

// outFormat is the sample layout produced by ReadImage once transforms apply.
type outFormat struct {
	colorType ColorType
	depth     uint8
	channels  int
	identity  bool
}

// SetStrip16 requests 16-bit samples be reduced to 8 bits.
func (r *Reader) SetStrip16() { r.setTransform(TransformStrip16) }

// SetPacking requests 1, 2 and 4-bit samples be unpacked into one byte each.
func (r *Reader) SetPacking() { r.setTransform(TransformPacking) }

// SetExpand requests grayscale scaling to 0..255 and palette-to-RGB(A) expansion.
func (r *Reader) SetExpand() { r.setTransform(TransformExpand) }

// SetGrayToRGB requests gray samples be replicated into RGB triplets.
func (r *Reader) SetGrayToRGB() { r.setTransform(TransformGrayToRGB) }

// Transforms returns the requested transform set.
func (r *Reader) Transforms() Transform { return r.transforms }

func (r *Reader) setTransform(t Transform) {
	if r.updated || r.stage >= dsImageRead {
		return
	}
	r.transforms |= t
}

// UpdateInfo fixes the requested transforms and computes the effective
// header reported by Header, Channels and RowBytes.
func (r *Reader) UpdateInfo() error {
	if r.closed {
		return StateError("reader closed")
	}
	if r.stage < dsSeenIDAT {
		return StateError("info not read")
	}
	if r.updated {
		return nil
	}
	r.out = r.computeOutFormat()
	r.updated = true
	return nil
}

// Channels returns the number of samples per output pixel.
func (r *Reader) Channels() int {
	if r.updated {
		return r.out.channels
	}
	return r.hdr.ColorType.Channels()
}

// RowBytes returns the number of bytes ReadImage writes per row.
func (r *Reader) RowBytes() int {
	h := r.Header()
	return (int(h.Width)*int(h.BitDepth)*r.Channels() + 7) / 8
}

func (r *Reader) computeOutFormat() outFormat {
	t := r.transforms
	ct, depth := r.hdr.ColorType, r.hdr.BitDepth
	switch ct {
	case ColorPalette:
		if t&TransformExpand != 0 {
			ct, depth = ColorRGB, 8
			if r.hasTRNS {
				ct = ColorRGBA
			}
		} else if t&TransformPacking != 0 && depth < 8 {
			depth = 8
		}
	case ColorGrayscale:
		if depth < 8 && t&(TransformExpand|TransformPacking|TransformGrayToRGB) != 0 {
			depth = 8
		}
		if t&TransformGrayToRGB != 0 {
			ct = ColorRGB
		}
	case ColorGrayscaleAlpha:
		if t&TransformGrayToRGB != 0 {
			ct = ColorRGBA
		}
	}
	if depth == 16 && t&TransformStrip16 != 0 {
		depth = 8
	}
	return outFormat{
		colorType: ct,
		depth:     depth,
		channels:  ct.Channels(),
		identity:  ct == r.hdr.ColorType && depth == r.hdr.BitDepth,
	}
}

// convertRow writes one unfiltered source row of width pixels to dst in the
// output layout. The identity layout is a plain copy.
func (r *Reader) convertRow(dst, src []byte, width int) error {
	out := r.out
	if out.identity {
		copy(dst, src[:(width*int(out.depth)*out.channels+7)/8])
		return nil
	}
	depth := r.hdr.BitDepth
	scale := r.transforms&TransformExpand != 0
	bs := &r.bits
	bs.Reset(src)
	var err error
	next := func() uint16 {
		var v uint16
		if err == nil {
			v, err = bs.ReadNBits(depth)
		}
		return v
	}
	d := 0
	put := func(v uint16) {
		if out.depth == 16 {
			dst[d] = uint8(v >> 8)
			dst[d+1] = uint8(v)
			d += 2
			return
		}
		dst[d] = uint8(v)
		d++
	}
	for x := 0; x < width && err == nil; x++ {
		switch r.hdr.ColorType {
		case ColorPalette:
			idx := next()
			if out.colorType == ColorPalette {
				put(idx)
				continue
			}
			if int(idx) >= len(r.palette) {
				return FormatError("palette index out of range")
			}
			p := r.palette[idx]
			put(uint16(p.R))
			put(uint16(p.G))
			put(uint16(p.B))
			if out.colorType == ColorRGBA {
				a := uint16(0xff)
				if int(idx) < len(r.trns.Alpha) {
					a = uint16(r.trns.Alpha[idx])
				}
				put(a)
			}
		case ColorGrayscale:
			g := r.narrow(next(), depth, scale)
			put(g)
			if out.colorType == ColorRGB {
				put(g)
				put(g)
			}
		case ColorGrayscaleAlpha:
			g := r.narrow(next(), depth, false)
			a := r.narrow(next(), depth, false)
			put(g)
			if out.colorType == ColorRGBA {
				put(g)
				put(g)
			}
			put(a)
		case ColorRGB, ColorRGBA:
			for c := r.hdr.ColorType.Channels(); c > 0; c-- {
				put(r.narrow(next(), depth, false))
			}
		}
	}
	if err != nil {
		return FormatError("short scanline")
	}
	return nil
}

// narrow maps a source sample to the output depth.
func (r *Reader) narrow(v uint16, depth uint8, scale bool) uint16 {
	switch {
	case depth == 16 && r.out.depth == 8:
		return v >> 8
	case depth < 8 && scale:
		return ScaleSample(v, depth)
	}
	return v
}

// ScaleSample scales a sample of the given sub-byte depth to 0..255.
func ScaleSample(v uint16, depth uint8) uint16 {
	if depth >= 8 {
		return v
	}
	return v * 0xff / (1<<depth - 1)
}
