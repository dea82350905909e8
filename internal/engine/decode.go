package engine

import (
	"fmt"
	"io"
)

// Row filter types.
const (
	ftNone    = 0
	ftSub     = 1
	ftUp      = 2
	ftAverage = 3
	ftPaeth   = 4
)

// interlaceScan defines the placement and size of a pass for Adam7 interlacing.
type interlaceScan struct {
	xFactor, yFactor, xOffset, yOffset int
}

// interlacing defines Adam7 interlacing, with 7 passes of reduced images.
// See https://www.w3.org/TR/PNG/#8Interlace
var interlacing = []interlaceScan{
	{8, 8, 0, 0},
	{8, 8, 4, 0},
	{4, 8, 0, 4},
	{4, 4, 2, 0},
	{2, 4, 0, 2},
	{2, 2, 1, 0},
	{1, 2, 0, 1},
}

// ReadImage decodes the whole image into rows, one slice per output row.
// Each row must hold at least RowBytes bytes. Interlaced images are
// reassembled before ReadImage returns.
func (r *Reader) ReadImage(rows [][]byte) error {
	if r.closed {
		return StateError("reader closed")
	}
	if r.stage != dsSeenIDAT {
		return StateError("image data not positioned")
	}
	if err := r.UpdateInfo(); err != nil {
		return err
	}
	if len(rows) != int(r.hdr.Height) {
		return StateError(fmt.Sprintf("got %d rows, want %d", len(rows), r.hdr.Height))
	}
	rowBytes := r.RowBytes()
	for y, row := range rows {
		if len(row) < rowBytes {
			return StateError(fmt.Sprintf("row %d holds %d bytes, want %d", y, len(row), rowBytes))
		}
	}
	if err := r.openInflater(); err != nil {
		return err
	}

	width, height := int(r.hdr.Width), int(r.hdr.Height)
	if !r.hdr.Interlace {
		err := r.readPass(width, height, func(y int, pix []byte) error {
			return r.convertRow(rows[y], pix, width)
		})
		if err != nil {
			return err
		}
	} else {
		outBits := int(r.out.depth) * r.out.channels
		scratch := make([]byte, (width*outBits+7)/8)
		for pass := 0; pass < len(interlacing); pass++ {
			p := interlacing[pass]
			// Add the multiplication factor and subtract one, effectively rounding up.
			pw := (width - p.xOffset + p.xFactor - 1) / p.xFactor
			ph := (height - p.yOffset + p.yFactor - 1) / p.yFactor
			// A pass may be empty; it then carries no filter bytes at all.
			if pw == 0 || ph == 0 {
				continue
			}
			err := r.readPass(pw, ph, func(y int, pix []byte) error {
				if err := r.convertRow(scratch, pix, pw); err != nil {
					return err
				}
				scatterRow(rows[y*p.yFactor+p.yOffset], scratch, pw, outBits, p)
				return nil
			})
			if err != nil {
				return err
			}
		}
	}

	if err := r.finishInflate(); err != nil {
		return err
	}
	r.stage = dsImageRead
	return nil
}

// readPass unfilters height rows of width pixels and hands each to emit.
func (r *Reader) readPass(width, height int, emit func(y int, pix []byte) error) error {
	bitsPerPixel := int(r.hdr.BitDepth) * r.hdr.ColorType.Channels()
	bytesPerPixel := (bitsPerPixel + 7) / 8

	// The +1 is for the per-row filter type, which is at cr[0].
	rowSize := 1 + (int64(bitsPerPixel)*int64(width)+7)/8
	if rowSize != int64(int(rowSize)) {
		return UnsupportedError("dimension overflow")
	}
	// cr and pr are the bytes for the current and previous row.
	cr := make([]uint8, rowSize)
	pr := make([]uint8, rowSize)

	for y := 0; y < height; y++ {
		if _, err := io.ReadFull(r.zr, cr); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return FormatError("not enough pixel data")
			}
			return err
		}
		cdat, pdat := cr[1:], pr[1:]
		if err := unfilter(cr[0], cdat, pdat, bytesPerPixel); err != nil {
			return err
		}
		if err := emit(y, cdat); err != nil {
			return err
		}
		// The current row for y is the previous row for y+1.
		pr, cr = cr, pr
	}
	return nil
}

// finishInflate checks for EOF, to verify the zlib checksum.
func (r *Reader) finishInflate() error {
	var (
		n   int
		err error
	)
	for i := 0; n == 0 && err == nil; i++ {
		if i == 100 {
			return io.ErrNoProgress
		}
		n, err = r.zr.Read(r.tmp[:1])
	}
	if err != nil && err != io.EOF {
		return FormatError(err.Error())
	}
	if n != 0 {
		return FormatError("too much pixel data")
	}
	return nil
}

func unfilter(ft byte, cdat, pdat []byte, bytesPerPixel int) error {
	switch ft {
	case ftNone:
		// No-op.
	case ftSub:
		for i := bytesPerPixel; i < len(cdat); i++ {
			cdat[i] += cdat[i-bytesPerPixel]
		}
	case ftUp:
		for i, p := range pdat {
			cdat[i] += p
		}
	case ftAverage:
		// The first column has no column to the left of it, so it is a
		// special case. We know that the first column exists because
		// width is never zero here, and so len(cdat) != 0.
		for i := 0; i < bytesPerPixel; i++ {
			cdat[i] += pdat[i] / 2
		}
		for i := bytesPerPixel; i < len(cdat); i++ {
			cdat[i] += uint8((int(cdat[i-bytesPerPixel]) + int(pdat[i])) / 2)
		}
	case ftPaeth:
		filterPaeth(cdat, pdat, bytesPerPixel)
	default:
		return FormatError("bad filter type")
	}
	return nil
}

// filterPaeth applies the Paeth filter to cdat, with pdat as the previous row.
func filterPaeth(cdat, pdat []byte, bytesPerPixel int) {
	for i := range cdat {
		var a, c int
		if i >= bytesPerPixel {
			a = int(cdat[i-bytesPerPixel])
			c = int(pdat[i-bytesPerPixel])
		}
		cdat[i] += paeth(uint8(a), pdat[i], uint8(c))
	}
}

// paeth implements the Paeth predictor function.
func paeth(a, b, c uint8) uint8 {
	pc := int(c)
	pa := int(b) - pc
	pb := int(a) - pc
	pc = abs(pa + pb)
	pa = abs(pa)
	pb = abs(pb)
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
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

// scatterRow copies the pixels of one pass row into their final columns.
func scatterRow(dst, src []byte, width, bitsPerPixel int, p interlaceScan) {
	if bitsPerPixel >= 8 {
		bpp := bitsPerPixel / 8
		for x := 0; x < width; x++ {
			d := (x*p.xFactor + p.xOffset) * bpp
			copy(dst[d:d+bpp], src[x*bpp:(x+1)*bpp])
		}
		return
	}
	mask := byte(1<<bitsPerPixel - 1)
	for x := 0; x < width; x++ {
		sbit := x * bitsPerPixel
		v := (src[sbit/8] >> (8 - bitsPerPixel - sbit%8)) & mask
		dbit := (x*p.xFactor + p.xOffset) * bitsPerPixel
		shift := 8 - bitsPerPixel - dbit%8
		dst[dbit/8] = dst[dbit/8]&^(mask<<shift) | v<<shift
	}
}
