package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"
)

const pngHeader = "\x89PNG\r\n\x1a\n"

const (
	// MaxDimension bounds width and height, matching libpng's default user limits.
	MaxDimension   = 1000000
	maxChunkLength = 0x7fffffff
	maxTextLength  = 1 << 16
	maxPalette     = 256
)

// Decoding stage.
// IHDR comes first, PLTE and tRNS (if present) precede IDAT, IDAT chunks are
// consecutive and IEND is last.
// https://www.w3.org/TR/PNG/#5ChunkOrdering
const (
	dsStart = iota
	dsSeenIHDR
	dsSeenIDAT
	dsImageRead
	dsSeenIEND
)

// ErrNoSource is returned by NewReader when there is nothing to read from.
var ErrNoSource = errors.New("png: no source")

// Reader is a single-use decoding context over one PNG stream.
type Reader struct {
	r   io.Reader
	crc hash.Hash32
	tmp [3 * maxPalette]byte

	stage      int
	idatLength uint32

	hdr     Header
	palette []RGB
	trns    Transparency
	hasTRNS bool
	text    []TextChunk

	transforms Transform
	updated    bool
	out        outFormat

	zr     io.ReadCloser
	bits   BitStream
	closed bool
}

// NewReader creates a decoding context reading from r.
func NewReader(r io.Reader) (*Reader, error) {
	if r == nil {
		return nil, ErrNoSource
	}
	return &Reader{r: r, crc: crc32.NewIEEE()}, nil
}

// Header returns the declared header, or the effective one after UpdateInfo.
func (r *Reader) Header() Header {
	if r.updated {
		h := r.hdr
		h.BitDepth = r.out.depth
		h.ColorType = r.out.colorType
		return h
	}
	return r.hdr
}

// Palette returns the PLTE entries, or nil when the stream has none.
func (r *Reader) Palette() []RGB { return r.palette }

// Transparency returns the tRNS chunk and whether the stream declared one.
func (r *Reader) Transparency() (Transparency, bool) { return r.trns, r.hasTRNS }

// Text returns the tEXt chunks seen so far.
func (r *Reader) Text() []TextChunk { return r.text }

// ReadInfo reads the signature and every chunk preceding the image data.
func (r *Reader) ReadInfo() error {
	if r.closed {
		return StateError("reader closed")
	}
	if r.stage != dsStart {
		return StateError("info already read")
	}
	if err := r.checkHeader(); err != nil {
		return unexpected(err)
	}
	for r.stage != dsSeenIDAT {
		length, typ, err := r.readChunkHeader()
		if err != nil {
			return unexpected(err)
		}
		switch typ {
		case "IHDR":
			if r.stage != dsStart {
				return chunkOrderError
			}
			err = r.parseIHDR(length)
			r.stage = dsSeenIHDR
		case "PLTE":
			if r.stage != dsSeenIHDR || r.palette != nil || r.hasTRNS {
				return chunkOrderError
			}
			err = r.parsePLTE(length)
		case "tRNS":
			if r.stage != dsSeenIHDR || r.hasTRNS {
				return chunkOrderError
			}
			err = r.parseTRNS(length)
		case "IDAT":
			if r.stage != dsSeenIHDR {
				return chunkOrderError
			}
			if r.hdr.ColorType == ColorPalette && r.palette == nil {
				return FormatError("missing PLTE")
			}
			r.idatLength = length
			r.stage = dsSeenIDAT
			continue
		case "IEND":
			return FormatError("no image data")
		default:
			if r.stage == dsStart {
				return chunkOrderError
			}
			err = r.parseAncillary(typ, length)
		}
		if err != nil {
			return unexpected(err)
		}
	}
	return nil
}

// ReadEnd consumes the chunks following the image data up to IEND.
func (r *Reader) ReadEnd() error {
	if r.closed {
		return StateError("reader closed")
	}
	if r.stage != dsImageRead {
		return StateError("image not read")
	}
	if r.idatLength != 0 {
		return FormatError("too much pixel data")
	}
	if err := r.verifyChecksum(); err != nil {
		return unexpected(err)
	}
	for r.stage != dsSeenIEND {
		length, typ, err := r.readChunkHeader()
		if err != nil {
			return unexpected(err)
		}
		switch typ {
		case "IEND":
			if length != 0 {
				return FormatError("bad IEND length")
			}
			err = r.verifyChecksum()
			r.stage = dsSeenIEND
		case "IHDR", "PLTE", "tRNS":
			return chunkOrderError
		case "IDAT":
			// Trailing empty IDAT chunks are tolerated.
			err = r.skip(length)
		default:
			err = r.parseAncillary(typ, length)
		}
		if err != nil {
			return unexpected(err)
		}
	}
	return nil
}

// Close releases the inflater. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if r.zr != nil {
		err = r.zr.Close()
		r.zr = nil
	}
	r.r = nil
	return err
}

func (r *Reader) checkHeader() error {
	if _, err := io.ReadFull(r.r, r.tmp[:len(pngHeader)]); err != nil {
		return err
	}
	if string(r.tmp[:len(pngHeader)]) != pngHeader {
		return FormatError("not a PNG file")
	}
	return nil
}

func (r *Reader) readChunkHeader() (uint32, string, error) {
	if _, err := io.ReadFull(r.r, r.tmp[:8]); err != nil {
		return 0, "", err
	}
	length := binary.BigEndian.Uint32(r.tmp[:4])
	if length > maxChunkLength {
		return 0, "", FormatError(fmt.Sprintf("bad chunk length: %d", length))
	}
	r.crc.Reset()
	r.crc.Write(r.tmp[4:8])
	return length, string(r.tmp[4:8]), nil
}

func (r *Reader) parseIHDR(length uint32) error {
	if length != 13 {
		return FormatError("bad IHDR length")
	}
	if _, err := io.ReadFull(r.r, r.tmp[:13]); err != nil {
		return err
	}
	r.crc.Write(r.tmp[:13])

	// The length check above guarantees every field is present.
	bs := NewBitStream(r.tmp[:13])
	w, _ := bs.ReadUint32()
	h, _ := bs.ReadUint32()
	depth, _ := bs.ReadByte()
	ct, _ := bs.ReadByte()
	compression, _ := bs.ReadByte()
	filter, _ := bs.ReadByte()
	interlace, _ := bs.ReadByte()
	if compression != 0 {
		return UnsupportedError("compression method")
	}
	if filter != 0 {
		return UnsupportedError("filter method")
	}
	if interlace > 1 {
		return FormatError("invalid interlace method")
	}
	if w == 0 || h == 0 || w > maxChunkLength || h > maxChunkLength {
		return FormatError("non-positive dimension")
	}
	if w > MaxDimension || h > MaxDimension {
		return UnsupportedError("dimension exceeds limit")
	}
	if !ColorType(ct).validDepth(depth) {
		return UnsupportedError(fmt.Sprintf("bit depth %d, color type %d", depth, ct))
	}
	r.hdr = Header{
		Width:     w,
		Height:    h,
		BitDepth:  depth,
		ColorType: ColorType(ct),
		Interlace: interlace == 1,
	}
	return r.verifyChecksum()
}

func (r *Reader) parsePLTE(length uint32) error {
	n := int(length / 3)
	if length%3 != 0 || n <= 0 || n > maxPalette {
		return FormatError("bad PLTE length")
	}
	switch r.hdr.ColorType {
	case ColorGrayscale, ColorGrayscaleAlpha:
		return FormatError("PLTE in grayscale image")
	case ColorPalette:
		if n > 1<<r.hdr.BitDepth {
			return FormatError("bad PLTE length")
		}
	}
	if _, err := io.ReadFull(r.r, r.tmp[:3*n]); err != nil {
		return err
	}
	r.crc.Write(r.tmp[:3*n])
	r.palette = make([]RGB, n)
	for i := range r.palette {
		r.palette[i] = RGB{R: r.tmp[3*i], G: r.tmp[3*i+1], B: r.tmp[3*i+2]}
	}
	return r.verifyChecksum()
}

func (r *Reader) parseTRNS(length uint32) error {
	switch r.hdr.ColorType {
	case ColorGrayscale:
		if length != 2 {
			return FormatError("bad tRNS length")
		}
	case ColorRGB:
		if length != 6 {
			return FormatError("bad tRNS length")
		}
	case ColorPalette:
		if r.palette == nil {
			return chunkOrderError
		}
		if length > uint32(len(r.palette)) {
			return FormatError("bad tRNS length")
		}
	default:
		// Images with an alpha channel carry no tRNS; the chunk is ignored.
		return r.skip(length)
	}
	n := int(length)
	if _, err := io.ReadFull(r.r, r.tmp[:n]); err != nil {
		return err
	}
	r.crc.Write(r.tmp[:n])
	bs := NewBitStream(r.tmp[:n])
	switch r.hdr.ColorType {
	case ColorGrayscale:
		r.trns.Gray, _ = bs.ReadUint16()
	case ColorRGB:
		r.trns.Red, _ = bs.ReadUint16()
		r.trns.Green, _ = bs.ReadUint16()
		r.trns.Blue, _ = bs.ReadUint16()
	case ColorPalette:
		r.trns.Alpha = append([]uint8(nil), r.tmp[:n]...)
	}
	r.hasTRNS = true
	return r.verifyChecksum()
}

func (r *Reader) parseAncillary(typ string, length uint32) error {
	if typ[0]&0x20 == 0 {
		return UnsupportedError("critical chunk " + typ)
	}
	if typ != "tEXt" || length > maxTextLength {
		return r.skip(length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return err
	}
	r.crc.Write(buf)
	if err := r.verifyChecksum(); err != nil {
		return err
	}
	for i, b := range buf {
		if b == 0 {
			r.text = append(r.text, TextChunk{Keyword: string(buf[:i]), Text: string(buf[i+1:])})
			return nil
		}
	}
	return nil
}

// skip discards a chunk of known length and verifies its checksum.
func (r *Reader) skip(length uint32) error {
	var ignored [4096]byte
	for length > 0 {
		n, err := io.ReadFull(r.r, ignored[:min(len(ignored), int(length))])
		if err != nil {
			return err
		}
		r.crc.Write(ignored[:n])
		length -= uint32(n)
	}
	return r.verifyChecksum()
}

func (r *Reader) verifyChecksum() error {
	if _, err := io.ReadFull(r.r, r.tmp[:4]); err != nil {
		return err
	}
	if binary.BigEndian.Uint32(r.tmp[:4]) != r.crc.Sum32() {
		return FormatError("invalid checksum")
	}
	return nil
}

// openInflater starts zlib decompression over the IDAT stream.
func (r *Reader) openInflater() error {
	zr, err := zlib.NewReader(idatReader{r})
	if err != nil {
		return unexpected(err)
	}
	r.zr = zr
	return nil
}

// idatReader presents one or more IDAT chunks as one continuous stream,
// minus the intermediate chunk headers and footers.
type idatReader struct {
	r *Reader
}

func (ir idatReader) Read(p []byte) (int, error) {
	r := ir.r
	if len(p) == 0 {
		return 0, nil
	}
	for r.idatLength == 0 {
		// We have exhausted an IDAT chunk. Verify the checksum of that chunk.
		if err := r.verifyChecksum(); err != nil {
			return 0, err
		}
		length, typ, err := r.readChunkHeader()
		if err != nil {
			return 0, err
		}
		if typ != "IDAT" {
			return 0, FormatError("not enough pixel data")
		}
		r.idatLength = length
	}
	n, err := r.r.Read(p[:min(len(p), int(r.idatLength))])
	r.crc.Write(p[:n])
	r.idatLength -= uint32(n)
	return n, err
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
