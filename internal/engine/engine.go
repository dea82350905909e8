// Package engine is a pull-based PNG decoding engine. It parses the chunk
// stream, exposes header, palette and transparency metadata, accepts
// normalization transforms and decodes the whole image into caller-owned rows.
//
// Every call reports failure through its error result; nothing panics across
// the package boundary.
package engine

import "fmt"

// ColorType is the PNG color type from IHDR.
type ColorType uint8

const (
	ColorGrayscale      ColorType = 0
	ColorRGB            ColorType = 2
	ColorPalette        ColorType = 3
	ColorGrayscaleAlpha ColorType = 4
	ColorRGBA           ColorType = 6
)

func (ct ColorType) String() string {
	switch ct {
	case ColorGrayscale:
		return "Grayscale"
	case ColorRGB:
		return "RGB"
	case ColorPalette:
		return "Palette"
	case ColorGrayscaleAlpha:
		return "GrayscaleAlpha"
	case ColorRGBA:
		return "RGBA"
	default:
		return fmt.Sprintf("ColorType(%d)", uint8(ct))
	}
}

// Channels returns the number of samples per pixel for the color type.
func (ct ColorType) Channels() int {
	switch ct {
	case ColorGrayscale, ColorPalette:
		return 1
	case ColorGrayscaleAlpha:
		return 2
	case ColorRGB:
		return 3
	case ColorRGBA:
		return 4
	default:
		return 0
	}
}

// validDepth reports whether the bit depth is allowed for the color type.
func (ct ColorType) validDepth(depth uint8) bool {
	switch ct {
	case ColorGrayscale:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8 || depth == 16
	case ColorPalette:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8
	case ColorRGB, ColorGrayscaleAlpha, ColorRGBA:
		return depth == 8 || depth == 16
	default:
		return false
	}
}

// Header holds the IHDR fields.
type Header struct {
	Width     uint32
	Height    uint32
	BitDepth  uint8
	ColorType ColorType
	Interlace bool
}

// RGB is a single PLTE entry.
type RGB struct {
	R, G, B uint8
}

// Transparency holds a decoded tRNS chunk. Alpha is set for palette images
// (one entry per palette index, possibly shorter than the palette). Gray or
// Red/Green/Blue hold the transparent reference sample at the image's
// declared bit depth.
type Transparency struct {
	Alpha []uint8
	Gray  uint16
	Red   uint16
	Green uint16
	Blue  uint16
}

// TextChunk is a tEXt keyword/value pair.
type TextChunk struct {
	Keyword string
	Text    string
}

// Transform selects a normalization applied to decoded samples.
type Transform uint8

const (
	// TransformStrip16 reduces 16-bit samples to their high byte.
	TransformStrip16 Transform = 1 << iota
	// TransformPacking stores sub-byte samples one per byte, unscaled.
	TransformPacking
	// TransformExpand scales sub-byte grayscale samples to 0..255 and turns
	// palette indices into RGB, or RGBA when a tRNS chunk is present.
	TransformExpand
	// TransformGrayToRGB replicates the gray sample into red, green and blue.
	TransformGrayToRGB
)

// A FormatError reports that the input is not a valid PNG.
type FormatError string

func (e FormatError) Error() string { return "png: invalid format: " + string(e) }

var chunkOrderError = FormatError("chunk out of order")

// An UnsupportedError reports that the input uses a valid but unimplemented PNG feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "png: unsupported feature: " + string(e) }

// A StateError reports a call made out of sequence.
type StateError string

func (e StateError) Error() string { return "png: " + string(e) }
