package loader

import (
	"fmt"

	"github.com/jdeng/gopngsurface/internal/engine"
	"github.com/jdeng/gopngsurface/internal/surface"
)

// TransparencyKind is how an image's tRNS chunk is represented on the surface.
type TransparencyKind int

const (
	// TransparencyNone means no color key and no added alpha channel.
	TransparencyNone TransparencyKind = iota
	// TransparencyColorKey means one pixel value is reserved as transparent.
	TransparencyColorKey
	// TransparencyExpandToAlpha means the palette is promoted to RGBA.
	TransparencyExpandToAlpha
)

func (k TransparencyKind) String() string {
	switch k {
	case TransparencyNone:
		return "None"
	case TransparencyColorKey:
		return "ColorKey"
	case TransparencyExpandToAlpha:
		return "ExpandToAlpha"
	default:
		return fmt.Sprintf("TransparencyKind(%d)", int(k))
	}
}

// Transparency is the resolved decision for one image.
type Transparency struct {
	Kind TransparencyKind
	// Palette reports whether the key is a palette index rather than a color.
	Palette bool
	// Index is the transparent palette entry.
	Index uint8
	// Ref is the transparent reference color scaled to 8 bits per channel.
	Ref surface.Color
}

// ResolveTransparency decides the representation of a tRNS chunk for a
// declared color type and bit depth.
func ResolveTransparency(ct engine.ColorType, depth uint8, trns engine.Transparency, present bool) Transparency {
	if !present {
		return Transparency{}
	}
	switch ct {
	case engine.ColorPalette:
		t := -1
		for i, a := range trns.Alpha {
			switch {
			case a == 0 && t < 0:
				t = i
			case a == 0, a != 0xff:
				// A second transparent entry or any translucency.
				return Transparency{Kind: TransparencyExpandToAlpha}
			}
		}
		if t < 0 {
			return Transparency{}
		}
		return Transparency{Kind: TransparencyColorKey, Palette: true, Index: uint8(t)}
	case engine.ColorGrayscale:
		g := sample8(trns.Gray, depth)
		return Transparency{Kind: TransparencyColorKey, Ref: surface.Color{R: g, G: g, B: g}}
	case engine.ColorRGB:
		return Transparency{Kind: TransparencyColorKey, Ref: surface.Color{
			R: sample8(trns.Red, depth),
			G: sample8(trns.Green, depth),
			B: sample8(trns.Blue, depth),
		}}
	}
	return Transparency{}
}

// sample8 normalizes a reference sample the way pixel samples are normalized.
func sample8(v uint16, depth uint8) uint8 {
	switch {
	case depth == 16:
		return uint8(v >> 8)
	case depth < 8:
		return uint8(engine.ScaleSample(v&(1<<depth-1), depth))
	}
	return uint8(v)
}

// applyColorKey records the resolved key on a decoded surface.
func applyColorKey(s *surface.Surface, t Transparency) {
	if t.Kind != TransparencyColorKey {
		return
	}
	if t.Palette {
		s.SetColorKey(uint32(t.Index))
		return
	}
	s.SetColorKey(s.Format.MapRGB(t.Ref.R, t.Ref.G, t.Ref.B))
}
