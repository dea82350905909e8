package loader

import (
	"github.com/jdeng/gopngsurface/internal/engine"
	"github.com/jdeng/gopngsurface/internal/surface"
)

// buildPalette fills the palette slot of an indexed surface: an identity
// ramp for grayscale, the PLTE entries for palette images.
func buildPalette(s *surface.Surface, ct engine.ColorType, plte []engine.RGB) {
	p := s.Palette()
	if p == nil {
		return
	}
	switch {
	case ct == engine.ColorGrayscale:
		for i := 0; i < 256; i++ {
			p.Colors[i] = surface.Color{R: uint8(i), G: uint8(i), B: uint8(i)}
		}
		p.NColors = 256
	case len(plte) > 0:
		n := min(len(plte), len(p.Colors))
		for i := 0; i < n; i++ {
			p.Colors[i] = surface.Color{R: plte[i].R, G: plte[i].G, B: plte[i].B}
		}
		p.NColors = n
	}
}
