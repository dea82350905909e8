package loader

import "github.com/jdeng/gopngsurface/internal/engine"

// Header is the image header before and after normalization.
type Header struct {
	Declared  engine.Header
	Effective engine.Header
	// Channels is the effective number of samples per pixel.
	Channels int
	// Transforms is the set of normalizations requested from the engine.
	Transforms engine.Transform
}

// interpretHeader reads the declared header, requests the normalization
// transforms and re-reads the header the engine will decode with. The
// transparency decision is made in between, since expanding a palette to
// alpha is itself a transform request.
func interpretHeader(r *engine.Reader) (Header, Transparency, error) {
	if err := r.ReadInfo(); err != nil {
		return Header{}, Transparency{}, err
	}
	declared := r.Header()

	r.SetStrip16()
	r.SetPacking()
	if declared.ColorType == engine.ColorGrayscale {
		r.SetExpand()
	}

	trns, present := r.Transparency()
	t := ResolveTransparency(declared.ColorType, declared.BitDepth, trns, present)
	if t.Kind == TransparencyExpandToAlpha {
		r.SetExpand()
	}

	if declared.ColorType == engine.ColorGrayscaleAlpha {
		r.SetGrayToRGB()
	}

	if err := r.UpdateInfo(); err != nil {
		return Header{}, Transparency{}, err
	}
	return Header{
		Declared:   declared,
		Effective:  r.Header(),
		Channels:   r.Channels(),
		Transforms: r.Transforms(),
	}, t, nil
}
