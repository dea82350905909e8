package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/jdeng/gopngsurface/pkg/pngsurface"
)

func main() {
	var inputFile = flag.String("input", "", "Input PNG file")
	var framed = flag.Bool("framed", false, "Input already carries a 4-byte length prefix")
	var pack = flag.Bool("pack", false, "Input is a sequence of length-prefixed PNG frames")
	var outputFile = flag.String("output", "", "Output .bmp, .png or .tiff file (optional, defaults to input filename with .bmp extension)")
	var bigEndian = flag.Bool("be", false, "Pack pixels big-endian")
	var littleEndian = flag.Bool("le", false, "Pack pixels little-endian")
	var prefixBE = flag.Bool("prefix-be", false, "Length prefixes in the input are big-endian")
	var dump = flag.Bool("dump", false, "Print the first 64 bytes of the input")
	flag.Parse()

	if *inputFile == "" {
		log.Fatal("Input file is required. Use -input flag.")
	}
	if *bigEndian && *littleEndian {
		log.Fatal("Use at most one of -be and -le.")
	}

	data, err := os.ReadFile(*inputFile)
	if err != nil {
		log.Fatalf("Failed to read input file: %v", err)
	}

	var opts pngsurface.Options
	switch {
	case *bigEndian:
		opts.PixelOrder = binary.BigEndian
	case *littleEndian:
		opts.PixelOrder = binary.LittleEndian
	}
	opts.PrefixOrder = binary.NativeEndian
	if *prefixBE {
		opts.PrefixOrder = binary.BigEndian
	}

	if *dump {
		dumpBytes(data, 64)
	}

	var surfaces []*pngsurface.Surface
	var consumed uint32
	switch {
	case *pack:
		surfaces, consumed, err = pngsurface.LoadAll(data, opts)
		if err != nil && len(surfaces) == 0 {
			log.Fatalf("Failed to decode pack: %v", err)
		}
		if err != nil {
			log.Printf("Stopped after %d frames: %v", len(surfaces), err)
		}
	default:
		if !*framed {
			data = pngsurface.Frame(data, opts.PrefixOrder)
		}
		s, err := pngsurface.LoadWithOptions(data, &consumed, opts)
		if err != nil {
			log.Fatalf("Failed to decode PNG: %v", err)
		}
		surfaces = append(surfaces, s)
	}

	fmt.Printf("Decoded %d surface(s), %d bytes counted\n", len(surfaces), consumed)
	for i, s := range surfaces {
		report(i, s)
	}

	output := *outputFile
	if output == "" {
		ext := filepath.Ext(*inputFile)
		output = (*inputFile)[:len(*inputFile)-len(ext)] + ".bmp"
	}
	for i, s := range surfaces {
		name := output
		if len(surfaces) > 1 {
			ext := filepath.Ext(output)
			name = fmt.Sprintf("%s-%d%s", output[:len(output)-len(ext)], i, ext)
		}
		if err := writeImage(name, s.Image()); err != nil {
			log.Fatalf("Failed to write %s: %v", name, err)
		}
		fmt.Printf("Wrote %s\n", name)
		s.Free()
	}
}

func report(i int, s *pngsurface.Surface) {
	r, g, b, a := s.Masks()
	fmt.Printf("  Surface %d: %dx%d, %d bpp, pitch %d\n", i, s.Width(), s.Height(), s.BitsPerPixel(), s.Pitch())
	fmt.Printf("    masks R=%08x G=%08x B=%08x A=%08x\n", r, g, b, a)
	if p := s.Palette(); p != nil {
		fmt.Printf("    palette: %d colors\n", len(p))
	}
	fmt.Printf("    transparency: %s", s.Transparency())
	if key, ok := s.ColorKey(); ok {
		fmt.Printf(" (key %#x)", key)
	}
	fmt.Println()
	for _, kv := range s.Text() {
		fmt.Printf("    %s: %s\n", kv[0], kv[1])
	}
}

// writeImage encodes img according to the extension of name.
func writeImage(name string, img image.Image) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		err = png.Encode(file, img)
	case ".bmp":
		err = bmp.Encode(file, img)
	case ".tif", ".tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported output format %q", filepath.Ext(name))
	}
	if err != nil {
		return err
	}
	return file.Close()
}

func dumpBytes(data []byte, limit int) {
	fmt.Printf("Raw file data (first %d bytes):\n", limit)
	if len(data) > limit {
		data = data[:limit]
	}
	for i := 0; i < len(data); i += 16 {
		fmt.Printf("  %04x: ", i)
		for j := 0; j < 16 && i+j < len(data); j++ {
			fmt.Printf("%02x ", data[i+j])
		}
		fmt.Println()
	}
}
