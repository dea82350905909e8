package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/jdeng/gopngsurface/internal/pngtest"
)

// samples covers every color type and each way transparency is represented.
func samples() []pngtest.Image {
	gradient := make([][]byte, 16)
	for y := range gradient {
		gradient[y] = make([]byte, 16*4)
		for x := 0; x < 16; x++ {
			gradient[y][4*x] = uint8(x * 16)
			gradient[y][4*x+1] = uint8(y * 16)
			gradient[y][4*x+2] = 0x80
			gradient[y][4*x+3] = uint8(0xff - x*8)
		}
	}

	ramp := make([][]byte, 4)
	for y := range ramp {
		ramp[y] = pngtest.PackRow([]uint8{0, 3, 6, 9, 12, 15, uint8(y), uint8(15 - y)}, 4)
	}

	return []pngtest.Image{
		// Opaque red pixel.
		{Width: 1, Height: 1, BitDepth: 8, ColorType: 2, Rows: [][]byte{{255, 0, 0}}},
		// Interlaced RGBA gradient.
		{Width: 16, Height: 16, BitDepth: 8, ColorType: 6, Rows: gradient, Interlace: true, Filter: 4,
			Text: map[string]string{"Title": "gradient"}},
		// 4-bit gray ramp.
		{Width: 8, Height: 4, BitDepth: 4, ColorType: 0, Rows: ramp},
		// Gray with a transparent reference value.
		{Width: 2, Height: 2, BitDepth: 8, ColorType: 0, Trns: []byte{0, 0x40},
			Rows: [][]byte{{0x40, 0x80}, {0xc0, 0x40}}},
		// Palette with a single fully transparent entry.
		{Width: 2, Height: 2, BitDepth: 8, ColorType: 3,
			Palette: [][3]uint8{{0, 0, 0}, {255, 255, 0}}, Trns: []byte{0, 255},
			Rows: [][]byte{{0, 1}, {1, 0}}},
		// Palette with translucent entries.
		{Width: 3, Height: 1, BitDepth: 2, ColorType: 3,
			Palette: [][3]uint8{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}}, Trns: []byte{0x20, 0x80},
			Rows: [][]byte{pngtest.PackRow([]uint8{0, 1, 2}, 2)}},
		// 16-bit gray and alpha.
		{Width: 2, Height: 1, BitDepth: 16, ColorType: 4,
			Rows: [][]byte{{0x12, 0x34, 0xff, 0xff, 0xab, 0xcd, 0x80, 0x00}}},
	}
}

func createTestPack(filename string, order binary.ByteOrder) (int, error) {
	file, err := os.Create(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	images := samples()
	for i, img := range images {
		png, err := pngtest.Encode(img)
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		if _, err = file.Write(pngtest.Frame(png, order)); err != nil {
			return 0, err
		}
	}
	return len(images), file.Close()
}

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Println("Usage: create-test-pack <output-file> [be|le]")
		os.Exit(1)
	}

	var order binary.ByteOrder = binary.NativeEndian
	if len(os.Args) == 3 {
		switch os.Args[2] {
		case "be":
			order = binary.BigEndian
		case "le":
			order = binary.LittleEndian
		default:
			fmt.Printf("Unknown byte order %q\n", os.Args[2])
			os.Exit(1)
		}
	}

	filename := os.Args[1]
	n, err := createTestPack(filename, order)
	if err != nil {
		fmt.Printf("Error creating test pack: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created test pack with %d images: %s\n", n, filename)
}
