package engine

import "errors"

var errBitStreamBounds = errors.New("png: bitstream out of bounds")

// BitStream reads MSB-first bit fields and big-endian integers from a byte
// slice, the layout used by both PNG scanlines and chunk payloads.
type BitStream struct {
	buf    []byte
	byteIx uint32
	bitIx  uint32
}

// NewBitStream constructs a bit stream over data.
func NewBitStream(data []byte) *BitStream {
	return &BitStream{buf: data}
}

// Reset repositions the stream at the start of data.
func (bs *BitStream) Reset(data []byte) {
	bs.buf = data
	bs.byteIx = 0
	bs.bitIx = 0
}

// ReadNBits reads count bits (at most 16) as an unsigned value.
func (bs *BitStream) ReadNBits(count uint8) (uint16, error) {
	if count > 16 || bs.BitPos()+uint32(count) > bs.lengthInBits() {
		return 0, errBitStreamBounds
	}
	if bs.bitIx == 0 {
		// Whole-byte fast paths for 8- and 16-bit samples.
		switch count {
		case 8:
			v := bs.buf[bs.byteIx]
			bs.byteIx++
			return uint16(v), nil
		case 16:
			v := uint16(bs.buf[bs.byteIx])<<8 | uint16(bs.buf[bs.byteIx+1])
			bs.byteIx += 2
			return v, nil
		}
	}
	var result uint16
	for ; count > 0; count-- {
		result = result<<1 | uint16(bs.buf[bs.byteIx]>>(7-bs.bitIx)&0x01)
		bs.advanceBit()
	}
	return result, nil
}

// ReadByte returns the next raw byte.
func (bs *BitStream) ReadByte() (byte, error) {
	if !bs.InBounds() {
		return 0, errBitStreamBounds
	}
	value := bs.buf[bs.byteIx]
	bs.byteIx++
	return value, nil
}

// ReadUint32 reads a big-endian 32-bit value.
func (bs *BitStream) ReadUint32() (uint32, error) {
	if bs.BytesLeft() < 4 {
		return 0, errBitStreamBounds
	}
	v := uint32(bs.buf[bs.byteIx])<<24 |
		uint32(bs.buf[bs.byteIx+1])<<16 |
		uint32(bs.buf[bs.byteIx+2])<<8 |
		uint32(bs.buf[bs.byteIx+3])
	bs.byteIx += 4
	return v, nil
}

// ReadUint16 reads a big-endian 16-bit value.
func (bs *BitStream) ReadUint16() (uint16, error) {
	if bs.BytesLeft() < 2 {
		return 0, errBitStreamBounds
	}
	v := uint16(bs.buf[bs.byteIx])<<8 | uint16(bs.buf[bs.byteIx+1])
	bs.byteIx += 2
	return v, nil
}

// BitPos returns the absolute bit position from the start of the stream.
func (bs *BitStream) BitPos() uint32 {
	return bs.byteIx<<3 + bs.bitIx
}

// BytesLeft returns the number of whole bytes not yet consumed.
func (bs *BitStream) BytesLeft() uint32 {
	if int(bs.byteIx) >= len(bs.buf) {
		return 0
	}
	return uint32(len(bs.buf)) - bs.byteIx
}

// InBounds reports whether the current byte index is within the buffer.
func (bs *BitStream) InBounds() bool {
	return bs.byteIx < uint32(len(bs.buf))
}

func (bs *BitStream) lengthInBits() uint32 {
	return uint32(len(bs.buf)) * 8
}

func (bs *BitStream) advanceBit() {
	if bs.bitIx == 7 {
		bs.byteIx++
		bs.bitIx = 0
	} else {
		bs.bitIx++
	}
}
