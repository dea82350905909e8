package loader

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// PrefixSize is the length of the frame header preceding each PNG payload.
const PrefixSize = 4

// Source is one framed PNG payload inside a container buffer.
type Source struct {
	// Size is the payload length declared by the prefix.
	Size uint32
	// Payload is the PNG data, clipped to the bytes actually present.
	Payload []byte
}

// Unframe reads the length prefix at the start of data.
func Unframe(data []byte, order binary.ByteOrder) (Source, error) {
	if len(data) < PrefixSize {
		return Source{}, newError(KindSourceUnavailable, "missing length prefix", nil)
	}
	size := order.Uint32(data[:PrefixSize])
	payload := data[PrefixSize:]
	if uint64(size) < uint64(len(payload)) {
		payload = payload[:size]
	}
	return Source{Size: size, Payload: payload}, nil
}

// Framed returns the bytes the frame occupies in its container, saturating
// at math.MaxUint32.
func (s Source) Framed() uint32 {
	return uint32(min(uint64(s.Size)+PrefixSize, math.MaxUint32))
}

// Truncated reports whether fewer payload bytes are present than declared.
func (s Source) Truncated() bool { return uint64(len(s.Payload)) < uint64(s.Size) }

// Reader returns a sequential reader over the payload.
func (s Source) Reader() io.Reader { return bytes.NewReader(s.Payload) }
