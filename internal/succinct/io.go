package succinct

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteTo serializes b as a uint32 bit length followed by ceil(length/8)
// raw bytes, little-endian throughout. This framing is private to the two
// builders in this module; it is not the runtime's wire format (§9).
func (b *BitVector) WriteTo(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(b.length)); err != nil {
		return err
	}
	need := (b.length + 7) / 8
	buf := make([]byte, need)
	copy(buf, b.bits)
	_, err := w.Write(buf)
	return err
}

// ReadFrom is the inverse of WriteTo.
func ReadFrom(r io.Reader) (*BitVector, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, fmt.Errorf("succinct: read bit length: %w", err)
	}
	need := (int(length) + 7) / 8
	buf := make([]byte, need)
	if need > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("succinct: read bits: %w", err)
		}
	}
	return FromBytes(buf, int(length)), nil
}
