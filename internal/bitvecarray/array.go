// Package bitvecarray implements the BitVectorArrayBuilder of spec §4.3: a
// concatenated blob of variable-length records plus a bit vector that marks
// each record's start offset, so the i-th record is recoverable in O(1)
// given select1(i). The technique generalizes the teacher's packed payload
// store (github.com/npillmayer/hyphenate/pattern_store.go), which indexes
// variable-length byte payloads by trie position with a sentinel for
// "absent"; here every record is present and addressed by sequential id
// instead, so the per-record length byte becomes a bit-vector offset mark.
package bitvecarray

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Kento75/mozc/internal/succinct"
)

// Builder is the BitVectorArrayBuilder of spec §4.3.
type Builder struct {
	frozen  bool
	records [][]byte
}

// NewBuilder returns an empty, mutable array builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends one variable-length record, preserving call order.
func (b *Builder) Add(record []byte) {
	if b.frozen {
		panic("bitvecarray: Add called after Build")
	}
	rec := make([]byte, len(record))
	copy(rec, record)
	b.records = append(b.records, rec)
}

// Build finalizes the array. No further Add calls are permitted.
func (b *Builder) Build() {
	b.frozen = true
}

// NumRecords returns the number of records added.
func (b *Builder) NumRecords() int { return len(b.records) }

// Image returns the array's byte image: a small header, the bit vector
// marking record-start offsets within the blob, and the concatenated blob
// itself. The bit-vector layout assumes no record is zero-length — every
// producer in this module (§4.1 Pass J) only ever emits non-empty records,
// since a zero-length record's start offset would collide with the next
// record's and could not be told apart by a single bit vector (spec §4.3
// notes this layout is a contract, not an implementation detail).
func (b *Builder) Image() []byte {
	if !b.frozen {
		panic("bitvecarray: Image called before Build")
	}
	var blob []byte
	offsets := make([]int, len(b.records))
	for i, rec := range b.records {
		offsets[i] = len(blob)
		blob = append(blob, rec...)
	}
	var starts succinct.BitVector
	starts.EnsureLen(len(blob))
	for _, off := range offsets {
		starts.Set(off, true)
	}

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint32(len(b.records)))
	binary.Write(buf, binary.LittleEndian, uint32(len(blob)))
	starts.WriteTo(buf)
	buf.Write(blob)
	return buf.Bytes()
}

// Decode reconstructs every record from a serialized image, in original
// Add order, using select1 over the embedded bit vector exactly as the
// runtime reader would.
func Decode(image []byte) ([][]byte, error) {
	r := bytes.NewReader(image)
	var numRecords, blobLen uint32
	if err := binary.Read(r, binary.LittleEndian, &numRecords); err != nil {
		return nil, fmt.Errorf("bitvecarray: read numRecords: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &blobLen); err != nil {
		return nil, fmt.Errorf("bitvecarray: read blobLen: %w", err)
	}
	starts, err := succinct.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("bitvecarray: read starts: %w", err)
	}
	blob := make([]byte, blobLen)
	if blobLen > 0 {
		if _, err := io.ReadFull(r, blob); err != nil {
			return nil, fmt.Errorf("bitvecarray: read blob: %w", err)
		}
	}

	records := make([][]byte, numRecords)
	for i := 0; i < int(numRecords); i++ {
		start := starts.Select1(i)
		end := starts.Select1(i + 1)
		if start < 0 || end < 0 {
			return nil, fmt.Errorf("bitvecarray: record %d offset not found in bit vector", i)
		}
		records[i] = blob[start:end]
	}
	return records, nil
}
