// Package userpos implements the read-only user-POS data loader mentioned
// in spec §6 "specified only for completeness": a sibling collaborator of
// the builder that shares no state with it. The original
// (data_manager/oss/oss_user_pos_manager.cc) loads an embedded C array
// generated at build time and exposes two byte-range views guarded by an
// integrity check; this keeps the same "precompiled blob + validated
// accessor" shape but as a plain Go byte slice literal rather than
// go:embed, since there is no external asset file to embed — the blob
// plays the same role the original's generated header does.
package userpos

import (
	"encoding/binary"
	"fmt"
)

var magic = [4]byte{'U', 'P', 'O', 'S'}

// defaultData is a minimal, well-formed placeholder blob in the format
// Manager understands: magic, a token-array section, a string-array
// section. A real build replaces this with the precomputed table the
// user-POS manager (an external collaborator, §1) actually produces;
// nothing in this module writes to it.
var defaultData = buildDefaultData()

func buildDefaultData() []byte {
	tokenArray := []byte{}
	stringArray := []byte{}
	buf := make([]byte, 0, 4+4+len(tokenArray)+4+len(stringArray))
	buf = append(buf, magic[:]...)
	buf = appendUint32(buf, uint32(len(tokenArray)))
	buf = append(buf, tokenArray...)
	buf = appendUint32(buf, uint32(len(stringArray)))
	buf = append(buf, stringArray...)
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// Manager is a read-only accessor over a precomputed user-POS blob. It
// performs integrity-check initialization once, at construction:
// NewManager returns an error for a corrupted blob, and NewDefaultManager
// panics if the embedded blob is corrupted.
type Manager struct {
	tokenArray  []byte
	stringArray []byte
}

// NewManager validates and wraps data, which must be in the Manager blob
// format (magic, token-array section, string-array section).
func NewManager(data []byte) (*Manager, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("userpos: blob too short")
	}
	if string(data[:4]) != string(magic[:]) {
		return nil, fmt.Errorf("userpos: bad magic %q", data[:4])
	}
	pos := 4
	tokenArray, pos, err := readSection(data, pos)
	if err != nil {
		return nil, fmt.Errorf("userpos: token array: %w", err)
	}
	stringArray, _, err := readSection(data, pos)
	if err != nil {
		return nil, fmt.Errorf("userpos: string array: %w", err)
	}
	return &Manager{tokenArray: tokenArray, stringArray: stringArray}, nil
}

// NewDefaultManager wraps the embedded placeholder blob. CHECK-equivalent:
// panics if the embedded blob itself is malformed, since that indicates a
// programming error in this package, not bad input (spec §7).
func NewDefaultManager() *Manager {
	m, err := NewManager(defaultData)
	if err != nil {
		panic(fmt.Sprintf("userpos: embedded blob is broken: %v", err))
	}
	return m
}

func readSection(data []byte, pos int) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, 0, fmt.Errorf("truncated length prefix at offset %d", pos)
	}
	length := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if pos+length > len(data) {
		return nil, 0, fmt.Errorf("truncated section at offset %d (want %d bytes)", pos, length)
	}
	return data[pos : pos+length], pos + length, nil
}

// GetUserPOSData returns the two byte-range views the original exposes
// through GetUserPOSData(StringPiece*, StringPiece*): the token array and
// the string array. The builder never calls this — it is an independent
// sibling collaborator (§6).
func (m *Manager) GetUserPOSData() (tokenArray, stringArray []byte) {
	return m.tokenArray, m.stringArray
}
