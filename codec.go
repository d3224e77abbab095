package mozc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Codec turns keys, values, and token lists into the byte strings the
// tries and the token array actually store (spec §4.4). A caller may
// supply an alternate Codec (§9); the section name getters let it
// advertise what it produces without the builder hard-coding names.
type Codec interface {
	EncodeKey(reading string) ([]byte, error)
	EncodeValue(surface string) ([]byte, error)
	EncodeTokens(tokens []*TokenInfo) ([]byte, error)
	TokensTerminationFlag() byte

	SectionNameForValue() string
	SectionNameForKey() string
	SectionNameForTokens() string
	SectionNameForPos() string
}

// DefaultCodec is the Codec every Builder uses unless told otherwise. It
// maps kana (the only alphabet readings use) and common katakana to a
// dense one-byte alphabet so keys sharing a kana prefix also share a
// byte-level trie prefix, and falls back to a 5-byte escape sequence
// for any rune outside that table (surface values may contain kanji).
// This generalizes the teacher's dense code-unit map
// (github.com/npillmayer/hyphenate/dat/map.go PagedMapBMP), which maps
// a bounded alphabet to compact ids for the same reason.
type DefaultCodec struct{}

const runeEscape byte = 0x00

// tokensTerminationFlag is guaranteed never to be a legal first byte of
// an encoded token record: posType occupies bits 0-1 (values 0-2),
// valueType bits 2-3 (values 0-3), costType bit 4, isLast bit 5 — bits
// 6-7 are always zero in a legal flags byte, so 0xFF (bits 6-7 set)
// can never collide with one.
const tokensTerminationFlag byte = 0xFF

var denseRuneToByte map[rune]byte
var denseByteToRune map[byte]rune

func init() {
	denseRuneToByte = make(map[rune]byte)
	denseByteToRune = make(map[byte]rune)
	code := byte(1) // 0 is reserved for the escape marker
	add := func(r rune) {
		denseRuneToByte[r] = code
		denseByteToRune[code] = r
		code++
	}
	for r := rune(hiraganaStart); r <= hiraganaEnd; r++ {
		add(r)
	}
	for r := rune(hiraganaStart); r <= hiraganaEnd; r++ {
		add(r + katakanaOffset) // corresponding katakana block
	}
	add(hiraganaIterationMark)
	add(hiraganaVoicedIterationMark)
	add(katakanaIterationMark)
	add(katakanaVoicedIterationMark)
	add(0x30FC) // prolonged sound mark (katakana-hyphen, no hiragana counterpart)
}

func encodeRunes(s string) []byte {
	out := make([]byte, 0, len(s))
	var escape [5]byte
	for _, r := range s {
		if code, ok := denseRuneToByte[r]; ok {
			out = append(out, code)
			continue
		}
		escape[0] = runeEscape
		binary.BigEndian.PutUint32(escape[1:], uint32(r))
		out = append(out, escape[:]...)
	}
	return out
}

func decodeRunes(b []byte) (string, error) {
	var sb []rune
	i := 0
	for i < len(b) {
		if b[i] == runeEscape {
			if i+5 > len(b) {
				return "", fmt.Errorf("codec: truncated escape sequence at offset %d", i)
			}
			r := rune(binary.BigEndian.Uint32(b[i+1 : i+5]))
			sb = append(sb, r)
			i += 5
			continue
		}
		r, ok := denseByteToRune[b[i]]
		if !ok {
			return "", fmt.Errorf("codec: unknown dense code 0x%02x at offset %d", b[i], i)
		}
		sb = append(sb, r)
		i++
	}
	return string(sb), nil
}

// EncodeKey encodes a reading. Readings are kana-only (spec §3), so the
// dense table always applies, but the escape path is kept rather than
// erroring on an unexpected rune — a malformed reading is a data
// problem the builder surfaces elsewhere, not this codec's job to
// police.
func (DefaultCodec) EncodeKey(reading string) ([]byte, error) {
	return encodeRunes(reading), nil
}

// DecodeKey reverses EncodeKey.
func (DefaultCodec) DecodeKey(b []byte) (string, error) { return decodeRunes(b) }

// EncodeValue encodes a surface form, which may contain kanji outside
// the dense table.
func (DefaultCodec) EncodeValue(surface string) ([]byte, error) {
	return encodeRunes(surface), nil
}

// DecodeValue reverses EncodeValue.
func (DefaultCodec) DecodeValue(b []byte) (string, error) { return decodeRunes(b) }

// EncodeTokens serializes tokens (already ordered and classified by
// Passes E-H) into one flags-prefixed record per token (spec §4.1
// Pass J). Byte layout per token:
//
//	flags byte: bit0-1 PosType, bit2-3 ValueType, bit4 CostType, bit5 isLast
//	pos payload:   DefaultPos -> lid uint16 LE, rid uint16 LE
//	               FrequentPos -> id_in_frequent_pos_map as 1 byte
//	               SameAsPrevPos -> (nothing)
//	value payload: DefaultValue -> id_in_value_trie as uvarint
//	               AsIsHiragana/AsIsKatakana/SameAsPrevValue -> (nothing)
//	cost payload:  DefaultCost -> cost int16 LE (as uint16 bit pattern)
//	               CanUseSmallEncoding -> cost as 1 signed byte
//	attributes byte: always present, 1 byte
func (DefaultCodec) EncodeTokens(tokens []*TokenInfo) ([]byte, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("codec: EncodeTokens called with zero tokens")
	}
	buf := new(bytes.Buffer)
	for i, ti := range tokens {
		flags := byte(ti.PosType) | byte(ti.ValueType)<<2
		if ti.CostType == CanUseSmallEncoding {
			flags |= 1 << 4
		}
		if i == len(tokens)-1 {
			flags |= 1 << 5
		}
		buf.WriteByte(flags)

		switch ti.PosType {
		case DefaultPos:
			var tmp [2]byte
			binary.LittleEndian.PutUint16(tmp[:], ti.Token.Lid)
			buf.Write(tmp[:])
			binary.LittleEndian.PutUint16(tmp[:], ti.Token.Rid)
			buf.Write(tmp[:])
		case FrequentPos:
			if ti.IDInFrequentPosMap > 0xFF {
				return nil, fmt.Errorf("codec: frequent pos id %d overflows one byte", ti.IDInFrequentPosMap)
			}
			buf.WriteByte(byte(ti.IDInFrequentPosMap))
		case SameAsPrevPos:
		default:
			return nil, fmt.Errorf("codec: unknown PosType %d", ti.PosType)
		}

		switch ti.ValueType {
		case DefaultValue:
			var tmp [binary.MaxVarintLen64]byte
			n := binary.PutUvarint(tmp[:], uint64(ti.IDInValueTrie))
			buf.Write(tmp[:n])
		case AsIsHiragana, AsIsKatakana, SameAsPrevValue:
		default:
			return nil, fmt.Errorf("codec: unknown ValueType %d", ti.ValueType)
		}

		if ti.CostType == CanUseSmallEncoding {
			buf.WriteByte(byte(int8(ti.Token.Cost)))
		} else {
			var tmp [2]byte
			binary.LittleEndian.PutUint16(tmp[:], uint16(ti.Token.Cost))
			buf.Write(tmp[:])
		}

		buf.WriteByte(ti.Token.Attributes)
	}
	return buf.Bytes(), nil
}

// TokensTerminationFlag returns the sentinel flags byte used for the
// token array's trailing marker record (spec §4.1 Pass J).
func (DefaultCodec) TokensTerminationFlag() byte { return tokensTerminationFlag }

func (DefaultCodec) SectionNameForValue() string  { return "value" }
func (DefaultCodec) SectionNameForKey() string    { return "key" }
func (DefaultCodec) SectionNameForTokens() string { return "tokens" }
func (DefaultCodec) SectionNameForPos() string    { return "pos" }

// DecodedToken is the result of decoding one token record: a
// fully-resolved Lid/Rid/Value/Cost/Attributes set, with SAME_AS_PREV_*
// and AS_IS_* already folded in. It exists to make the round-trip
// invariant (spec §8 property 7) directly testable.
type DecodedToken struct {
	Lid, Rid   uint16
	Value      string
	Cost       int16
	Attributes uint8
}

// DecodeTokens reverses EncodeTokens for one key's record. frequentPos
// maps a frequent-POS id back to its combined (lid, rid); resolveValue
// maps a value-trie id to its decoded surface string (typically backed
// by a decoded value trie plus DecodeValue). key is the reading that
// produced this record, needed to resolve AS_IS_HIRAGANA/AS_IS_KATAKANA.
func (c DefaultCodec) DecodeTokens(key string, record []byte, frequentPos map[uint32]uint32, resolveValue func(id int) (string, error)) ([]DecodedToken, error) {
	r := bytes.NewReader(record)
	var out []DecodedToken
	var prevLid, prevRid uint16
	var prevValue string
	for {
		flags, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("codec: DecodeTokens: missing terminating record: %w", err)
		}
		posType := PosType(flags & 0x03)
		valueType := ValueType((flags >> 2) & 0x03)
		costType := CostType((flags >> 4) & 0x01)
		isLast := (flags>>5)&0x01 == 1

		var lid, rid uint16
		switch posType {
		case DefaultPos:
			var tmp [2]byte
			if _, err := io.ReadFull(r, tmp[:]); err != nil {
				return nil, fmt.Errorf("codec: read lid: %w", err)
			}
			lid = binary.LittleEndian.Uint16(tmp[:])
			if _, err := io.ReadFull(r, tmp[:]); err != nil {
				return nil, fmt.Errorf("codec: read rid: %w", err)
			}
			rid = binary.LittleEndian.Uint16(tmp[:])
		case FrequentPos:
			idByte, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("codec: read frequent pos id: %w", err)
			}
			combined, ok := frequentPos[uint32(idByte)]
			if !ok {
				return nil, fmt.Errorf("codec: unknown frequent pos id %d", idByte)
			}
			lid, rid = splitCombinedPos(combined)
		case SameAsPrevPos:
			lid, rid = prevLid, prevRid
		default:
			return nil, fmt.Errorf("codec: unknown PosType %d", posType)
		}
		prevLid, prevRid = lid, rid

		var value string
		switch valueType {
		case DefaultValue:
			id, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, fmt.Errorf("codec: read value id: %w", err)
			}
			value, err = resolveValue(int(id))
			if err != nil {
				return nil, fmt.Errorf("codec: resolve value id %d: %w", id, err)
			}
		case AsIsHiragana:
			value = key
		case AsIsKatakana:
			value = hiraganaToKatakana(key)
		case SameAsPrevValue:
			value = prevValue
		default:
			return nil, fmt.Errorf("codec: unknown ValueType %d", valueType)
		}
		prevValue = value

		var cost int16
		if costType == CanUseSmallEncoding {
			b, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("codec: read small cost: %w", err)
			}
			cost = int16(int8(b))
		} else {
			var tmp [2]byte
			if _, err := io.ReadFull(r, tmp[:]); err != nil {
				return nil, fmt.Errorf("codec: read cost: %w", err)
			}
			cost = int16(binary.LittleEndian.Uint16(tmp[:]))
		}

		attrs, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("codec: read attributes: %w", err)
		}

		out = append(out, DecodedToken{Lid: lid, Rid: rid, Value: value, Cost: cost, Attributes: attrs})
		if isLast {
			break
		}
	}
	return out, nil
}
