package mozc

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Kento75/mozc/internal/bitvecarray"
	"github.com/Kento75/mozc/internal/filecodec"
	"github.com/Kento75/mozc/internal/louds"
)

// numFrequentPosSlots is the fixed size of the frequent-POS table: at
// most 255 combined POS values are ever interned, plus slot semantics
// that treat "unset" as the zero value, so the table itself carries
// one extra reserved slot.
const numFrequentPosSlots = 256

// maxFrequentPosEntries bounds how many distinct combined POS values
// Pass B may intern.
const maxFrequentPosEntries = 255

// BuildOptions configures a Builder (spec §6).
type BuildOptions struct {
	// PreserveIntermediateDictionary, when true, additionally writes
	// each section to its own file alongside the main image.
	PreserveIntermediateDictionary bool
	// MinKeyLengthToUseSmallCostEncoding is the character-count
	// threshold (not byte count) for enabling CAN_USE_SMALL_ENCODING.
	MinKeyLengthToUseSmallCostEncoding int
	// IntermediateBasePath is the path prefix used for the
	// .value/.key/.tokens/.freq_pos sibling files when
	// PreserveIntermediateDictionary is set.
	IntermediateBasePath string
}

// DefaultBuildOptions returns the options spec §6 lists as defaults.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{MinKeyLengthToUseSmallCostEncoding: 6}
}

// Builder runs the multi-pass orchestration of spec §4.1 against a
// LOUDS value trie, a LOUDS key trie, and a bit-vector-indexed token
// array, then hands their images to the file codec. A Builder is used
// for exactly one build; construct a new one per call (§9 "keep no
// process-wide mutable state").
type Builder struct {
	codec   Codec
	options BuildOptions

	keys        []*KeyInfo
	frequentPos map[uint32]uint32 // combined pos -> compact id
	numFreqPos  int

	valueTrie *louds.Builder
	keyTrie   *louds.Builder
	tokenArr  *bitvecarray.Builder
}

// NewBuilder returns a Builder using codec and options.
func NewBuilder(codec Codec, options BuildOptions) *Builder {
	if options.MinKeyLengthToUseSmallCostEncoding == 0 {
		options.MinKeyLengthToUseSmallCostEncoding = 6
	}
	return &Builder{
		codec:     codec,
		options:   options,
		valueTrie: louds.NewBuilder(),
		keyTrie:   louds.NewBuilder(),
		tokenArr:  bitvecarray.NewBuilder(),
	}
}

// BuildFromTokens runs every pass over tokens and returns the finished
// Builder, ready for WriteTo/WriteToFile. Any precondition or
// post-condition violation panics internally with a *BuildError and is
// recovered here into a returned error (spec §7).
func BuildFromTokens(tokens []Token, codec Codec, options BuildOptions) (b *Builder, err error) {
	return BuildFromReader(NewSliceTokenReader(tokens), codec, options)
}

// BuildFromReader is BuildFromTokens over a streamed TokenReader.
func BuildFromReader(r TokenReader, codec Codec, options BuildOptions) (b *Builder, err error) {
	defer func() {
		if p := recover(); p != nil {
			if be, ok := p.(*BuildError); ok {
				err = be
				return
			}
			panic(p)
		}
	}()

	tokens, readErr := readAllTokens(r)
	if readErr != nil {
		return nil, fmt.Errorf("mozc: reading tokens: %w", readErr)
	}

	builder := NewBuilder(codec, options)
	builder.readTokens(tokens)       // Pass A
	builder.buildFrequentPos(tokens) // Pass B
	builder.buildValueTrie()         // Pass C
	builder.setIdForValue()          // Pass D
	builder.sortTokenInfo()          // Pass E
	builder.setCostType()            // Pass F
	builder.setPosType()             // Pass G
	builder.setValueType()           // Pass H
	builder.buildKeyTrie()           // Pass I
	builder.buildTokenArray()        // Pass J

	tracer().Infof("build complete: %d keys, %d frequent pos entries", len(builder.keys), builder.numFreqPos)
	return builder, nil
}

// readTokens is Pass A: group-by-key plus initial value_type
// classification.
func (b *Builder) readTokens(tokens []Token) {
	for i := range tokens {
		if tokens[i].Key == "" || tokens[i].Value == "" {
			fail("ReadTokens", "token %d has empty key or value", i)
		}
	}

	sorted := make([]Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var keys []*KeyInfo
	var cur *KeyInfo
	for i := range sorted {
		t := &sorted[i]
		if cur == nil || cur.Key != t.Key {
			cur = &KeyInfo{Key: t.Key}
			keys = append(keys, cur)
		}
		ti := &TokenInfo{Token: t}
		switch {
		case t.Value == t.Key:
			ti.ValueType = AsIsHiragana
		case t.Value == hiraganaToKatakana(t.Key):
			ti.ValueType = AsIsKatakana
		default:
			ti.ValueType = DefaultValue
		}
		cur.Tokens = append(cur.Tokens, ti)
	}
	b.keys = keys
	tracer().Infof("grouped %d tokens into %d keys", len(tokens), len(keys))
}

// buildFrequentPos is Pass B: histogram combined POS pairs and intern
// the top (by whole-frequency-bucket) ≤255 of them.
func (b *Builder) buildFrequentPos(tokens []Token) {
	counts := make(map[uint32]int)
	for i := range tokens {
		counts[combinedPos(tokens[i].Lid, tokens[i].Rid)]++
	}

	byFreq := make(map[int][]uint32)
	for pos, count := range counts {
		byFreq[count] = append(byFreq[count], pos)
	}
	freqs := make([]int, 0, len(byFreq))
	for f := range byFreq {
		freqs = append(freqs, f)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(freqs)))

	var selected []uint32
	for _, f := range freqs {
		bucket := byFreq[f]
		if len(selected)+len(bucket) > maxFrequentPosEntries {
			break
		}
		selected = append(selected, bucket...)
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i] < selected[j] })

	b.frequentPos = make(map[uint32]uint32, len(selected))
	for id, pos := range selected {
		b.frequentPos[pos] = uint32(id)
	}
	b.numFreqPos = len(selected)
	if b.numFreqPos > maxFrequentPosEntries {
		fail("BuildFrequentPos", "interned %d pos entries, want <= %d", b.numFreqPos, maxFrequentPosEntries)
	}
	tracer().Infof("interned %d of %d distinct pos pairs", b.numFreqPos, len(counts))
}

// frequentPosTable renders the 256-slot table spec §4.1 Emit describes:
// a fixed array of 256 little-endian uint32 combined-POS values indexed
// by compact id, zero beyond numFreqPos.
func (b *Builder) frequentPosTable() []byte {
	table := make([]byte, numFrequentPosSlots*4)
	for pos, id := range b.frequentPos {
		writeUint32LE(table[id*4:id*4+4], pos)
	}
	return table
}

func writeUint32LE(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

// WriteTo assembles the four sections and writes the framed image to
// w, via the file codec. When options.PreserveIntermediateDictionary is
// set, it first writes each section's unframed payload to
// basePath+".value"/".key"/".tokens"/".freq_pos".
func (b *Builder) WriteTo(w io.Writer) error {
	sections := []filecodec.Section{
		{Name: b.codec.SectionNameForValue(), Bytes: b.valueTrie.Image()},
		{Name: b.codec.SectionNameForKey(), Bytes: b.keyTrie.Image()},
		{Name: b.codec.SectionNameForTokens(), Bytes: b.tokenArr.Image()},
		{Name: b.codec.SectionNameForPos(), Bytes: b.frequentPosTable()},
	}

	if b.options.PreserveIntermediateDictionary {
		if b.options.IntermediateBasePath == "" {
			return fmt.Errorf("mozc: PreserveIntermediateDictionary set without IntermediateBasePath")
		}
		exts := []string{".value", ".key", ".tokens", ".freq_pos"}
		for i, section := range sections {
			path := b.options.IntermediateBasePath + exts[i]
			if err := os.WriteFile(path, section.Bytes, 0o644); err != nil {
				return fmt.Errorf("mozc: writing intermediate section %q: %w", path, err)
			}
		}
	}

	if err := filecodec.WriteSections(w, sections); err != nil {
		return fmt.Errorf("mozc: writing image: %w", err)
	}
	return nil
}

// WriteToFile is WriteTo against a newly created file at path.
func (b *Builder) WriteToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mozc: creating %q: %w", path, err)
	}
	defer f.Close()
	if err := b.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}

// FrequentPos exposes the interned combined-POS -> compact-id map, for
// diagnostics and tests (spec's SUPPLEMENTED FEATURES §3).
func (b *Builder) FrequentPos() map[uint32]uint32 {
	return b.frequentPos
}

// Keys exposes the built KeyInfo list, for diagnostics and tests.
func (b *Builder) Keys() []*KeyInfo {
	return b.keys
}
