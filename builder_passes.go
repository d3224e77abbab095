package mozc

import "sort"

// buildValueTrie is Pass C: every DEFAULT_VALUE token's encoded value is
// inserted into the value trie. AS_IS_* values are never inserted — they
// are reconstructed at runtime from the key and a flag.
func (b *Builder) buildValueTrie() {
	for _, k := range b.keys {
		for _, ti := range k.Tokens {
			if ti.ValueType != DefaultValue {
				continue
			}
			encoded, err := b.codec.EncodeValue(ti.Token.Value)
			if err != nil {
				fail("BuildValueTrie", "encoding value %q: %v", ti.Token.Value, err)
			}
			b.valueTrie.Add(encoded)
		}
	}
	b.valueTrie.Build()
}

// setIdForValue is Pass D: resolve id_in_value_trie for every
// DEFAULT_VALUE token.
func (b *Builder) setIdForValue() {
	for _, k := range b.keys {
		for _, ti := range k.Tokens {
			if ti.ValueType != DefaultValue {
				continue
			}
			encoded, err := b.codec.EncodeValue(ti.Token.Value)
			if err != nil {
				fail("SetIdForValue", "encoding value %q: %v", ti.Token.Value, err)
			}
			ti.IDInValueTrie = b.valueTrie.GetId(encoded)
		}
	}
}

// sortTokenInfo is Pass E: within each KeyInfo, order tokens by
// (-lid, -rid, id_in_value_trie, attributes), stably so ties (including
// fully-identical tokens) keep their relative input order and still
// produce distinct output records.
func (b *Builder) sortTokenInfo() {
	for _, k := range b.keys {
		tokens := k.Tokens
		sort.SliceStable(tokens, func(i, j int) bool {
			a, c := tokens[i], tokens[j]
			if a.Token.Lid != c.Token.Lid {
				return a.Token.Lid > c.Token.Lid
			}
			if a.Token.Rid != c.Token.Rid {
				return a.Token.Rid > c.Token.Rid
			}
			if a.IDInValueTrie != c.IDInValueTrie {
				return a.IDInValueTrie < c.IDInValueTrie
			}
			return a.Token.Attributes < c.Token.Attributes
		})
	}
}

// setCostType is Pass F: within each KeyInfo, small-cost encoding is
// blocked entirely by any homonym-in-same-POS pair; otherwise it is
// enabled per-token once the key's character length meets the
// configured threshold. A cost value that does not fit a signed byte
// is never encoded small regardless of key length — CAN_USE_SMALL_ENCODING
// truncates cost to one byte, so allowing it for an out-of-range cost
// would silently corrupt the round trip; this repository resolves the
// spec's underspecified case by falling back to DEFAULT_COST instead.
func (b *Builder) setCostType() {
	threshold := b.options.MinKeyLengthToUseSmallCostEncoding
	for _, k := range b.keys {
		if hasHomonymInSamePos(k.Tokens) {
			continue // every token already defaults to DEFAULT_COST
		}
		if charLen(k.Key) < threshold {
			continue
		}
		for _, ti := range k.Tokens {
			if fitsInt8(ti.Token.Cost) {
				ti.CostType = CanUseSmallEncoding
			}
		}
	}
}

func hasHomonymInSamePos(tokens []*TokenInfo) bool {
	seen := make(map[uint32]bool, len(tokens))
	for _, ti := range tokens {
		pos := combinedPos(ti.Token.Lid, ti.Token.Rid)
		if seen[pos] {
			return true
		}
		seen[pos] = true
	}
	return false
}

func fitsInt8(cost int16) bool {
	return cost >= -128 && cost <= 127
}

func charLen(s string) int {
	return len([]rune(s))
}

// setPosType is Pass G: intern into FREQUENT_POS where the combined POS
// was selected by Pass B, then let SAME_AS_PREV_POS override that for
// any non-first token whose combined POS repeats the previous token's.
func (b *Builder) setPosType() {
	for _, k := range b.keys {
		for i, ti := range k.Tokens {
			pos := combinedPos(ti.Token.Lid, ti.Token.Rid)
			if id, ok := b.frequentPos[pos]; ok {
				ti.PosType = FrequentPos
				ti.IDInFrequentPosMap = id
			}
			if i > 0 {
				prev := k.Tokens[i-1].Token
				if combinedPos(prev.Lid, prev.Rid) == pos {
					ti.PosType = SameAsPrevPos
				}
			}
		}
	}
}

// setValueType is Pass H: a non-first DEFAULT_VALUE token whose value
// repeats the previous token's value collapses to SAME_AS_PREV_VALUE.
// AS_IS_* tokens are never touched since they never start out
// DEFAULT_VALUE.
func (b *Builder) setValueType() {
	for _, k := range b.keys {
		for i, ti := range k.Tokens {
			if i == 0 || ti.ValueType != DefaultValue {
				continue
			}
			if k.Tokens[i-1].Token.Value == ti.Token.Value {
				ti.ValueType = SameAsPrevValue
			}
		}
	}
}

// buildKeyTrie is Pass I: insert every distinct key, finalize, and
// resolve each KeyInfo's id_in_key_trie.
func (b *Builder) buildKeyTrie() {
	for _, k := range b.keys {
		encoded, err := b.codec.EncodeKey(k.Key)
		if err != nil {
			fail("BuildKeyTrie", "encoding key %q: %v", k.Key, err)
		}
		b.keyTrie.Add(encoded)
	}
	b.keyTrie.Build()
	for _, k := range b.keys {
		encoded, err := b.codec.EncodeKey(k.Key)
		if err != nil {
			fail("SetIdForKey", "encoding key %q: %v", k.Key, err)
		}
		k.IDInKeyTrie = b.keyTrie.GetId(encoded)
	}
}

// buildTokenArray is Pass J: emit one record per key, ordered by
// id_in_key_trie, followed by the codec's one-byte termination record.
func (b *Builder) buildTokenArray() {
	ordered := make([]*KeyInfo, len(b.keys))
	for _, k := range b.keys {
		if k.IDInKeyTrie < 0 || k.IDInKeyTrie >= len(ordered) {
			fail("BuildTokenArray", "key %q has out-of-range id_in_key_trie %d", k.Key, k.IDInKeyTrie)
		}
		ordered[k.IDInKeyTrie] = k
	}
	for _, k := range ordered {
		record, err := b.codec.EncodeTokens(k.Tokens)
		if err != nil {
			fail("BuildTokenArray", "encoding tokens for key %q: %v", k.Key, err)
		}
		b.tokenArr.Add(record)
	}
	b.tokenArr.Add([]byte{b.codec.TokensTerminationFlag()})
	b.tokenArr.Build()
}
