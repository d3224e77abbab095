package mozc

import "testing"

func TestEncodeDecodeKeyRoundTrip(t *testing.T) {
	c := DefaultCodec{}
	for _, key := range []string{"あい", "あいうえお", "か", "かきくけこ", "ー"} {
		encoded, err := c.EncodeKey(key)
		if err != nil {
			t.Fatalf("EncodeKey(%q): %v", key, err)
		}
		if len(encoded) != len([]rune(key)) {
			t.Fatalf("EncodeKey(%q) produced %d bytes, want %d (one per kana rune)", key, len(encoded), len([]rune(key)))
		}
		decoded, err := c.DecodeKey(encoded)
		if err != nil {
			t.Fatalf("DecodeKey: %v", err)
		}
		if decoded != key {
			t.Fatalf("round trip = %q, want %q", decoded, key)
		}
	}
}

func TestEncodeDecodeValueWithKanjiRoundTrip(t *testing.T) {
	c := DefaultCodec{}
	for _, value := range []string{"愛", "藍", "東京都", "アイ", "test123"} {
		encoded, err := c.EncodeValue(value)
		if err != nil {
			t.Fatalf("EncodeValue(%q): %v", value, err)
		}
		decoded, err := c.DecodeValue(encoded)
		if err != nil {
			t.Fatalf("DecodeValue: %v", err)
		}
		if decoded != value {
			t.Fatalf("round trip = %q, want %q", decoded, value)
		}
	}
}

func TestTokensTerminationFlagNeverLegal(t *testing.T) {
	c := DefaultCodec{}
	for posType := PosType(0); posType <= SameAsPrevPos; posType++ {
		for valueType := ValueType(0); valueType <= SameAsPrevValue; valueType++ {
			for _, costType := range []CostType{DefaultCost, CanUseSmallEncoding} {
				flags := byte(posType) | byte(valueType)<<2
				if costType == CanUseSmallEncoding {
					flags |= 1 << 4
				}
				flags |= 1 << 5 // isLast
				if flags == c.TokensTerminationFlag() {
					t.Fatalf("legal flags combination %08b collides with termination flag", flags)
				}
			}
		}
	}
}

func TestEncodeTokensRequiresAtLeastOne(t *testing.T) {
	c := DefaultCodec{}
	if _, err := c.EncodeTokens(nil); err == nil {
		t.Fatalf("expected error encoding zero tokens")
	}
}

func TestEncodeDecodeTokensRoundTrip(t *testing.T) {
	c := DefaultCodec{}
	key := "あいうえおか"
	tokens := []*TokenInfo{
		{
			Token:     &Token{Key: key, Value: "藍", Lid: 5, Rid: 7, Cost: -30, Attributes: 3},
			ValueType: DefaultValue, PosType: DefaultPos, CostType: CanUseSmallEncoding,
			IDInValueTrie: 2,
		},
		{
			Token:     &Token{Key: key, Value: "愛", Lid: 5, Rid: 7, Cost: 500, Attributes: 1},
			ValueType: DefaultValue, PosType: SameAsPrevPos, CostType: DefaultCost,
			IDInValueTrie: 1,
		},
	}
	record, err := c.EncodeTokens(tokens)
	if err != nil {
		t.Fatalf("EncodeTokens: %v", err)
	}

	values := map[int]string{1: "愛", 2: "藍"}
	decoded, err := c.DecodeTokens(key, record, nil, func(id int) (string, error) { return values[id], nil })
	if err != nil {
		t.Fatalf("DecodeTokens: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d tokens, want 2", len(decoded))
	}
	if decoded[0].Value != "藍" || decoded[0].Cost != -30 || decoded[0].Lid != 5 || decoded[0].Rid != 7 || decoded[0].Attributes != 3 {
		t.Fatalf("token 0 = %+v", decoded[0])
	}
	if decoded[1].Value != "愛" || decoded[1].Cost != 500 || decoded[1].Lid != 5 || decoded[1].Rid != 7 || decoded[1].Attributes != 1 {
		t.Fatalf("token 1 = %+v", decoded[1])
	}
}

func TestEncodeDecodeTokensAsIsAndFrequentPos(t *testing.T) {
	c := DefaultCodec{}
	key := "あい"
	tokens := []*TokenInfo{
		{
			Token:     &Token{Key: key, Value: key, Lid: 1, Rid: 1, Cost: 100, Attributes: 0},
			ValueType: AsIsHiragana, PosType: FrequentPos, IDInFrequentPosMap: 9,
		},
		{
			Token:     &Token{Key: key, Value: hiraganaToKatakana(key), Lid: 2, Rid: 2, Cost: 50, Attributes: 0},
			ValueType: AsIsKatakana, PosType: DefaultPos,
		},
	}
	record, err := c.EncodeTokens(tokens)
	if err != nil {
		t.Fatalf("EncodeTokens: %v", err)
	}
	frequentPos := map[uint32]uint32{9: combinedPos(1, 1)}
	decoded, err := c.DecodeTokens(key, record, frequentPos, func(id int) (string, error) { return "", nil })
	if err != nil {
		t.Fatalf("DecodeTokens: %v", err)
	}
	if decoded[0].Value != key || decoded[0].Lid != 1 || decoded[0].Rid != 1 {
		t.Fatalf("token 0 = %+v", decoded[0])
	}
	if decoded[1].Value != hiraganaToKatakana(key) || decoded[1].Lid != 2 || decoded[1].Rid != 2 {
		t.Fatalf("token 1 = %+v", decoded[1])
	}
}
