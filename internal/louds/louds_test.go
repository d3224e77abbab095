package louds

import (
	"bytes"
	"testing"
)

func TestBuilderAssignsDenseIds(t *testing.T) {
	b := NewBuilder()
	keys := [][]byte{[]byte("abc"), []byte("ab"), []byte("abd"), []byte("b")}
	for _, k := range keys {
		b.Add(k)
	}
	b.Build()

	if got := b.NumKeys(); got != len(keys) {
		t.Fatalf("NumKeys() = %d, want %d", got, len(keys))
	}
	seen := make(map[int]bool)
	for _, k := range keys {
		id := b.GetId(k)
		if id < 0 || id >= len(keys) {
			t.Fatalf("GetId(%q) = %d out of range", k, id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d for %q", id, k)
		}
		seen[id] = true
	}
}

func TestBuilderDuplicateAddIsIdempotent(t *testing.T) {
	b := NewBuilder()
	b.Add([]byte("same"))
	b.Add([]byte("same"))
	b.Build()
	if b.NumKeys() != 1 {
		t.Fatalf("NumKeys() = %d, want 1", b.NumKeys())
	}
}

func TestImageRoundTrip(t *testing.T) {
	b := NewBuilder()
	keys := [][]byte{[]byte("あい"), []byte("あいうえお"), []byte("か"), []byte("かきくけこ")}
	for _, k := range keys {
		b.Add(k)
	}
	b.Build()
	image := b.Image()

	decoded, err := Decode(image)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != len(keys) {
		t.Fatalf("Decode returned %d keys, want %d", len(decoded), len(keys))
	}
	for _, k := range keys {
		id := b.GetId(k)
		if !bytes.Equal(decoded[id], k) {
			t.Fatalf("decoded[%d] = %q, want %q", id, decoded[id], k)
		}
	}
}

func TestEmptyTrieImage(t *testing.T) {
	b := NewBuilder()
	b.Build()
	if b.NumKeys() != 0 {
		t.Fatalf("NumKeys() = %d, want 0", b.NumKeys())
	}
	decoded, err := Decode(b.Image())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("decoded %d keys from empty trie, want 0", len(decoded))
	}
}

func TestGetIdOnMissingKeyPanics(t *testing.T) {
	b := NewBuilder()
	b.Add([]byte("x"))
	b.Build()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown key")
		}
	}()
	b.GetId([]byte("y"))
}

func TestAddAfterBuildPanics(t *testing.T) {
	b := NewBuilder()
	b.Build()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for Add after Build")
		}
	}()
	b.Add([]byte("late"))
}
