package bitvecarray

import (
	"bytes"
	"testing"
)

func TestImageRoundTrip(t *testing.T) {
	b := NewBuilder()
	records := [][]byte{
		[]byte("first"),
		[]byte("second-record"),
		[]byte("x"),
	}
	for _, r := range records {
		b.Add(r)
	}
	b.Build()

	decoded, err := Decode(b.Image())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != len(records) {
		t.Fatalf("Decode returned %d records, want %d", len(decoded), len(records))
	}
	for i, want := range records {
		if !bytes.Equal(decoded[i], want) {
			t.Fatalf("record %d = %q, want %q", i, decoded[i], want)
		}
	}
}

func TestSingleByteRecords(t *testing.T) {
	b := NewBuilder()
	b.Add([]byte{0xFF})
	b.Build()
	decoded, err := Decode(b.Image())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != 1 || decoded[0][0] != 0xFF {
		t.Fatalf("decoded = %v, want [[0xFF]]", decoded)
	}
}

func TestEmptyArrayImage(t *testing.T) {
	b := NewBuilder()
	b.Build()
	decoded, err := Decode(b.Image())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("decoded %d records from empty array, want 0", len(decoded))
	}
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
