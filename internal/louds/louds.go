// Package louds implements the key/value trie builder of the system
// dictionary image (spec §4.2). Construction follows the same discipline as
// the teacher's double-array trie (github.com/npillmayer/hyphenate/dat_backend.go):
// nodes are created on demand while mutable, the structure is frozen exactly
// once, and after freezing every inserted string resolves to a stable,
// dense integer id. The on-disk representation is a genuine LOUDS
// (level-order unary degree sequence) encoding rather than a double array,
// because the runtime this image is built for reads a LOUDS trie (§4.2,
// §9) — but the build-then-freeze lifecycle is carried over unchanged.
package louds

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/Kento75/mozc/internal/succinct"
)

type trieNode struct {
	children   map[byte]*trieNode
	terminal   bool
	terminalID int
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[byte]*trieNode)}
}

// Builder is the LoudsTrieBuilder of spec §4.2: it accepts a stream of byte
// strings, deduplicates them, and after Build assigns each a stable,
// dense id equal to its rank among inserted strings in LOUDS traversal
// order.
type Builder struct {
	root         *trieNode
	frozen       bool
	numNodes     int
	numTerminals int
}

// NewBuilder returns an empty, mutable trie builder.
func NewBuilder() *Builder {
	return &Builder{root: newTrieNode()}
}

// Add inserts key. Adding the same key twice is a no-op the second time —
// both calls resolve to the same id once Build runs.
func (b *Builder) Add(key []byte) {
	if b.frozen {
		panic("louds: Add called after Build")
	}
	n := b.root
	for _, c := range key {
		child := n.children[c]
		if child == nil {
			child = newTrieNode()
			n.children[c] = child
		}
		n = child
	}
	n.terminal = true
}

// Build finalizes the trie. No further Add calls are permitted. Ids are
// assigned by a breadth-first traversal of the trie with each node's
// children visited in ascending byte order — deterministic and reproducible
// given the same insertion set, independent of insertion order.
func (b *Builder) Build() {
	if b.frozen {
		return
	}
	b.frozen = true
	queue := []*trieNode{b.root}
	nodeCounter := 0
	termCounter := 0
	for qi := 0; qi < len(queue); qi++ {
		node := queue[qi]
		for _, label := range sortedLabels(node.children) {
			child := node.children[label]
			nodeCounter++
			if child.terminal {
				child.terminalID = termCounter
				termCounter++
			}
			queue = append(queue, child)
		}
	}
	b.numNodes = nodeCounter
	b.numTerminals = termCounter
}

// NumKeys returns the number of distinct strings added before Build.
func (b *Builder) NumKeys() int { return b.numTerminals }

// GetId returns the dense id assigned to key. key must have been Add-ed
// before Build; otherwise this panics, matching the "undefined behavior,
// may be checked-fatal" contract of spec §4.2.
func (b *Builder) GetId(key []byte) int {
	if !b.frozen {
		panic("louds: GetId called before Build")
	}
	n := b.root
	for _, c := range key {
		child, ok := n.children[c]
		if !ok {
			panic(fmt.Sprintf("louds: key %q was never added", key))
		}
		n = child
	}
	if !n.terminal {
		panic(fmt.Sprintf("louds: key %q was never added", key))
	}
	return n.terminalID
}

// Image returns the LOUDS-encoded byte image of the built trie: a small
// header, the level-order unary degree sequence (LBS), a terminal-node bit
// vector aligned to LBS node order, and the edge-label bytes aligned to
// LBS's 1-bits. Decode reverses this exactly.
func (b *Builder) Image() []byte {
	if !b.frozen {
		panic("louds: Image called before Build")
	}
	var lbs, terminalBits succinct.BitVector
	edges := make([]byte, 0, b.numNodes)

	queue := []*trieNode{b.root}
	for qi := 0; qi < len(queue); qi++ {
		node := queue[qi]
		for _, label := range sortedLabels(node.children) {
			child := node.children[label]
			lbs.Append(true)
			edges = append(edges, label)
			terminalBits.Append(child.terminal)
			queue = append(queue, child)
		}
		lbs.Append(false) // node terminator, including the virtual root
	}

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint32(b.numNodes))
	binary.Write(buf, binary.LittleEndian, uint32(b.numTerminals))
	lbs.WriteTo(buf)
	terminalBits.WriteTo(buf)
	buf.Write(edges)
	return buf.Bytes()
}

func sortedLabels(children map[byte]*trieNode) []byte {
	labels := make([]byte, 0, len(children))
	for label := range children {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// Decode reconstructs, from a serialized image, every inserted key indexed
// by its assigned id: the returned slice has Decode(...)[] indexed so that
// keys[id] is the string that produced that id. It exists to make the
// bit-exact round-trip invariant (spec §8 invariant 1) directly testable
// without holding onto the in-memory Builder.
func Decode(image []byte) ([][]byte, error) {
	r := bytes.NewReader(image)
	var numNodes, numTerminals uint32
	if err := binary.Read(r, binary.LittleEndian, &numNodes); err != nil {
		return nil, fmt.Errorf("louds: read numNodes: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &numTerminals); err != nil {
		return nil, fmt.Errorf("louds: read numTerminals: %w", err)
	}
	lbs, err := succinct.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("louds: read lbs: %w", err)
	}
	terminalBits, err := succinct.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("louds: read terminal bits: %w", err)
	}
	edges := make([]byte, numNodes)
	if numNodes > 0 {
		if _, err := io.ReadFull(r, edges); err != nil {
			return nil, fmt.Errorf("louds: read edges: %w", err)
		}
	}

	keys := make([][]byte, numTerminals)
	type pending struct{ prefix []byte }
	queue := []pending{{prefix: nil}}
	pos, nodeCounter, edgeCounter, termCounter := 0, 0, 0, 0
	for qi := 0; qi < len(queue); qi++ {
		prefix := queue[qi].prefix
		for pos < lbs.Len() && lbs.Get(pos) {
			label := edges[edgeCounter]
			edgeCounter++
			childPrefix := make([]byte, len(prefix)+1)
			copy(childPrefix, prefix)
			childPrefix[len(prefix)] = label
			isTerminal := terminalBits.Get(nodeCounter)
			nodeCounter++
			pos++
			if isTerminal {
				keys[termCounter] = childPrefix
				termCounter++
			}
			queue = append(queue, pending{prefix: childPrefix})
		}
		pos++ // consume this node's terminator bit
	}
	if termCounter != int(numTerminals) {
		return nil, fmt.Errorf("louds: decoded %d terminals, header declared %d", termCounter, numTerminals)
	}
	return keys, nil
}
