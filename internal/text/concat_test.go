package text

import (
	"strings"
	"testing"
)

// leafOf builds a leaf of n copies of c.
func leafOf(c rune, n int) leaf {
	return newLeaf([]rune(strings.Repeat(string(c), n)))
}

// flatten returns the content of n.
func flatten(n node) string {
	rs := make([]rune, n.Len())
	n.copyTo(0, rs, 0, n.Len())
	return string(rs)
}

// checkCounts verifies that every composite's count equals the sum of its
// children and that its height is one more than its tallest child.
func checkCounts(t *testing.T, n node) {
	t.Helper()
	c, ok := n.(*composite)
	if !ok {
		return
	}
	if c.count != c.head.Len()+c.tail.Len() {
		t.Fatalf("composite count %d != %d + %d", c.count, c.head.Len(), c.tail.Len())
	}
	if c.height != max(c.head.depth(), c.tail.depth())+1 {
		t.Fatalf("composite height %d inconsistent with children", c.height)
	}
	checkCounts(t, c.head)
	checkCounts(t, c.tail)
}

func TestNewLeafRepresentation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		compact bool
	}{
		{"empty", "", true},
		{"ascii", "hello", true},
		{"latin1", "ÿéà", true},
		{"wide", "héllo 世界", false},
		{"emoji", "🌍", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLeafFromString(tt.input)
			_, compact := l.(byteLeaf)
			if compact != tt.compact {
				t.Errorf("compact = %v, want %v", compact, tt.compact)
			}
			if flatten(l) != tt.input {
				t.Errorf("content = %q, want %q", flatten(l), tt.input)
			}
			if got := string(l.appendUTF8(nil)); got != tt.input {
				t.Errorf("appendUTF8 = %q, want %q", got, tt.input)
			}
		})
	}
}

func TestLeafSubNode(t *testing.T) {
	l := newLeafFromString("a世bc")
	if sub := l.subNode(0, l.Len()); !sameNode(sub, l) {
		t.Error("whole-range subNode did not return the leaf itself")
	}
	sub := l.subNode(2, 4)
	if flatten(sub) != "bc" {
		t.Errorf("subNode(2, 4) = %q, want %q", flatten(sub), "bc")
	}
	if _, ok := sub.(byteLeaf); !ok {
		t.Errorf("narrow slice of a wide leaf is %T, want byteLeaf", sub)
	}
}

func TestConcatNodesMergesSmall(t *testing.T) {
	n := concatNodes(newLeafFromString("ab"), newLeafFromString("cd"))
	if _, ok := n.(leaf); !ok {
		t.Fatalf("concat of small leaves is %T, want a leaf", n)
	}
	if flatten(n) != "abcd" {
		t.Errorf("got %q, want %q", flatten(n), "abcd")
	}

	n = concatNodes(leafOf('a', 32), leafOf('b', 32))
	if _, ok := n.(leaf); !ok || n.Len() != BlockSize {
		t.Errorf("concat to exactly one block is %T of length %d", n, n.Len())
	}

	n = concatNodes(leafOf('a', 32), leafOf('b', 33))
	if _, ok := n.(*composite); !ok {
		t.Errorf("concat past one block is %T, want *composite", n)
	}
}

func TestConcatNodesMixedWidth(t *testing.T) {
	n := concatNodes(newLeafFromString("abc"), newLeafFromString("世界"))
	if _, ok := n.(runeLeaf); !ok {
		t.Errorf("merged mixed leaf is %T, want runeLeaf", n)
	}
	if flatten(n) != "abc世界" {
		t.Errorf("got %q", flatten(n))
	}
}

func TestConcatNodesSharesLargeOperands(t *testing.T) {
	a := leafOf('a', 100)
	b := leafOf('b', 100)
	n := concatNodes(a, b)
	c, ok := n.(*composite)
	if !ok {
		t.Fatalf("got %T, want *composite", n)
	}
	if !sameNode(c.head, a) || !sameNode(c.tail, b) {
		t.Error("balanced operands were not reused")
	}
}

func TestConcatNodesRebalancesSmallHead(t *testing.T) {
	// (A, B) + C with a long head child, prepended with a short node.
	inner := newComposite(newComposite(leafOf('a', 256), leafOf('b', 128)), leafOf('c', 128))
	small := leafOf('x', 65)
	n := concatNodes(small, inner)
	checkCounts(t, n)

	want := flatten(small) + flatten(inner)
	if flatten(n) != want {
		t.Fatal("content changed by rebalancing")
	}
	c := n.(*composite)
	if c.head.Len()*2 < c.tail.Len() || c.tail.Len()*2 < c.head.Len() {
		t.Errorf("unbalanced result: head %d, tail %d", c.head.Len(), c.tail.Len())
	}
}

func TestConcatNodesRebalancesSmallTail(t *testing.T) {
	inner := newComposite(leafOf('a', 128), newComposite(leafOf('b', 128), leafOf('c', 256)))
	small := leafOf('y', 65)
	n := concatNodes(inner, small)
	checkCounts(t, n)

	want := flatten(inner) + flatten(small)
	if flatten(n) != want {
		t.Fatal("content changed by rebalancing")
	}
	c := n.(*composite)
	if c.head.Len()*2 < c.tail.Len() || c.tail.Len()*2 < c.head.Len() {
		t.Errorf("unbalanced result: head %d, tail %d", c.head.Len(), c.tail.Len())
	}
}

func TestRotations(t *testing.T) {
	a, b, c := leafOf('a', 70), leafOf('b', 80), leafOf('c', 90)

	right := newComposite(newComposite(a, b), c).rotateRight()
	if !sameNode(right.head, a) {
		t.Error("rotateRight: head is not A")
	}
	bc, ok := right.tail.(*composite)
	if !ok || !sameNode(bc.head, b) || !sameNode(bc.tail, c) {
		t.Error("rotateRight: tail is not (B, C)")
	}
	if right.count != 240 || bc.count != 170 {
		t.Errorf("rotateRight counts = %d, %d, want 240, 170", right.count, bc.count)
	}

	left := newComposite(a, newComposite(b, c)).rotateLeft()
	if !sameNode(left.tail, c) {
		t.Error("rotateLeft: tail is not C")
	}
	ab, ok := left.head.(*composite)
	if !ok || !sameNode(ab.head, a) || !sameNode(ab.tail, b) {
		t.Error("rotateLeft: head is not (A, B)")
	}

	flat := newComposite(a, b)
	if flat.rotateRight() != flat || flat.rotateLeft() != flat {
		t.Error("rotation without a composite child is not the identity")
	}
}

func TestNodeOfBlockAligned(t *testing.T) {
	for _, n := range []int{1, BlockSize, BlockSize + 1, 200, 1000, 4096, 5000} {
		src := leafOf('z', n)
		tree := nodeOf(src, 0, n)
		checkCounts(t, tree)

		if tree.Len() != n {
			t.Errorf("nodeOf(%d) length = %d", n, tree.Len())
		}
		offsets := leafOffsets(tree)
		for i, off := range offsets {
			if off%BlockSize != 0 {
				t.Errorf("nodeOf(%d): leaf %d starts at %d, not a block boundary", n, i, off)
			}
		}
		it := Text{root: tree}.Leaves()
		for it.Next() {
			if it.Len() > BlockSize {
				t.Errorf("nodeOf(%d): leaf of %d characters", n, it.Len())
			}
		}
	}
}

func TestNodeOfSubrange(t *testing.T) {
	s := strings.Repeat("0123456789", 50)
	tree := nodeOf(newLeafFromString(s), 37, 300)
	if flatten(tree) != s[37:337] {
		t.Error("nodeOf subrange content mismatch")
	}
}

func TestEnsureChunked(t *testing.T) {
	small := leafOf('a', BlockSize)
	if !sameNode(ensureChunked(small), small) {
		t.Error("leaf of one block was re-chunked")
	}
	big := leafOf('a', 3*BlockSize)
	if _, ok := ensureChunked(big).(*composite); !ok {
		t.Error("oversized leaf was not chunked")
	}
	tree := newComposite(leafOf('a', 100), leafOf('b', 100))
	if ensureChunked(tree) != node(tree) {
		t.Error("composite root was re-chunked")
	}
}

func leafOffsets(n node) []int {
	var offsets []int
	it := Text{root: n}.Leaves()
	for it.Next() {
		offsets = append(offsets, it.Offset())
	}
	return offsets
}
