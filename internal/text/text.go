package text

import (
	"fmt"
	"io"
)

// Text is an immutable sequence of characters.
// Operations return new Text values; the receiver is never modified, and
// unchanged regions are shared between the old and new values.
// The zero value is an empty text.
type Text struct {
	root node
}

// Empty returns the empty text.
func Empty() Text {
	return Text{root: emptyLeaf}
}

// FromString creates a text holding the characters of s.
func FromString(s string) Text {
	return Text{root: newLeafFromString(s)}
}

// FromRunes creates a text holding a copy of rs.
func FromRunes(rs []rune) Text {
	return Text{root: newLeaf(rs)}
}

// rootNode returns the root, substituting the empty leaf for the zero value.
func (t Text) rootNode() node {
	if t.root == nil {
		return emptyLeaf
	}
	return t.root
}

// Len returns the number of characters.
func (t Text) Len() int {
	if t.root == nil {
		return 0
	}
	return t.root.Len()
}

// IsEmpty returns true if the text contains no characters.
func (t Text) IsEmpty() bool {
	return t.Len() == 0
}

// At returns the character at index.
func (t Text) At(index int) (rune, error) {
	if index < 0 || index >= t.Len() {
		return 0, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, index, t.Len())
	}
	il := t.findLeaf(index)
	return il.leaf.runeAt(index - il.offset), nil
}

// innerLeaf locates a leaf within a whole text.
type innerLeaf struct {
	leaf   leaf
	offset int // index of the leaf's first character
	end    int // offset + leaf length
}

// findLeaf descends from the root to the leaf containing index.
// index must be in [0, Len()).
func (t Text) findLeaf(index int) innerLeaf {
	n := t.rootNode()
	offset := 0
	for {
		c, ok := n.(*composite)
		if !ok {
			l := n.(leaf)
			return innerLeaf{leaf: l, offset: offset, end: offset + l.Len()}
		}
		headLen := c.head.Len()
		if index < headLen {
			n = c.head
			continue
		}
		offset += headLen
		index -= headLen
		n = c.tail
	}
}

// Concat returns t followed by other.
// Either operand is returned as is when the other is empty.
func (t Text) Concat(other Text) Text {
	if other.Len() == 0 {
		return t
	}
	if t.Len() == 0 {
		return other
	}
	return Text{root: concatNodes(ensureChunked(t.root), ensureChunked(other.root))}
}

// ConcatString returns t followed by the characters of s.
func (t Text) ConcatString(s string) Text {
	return t.Concat(FromString(s))
}

// Slice returns count characters starting at start.
func (t Text) Slice(start, count int) (Text, error) {
	if !validRange(start, count, t.Len()) {
		return Text{}, fmt.Errorf("%w: slice %d characters at %d, length %d", ErrInvalidRange, count, start, t.Len())
	}
	return t.slice(start, start+count), nil
}

// slice returns [start, end) of a validated range.
func (t Text) slice(start, end int) Text {
	if start == 0 && end == t.Len() {
		return t
	}
	if start == end {
		return Empty()
	}
	return Text{root: t.root.subNode(start, end)}
}

// validRange reports whether [start, start+count) lies within [0, length).
// It is written so that no intermediate sum can overflow.
func validRange(start, count, length int) bool {
	return start >= 0 && count >= 0 && start <= length && count <= length-start
}

// SubTextFrom returns the characters from start to the end of the text.
func (t Text) SubTextFrom(start int) (Text, error) {
	return t.Slice(start, t.Len()-start)
}

// Insert returns t with other inserted before index.
func (t Text) Insert(index int, other Text) (Text, error) {
	if index < 0 || index > t.Len() {
		return Text{}, fmt.Errorf("%w: insert at %d, length %d", ErrIndexOutOfRange, index, t.Len())
	}
	return t.slice(0, index).Concat(other).Concat(t.slice(index, t.Len())), nil
}

// InsertString returns t with s inserted before index.
func (t Text) InsertString(index int, s string) (Text, error) {
	return t.Insert(index, FromString(s))
}

// Remove returns t without the count characters starting at start.
// Removing nothing returns t itself.
func (t Text) Remove(start, count int) (Text, error) {
	if count == 0 {
		return t, nil
	}
	if !validRange(start, count, t.Len()) {
		return Text{}, fmt.Errorf("%w: remove %d characters at %d, length %d", ErrInvalidRange, count, start, t.Len())
	}
	chunked := Text{root: ensureChunked(t.root)}
	return chunked.slice(0, start).Concat(chunked.slice(start+count, t.Len())), nil
}

// Replace returns t with the count characters at start replaced by other.
func (t Text) Replace(start, count int, other Text) (Text, error) {
	removed, err := t.Remove(start, count)
	if err != nil {
		return Text{}, err
	}
	return removed.Insert(start, other)
}

// Runes returns the full content as a newly allocated slice.
func (t Text) Runes() []rune {
	n := t.Len()
	rs := make([]rune, n)
	if n > 0 {
		t.root.copyTo(0, rs, 0, n)
	}
	return rs
}

// String returns the content encoded as UTF-8.
func (t Text) String() string {
	var buf []byte
	it := t.Leaves()
	for it.Next() {
		buf = it.leaf.appendUTF8(buf)
	}
	return string(buf)
}

// CopyTo copies the characters [start, end) into dst starting at dstPos.
func (t Text) CopyTo(start, end int, dst []rune, dstPos int) error {
	if start < 0 || start > end || end > t.Len() {
		return fmt.Errorf("%w: copy [%d, %d), length %d", ErrInvalidRange, start, end, t.Len())
	}
	if !validRange(dstPos, end-start, len(dst)) {
		return fmt.Errorf("%w: destination position %d, %d characters into %d", ErrInvalidRange, dstPos, end-start, len(dst))
	}
	if start < end {
		t.root.copyTo(start, dst, dstPos, end-start)
	}
	return nil
}

// WriteTo writes the UTF-8 encoding of the text to w, one leaf at a time.
func (t Text) WriteTo(w io.Writer) (int64, error) {
	var total int64
	buf := make([]byte, 0, BlockSize*4)
	it := t.Leaves()
	for it.Next() {
		buf = it.leaf.appendUTF8(buf[:0])
		n, err := w.Write(buf)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// SameRoot reports whether t and other share the same root node.
// Equal content does not imply a shared root.
func (t Text) SameRoot(other Text) bool {
	return sameNode(t.rootNode(), other.rootNode())
}

// sameNode compares node identity. Leaves compare by backing array.
func sameNode(a, b node) bool {
	switch x := a.(type) {
	case *composite:
		y, ok := b.(*composite)
		return ok && x == y
	case byteLeaf:
		y, ok := b.(byteLeaf)
		return ok && len(x) == len(y) && (len(x) == 0 || &x[0] == &y[0])
	case runeLeaf:
		y, ok := b.(runeLeaf)
		return ok && len(x) == len(y) && (len(x) == 0 || &x[0] == &y[0])
	}
	return false
}

// Equal returns true if both texts hold the same characters.
// Structure is not compared.
func (t Text) Equal(other Text) bool {
	if t.Len() != other.Len() {
		return false
	}
	if t.SameRoot(other) {
		return true
	}
	r1 := NewReader(t)
	r2 := NewReader(other)
	for {
		c1, _, err := r1.ReadRune()
		if err != nil {
			return true
		}
		c2, _, _ := r2.ReadRune()
		if c1 != c2 {
			return false
		}
	}
}

// Hash returns a content hash: h = 31*h + c over every character c.
// Equal texts have equal hashes.
func (t Text) Hash() uint32 {
	var h uint32
	it := t.Leaves()
	for it.Next() {
		l := it.leaf
		for i, n := 0, l.Len(); i < n; i++ {
			h = 31*h + uint32(l.runeAt(i))
		}
	}
	return h
}
