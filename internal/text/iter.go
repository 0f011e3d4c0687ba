package text

// LeafIterator walks the leaves of a text in document order.
//
//	it := t.Leaves()
//	for it.Next() {
//		process(it.Runes(), it.Offset())
//	}
type LeafIterator struct {
	stack  []node
	leaf   leaf
	offset int // index of the current leaf's first character
	next   int // index of the character after the current leaf
}

// Leaves returns an iterator over the leaves of the text.
// Empty leaves are skipped.
func (t Text) Leaves() *LeafIterator {
	it := &LeafIterator{stack: make([]node, 0, 16)}
	if t.Len() > 0 {
		it.stack = append(it.stack, t.root)
	}
	return it
}

// Next advances to the next leaf.
// Returns true if there is a leaf, false if iteration is complete.
func (it *LeafIterator) Next() bool {
	for len(it.stack) > 0 {
		n := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		if c, ok := n.(*composite); ok {
			// Push tail first so the head is visited first.
			it.stack = append(it.stack, c.tail, c.head)
			continue
		}
		if n.Len() == 0 {
			continue
		}

		it.leaf = n.(leaf)
		it.offset = it.next
		it.next += n.Len()
		return true
	}
	it.leaf = nil
	return false
}

// Runes returns a copy of the current leaf's characters.
func (it *LeafIterator) Runes() []rune {
	if it.leaf == nil {
		return nil
	}
	rs := make([]rune, it.leaf.Len())
	it.leaf.copyTo(0, rs, 0, len(rs))
	return rs
}

// String returns the current leaf encoded as UTF-8.
func (it *LeafIterator) String() string {
	if it.leaf == nil {
		return ""
	}
	return string(it.leaf.appendUTF8(nil))
}

// Len returns the number of characters in the current leaf.
func (it *LeafIterator) Len() int {
	if it.leaf == nil {
		return 0
	}
	return it.leaf.Len()
}

// Offset returns the index of the current leaf's first character.
func (it *LeafIterator) Offset() int {
	return it.offset
}
