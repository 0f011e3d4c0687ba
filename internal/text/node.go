package text

import "unicode/utf8"

// node is a piece of an immutable text tree.
// Leaf nodes (byteLeaf, runeLeaf) hold characters; composite nodes join two
// subtrees. Nodes are never modified after construction, so any subtree may be
// shared by any number of Text values.
//
// All methods take local coordinates that the caller has already validated.
type node interface {
	// Len returns the number of characters in this subtree.
	Len() int

	// depth returns the height of this subtree (0 for leaves).
	depth() int

	// runeAt returns the character at index, 0 <= index < Len().
	runeAt(index int) rune

	// subNode returns the characters [start, end), 0 <= start <= end <= Len().
	subNode(start, end int) node

	// copyTo copies count characters starting at src into dst[dstPos:].
	copyTo(src int, dst []rune, dstPos, count int)
}

// leaf is the atomic storage unit of a text tree.
type leaf interface {
	node

	// appendUTF8 appends the UTF-8 encoding of the leaf to buf.
	appendUTF8(buf []byte) []byte
}

var (
	_ leaf = byteLeaf(nil)
	_ leaf = runeLeaf(nil)
	_ node = (*composite)(nil)
)

// emptyLeaf is shared by every empty text.
var emptyLeaf = byteLeaf{}

// newLeaf creates a leaf holding a copy of rs.
// Characters that all fit in a single byte are stored one byte each.
func newLeaf(rs []rune) leaf {
	if len(rs) == 0 {
		return emptyLeaf
	}
	if b, ok := toBytes(rs); ok {
		return byteLeaf(b)
	}
	data := make([]rune, len(rs))
	copy(data, rs)
	return runeLeaf(data)
}

// newLeafFromString creates a leaf from a string.
func newLeafFromString(s string) leaf {
	if len(s) == 0 {
		return emptyLeaf
	}
	return newLeaf([]rune(s))
}

// toBytes narrows rs to bytes, reporting false if any rune exceeds U+00FF.
func toBytes(rs []rune) ([]byte, bool) {
	for _, r := range rs {
		if r&^0xff != 0 {
			return nil, false
		}
	}
	b := make([]byte, len(rs))
	for i, r := range rs {
		b[i] = byte(r)
	}
	return b, true
}

// byteLeaf stores characters U+0000..U+00FF, one byte each.
type byteLeaf []byte

func (l byteLeaf) Len() int { return len(l) }

func (l byteLeaf) depth() int { return 0 }

func (l byteLeaf) runeAt(index int) rune { return rune(l[index]) }

func (l byteLeaf) subNode(start, end int) node {
	if start == 0 && end == len(l) {
		return l
	}
	data := make([]byte, end-start)
	copy(data, l[start:end])
	return byteLeaf(data)
}

func (l byteLeaf) copyTo(src int, dst []rune, dstPos, count int) {
	for i, b := range l[src : src+count] {
		dst[dstPos+i] = rune(b)
	}
}

func (l byteLeaf) appendUTF8(buf []byte) []byte {
	for _, b := range l {
		if b < utf8.RuneSelf {
			buf = append(buf, b)
			continue
		}
		buf = utf8.AppendRune(buf, rune(b))
	}
	return buf
}

// runeLeaf stores arbitrary characters.
type runeLeaf []rune

func (l runeLeaf) Len() int { return len(l) }

func (l runeLeaf) depth() int { return 0 }

func (l runeLeaf) runeAt(index int) rune { return l[index] }

func (l runeLeaf) subNode(start, end int) node {
	if start == 0 && end == len(l) {
		return l
	}
	// The slice may narrow to a compact leaf.
	return newLeaf(l[start:end])
}

func (l runeLeaf) copyTo(src int, dst []rune, dstPos, count int) {
	copy(dst[dstPos:dstPos+count], l[src:src+count])
}

func (l runeLeaf) appendUTF8(buf []byte) []byte {
	for _, r := range l {
		buf = utf8.AppendRune(buf, r)
	}
	return buf
}

// composite joins a head and a tail subtree.
// count and height are computed once at construction.
type composite struct {
	count  int
	height int
	head   node
	tail   node
}

// newComposite creates a composite node over head and tail.
func newComposite(head, tail node) *composite {
	return &composite{
		count:  head.Len() + tail.Len(),
		height: max(head.depth(), tail.depth()) + 1,
		head:   head,
		tail:   tail,
	}
}

func (c *composite) Len() int { return c.count }

func (c *composite) depth() int { return c.height }

func (c *composite) runeAt(index int) rune {
	headLen := c.head.Len()
	if index < headLen {
		return c.head.runeAt(index)
	}
	return c.tail.runeAt(index - headLen)
}

func (c *composite) subNode(start, end int) node {
	cesure := c.head.Len()
	if end <= cesure {
		return c.head.subNode(start, end)
	}
	if start >= cesure {
		return c.tail.subNode(start-cesure, end-cesure)
	}
	if start == 0 && end == c.count {
		return c
	}
	// Overlaps head and tail.
	return concatNodes(c.head.subNode(start, cesure), c.tail.subNode(0, end-cesure))
}

func (c *composite) copyTo(src int, dst []rune, dstPos, count int) {
	cesure := c.head.Len()
	if src+count <= cesure {
		c.head.copyTo(src, dst, dstPos, count)
		return
	}
	if src >= cesure {
		c.tail.copyTo(src-cesure, dst, dstPos, count)
		return
	}
	// Overlaps head and tail.
	headCount := cesure - src
	c.head.copyTo(src, dst, dstPos, headCount)
	c.tail.copyTo(0, dst, dstPos+headCount, count-headCount)
}

// rotateRight re-parents (A,B)+C into A+(B,C).
// It returns c unchanged if the head is not a composite.
func (c *composite) rotateRight() *composite {
	p, ok := c.head.(*composite)
	if !ok {
		return c
	}
	return newComposite(p.head, newComposite(p.tail, c.tail))
}

// rotateLeft re-parents A+(B,C) into (A,B)+C.
// It returns c unchanged if the tail is not a composite.
func (c *composite) rotateLeft() *composite {
	q, ok := c.tail.(*composite)
	if !ok {
		return c
	}
	return newComposite(newComposite(c.head, q.head), q.tail)
}
