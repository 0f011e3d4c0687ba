package text

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// Reader reads the characters of a text.
// It remembers the leaf of the previous lookup, so sequential and local
// accesses avoid descending from the root.
//
// A Reader is not safe for concurrent use. The Text it reads is, and any
// number of Readers may read the same Text.
type Reader struct {
	text Text
	pos  int
	last innerLeaf
	prev int // position before the last ReadRune, -1 if none
}

var _ io.RuneScanner = (*Reader)(nil)

// NewReader creates a reader positioned at the start of t.
func NewReader(t Text) *Reader {
	return &Reader{text: t, prev: -1}
}

// Len returns the number of unread characters.
func (r *Reader) Len() int {
	return r.text.Len() - r.pos
}

// Offset returns the index of the next character to be read.
func (r *Reader) Offset() int {
	return r.pos
}

// At returns the character at index, reusing the cached leaf when possible.
func (r *Reader) At(index int) (rune, error) {
	if index < 0 || index >= r.text.Len() {
		return 0, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, index, r.text.Len())
	}
	return r.at(index), nil
}

func (r *Reader) at(index int) rune {
	if r.last.leaf == nil || index < r.last.offset || index >= r.last.end {
		r.last = r.text.findLeaf(index)
	}
	return r.last.leaf.runeAt(index - r.last.offset)
}

// ReadRune reads the next character.
// size is the length of the character's UTF-8 encoding.
func (r *Reader) ReadRune() (ch rune, size int, err error) {
	if r.pos >= r.text.Len() {
		r.prev = -1
		return 0, 0, io.EOF
	}
	ch = r.at(r.pos)
	r.prev = r.pos
	r.pos++
	return ch, utf8.RuneLen(ch), nil
}

// UnreadRune steps back over the character returned by the last ReadRune.
func (r *Reader) UnreadRune() error {
	if r.prev < 0 {
		return errors.New("text.Reader.UnreadRune: previous operation was not ReadRune")
	}
	r.pos = r.prev
	r.prev = -1
	return nil
}

// Seek moves the reader to index, 0 <= index <= Len of the text.
func (r *Reader) Seek(index int) error {
	if index < 0 || index > r.text.Len() {
		return fmt.Errorf("%w: seek to %d, length %d", ErrIndexOutOfRange, index, r.text.Len())
	}
	r.pos = index
	r.prev = -1
	return nil
}
