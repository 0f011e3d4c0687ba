package text

import (
	"io"
	"unicode/utf8"
)

// Builder provides efficient incremental construction of a text.
// It buffers writes and builds the tree when Build is called.
// The zero value is ready to use.
type Builder struct {
	buf []rune

	// pending holds an incomplete UTF-8 sequence left by the last Write.
	pending  [utf8.UTFMax]byte
	npending int
}

// NewBuilder creates a builder with room for capacity characters.
func NewBuilder(capacity int) *Builder {
	return &Builder{buf: make([]rune, 0, capacity)}
}

// WriteString appends the characters of s.
func (b *Builder) WriteString(s string) (int, error) {
	b.flushPending()
	for _, r := range s {
		b.buf = append(b.buf, r)
	}
	return len(s), nil
}

// Write implements io.Writer. p is decoded as UTF-8; invalid bytes become
// utf8.RuneError. A sequence cut short at the end of p is held until the
// next Write completes it.
func (b *Builder) Write(p []byte) (int, error) {
	n := len(p)
	if b.npending > 0 {
		p = append(b.pending[:b.npending:b.npending], p...)
		b.npending = 0
	}
	for i := 0; i < len(p); {
		if !utf8.FullRune(p[i:]) {
			b.npending = copy(b.pending[:], p[i:])
			break
		}
		r, size := utf8.DecodeRune(p[i:])
		b.buf = append(b.buf, r)
		i += size
	}
	return n, nil
}

// flushPending emits a held incomplete sequence as one utf8.RuneError per byte.
func (b *Builder) flushPending() {
	for ; b.npending > 0; b.npending-- {
		b.buf = append(b.buf, utf8.RuneError)
	}
}

// WriteRune appends a single character.
func (b *Builder) WriteRune(r rune) (int, error) {
	b.flushPending()
	b.buf = append(b.buf, r)
	return utf8.RuneLen(r), nil
}

// WriteText appends the characters of t.
func (b *Builder) WriteText(t Text) {
	b.flushPending()
	n := t.Len()
	if n == 0 {
		return
	}
	start := len(b.buf)
	b.buf = append(b.buf, make([]rune, n)...)
	t.root.copyTo(0, b.buf, start, n)
}

// ReadFrom implements io.ReaderFrom.
func (b *Builder) ReadFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if len(data) > 0 {
		_, _ = b.Write(data)
	}
	return int64(len(data)), err
}

// Len returns the number of characters written, not counting a held
// incomplete sequence.
func (b *Builder) Len() int {
	return len(b.buf)
}

// Reset clears the builder for reuse.
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
	b.npending = 0
}

// Build creates the text from the accumulated characters and resets the
// builder. Content longer than one block is cut into block-sized leaves.
func (b *Builder) Build() Text {
	b.flushPending()
	if len(b.buf) == 0 {
		return Empty()
	}
	root := ensureChunked(newLeaf(b.buf))
	b.Reset()
	return Text{root: root}
}

// Join concatenates texts with sep between each pair.
func Join(texts []Text, sep Text) Text {
	if len(texts) == 0 {
		return Empty()
	}
	result := texts[0]
	for _, t := range texts[1:] {
		result = result.Concat(sep).Concat(t)
	}
	return result
}

// Repeat returns t concatenated with itself n times.
// Doubling shares each intermediate result, so the cost is logarithmic in n.
func Repeat(t Text, n int) Text {
	result := Empty()
	for n > 0 {
		if n&1 == 1 {
			result = result.Concat(t)
		}
		n >>= 1
		if n == 0 {
			break
		}
		t = t.Concat(t)
	}
	return result
}

// FromReader reads all of r into a text.
func FromReader(r io.Reader) (Text, error) {
	var b Builder
	if _, err := b.ReadFrom(r); err != nil {
		return Text{}, err
	}
	return b.Build(), nil
}
