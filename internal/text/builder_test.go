package text

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuilder(t *testing.T) {
	var b Builder
	b.WriteString("hello")
	b.WriteRune(' ')
	b.WriteRune('世')
	b.Write([]byte("界!"))
	b.WriteText(FromString(" more"))

	if b.Len() != 14 {
		t.Errorf("Len() = %d, want 14", b.Len())
	}
	tx := b.Build()
	if tx.String() != "hello 世界! more" {
		t.Errorf("Build() = %q", tx.String())
	}
	if b.Len() != 0 {
		t.Errorf("Len() after Build = %d, want 0", b.Len())
	}
	if !b.Build().IsEmpty() {
		t.Error("Build() of a reset builder is not empty")
	}
}

func TestBuilderChunksLargeInput(t *testing.T) {
	b := NewBuilder(10000)
	for i := 0; i < 1000; i++ {
		b.WriteString("0123456789")
	}
	tx := b.Build()

	st := tx.Stats()
	if st.MaxLeafLen > BlockSize {
		t.Errorf("MaxLeafLen = %d, want <= %d", st.MaxLeafLen, BlockSize)
	}
	if st.Leaves < 10000/BlockSize {
		t.Errorf("Leaves = %d, want >= %d", st.Leaves, 10000/BlockSize)
	}
	if st.Depth > 10 {
		t.Errorf("Depth = %d for a chunked 10000-character text", st.Depth)
	}
}

func TestBuilderInvalidUTF8(t *testing.T) {
	var b Builder
	b.Write([]byte{'a', 0xff, 'b'})
	tx := b.Build()
	want := "a" + string(utf8.RuneError) + "b"
	if tx.String() != want {
		t.Errorf("got %q, want %q", tx.String(), want)
	}
}

func TestBuilderSplitWrites(t *testing.T) {
	var b Builder
	for _, c := range []byte("é✓") {
		if n, err := b.Write([]byte{c}); n != 1 || err != nil {
			t.Fatalf("Write() = %d, %v", n, err)
		}
	}
	if got := b.Build(); got.String() != "é✓" || got.Len() != 2 {
		t.Errorf("Build() = %q (len %d), want %q", got.String(), got.Len(), "é✓")
	}

	s := strings.Repeat("naïve 世界 ", 40)
	for i := 0; i < len(s); i += 7 {
		b.Write([]byte(s[i:min(i+7, len(s))]))
	}
	if got := b.Build().String(); got != s {
		t.Errorf("Build() after 7-byte writes = %q, want %q", got, s)
	}

	fmt.Fprintf(&b, "%s", "ß")
	if got := b.Build().String(); got != "ß" {
		t.Errorf("Build() after Fprintf = %q", got)
	}
}

func TestBuilderIncompleteSequence(t *testing.T) {
	bad := string(utf8.RuneError)
	tests := []struct {
		name  string
		write func(b *Builder)
		want  string
	}{
		{"trailing", func(b *Builder) { b.Write([]byte{'a', 0xe2, 0x9c}) }, "a" + bad + bad},
		{"then string", func(b *Builder) { b.Write([]byte{0xc3}); b.WriteString("x") }, bad + "x"},
		{"then rune", func(b *Builder) { b.Write([]byte{0xc3}); b.WriteRune('y') }, bad + "y"},
		{"then text", func(b *Builder) { b.Write([]byte{0xc3}); b.WriteText(FromString("z")) }, bad + "z"},
		{"broken by ascii", func(b *Builder) { b.Write([]byte{0xe2}); b.Write([]byte("ok")) }, bad + "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Builder
			tt.write(&b)
			if got := b.Build().String(); got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}

	var b Builder
	b.Write([]byte{0xe2})
	b.Reset()
	if got := b.Build(); !got.IsEmpty() {
		t.Errorf("Build() after Reset = %q, want empty", got.String())
	}
}

func TestFromReader(t *testing.T) {
	s := strings.Repeat("read me 世界\n", 300)
	tx, err := FromReader(strings.NewReader(s))
	if err != nil {
		t.Fatalf("FromReader error = %v", err)
	}
	if tx.String() != s {
		t.Error("FromReader content mismatch")
	}
}

func TestJoin(t *testing.T) {
	parts := []Text{FromString("a"), FromString("b"), FromString("c")}
	if got := Join(parts, FromString(", ")).String(); got != "a, b, c" {
		t.Errorf("Join = %q, want %q", got, "a, b, c")
	}
	if !Join(nil, FromString(",")).IsEmpty() {
		t.Error("Join of nothing is not empty")
	}
	if got := Join(parts[:1], FromString(",")).String(); got != "a" {
		t.Errorf("Join of one = %q, want %q", got, "a")
	}
}

func TestRepeat(t *testing.T) {
	tests := []struct {
		s string
		n int
	}{
		{"ab", 0},
		{"ab", 1},
		{"ab", 7},
		{"世界", 33},
		{"block", 1000},
	}
	for _, tt := range tests {
		got := Repeat(FromString(tt.s), tt.n)
		if got.String() != strings.Repeat(tt.s, tt.n) {
			t.Errorf("Repeat(%q, %d) content mismatch", tt.s, tt.n)
		}
	}
	if d := Repeat(FromString("x"), 100000).Depth(); d > 40 {
		t.Errorf("Repeat depth = %d", d)
	}
}

func TestRepeatSharesOnce(t *testing.T) {
	tx := FromString(strings.Repeat("shared ", 20))
	if !Repeat(tx, 1).SameRoot(tx) {
		t.Error("Repeat(t, 1) did not return t")
	}
	base := testing.AllocsPerRun(10, func() { Repeat(tx, 0) })
	if allocs := testing.AllocsPerRun(10, func() { Repeat(tx, 1) }); allocs > base {
		t.Errorf("Repeat(t, 1) allocated %v times, Repeat(t, 0) %v", allocs, base)
	}
}
