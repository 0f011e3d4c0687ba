package text

// Stats describes the shape of a text tree.
// Useful for debugging and testing balance.
type Stats struct {
	// Len is the number of characters.
	Len int

	// Depth is the height of the tree; a lone leaf has depth 0.
	Depth int

	// Leaves is the number of non-empty leaves.
	Leaves int

	// Composites is the number of composite nodes.
	Composites int

	// MaxLeafLen is the length of the longest leaf.
	MaxLeafLen int

	// CompactLeaves is the number of leaves stored one byte per character.
	CompactLeaves int
}

// Stats walks the tree and returns its shape.
func (t Text) Stats() Stats {
	s := Stats{Len: t.Len(), Depth: t.Depth()}
	if s.Len == 0 {
		return s
	}
	collectStats(t.root, &s)
	return s
}

// Depth returns the height of the tree. It is memoized per node, so this is O(1).
func (t Text) Depth() int {
	return t.rootNode().depth()
}

func collectStats(n node, s *Stats) {
	switch x := n.(type) {
	case *composite:
		s.Composites++
		collectStats(x.head, s)
		collectStats(x.tail, s)
	case byteLeaf:
		s.addLeaf(len(x))
		if len(x) > 0 {
			s.CompactLeaves++
		}
	case runeLeaf:
		s.addLeaf(len(x))
	}
}

func (s *Stats) addLeaf(n int) {
	if n == 0 {
		return
	}
	s.Leaves++
	s.MaxLeafLen = max(s.MaxLeafLen, n)
}
