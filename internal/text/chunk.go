package text

// Block sizing controls the granularity of leaf storage.
const (
	// BlockSize is the largest leaf the text builds when merging or chunking.
	// It must be a power of two.
	BlockSize = 1 << 6

	// blockMask rounds an offset down to a block boundary.
	blockMask = ^(BlockSize - 1)
)

// nodeOf rebuilds [offset, offset+length) of n as a balanced tree of leaves
// cut on block boundaries.
func nodeOf(n node, offset, length int) node {
	if length <= BlockSize {
		return n.subNode(offset, offset+length)
	}
	// Splits on a block boundary.
	half := ((length + BlockSize) >> 1) & blockMask
	head := nodeOf(n, offset, half)
	tail := nodeOf(n, offset+half, length-half)
	return newComposite(head, tail)
}

// ensureChunked returns a tree equivalent to n that is ready to share
// structure under edits. Oversized leaves, typically a whole document loaded
// at once, are cut into blocks; composites are returned unchanged.
func ensureChunked(n node) node {
	if _, ok := n.(leaf); ok && n.Len() > BlockSize {
		return nodeOf(n, 0, n.Len())
	}
	return n
}
