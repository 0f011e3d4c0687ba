package text

// concatNodes joins two trees.
//
// Results of at most BlockSize characters are merged into a single leaf.
// Larger results are kept weight balanced,
//
//	head.Len() <= tail.Len()*2 && tail.Len() <= head.Len()*2
//
// by re-grouping the larger side around the smaller one before wrapping both in
// a new composite. Unchanged subtrees of either input are reused, not copied.
func concatNodes(n1, n2 node) node {
	length := n1.Len() + n2.Len()
	if length <= BlockSize {
		merged := make([]rune, length)
		n1.copyTo(0, merged, 0, n1.Len())
		n2.copyTo(0, merged, n1.Len(), n2.Len())
		return newLeaf(merged)
	}

	head, tail := n1, n2
	if ct, ok := tail.(*composite); ok && head.Len()*2 < ct.Len() {
		// Head too small: (head + tail/2) + tail/2.
		if ct.head.Len() > ct.tail.Len() {
			ct = ct.rotateRight()
		}
		head = concatNodes(head, ct.head)
		tail = ct.tail
	} else if ch, ok := head.(*composite); ok && tail.Len()*2 < ch.Len() {
		// Tail too small: head/2 + (head/2 + tail).
		if ch.tail.Len() > ch.head.Len() {
			ch = ch.rotateLeft()
		}
		tail = concatNodes(ch.tail, tail)
		head = ch.head
	}
	return newComposite(head, tail)
}
