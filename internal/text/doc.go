// Package text provides an immutable, structurally shared text value.
//
// A Text is a binary tree whose leaves hold blocks of characters and whose
// composite nodes join a head and a tail subtree, caching their combined
// length. Nodes are never modified after construction, so subtrees are shared
// freely between texts; editing a text builds only the nodes along the edited
// path and reuses everything else.
//
// Key features:
//   - O(log n) amortized indexing, slicing, concatenation, insertion and removal
//   - Operations return new texts; originals are never modified
//   - Concatenation keeps the tree weight balanced by local rotations
//   - Large flat inputs are cut into block-sized leaves before they are edited
//   - Safe for concurrent reads without locking
//
// Basic usage:
//
//	t := text.FromString("hello world")
//	t, _ = t.InsertString(5, ",")   // "hello, world"
//	t, _ = t.Remove(0, 7)           // "world"
//	s := t.String()                 // "world"
//
// Characters are runes and every index counts runes, not bytes.
package text
