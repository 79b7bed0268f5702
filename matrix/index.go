package matrix

// nameIndex is a bijection between opaque external names and compact
// integer positions, append-only so that position order is exactly
// insertion order (spec.md §9: "Named indices vs arena-and-index... a
// name-to-index map plus an index-to-name vector is preferred to
// hash-keyed 2-D storage").
type nameIndex struct {
	names []string
	pos   map[string]int
}

func newNameIndex() *nameIndex {
	return &nameIndex{pos: make(map[string]int)}
}

func (n *nameIndex) clone() *nameIndex {
	cp := &nameIndex{
		names: append([]string(nil), n.names...),
		pos:   make(map[string]int, len(n.pos)),
	}
	for k, v := range n.pos {
		cp.pos[k] = v
	}
	return cp
}

// Len returns the number of names currently indexed.
func (n *nameIndex) Len() int { return len(n.names) }

// IndexOf returns the position of name and whether it is present.
func (n *nameIndex) IndexOf(name string) (int, bool) {
	i, ok := n.pos[name]
	return i, ok
}

// NameAt returns the name stored at position i.
func (n *nameIndex) NameAt(i int) string { return n.names[i] }

// Names returns the index-to-name vector in insertion order. The caller
// must not mutate the returned slice.
func (n *nameIndex) Names() []string { return n.names }

// EnsureAppend returns the position of name, appending it (and growing
// the index) if it is not already present. Also reports whether an
// append occurred.
func (n *nameIndex) EnsureAppend(name string) (pos int, grew bool) {
	if i, ok := n.pos[name]; ok {
		return i, false
	}
	pos = len(n.names)
	n.names = append(n.names, name)
	n.pos[name] = pos
	return pos, true
}

// subsetMap builds an oldToNew position slice (length n.Len(), -1 for
// names not kept) and the corresponding new nameIndex, keeping names in
// their original relative order as spec.md §4.1 requires of subsetting.
func (n *nameIndex) subsetMap(keep func(name string) bool) (oldToNew []int, out *nameIndex) {
	oldToNew = make([]int, n.Len())
	out = newNameIndex()
	for i, name := range n.names {
		if keep(name) {
			np, _ := out.EnsureAppend(name)
			oldToNew[i] = np
		} else {
			oldToNew[i] = -1
		}
	}
	return oldToNew, out
}
