// Package lattice builds the position-indexed transition lattices of a
// timing-less Morse stream.
//
// Slot i of a lattice lists the edges that start at stream position i. Every
// edge ends either at the end of the stream or at a slot that has edges of its
// own, so any walk from position 0 that follows edges reaches the end.
package lattice

import "sort"

type Edge struct {
	Label string
	End   int
}

type Lattice struct {
	edges [][]Edge
}

// Len is the length of the underlying stream.
func (l *Lattice) Len() int {
	return len(l.edges)
}

// From returns the edges starting at i, ordered by label. The slice must not be modified.
func (l *Lattice) From(i int) []Edge {
	return l.edges[i]
}

// Reachable reports whether the end of the stream can be reached from i.
func (l *Lattice) Reachable(i int) bool {
	return i == len(l.edges) || len(l.edges[i]) > 0
}

// Complete reports whether at least one full decoding exists.
func (l *Lattice) Complete() bool {
	return l.Reachable(0)
}

func (l *Lattice) End(i int, label string) (int, bool) {
	edges := l.edges[i]
	k := sort.Search(len(edges), func(k int) bool { return edges[k].Label >= label })
	if k < len(edges) && edges[k].Label == label {
		return edges[k].End, true
	}
	return 0, false
}

// Labels returns every distinct label in the lattice, sorted.
func (l *Lattice) Labels() []string {
	seen := make(map[string]struct{})
	for _, edges := range l.edges {
		for _, e := range edges {
			seen[e.Label] = struct{}{}
		}
	}
	result := make([]string, 0, len(seen))
	for label := range seen {
		result = append(result, label)
	}
	sort.Strings(result)
	return result
}

// Size is the total number of edges.
func (l *Lattice) Size() int {
	n := 0
	for _, edges := range l.edges {
		n += len(edges)
	}
	return n
}

func (l *Lattice) add(i int, e Edge) bool {
	if !l.Reachable(e.End) {
		return false
	}
	l.edges[i] = append(l.edges[i], e)
	return true
}
