package lattice

import "morsedecoder.com/mdc/morse"

// BuildChars computes the character lattice of stream. Positions are resolved
// from the end backwards so the target slot of an edge is always final before
// it is consulted.
func BuildChars(stream string) *Lattice {
	n := len(stream)
	lat := &Lattice{edges: make([][]Edge, n)}

	for i := n - 1; i >= 0; i-- {
		for _, letter := range morse.Letters() {
			code := morse.Codes[letter]
			j := i + len(code)
			if j > n || stream[i:j] != code {
				continue
			}
			lat.add(i, Edge{Label: letter, End: j})
		}
	}
	return lat
}
