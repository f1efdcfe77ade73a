package lattice

import (
	"sort"

	"morsedecoder.com/mdc/lexicon"
)

type searchFrame struct {
	pos    int
	prefix string
}

// WalkWords calls visit for every dictionary word spelled by a walk through
// chars that starts at i, together with the position the word ends at.
// A letter is only appended when the result is still a prefix of some word.
func WalkWords(chars *Lattice, lex *lexicon.Lexicon, i int, visit func(word string, end int)) {
	stack := []searchFrame{{pos: i}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if lex.IsWord(top.prefix) {
			visit(top.prefix, top.pos)
		}
		if top.pos == chars.Len() {
			continue
		}

		// pushed in reverse so letters are expanded in alphabet order
		edges := chars.From(top.pos)
		for k := len(edges) - 1; k >= 0; k-- {
			next := top.prefix + edges[k].Label
			if lex.IsPrefix(next) {
				stack = append(stack, searchFrame{pos: edges[k].End, prefix: next})
			}
		}
	}
}

// FindWords collects the result of WalkWords.
func FindWords(chars *Lattice, lex *lexicon.Lexicon, i int) []Edge {
	var found []Edge
	WalkWords(chars, lex, i, func(word string, end int) {
		found = append(found, Edge{Label: word, End: end})
	})
	return found
}

// BuildWords computes the word lattice on top of a character lattice, dropping
// words that end in a position from which no word can continue.
func BuildWords(chars *Lattice, lex *lexicon.Lexicon) *Lattice {
	n := chars.Len()
	lat := &Lattice{edges: make([][]Edge, n)}

	for i := n - 1; i >= 0; i-- {
		WalkWords(chars, lex, i, func(word string, end int) {
			lat.add(i, Edge{Label: word, End: end})
		})
		edges := lat.edges[i]
		sort.Slice(edges, func(a, b int) bool { return edges[a].Label < edges[b].Label })
	}
	return lat
}
