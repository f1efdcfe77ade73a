package decoder

import (
	"math/big"

	"morsedecoder.com/mdc/lattice"
)

// CountSentences returns the number of distinct word sequences that consume
// the whole stream. The empty stream has exactly one: the empty sentence.
func CountSentences(words *lattice.Lattice) *big.Int {
	n := words.Len()
	count := make([]*big.Int, n+1)
	for i := range count {
		count[i] = new(big.Int)
	}
	count[n].SetInt64(1)

	for i := n - 1; i >= 0; i-- {
		for _, e := range words.From(i) {
			count[i].Add(count[i], count[e.End])
		}
	}
	return count[0]
}

type pathFrame struct {
	pos      int
	sentence []string
}

// Sentences enumerates decodings depth-first in lattice order, stopping after
// limit sentences. A limit of zero or less means no limit.
func Sentences(words *lattice.Lattice, limit int) [][]string {
	var result [][]string
	stack := []pathFrame{{pos: 0, sentence: []string{}}}

	for len(stack) > 0 && (limit <= 0 || len(result) < limit) {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.pos == words.Len() {
			result = append(result, top.sentence)
			continue
		}
		edges := words.From(top.pos)
		for k := len(edges) - 1; k >= 0; k-- {
			sentence := make([]string, len(top.sentence), len(top.sentence)+1)
			copy(sentence, top.sentence)
			stack = append(stack, pathFrame{
				pos:      edges[k].End,
				sentence: append(sentence, edges[k].Label),
			})
		}
	}
	return result
}
