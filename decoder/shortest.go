package decoder

import "morsedecoder.com/mdc/lattice"

type pathCost struct {
	words int
	chars int
}

// less orders by word count, then by total characters.
func (c pathCost) less(other pathCost) bool {
	if c.words != other.words {
		return c.words < other.words
	}
	return c.chars < other.chars
}

// ShortestSentence returns the decoding with the fewest words. Among those it
// prefers the one with the fewest characters, and then the first in lattice order.
func ShortestSentence(words *lattice.Lattice) ([]string, error) {
	n := words.Len()
	cost := make([]pathCost, n+1)
	defined := make([]bool, n+1)
	best := make([]lattice.Edge, n)
	defined[n] = true

	for i := n - 1; i >= 0; i-- {
		for _, e := range words.From(i) {
			if !defined[e.End] {
				continue
			}
			candidate := pathCost{
				words: cost[e.End].words + 1,
				chars: cost[e.End].chars + len(e.Label),
			}
			if !defined[i] || candidate.less(cost[i]) {
				cost[i] = candidate
				defined[i] = true
				best[i] = e
			}
		}
	}

	if !defined[0] {
		return nil, ErrNoDecoding
	}

	sentence := make([]string, 0, cost[0].words)
	for i := 0; i < n; i = best[i].End {
		sentence = append(sentence, best[i].Label)
	}
	return sentence, nil
}
