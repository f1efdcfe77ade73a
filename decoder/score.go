package decoder

import (
	"math"
	"strings"

	"morsedecoder.com/mdc/lattice"
	"morsedecoder.com/mdc/ngrams"
)

const (
	BadWordPenalty      = -10000.0
	SingleLetterPenalty = -1000.0

	// UnseenProbability is used for word sequences missing from the table.
	UnseenProbability = 0.01
	MaxProbability    = 0.999
	countScale        = 500.0

	contextSize = 2
)

type Scored struct {
	Score    float64  `json:"score"`
	Sentence []string `json:"sentence"`
}

// isBadWord reports single letters that are not words on their own.
func isBadWord(w string) bool {
	return len(w) == 1 && w != "I" && w != "A"
}

// ScoreNGram returns the log-likelihood of words, the scoring context followed
// by a proposed word.
func ScoreNGram(words []string, table ngrams.Table) float64 {
	singles := 0
	for _, w := range words {
		if isBadWord(w) {
			return BadWordPenalty
		}
		if len(w) == 1 {
			singles++
		}
	}
	if singles > 1 {
		return SingleLetterPenalty
	}
	if c, ok := table.Count(words...); ok {
		return math.Log(math.Min(float64(c+1)/countScale, MaxProbability))
	}
	return math.Log(UnseenProbability)
}

type scoreKey struct {
	context string
	pos     int
}

// scoreEntry is the best continuation from a (context, position) pair.
type scoreEntry struct {
	score float64
	word  string
	end   int
	ok    bool
}

type scorer struct {
	words *lattice.Lattice
	table ngrams.Table
	cache map[scoreKey]scoreEntry
}

// BestScoredSentence returns the decoding with the highest n-gram score.
// Equal scores keep the sentence that comes first in lattice order.
func BestScoredSentence(words *lattice.Lattice, table ngrams.Table) (Scored, error) {
	s := scorer{
		words: words,
		table: table,
		cache: make(map[scoreKey]scoreEntry),
	}
	score, ok := s.best(nil, 0)
	if !ok {
		return Scored{}, ErrNoDecoding
	}
	return Scored{Score: score, Sentence: s.sentence()}, nil
}

func (s *scorer) best(context []string, pos int) (float64, bool) {
	if pos == s.words.Len() {
		return 0, true
	}
	key := scoreKey{context: strings.Join(context, " "), pos: pos}
	if entry, ok := s.cache[key]; ok {
		return entry.score, entry.ok
	}

	var entry scoreEntry
	for _, e := range s.words.From(pos) {
		extended := make([]string, len(context), len(context)+1)
		copy(extended, context)
		extended = append(extended, e.Label)

		rest, ok := s.best(lastWords(extended), e.End)
		if !ok {
			continue
		}
		score := ScoreNGram(extended, s.table) + rest
		if !entry.ok || score > entry.score {
			entry = scoreEntry{score: score, word: e.Label, end: e.End, ok: true}
		}
	}
	s.cache[key] = entry
	return entry.score, entry.ok
}

// sentence follows the cached choices from the start of the stream.
func (s *scorer) sentence() []string {
	result := []string{}
	var context []string
	for pos := 0; pos < s.words.Len(); {
		entry := s.cache[scoreKey{context: strings.Join(context, " "), pos: pos}]
		result = append(result, entry.word)
		context = lastWords(append(context, entry.word))
		pos = entry.end
	}
	return result
}

func lastWords(words []string) []string {
	if len(words) <= contextSize {
		return words
	}
	return words[len(words)-contextSize:]
}
