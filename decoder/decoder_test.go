package decoder

import (
	"errors"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morsedecoder.com/mdc/lexicon"
	"morsedecoder.com/mdc/morse"
	"morsedecoder.com/mdc/ngrams"
)

var sampleWords = []string{
	"A", "I", "IS", "IT", "THIS", "SECRET", "MESSAGE", "PAUL", "HANKIN", "HANK", "IN",
	"THE", "QUICK", "BROWN", "FOX", "JUMPS", "OVER", "LAZY", "DOG", "AT", "TO", "ME", "SEE",
}

// bruteForce lists every word sequence whose encoding is exactly stream.
func bruteForce(stream string, words []string) [][]string {
	var result [][]string
	var walk func(pos int, acc []string)
	walk = func(pos int, acc []string) {
		if pos == len(stream) {
			result = append(result, append([]string{}, acc...))
			return
		}
		for _, w := range words {
			code := morse.Encode(w)
			if strings.HasPrefix(stream[pos:], code) {
				walk(pos+len(code), append(acc, w))
			}
		}
	}
	walk(0, nil)
	return result
}

func joined(sentences [][]string) []string {
	result := make([]string, len(sentences))
	for i, s := range sentences {
		result[i] = strings.Join(s, " ")
	}
	sort.Strings(result)
	return result
}

func TestSingleLetter(t *testing.T) {
	d := New(lexicon.New("A"))

	assert.Equal(t, int64(1), d.DecodeCount(".-").Int64())

	sentence, err := d.DecodeShortest(".-")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, sentence)

	scored, err := d.DecodeBestScored(".-", ngrams.Table{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, scored.Sentence)
	assert.InDelta(t, math.Log(UnseenProbability), scored.Score, 1e-9)
}

func TestEmptyStream(t *testing.T) {
	dec := New(lexicon.New(sampleWords...)).Prepare("")

	assert.Equal(t, int64(1), dec.Count().Int64())

	sentence, err := dec.Shortest()
	require.NoError(t, err)
	assert.Equal(t, []string{}, sentence)

	scored, err := dec.BestScored(ngrams.Table{})
	require.NoError(t, err)
	assert.Equal(t, []string{}, scored.Sentence)
	assert.Equal(t, 0.0, scored.Score)

	assert.Equal(t, [][]string{{}}, dec.Sentences(0))
}

func TestNoDecoding(t *testing.T) {
	dec := New(lexicon.New("E")).Prepare(".-")

	assert.Equal(t, int64(0), dec.Count().Int64())

	_, err := dec.Shortest()
	assert.True(t, errors.Is(err, ErrNoDecoding))

	_, err = dec.BestScored(ngrams.Table{})
	assert.True(t, errors.Is(err, ErrNoDecoding))

	assert.Empty(t, dec.Sentences(0))
}

func TestPaulHankin(t *testing.T) {
	dec := New(lexicon.New(sampleWords...)).Prepare(morse.Encode("PAUL HANKIN"))

	require.GreaterOrEqual(t, dec.Count().Int64(), int64(1))
	assert.Contains(t, joined(dec.Sentences(0)), "PAUL HANKIN")
	assert.Contains(t, dec.Vocabulary(), "HANKIN")
}

func TestCountingConsistency(t *testing.T) {
	d := New(lexicon.New(sampleWords...))
	messages := []string{"PAUL HANKIN", "THIS IS A SECRET", "SEE ME", "IT IS", "A"}
	for _, msg := range messages {
		t.Run(msg, func(t *testing.T) {
			stream := morse.Encode(msg)
			dec := d.Prepare(stream)
			expected := bruteForce(stream, sampleWords)

			require.Equal(t, int64(len(expected)), dec.Count().Int64())

			var direct int64
			for _, e := range dec.Words.From(0) {
				// slots after a position only depend on the rest of the stream
				direct += d.DecodeCount(stream[e.End:]).Int64()
			}
			assert.Equal(t, dec.Count().Int64(), direct)

			if diff := cmp.Diff(joined(expected), joined(dec.Sentences(0))); diff != "" {
				t.Errorf("enumerated sentences differ (-want +got):\n%s", diff)
			}
			for _, s := range dec.Sentences(0) {
				assert.Equal(t, stream, morse.Encode(strings.Join(s, " ")))
			}
		})
	}
}

func TestShortestOptimality(t *testing.T) {
	d := New(lexicon.New(sampleWords...))
	for _, msg := range []string{"PAUL HANKIN", "THIS IS A SECRET", "SEE ME", "IT IS"} {
		t.Run(msg, func(t *testing.T) {
			stream := morse.Encode(msg)
			sentence, err := d.DecodeShortest(stream)
			require.NoError(t, err)
			assert.Equal(t, stream, morse.Encode(strings.Join(sentence, " ")))

			best := pathCost{words: math.MaxInt32}
			for _, s := range bruteForce(stream, sampleWords) {
				c := pathCost{words: len(s), chars: len(strings.Join(s, ""))}
				if c.less(best) {
					best = c
				}
			}
			assert.Equal(t, best, pathCost{words: len(sentence), chars: len(strings.Join(sentence, ""))})
		})
	}
}

func TestShortestTieBreak(t *testing.T) {
	t.Run("Fewer characters win among equal word counts", func(t *testing.T) {
		sentence, err := New(lexicon.New("EE", "I")).DecodeShortest("..")
		require.NoError(t, err)
		assert.Equal(t, []string{"I"}, sentence)
	})
	t.Run("Fewer words win over fewer characters", func(t *testing.T) {
		// "A" "I" uses two characters in two words, "AI" two characters in one
		sentence, err := New(lexicon.New("A", "I", "AI")).DecodeShortest(morse.Encode("AI"))
		require.NoError(t, err)
		assert.Equal(t, []string{"AI"}, sentence)
	})
	t.Run("Full ties keep lattice order", func(t *testing.T) {
		sentence, err := New(lexicon.New("EM", "AT")).DecodeShortest(".--")
		require.NoError(t, err)
		assert.Equal(t, []string{"AT"}, sentence)
	})
}

func TestScoreNGram(t *testing.T) {
	table := ngrams.Table{}
	table.Add(99, "THE", "DOG")
	table.Add(10000, "THE")

	cases := []struct {
		name     string
		words    []string
		expected float64
	}{
		{"Bad single letter", []string{"THE", "E"}, BadWordPenalty},
		{"Bad letter wins over two singles", []string{"A", "I", "T"}, BadWordPenalty},
		{"Two single letter words", []string{"A", "I"}, SingleLetterPenalty},
		{"Known bigram", []string{"THE", "DOG"}, math.Log(100.0 / 500.0)},
		{"Probability is capped", []string{"THE"}, math.Log(MaxProbability)},
		{"Unseen", []string{"DOG", "THE"}, math.Log(UnseenProbability)},
		{"Single allowed letter", []string{"I"}, math.Log(UnseenProbability)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.InDelta(t, c.expected, ScoreNGram(c.words, table), 1e-9)
		})
	}
}

func TestBestScored(t *testing.T) {
	t.Run("Table decides between equal length sentences", func(t *testing.T) {
		table := ngrams.Table{}
		table.Add(100, "EM")
		scored, err := New(lexicon.New("AT", "EM")).DecodeBestScored(".--", table)
		require.NoError(t, err)
		assert.Equal(t, []string{"EM"}, scored.Sentence)
		assert.InDelta(t, math.Log(101.0/500.0), scored.Score, 1e-9)
	})
	t.Run("Ties keep lattice order", func(t *testing.T) {
		scored, err := New(lexicon.New("AT", "EM")).DecodeBestScored(".--", ngrams.Table{})
		require.NoError(t, err)
		assert.Equal(t, []string{"AT"}, scored.Sentence)
	})
	t.Run("Two single letter words are avoided", func(t *testing.T) {
		table := ngrams.Table{}
		table.Add(10000, "A")
		table.Add(10000, "I")
		table.Add(10000, "A", "I")
		scored, err := New(lexicon.New("A", "I", "AI")).DecodeBestScored(morse.Encode("AI"), table)
		require.NoError(t, err)
		assert.Equal(t, []string{"AI"}, scored.Sentence)
	})
	t.Run("Junk letters are avoided", func(t *testing.T) {
		scored, err := New(lexicon.New("E", "T", "ET")).DecodeBestScored(".-", ngrams.Table{})
		require.NoError(t, err)
		assert.Equal(t, []string{"ET"}, scored.Sentence)
	})
	t.Run("Context carries the last two words", func(t *testing.T) {
		table := ngrams.Table{}
		table.Add(400, "THE", "DOG")
		table.Add(400, "THE")
		scored, err := New(lexicon.New(sampleWords...)).DecodeBestScored(morse.Encode("THE DOG"), table)
		require.NoError(t, err)
		assert.Equal(t, []string{"THE", "DOG"}, scored.Sentence)
		assert.InDelta(t, 2*math.Log(401.0/500.0), scored.Score, 1e-9)
	})
	t.Run("Sentence is the maximum over all decodings", func(t *testing.T) {
		stream := morse.Encode("THIS IS A SECRET")
		table := ngrams.Table{}
		table.Add(300, "THIS")
		table.Add(200, "THIS", "IS")
		table.Add(50, "IS", "A")

		scored, err := New(lexicon.New(sampleWords...)).DecodeBestScored(stream, table)
		require.NoError(t, err)

		best := math.Inf(-1)
		for _, s := range bruteForce(stream, sampleWords) {
			if score := sentenceScore(s, table); score > best {
				best = score
			}
		}
		assert.InDelta(t, best, scored.Score, 1e-9)
		assert.InDelta(t, best, sentenceScore(scored.Sentence, table), 1e-9)
	})
}

// sentenceScore scores a full sentence the way the search does, word by word.
func sentenceScore(sentence []string, table ngrams.Table) float64 {
	var context []string
	total := 0.0
	for _, w := range sentence {
		extended := append(append([]string{}, context...), w)
		total += ScoreNGram(extended, table)
		context = lastWords(extended)
	}
	return total
}

func TestSentencesLimit(t *testing.T) {
	dec := New(lexicon.New(sampleWords...)).Prepare(morse.Encode("THIS IS A SECRET"))
	require.Greater(t, dec.Count().Int64(), int64(2))
	assert.Len(t, dec.Sentences(2), 2)
}
