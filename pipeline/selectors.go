package pipeline

import (
	"errors"

	"morsedecoder.com/mdc/decoder"
	"morsedecoder.com/mdc/ngrams"
	"morsedecoder.com/mdc/types"
)

// Result is what one selector contributes to the response.
type Result struct {
	Feature string
	Apply   func(response *types.DecodeResponse)
	Err     error
}

type Selector func(decoding *decoder.Decoding) Result

type TableProvider interface {
	Table(vocab []string) (ngrams.Table, error)
}

func NewCounter() Selector {
	return func(decoding *decoder.Decoding) Result {
		count := decoding.Count().String()
		return Result{
			Feature: types.FeatureCount,
			Apply: func(response *types.DecodeResponse) {
				response.SentenceCount = &count
			},
		}
	}
}

func NewShortestSelector() Selector {
	return func(decoding *decoder.Decoding) Result {
		sentence, err := decoding.Shortest()
		return Result{
			Feature: types.FeatureShortest,
			Apply: func(response *types.DecodeResponse) {
				response.Shortest = sentence
			},
			Err: err,
		}
	}
}

func NewScoredSelector(tables TableProvider) Selector {
	return func(decoding *decoder.Decoding) Result {
		result := Result{Feature: types.FeatureScored}
		if !decoding.Words.Complete() {
			result.Err = decoder.ErrNoDecoding
			return result
		}
		table, err := tables.Table(decoding.Vocabulary())
		if err != nil {
			result.Err = err
			return result
		}
		scored, err := decoding.BestScored(table)
		if err != nil {
			result.Err = err
			return result
		}
		result.Apply = func(response *types.DecodeResponse) {
			response.Best = &types.ScoredSentence{Score: scored.Score, Sentence: scored.Sentence}
		}
		return result
	}
}

func NewSentenceEnumerator(limit int) Selector {
	return func(decoding *decoder.Decoding) Result {
		sentences := decoding.Sentences(limit)
		return Result{
			Feature: types.FeatureSentences,
			Apply: func(response *types.DecodeResponse) {
				response.Sentences = sentences
			},
		}
	}
}

// errorMessage keeps the first error, preferring anything over "no decoding"
// since every selector reports that one for the same stream.
func errorMessage(current string, err error) string {
	if err == nil {
		return current
	}
	if current == "" || (current == decoder.ErrNoDecoding.Error() && !errors.Is(err, decoder.ErrNoDecoding)) {
		return err.Error()
	}
	return current
}
