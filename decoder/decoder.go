// Package decoder turns a timing-less Morse stream into dictionary sentences.
//
// A stream is first expanded into a character lattice and then into a word
// lattice (see package lattice). The selectors in this package work on the
// word lattice: CountSentences counts every segmentation, ShortestSentence
// picks the one with the fewest words, and BestScoredSentence picks the one
// an n-gram language model likes best.
package decoder

import (
	"errors"
	"math/big"

	"morsedecoder.com/mdc/lattice"
	"morsedecoder.com/mdc/lexicon"
	"morsedecoder.com/mdc/ngrams"
)

// ErrNoDecoding is returned when no sentence consumes the whole stream.
var ErrNoDecoding = errors.New("no decoding")

// Decoder is safe for concurrent use; every decode gets its own lattices.
type Decoder struct {
	lex *lexicon.Lexicon
}

func New(lex *lexicon.Lexicon) *Decoder {
	return &Decoder{lex: lex}
}

// Decoding holds the lattices of one stream.
type Decoding struct {
	Stream string
	Chars  *lattice.Lattice
	Words  *lattice.Lattice
}

// Prepare builds the lattices of stream. stream must contain only dots and
// dashes; see morse.Sanitize.
func (d *Decoder) Prepare(stream string) *Decoding {
	chars := lattice.BuildChars(stream)
	return &Decoding{
		Stream: stream,
		Chars:  chars,
		Words:  lattice.BuildWords(chars, d.lex),
	}
}

func (dec *Decoding) Count() *big.Int {
	return CountSentences(dec.Words)
}

func (dec *Decoding) Shortest() ([]string, error) {
	return ShortestSentence(dec.Words)
}

func (dec *Decoding) BestScored(table ngrams.Table) (Scored, error) {
	return BestScoredSentence(dec.Words, table)
}

func (dec *Decoding) Sentences(limit int) [][]string {
	return Sentences(dec.Words, limit)
}

// Vocabulary lists every word that takes part in at least one decoding.
func (dec *Decoding) Vocabulary() []string {
	return dec.Words.Labels()
}

func (d *Decoder) DecodeCount(stream string) *big.Int {
	return d.Prepare(stream).Count()
}

func (d *Decoder) DecodeShortest(stream string) ([]string, error) {
	return d.Prepare(stream).Shortest()
}

func (d *Decoder) DecodeBestScored(stream string, table ngrams.Table) (Scored, error) {
	return d.Prepare(stream).BestScored(table)
}
