// Package lexicon holds the dictionary consumed by the decoder: the set of
// valid words and the set of all their non-empty prefixes.
package lexicon

import (
	"fmt"
	"sort"
	"strings"

	"morsedecoder.com/mdc/logger"
	"morsedecoder.com/mdc/utils"
)

// Lexicon is immutable once built and may be shared by concurrent decodes.
type Lexicon struct {
	words    map[string]struct{}
	prefixes map[string]struct{}
	hash     uint64
}

// New builds a lexicon from words. Words are upper-cased; anything that is not
// purely A-Z after that is dropped.
func New(words ...string) *Lexicon {
	lex := &Lexicon{
		words:    make(map[string]struct{}, len(words)),
		prefixes: make(map[string]struct{}, len(words)*3),
	}
	for _, word := range words {
		word = strings.ToUpper(strings.TrimSpace(word))
		if !isAlphabetic(word) {
			continue
		}
		lex.words[word] = struct{}{}
		for j := 1; j <= len(word); j++ {
			lex.prefixes[word[:j]] = struct{}{}
		}
	}
	lex.hash = utils.HashSet(lex.Words())
	return lex
}

// Load reads a word list with one word per line and adds extra to it.
func Load(path string, extra ...string) (*Lexicon, error) {
	mdcLogger := logger.NewLogger("Lexicon loader").With().Str("path", path).Logger()
	mdcLogger.Info().Msg("Started loading")

	words, err := utils.ReadList(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read word list %s: %w", path, err)
	}
	lex := New(append(words, extra...)...)

	mdcLogger.Info().
		Int("lines", len(words)).
		Int("words", lex.Len()).
		Int("prefixes", len(lex.prefixes)).
		Str("lexicon_hash", fmt.Sprintf("%X", lex.hash)).
		Msg("Lexicon loaded")
	return lex, nil
}

func (lex *Lexicon) IsWord(s string) bool {
	_, ok := lex.words[s]
	return ok
}

func (lex *Lexicon) IsPrefix(s string) bool {
	_, ok := lex.prefixes[s]
	return ok
}

func (lex *Lexicon) Len() int {
	return len(lex.words)
}

// Hash identifies the word set independently of load order.
func (lex *Lexicon) Hash() uint64 {
	return lex.hash
}

// Words returns the sorted word list.
func (lex *Lexicon) Words() []string {
	result := make([]string, 0, len(lex.words))
	for w := range lex.words {
		result = append(result, w)
	}
	sort.Strings(result)
	return result
}

func isAlphabetic(word string) bool {
	if len(word) == 0 {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'A' || word[i] > 'Z' {
			return false
		}
	}
	return true
}
