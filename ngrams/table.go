// Package ngrams supplies word n-gram frequency tables restricted to the
// vocabulary of a single decode.
package ngrams

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"morsedecoder.com/mdc/logger"
	"morsedecoder.com/mdc/utils"
)

// Table maps a space-joined word sequence to its corpus count.
type Table map[string]int

func Key(words ...string) string {
	return strings.Join(words, " ")
}

func (t Table) Count(words ...string) (int, bool) {
	c, ok := t[Key(words...)]
	return c, ok
}

func (t Table) Add(count int, words ...string) {
	t[Key(words...)] = count
}

type Vocabulary map[string]struct{}

func NewVocabulary(words []string) Vocabulary {
	vocab := make(Vocabulary, len(words))
	for _, w := range words {
		vocab[strings.ToUpper(w)] = struct{}{}
	}
	return vocab
}

func (v Vocabulary) Contains(words ...string) bool {
	for _, w := range words {
		if _, ok := v[w]; !ok {
			return false
		}
	}
	return true
}

// ParseCorpus reads lines of the form "<count> <word> [<word>...]" and keeps
// the sequences made only of vocabulary words. Words are upper-cased; lines
// with a malformed count are skipped. A read error discards the whole table.
func ParseCorpus(name string, r io.Reader, vocab Vocabulary) (Table, error) {
	mdcLogger := logger.NewLogger("Corpus parser").With().Str("corpus", name).Logger()

	table := make(Table)
	skipped := 0
	lines, readErr := utils.NewFieldReader(name, r)
	for fields := range lines {
		if len(fields) < 2 {
			skipped++
			continue
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil || count < 0 {
			skipped++
			continue
		}
		words := make([]string, len(fields)-1)
		for i, w := range fields[1:] {
			words[i] = strings.ToUpper(w)
		}
		if !vocab.Contains(words...) {
			continue
		}
		table.Add(count, words...)
	}

	if err := readErr(); err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", name, err)
	}
	if skipped > 0 {
		mdcLogger.Warn().Int("skipped", skipped).Msg("Skipped malformed corpus lines")
	}
	mdcLogger.Debug().Int("ngrams", len(table)).Msg("Parsed corpus")
	return table, nil
}
