package ngrams

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"morsedecoder.com/mdc/logger"
	"morsedecoder.com/mdc/utils"
)

type Cache interface {
	Load(key string) (Table, bool, error)
	Store(key string, table Table) error
}

// lockingCache is implemented by caches shared between processes, so that
// only one of them scans the corpus for a given vocabulary.
type lockingCache interface {
	Cache
	Lock(key string) (release func() error, err error)
}

// Provider builds n-gram tables from a corpus file, remembering them per vocabulary.
type Provider struct {
	corpusPath string
	cache      Cache
	open       func(path string) (io.ReadCloser, error)
	mdcLogger  zerolog.Logger
}

// NewProvider returns a provider reading corpusPath. cache may be nil.
func NewProvider(corpusPath string, cache Cache) *Provider {
	return &Provider{
		corpusPath: corpusPath,
		cache:      cache,
		open:       openFile,
		mdcLogger:  logger.NewLogger("NGram provider").With().Str("corpus", corpusPath).Logger(),
	}
}

// CacheKey identifies a vocabulary regardless of word order.
func CacheKey(vocab []string) string {
	return fmt.Sprintf("ngrams-%X", utils.HashSet(vocab))
}

// Table returns the corpus n-grams made only of words from vocab.
func (p *Provider) Table(vocab []string) (Table, error) {
	key := CacheKey(vocab)
	tableLogger := p.mdcLogger.With().Str("cache_key", key).Int("vocabulary", len(vocab)).Logger()

	if table, ok := p.load(key, &tableLogger); ok {
		return table, nil
	}

	if locking, ok := p.cache.(lockingCache); ok {
		release, err := locking.Lock(key)
		if err != nil {
			tableLogger.Warn().Err(err).Msg("Could not lock n-gram cache, building without lock")
		} else {
			defer func() {
				if err := release(); err != nil {
					tableLogger.Warn().Err(err).Msg("Failed to release n-gram cache lock")
				}
			}()
			// another process may have built it while we waited
			if table, ok := p.load(key, &tableLogger); ok {
				return table, nil
			}
		}
	}

	tableLogger.Info().Msg("Building n-gram table from corpus")
	table, err := p.scan(vocab)
	if err != nil {
		return nil, err
	}
	tableLogger.Info().Int("ngrams", len(table)).Msg("Built n-gram table")

	if p.cache != nil {
		if err := p.cache.Store(key, table); err != nil {
			tableLogger.Warn().Err(err).Msg("Failed to store n-gram table in cache")
		}
	}
	return table, nil
}

func (p *Provider) load(key string, tableLogger *zerolog.Logger) (Table, bool) {
	if p.cache == nil {
		return nil, false
	}
	table, ok, err := p.cache.Load(key)
	if err != nil {
		tableLogger.Warn().Err(err).Msg("Failed to read n-gram cache")
		return nil, false
	}
	if ok {
		tableLogger.Debug().Msg("Loaded n-gram table from cache")
	}
	return table, ok
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (p *Provider) scan(vocab []string) (Table, error) {
	f, err := p.open(p.corpusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()
	return ParseCorpus(p.corpusPath, f, NewVocabulary(vocab))
}
