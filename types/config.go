package types

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// features
	FeatureCount     = "count"
	FeatureShortest  = "shortest"
	FeatureScored    = "scored"
	FeatureSentences = "sentences"

	// n-gram cache backends
	NGramCacheNone  = "none"
	NGramCacheFile  = "file"
	NGramCacheRedis = "redis"

	defaultMaxStreamLength = 512
	defaultMaxSentences    = 20
	defaultCacheDir        = "ngrams_cache"
	defaultCacheTTLHours   = 24 * 7
)

var knownFeatures = []string{FeatureCount, FeatureShortest, FeatureScored, FeatureSentences}

type LexiconConfig struct {
	Path       string   `yaml:"path" json:"path"`
	ExtraWords []string `yaml:"extra_words" json:"extra_words"`
}

type NGramConfig struct {
	CorpusPath    string `yaml:"corpus_path" json:"corpus_path"`
	Cache         string `yaml:"cache" json:"cache"`
	CacheDir      string `yaml:"cache_dir" json:"cache_dir"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" json:"cache_ttl_hours"`
}

func (cfg NGramConfig) CacheTTL() time.Duration {
	return time.Duration(cfg.CacheTTLHours) * time.Hour
}

type Configuration struct {
	Name            string        `yaml:"name" json:"name"`
	FilePath        string        `yaml:"-" json:"file_path"`
	Lexicon         LexiconConfig `yaml:"lexicon" json:"lexicon"`
	NGrams          NGramConfig   `yaml:"ngrams" json:"ngrams"`
	Features        []string      `yaml:"features" json:"features"`
	MaxStreamLength int           `yaml:"max_stream_length" json:"max_stream_length"`
	MaxSentences    int           `yaml:"max_sentences" json:"max_sentences"`
}

func (cfg Configuration) CheckFeature(featureName string) bool {
	for _, feat := range cfg.Features {
		if feat == featureName {
			return true
		}
	}

	return false
}

// LoadConfiguration reads a YAML configuration file. Relative paths inside it
// are resolved against the directory of the file.
func LoadConfiguration(filePath string) (Configuration, error) {
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return Configuration{}, err
	}
	cfg := Configuration{FilePath: filePath}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	cfg.applyDefaults(filepath.Dir(filePath))
	if err := cfg.Validate(); err != nil {
		return Configuration{}, fmt.Errorf("invalid configuration %s: %w", filePath, err)
	}
	return cfg, nil
}

func (cfg *Configuration) applyDefaults(baseDir string) {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if len(cfg.Features) == 0 {
		cfg.Features = []string{FeatureCount, FeatureShortest}
		if cfg.NGrams.CorpusPath != "" {
			cfg.Features = append(cfg.Features, FeatureScored)
		}
	}
	if cfg.MaxStreamLength == 0 {
		cfg.MaxStreamLength = defaultMaxStreamLength
	}
	if cfg.MaxSentences == 0 {
		cfg.MaxSentences = defaultMaxSentences
	}
	if cfg.NGrams.Cache == "" {
		cfg.NGrams.Cache = NGramCacheFile
	}
	if cfg.NGrams.CacheDir == "" {
		cfg.NGrams.CacheDir = defaultCacheDir
	}
	if cfg.NGrams.CacheTTLHours == 0 {
		cfg.NGrams.CacheTTLHours = defaultCacheTTLHours
	}

	cfg.Lexicon.Path = resolve(baseDir, cfg.Lexicon.Path)
	cfg.NGrams.CorpusPath = resolve(baseDir, cfg.NGrams.CorpusPath)
	cfg.NGrams.CacheDir = resolve(baseDir, cfg.NGrams.CacheDir)
}

func (cfg Configuration) Validate() error {
	if cfg.Lexicon.Path == "" {
		return errors.New("lexicon path is required")
	}
	for _, feat := range cfg.Features {
		if !isKnownFeature(feat) {
			return fmt.Errorf("unknown feature %q", feat)
		}
	}
	if cfg.CheckFeature(FeatureScored) && cfg.NGrams.CorpusPath == "" {
		return errors.New("feature \"scored\" requires ngrams.corpus_path")
	}
	switch cfg.NGrams.Cache {
	case NGramCacheNone, NGramCacheFile, NGramCacheRedis:
	default:
		return fmt.Errorf("unknown n-gram cache %q", cfg.NGrams.Cache)
	}
	if cfg.MaxStreamLength < 0 || cfg.MaxSentences < 0 {
		return errors.New("limits must not be negative")
	}
	return nil
}

func isKnownFeature(name string) bool {
	for _, feat := range knownFeatures {
		if feat == name {
			return true
		}
	}
	return false
}

func resolve(baseDir string, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
