package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decoder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfiguration(t *testing.T) {
	path := writeConfig(t, `
name: english
lexicon:
  path: dict.en
  extra_words: [JILL]
ngrams:
  corpus_path: /data/gutenberg_ngrams.counted.sorted
  cache: redis
  cache_ttl_hours: 2
features: [count, shortest, scored, sentences]
max_sentences: 5
`)
	cfg, err := LoadConfiguration(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, "english", cfg.Name)
	assert.Equal(t, filepath.Join(dir, "dict.en"), cfg.Lexicon.Path)
	assert.Equal(t, []string{"JILL"}, cfg.Lexicon.ExtraWords)
	assert.Equal(t, "/data/gutenberg_ngrams.counted.sorted", cfg.NGrams.CorpusPath)
	assert.Equal(t, NGramCacheRedis, cfg.NGrams.Cache)
	assert.Equal(t, 2*time.Hour, cfg.NGrams.CacheTTL())
	assert.Equal(t, filepath.Join(dir, defaultCacheDir), cfg.NGrams.CacheDir)
	assert.Equal(t, 5, cfg.MaxSentences)
	assert.Equal(t, defaultMaxStreamLength, cfg.MaxStreamLength)
	assert.True(t, cfg.CheckFeature(FeatureSentences))
}

func TestLoadConfigurationDefaults(t *testing.T) {
	cfg, err := LoadConfiguration(writeConfig(t, "lexicon: {path: /dict.en}\n"))
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, []string{FeatureCount, FeatureShortest}, cfg.Features)
	assert.Equal(t, NGramCacheFile, cfg.NGrams.Cache)
	assert.False(t, cfg.CheckFeature(FeatureScored))

	cfg, err = LoadConfiguration(writeConfig(t, "lexicon: {path: /dict.en}\nngrams: {corpus_path: /corpus}\n"))
	require.NoError(t, err)
	assert.True(t, cfg.CheckFeature(FeatureScored))
}

func TestLoadConfigurationErrors(t *testing.T) {
	cases := map[string]string{
		"Missing lexicon":       "features: [count]\n",
		"Unknown feature":       "lexicon: {path: d}\nfeatures: [count, telepathy]\n",
		"Scored without corpus": "lexicon: {path: d}\nfeatures: [scored]\n",
		"Unknown cache":         "lexicon: {path: d}\nngrams: {cache: memcached}\n",
		"Negative limit":        "lexicon: {path: d}\nmax_sentences: -1\n",
		"Malformed yaml":        "lexicon: [\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfiguration(writeConfig(t, content))
			require.Error(t, err)
		})
	}

	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
