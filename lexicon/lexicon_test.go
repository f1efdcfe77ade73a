package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	lex := New("the", "Then", "cat's", "", "A", "x-ray", "THE")

	assert.Equal(t, 3, lex.Len())
	assert.Equal(t, []string{"A", "THE", "THEN"}, lex.Words())

	for _, w := range []string{"A", "THE", "THEN"} {
		assert.True(t, lex.IsWord(w), w)
	}
	assert.False(t, lex.IsWord("TH"))
	assert.False(t, lex.IsWord("the"))

	for _, p := range []string{"T", "TH", "THE", "THEN", "A"} {
		assert.True(t, lex.IsPrefix(p), p)
	}
	assert.False(t, lex.IsPrefix(""))
	assert.False(t, lex.IsPrefix("C"))
	assert.False(t, lex.IsPrefix("HEN"))
}

func TestHash(t *testing.T) {
	assert.Equal(t, New("A", "B").Hash(), New("b", "a").Hash())
	assert.NotEqual(t, New("A", "B").Hash(), New("A", "C").Hash())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.en")
	require.NoError(t, os.WriteFile(path, []byte("paul\nhank\n\nhankin's\n"), 0600))

	lex, err := Load(path, "JILL", "hankin")
	require.NoError(t, err)
	assert.Equal(t, []string{"HANK", "HANKIN", "JILL", "PAUL"}, lex.Words())

	_, err = Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
