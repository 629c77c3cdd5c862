package ai_test

import (
	"os"
	"path/filepath"
	"testing"

	"thinkink-backend/internal/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParamsDefaults(t *testing.T) {
	params, err := ai.LoadParams("")
	require.NoError(t, err)

	defaults := params.For("quiz")
	assert.Equal(t, 0.7, defaults.Temperature)
	assert.Equal(t, 0.9, defaults.TopP)
	assert.Equal(t, 2048, defaults.MaxTokens)
	assert.True(t, defaults.JSON)

	// Image and pdf completions are prose, not JSON.
	assert.False(t, params.For("image").JSON)
	assert.False(t, params.For("pdf").JSON)
	assert.Equal(t, 0.3, params.For("translate").Temperature)
}

func writeParams(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParamsOverride(t *testing.T) {
	path := writeParams(t, `
defaults:
  temperature: 0.2
  top_p: 0.8
  max_tokens: 1024
  json: true

features:
  quiz:
    temperature: 0.95
    top_p: 0.9
    max_tokens: 4096
    json: true
`)

	params, err := ai.LoadParams(path)
	require.NoError(t, err)

	assert.Equal(t, 0.95, params.For("quiz").Temperature)
	assert.Equal(t, 4096, params.For("quiz").MaxTokens)

	assert.Equal(t, 0.2, params.For("notes").Temperature, "unlisted features should use the override defaults")
	assert.False(t, params.For("image").JSON, "builtin feature entries survive a partial override")
}

func TestLoadParamsOverrideFeaturesOnly(t *testing.T) {
	path := writeParams(t, `
features:
  eli5:
    temperature: 1.0
    top_p: 0.9
    max_tokens: 512
    json: true
`)

	params, err := ai.LoadParams(path)
	require.NoError(t, err)

	assert.Equal(t, 1.0, params.For("eli5").Temperature)
	assert.Equal(t, 0.7, params.For("notes").Temperature, "builtin defaults stay when the override omits them")
}

func TestLoadParamsOverrideErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ai.LoadParams(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading params override")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeParams(t, "defaults: [not, a, map")
		_, err := ai.LoadParams(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error parsing params override")
	})
}
