package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3, cfg.Chunking.MaxHeadingDepth)
	assert.Equal(t, []string{"**/*.md"}, cfg.Corpus.Includes)
	assert.Equal(t, 5, cfg.Retrieve.TopK)
	assert.Equal(t, 4000, cfg.Generation.MaxContextChars)
	assert.Equal(t, "MOONSHOT_API_KEY", cfg.Generation.APIKeyEnv)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultConfig().Corpus.Includes, cfg.Corpus.Includes)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "docrag.yaml")

	content := `
corpus:
  data_path: knowledge_base/docs
  workers: 2
chunking:
  max_heading_depth: 2
categories:
  - key: redis
    label: Redis
  - key: jvm
    label: JVM
retrieve:
  top_k: 10
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "knowledge_base/docs", cfg.Corpus.DataPath)
	assert.Equal(t, 2, cfg.Corpus.Workers)
	assert.Equal(t, 2, cfg.Chunking.MaxHeadingDepth)
	assert.Equal(t, 10, cfg.Retrieve.TopK)
	require.Len(t, cfg.Categories, 2)
	assert.Equal(t, "redis", cfg.Categories[0].Key)
	assert.Equal(t, "JVM", cfg.Categories[1].Label)
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "docrag.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("corpus: [unclosed"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, ".docrag"), 0755))

	content := `
generation:
  max_context_chars: 8000
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".docrag", "config.yaml"), []byte(content), 0644))

	cfg, err := LoadFromDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Generation.MaxContextChars)
}

func TestLoadFromDirReadsWorkspaceDotEnv(t *testing.T) {
	require.Empty(t, os.Getenv("DOCRAG_LLM_MODEL"))
	t.Cleanup(func() { os.Unsetenv("DOCRAG_LLM_MODEL") })

	workspace := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(workspace, ".docrag"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(workspace, ".docrag", "config.yaml"), []byte("retrieve:\n  top_k: 3\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(workspace, ".env"), []byte("DOCRAG_LLM_MODEL=from-workspace\n"), 0644))

	cfg, err := LoadFromDir(workspace)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Retrieve.TopK)
	assert.Equal(t, "from-workspace", cfg.Generation.Model)
}

func TestLoadFromDirIgnoresWorkingDirectoryDotEnv(t *testing.T) {
	require.Empty(t, os.Getenv("DOCRAG_LLM_MODEL"))
	t.Cleanup(func() { os.Unsetenv("DOCRAG_LLM_MODEL") })

	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, ".env"), []byte("DOCRAG_LLM_MODEL=from-cwd\n"), 0644))
	t.Chdir(cwd)

	cfg, err := LoadFromDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Generation.Model, cfg.Generation.Model)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DOCRAG_DATA_PATH", "/srv/kb")
	t.Setenv("DOCRAG_TOP_K", "7")
	t.Setenv("DOCRAG_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/srv/kb", cfg.Corpus.DataPath)
	assert.Equal(t, 7, cfg.Retrieve.TopK)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, DefaultConfig().Corpus.Workers, cfg.Corpus.Workers)
}

func TestApplyEnvRejectsBadNumber(t *testing.T) {
	t.Setenv("DOCRAG_TOP_K", "many")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunking.MaxHeadingDepth = 7
	assert.ErrorContains(t, cfg.Validate(), "max_heading_depth")

	cfg = DefaultConfig()
	cfg.Logging.Level = "loud"
	assert.ErrorContains(t, cfg.Validate(), "logging.level")

	cfg = DefaultConfig()
	cfg.Corpus.Workers = 0
	assert.ErrorContains(t, cfg.Validate(), "workers")

	cfg = DefaultConfig()
	cfg.Generation.Provider = "ollama"
	assert.ErrorContains(t, cfg.Validate(), "generation.provider")

	cfg = DefaultConfig()
	cfg.Generation.Provider = ""
	assert.NoError(t, cfg.Validate())
}

func TestPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("/home/user/kb", ".docrag", "corpus.db"), IndexDBPath("/home/user/kb"))
	assert.Equal(t, filepath.Join("/home/user/kb", ".docrag", "search.bleve"), SearchIndexPath("/home/user/kb"))
}
