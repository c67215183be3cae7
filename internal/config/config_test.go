package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"dsn": "postgres://localhost/docsift"},
		"ai": {"provider": "gemini", "chat_model": "g-chat", "embed_model": "g-embed", "args": {"key": "x"}}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "pgvector", cfg.VectorStore.Type)
	require.Equal(t, "sentence", cfg.Chunking.Strategy)
	require.Equal(t, 5, cfg.Chunking.SentencesPerChunk)
	require.Equal(t, 1000, cfg.Chunking.ChunkSize)
	require.Equal(t, 1.0, cfg.Query.DistanceThreshold)
	require.Equal(t, 10, cfg.Query.OversampleFloor)
	require.Equal(t, 5, cfg.Query.DefaultTopK)
	require.Equal(t, "LLM_NO_ANSWER_IN_CONTEXT", cfg.Query.Sentinel)
	require.Equal(t, 10000, cfg.EmbedCache.LRUSize)
	require.Equal(t, 60, cfg.AI.TimeoutSeconds)
}

func TestLoad_RequiresPort(t *testing.T) {
	path := writeConfig(t, `{
		"database": {"dsn": "postgres://localhost/docsift"},
		"ai": {"provider": "gemini", "chat_model": "c", "embed_model": "e"}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RequiresAIModels(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"dsn": "postgres://localhost/docsift"},
		"ai": {"provider": "gemini"}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_WeaviateRequiresHost(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"vector_store": {"type": "weaviate"},
		"ai": {"provider": "openai", "chat_model": "c", "embed_model": "e"}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_WeaviateForbidsDBCache(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"vector_store": {"type": "weaviate", "weaviate": {"host": "localhost:8080"}},
		"embed_cache": {"enable_db": true},
		"ai": {"provider": "openai", "chat_model": "c", "embed_model": "e"}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsUnknownChunkStrategy(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"dsn": "postgres://localhost/docsift"},
		"chunking": {"strategy": "paragraph"},
		"ai": {"provider": "gemini", "chat_model": "c", "embed_model": "e"}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}
