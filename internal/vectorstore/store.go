package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/model"
)

// Store is the similarity-search capability the core depends on. Upsert
// and DeleteByDoc must be atomic per call: a concurrent reader sees either
// all chunks of a batch or none of them.
type Store interface {
	// Upsert writes chunks, replacing any existing chunk with the same id.
	Upsert(ctx context.Context, chunks []model.TextChunk) error
	// Query returns the k nearest candidates, nearest first. A nil
	// allowedDocIDs searches everything; a non-nil slice restricts hits
	// to those documents.
	Query(ctx context.Context, embedding []float32, k int, allowedDocIDs []string) ([]model.RetrievedCandidate, error)
	// DeleteByDoc removes every chunk of one document and no others.
	DeleteByDoc(ctx context.Context, docID string) error
	// Count reports how many chunks the store holds.
	Count(ctx context.Context) (int64, error)
}

// New builds the configured store backend. The db handle is only needed
// for the pgvector backend and may be nil otherwise.
func New(cfg config.VectorStoreConfig, db *sqlx.DB) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "pgvector":
		if db == nil {
			return nil, fmt.Errorf("pgvector store requires a database handle")
		}
		return NewPgvectorStore(db), nil
	case "weaviate":
		return NewWeaviateStore(cfg.Weaviate)
	default:
		return nil, fmt.Errorf("unsupported vector store type: %s", cfg.Type)
	}
}
