package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docsift/docsift/internal/model"
	apperrors "github.com/docsift/docsift/internal/pkg/errors"
)

const upsertBatchSize = 200

// PgvectorStore keeps chunks in a postgres table with a pgvector column.
// Distances come from the `<->` operator (L2), lower is better.
type PgvectorStore struct {
	db *sqlx.DB
}

func NewPgvectorStore(db *sqlx.DB) *PgvectorStore {
	return &PgvectorStore{db: db}
}

func (s *PgvectorStore) Upsert(ctx context.Context, chunks []model.TextChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	logger := logutil.GetLogger(ctx)
	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := s.upsertBatch(ctx, chunks[start:end]); err != nil {
			return fmt.Errorf("%w: upsert batch %d-%d: %v", apperrors.ErrStore, start, end, err)
		}
		logger.Debug("chunk batch stored", zap.Int("from", start), zap.Int("to", end))
	}
	return nil
}

func (s *PgvectorStore) upsertBatch(ctx context.Context, chunks []model.TextChunk) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO rag_chunks (chunk_id, doc_id, content, metadata, embedding) VALUES ")
	args := make([]interface{}, 0, len(chunks)*5)
	for i, chunk := range chunks {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5)
		metaBlob, err := json.Marshal(model.SanitizeMetadata(chunk.Metadata))
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", chunk.ChunkID, err)
		}
		args = append(args, chunk.ChunkID, chunk.DocID, chunk.Text, metaBlob, pgvector.NewVector(chunk.Embedding))
	}
	sb.WriteString(` ON CONFLICT (chunk_id) DO UPDATE SET
		doc_id = EXCLUDED.doc_id,
		content = EXCLUDED.content,
		metadata = EXCLUDED.metadata,
		embedding = EXCLUDED.embedding`)
	// Single statement per batch keeps the write atomic for readers.
	_, err := s.db.ExecContext(ctx, sb.String(), args...)
	return err
}

func (s *PgvectorStore) Query(ctx context.Context, embedding []float32, k int, allowedDocIDs []string) ([]model.RetrievedCandidate, error) {
	query := `SELECT chunk_id, content, metadata, embedding <-> ? AS distance FROM rag_chunks`
	args := []interface{}{pgvector.NewVector(embedding)}
	if allowedDocIDs != nil {
		if len(allowedDocIDs) == 0 {
			return nil, nil
		}
		query += ` WHERE doc_id IN (?)`
		args = append(args, allowedDocIDs)
	}
	query += ` ORDER BY distance ASC LIMIT ?`
	args = append(args, k)

	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: build query: %v", apperrors.ErrStore, err)
	}
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(expanded), expandedArgs...)
	if err != nil {
		return nil, fmt.Errorf("%w: query chunks: %v", apperrors.ErrStore, err)
	}
	defer rows.Close()

	var out []model.RetrievedCandidate
	for rows.Next() {
		var cand model.RetrievedCandidate
		var metaBlob []byte
		if err := rows.Scan(&cand.ChunkID, &cand.Text, &metaBlob, &cand.Distance); err != nil {
			return nil, fmt.Errorf("%w: scan chunk: %v", apperrors.ErrStore, err)
		}
		cand.HasDistance = true
		if len(metaBlob) > 0 {
			if err := json.Unmarshal(metaBlob, &cand.Metadata); err != nil {
				logutil.GetLogger(ctx).Warn("dropping unreadable chunk metadata",
					zap.String("chunk_id", cand.ChunkID), zap.Error(err))
			}
		}
		out = append(out, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate chunks: %v", apperrors.ErrStore, err)
	}
	return out, nil
}

func (s *PgvectorStore) DeleteByDoc(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rag_chunks WHERE doc_id = $1`, docID)
	if err != nil {
		return fmt.Errorf("%w: delete chunks for %s: %v", apperrors.ErrStore, docID, err)
	}
	if affected, err := res.RowsAffected(); err == nil {
		logutil.GetLogger(ctx).Info("chunks deleted",
			zap.String("doc_id", docID), zap.Int64("count", affected))
	}
	return nil
}

func (s *PgvectorStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM rag_chunks`); err != nil {
		return 0, fmt.Errorf("%w: count chunks: %v", apperrors.ErrStore, err)
	}
	return count, nil
}
