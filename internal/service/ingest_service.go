package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docsift/docsift/internal/model"
	"github.com/docsift/docsift/internal/pipeline"
	apperrors "github.com/docsift/docsift/internal/pkg/errors"
	"github.com/docsift/docsift/internal/vectorstore"
)

// IngestService turns raw documents into embedded chunks and persists them.
type IngestService struct {
	processor *pipeline.Processor
	store     vectorstore.Store
}

func NewIngestService(processor *pipeline.Processor, store vectorstore.Store) *IngestService {
	return &IngestService{processor: processor, store: store}
}

// ProcessDocuments runs the chunking pipeline without touching the store.
func (s *IngestService) ProcessDocuments(ctx context.Context, docs []model.RawDocument) []model.TextChunk {
	return s.processor.Process(ctx, docs)
}

// Ingest processes docs and upserts the resulting chunks. Documents that
// fail inside the pipeline are skipped rather than failing the batch, so a
// batch whose documents all fail still succeeds with zero chunks. The call
// errors only when the batch itself is empty or the store rejects the write.
func (s *IngestService) Ingest(ctx context.Context, docs []model.RawDocument) (int, error) {
	logger := logutil.GetLogger(ctx)
	if len(docs) == 0 {
		return 0, fmt.Errorf("%w: no documents provided", apperrors.ErrIngestion)
	}
	chunks := s.processor.Process(ctx, docs)
	if len(chunks) == 0 {
		logger.Warn("no chunks produced, nothing to store", zap.Int("documents", len(docs)))
		return 0, nil
	}
	if err := s.store.Upsert(ctx, chunks); err != nil {
		return 0, err
	}
	logger.Info("documents ingested", zap.Int("documents", len(docs)), zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// DeleteDocument removes every chunk belonging to docID.
func (s *IngestService) DeleteDocument(ctx context.Context, docID string) error {
	if docID == "" {
		return fmt.Errorf("%w: empty doc id", apperrors.ErrInvalid)
	}
	return s.store.DeleteByDoc(ctx, docID)
}

// Count reports how many chunks the store currently holds.
func (s *IngestService) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}
