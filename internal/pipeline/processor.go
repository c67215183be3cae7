package pipeline

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docsift/docsift/internal/ai"
	"github.com/docsift/docsift/internal/model"
)

// Processor runs the clean -> chunk -> embed pipeline over raw documents.
// It has no storage side effects; committing chunks is the caller's job.
type Processor struct {
	embedder ai.IEmbedder
	chunker  Chunker
}

func NewProcessor(embedder ai.IEmbedder, chunker Chunker) *Processor {
	if chunker == nil {
		chunker = NewSentenceChunker(DefaultSentencesPerChunk)
	}
	return &Processor{embedder: embedder, chunker: chunker}
}

// Process turns raw documents into storable chunks. A document that fails
// at any step (missing id or text, empty after cleaning, zero chunks,
// embedding failure) is logged and skipped; one bad document never aborts
// the batch. Chunks of the same document stay contiguous with ascending
// chunk numbers.
func (p *Processor) Process(ctx context.Context, docs []model.RawDocument) []model.TextChunk {
	logger := logutil.GetLogger(ctx)
	var out []model.TextChunk
	for i, doc := range docs {
		if doc.DocID == "" || doc.Text == "" {
			logger.Warn("skipping document with missing id or text", zap.Int("index", i))
			continue
		}
		sourceType := doc.SourceType()
		logger.Info("processing document",
			zap.Int("index", i),
			zap.Int("total", len(docs)),
			zap.String("doc_id", doc.DocID),
			zap.String("source_type", string(sourceType)))

		cleaned := Normalize(ctx, doc.Text, sourceType)
		if cleaned == "" {
			logger.Warn("document empty after cleaning, skipping", zap.String("doc_id", doc.DocID))
			continue
		}

		texts := p.chunker.Chunk(cleaned)
		if len(texts) == 0 {
			logger.Warn("document produced no chunks, skipping", zap.String("doc_id", doc.DocID))
			continue
		}

		embeddings, err := p.embedder.EmbedBatch(ctx, texts, ai.TaskRetrievalDocument)
		if err != nil {
			logger.Error("embedding failed, skipping document",
				zap.String("doc_id", doc.DocID), zap.Error(err))
			continue
		}
		if len(embeddings) != len(texts) {
			logger.Error("embedding count mismatch, skipping document",
				zap.String("doc_id", doc.DocID),
				zap.Int("chunks", len(texts)),
				zap.Int("embeddings", len(embeddings)))
			continue
		}

		for n, text := range texts {
			out = append(out, model.TextChunk{
				ChunkID:   model.ChunkID(doc.DocID, n),
				DocID:     doc.DocID,
				Text:      text,
				Embedding: embeddings[n],
				Metadata: model.MergeMetadata(doc.Metadata, map[string]interface{}{
					"chunk_number": n,
				}),
			})
		}
	}
	logger.Info("document processing completed",
		zap.Int("documents", len(docs)), zap.Int("chunks", len(out)))
	return out
}
