package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/model"
	apperrors "github.com/docsift/docsift/internal/pkg/errors"
)

// WeaviateStore is the alternate backend for deployments that already run
// Weaviate. Vectors are supplied by the embedding gateway, so the class is
// created with vectorizer "none". Distance is Weaviate's native metric
// (cosine distance by default), lower is better.
type WeaviateStore struct {
	client *weaviate.Client
	class  string
}

func NewWeaviateStore(cfg config.WeaviateConfig) (*WeaviateStore, error) {
	scheme := "http"
	if strings.HasPrefix(cfg.Host, "https") {
		scheme = "https"
	}
	host := strings.TrimPrefix(strings.TrimPrefix(cfg.Host, "https://"), "http://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	store := &WeaviateStore{client: client, class: cfg.Class}
	if err := store.ensureClass(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *WeaviateStore) ensureClass(ctx context.Context) error {
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return fmt.Errorf("get weaviate schema: %w", err)
	}
	for _, class := range schema.Classes {
		if class.Class == s.class {
			return nil
		}
	}
	classObj := &models.Class{
		Class: s.class,
		Properties: []*models.Property{
			{Name: "chunkId", DataType: []string{"text"}},
			{Name: "docId", DataType: []string{"text"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "metaJson", DataType: []string{"text"}},
		},
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
	}
	if err := s.client.Schema().ClassCreator().WithClass(classObj).Do(ctx); err != nil {
		return fmt.Errorf("create weaviate class %s: %w", s.class, err)
	}
	return nil
}

func (s *WeaviateStore) Upsert(ctx context.Context, chunks []model.TextChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batcher := s.client.Batch().ObjectsBatcher()
		for _, chunk := range chunks[start:end] {
			metaBlob, err := json.Marshal(model.SanitizeMetadata(chunk.Metadata))
			if err != nil {
				return fmt.Errorf("%w: encode metadata for %s: %v", apperrors.ErrStore, chunk.ChunkID, err)
			}
			batcher = batcher.WithObjects(&models.Object{
				Class: s.class,
				// Deterministic ids make re-ingesting a document an upsert.
				ID: objectID(chunk.ChunkID),
				Properties: map[string]interface{}{
					"chunkId":  chunk.ChunkID,
					"docId":    chunk.DocID,
					"content":  chunk.Text,
					"metaJson": string(metaBlob),
				},
				Vector: chunk.Embedding,
			})
		}
		if _, err := batcher.Do(ctx); err != nil {
			return fmt.Errorf("%w: upsert batch %d-%d: %v", apperrors.ErrStore, start, end, err)
		}
	}
	return nil
}

func (s *WeaviateStore) Query(ctx context.Context, embedding []float32, k int, allowedDocIDs []string) ([]model.RetrievedCandidate, error) {
	if allowedDocIDs != nil && len(allowedDocIDs) == 0 {
		return nil, nil
	}
	fields := []graphql.Field{
		{Name: "chunkId"},
		{Name: "content"},
		{Name: "metaJson"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(embedding)
	getBuilder := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(k)
	if len(allowedDocIDs) > 0 {
		getBuilder = getBuilder.WithWhere(filters.Where().
			WithPath([]string{"docId"}).
			WithOperator(filters.ContainsAny).
			WithValueText(allowedDocIDs...))
	}
	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: query chunks: %v", apperrors.ErrStore, err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("%w: query chunks: %s", apperrors.ErrStore, result.Errors[0].Message)
	}

	var out []model.RetrievedCandidate
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return out, nil
	}
	items, _ := data[s.class].([]interface{})
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		cand := model.RetrievedCandidate{}
		cand.ChunkID, _ = obj["chunkId"].(string)
		cand.Text, _ = obj["content"].(string)
		if metaJSON, ok := obj["metaJson"].(string); ok && metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &cand.Metadata)
		}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				cand.Distance = distance
				cand.HasDistance = true
			}
		}
		out = append(out, cand)
	}
	return out, nil
}

func (s *WeaviateStore) DeleteByDoc(ctx context.Context, docID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(s.class).
		WithWhere(filters.Where().
			WithPath([]string{"docId"}).
			WithOperator(filters.Equal).
			WithValueText(docID)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete chunks for %s: %v", apperrors.ErrStore, docID, err)
	}
	return nil
}

func (s *WeaviateStore) Count(ctx context.Context) (int64, error) {
	result, err := s.client.GraphQL().Aggregate().
		WithClassName(s.class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count chunks: %v", apperrors.ErrStore, err)
	}
	if len(result.Errors) > 0 {
		return 0, fmt.Errorf("%w: count chunks: %s", apperrors.ErrStore, result.Errors[0].Message)
	}
	data, ok := result.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	items, _ := data[s.class].([]interface{})
	if len(items) == 0 {
		return 0, nil
	}
	obj, _ := items[0].(map[string]interface{})
	meta, _ := obj["meta"].(map[string]interface{})
	count, _ := meta["count"].(float64)
	return int64(count), nil
}

func objectID(chunkID string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String())
}
