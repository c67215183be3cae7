package embedcache

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docsift/docsift/internal/ai"
)

// DBCache persists embeddings keyed by (model, task, content hash) so that
// re-ingesting unchanged documents does not hit the provider again.
type DBCache struct {
	db *sqlx.DB
}

func NewDBCache(db *sqlx.DB) *DBCache {
	return &DBCache{db: db}
}

func (c *DBCache) Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	const query = `
		SELECT embedding
		FROM embedding_cache
		WHERE model_name = $1 AND task_type = $2 AND content_hash = $3
	`
	row := c.db.QueryRowContext(ctx, query, modelName, taskType, contentHash)
	var embedding pgvector.Vector
	if err := row.Scan(&embedding); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return embedding.Slice(), true, nil
}

func (c *DBCache) Save(ctx context.Context, modelName, taskType, contentHash string, embedding []float32) error {
	const query = `
		INSERT INTO embedding_cache (model_name, task_type, content_hash, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (model_name, task_type, content_hash) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	_, err := c.db.ExecContext(ctx, query,
		modelName, taskType, contentHash, pgvector.NewVector(embedding), time.Now().Unix())
	return err
}

// DeleteBefore drops cache entries older than cutoff (unix seconds) and
// returns how many rows went away.
func (c *DBCache) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	const query = `DELETE FROM embedding_cache WHERE ctime < $1`
	res, err := c.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// WrapDB layers the persistent cache over an embedder. Goes between the
// LRU layer and the provider so both caches stay coherent.
func WrapDB(e ai.IEmbedder, cache *DBCache) ai.IEmbedder {
	if e == nil || cache == nil {
		return e
	}
	return &dbEmbedder{next: e, cache: cache}
}

type dbEmbedder struct {
	next  ai.IEmbedder
	cache *DBCache
}

func (d *dbEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	res, err := d.EmbedBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

func (d *dbEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	logger := logutil.GetLogger(ctx)
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		_, contentHash := cacheKey(d.next.ModelName(), taskType, text)
		values, ok, err := d.cache.Get(ctx, d.next.ModelName(), taskType, contentHash)
		if err != nil {
			logger.Warn("embedding cache lookup failed", zap.Error(err))
		} else if ok {
			out[i] = values
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		logger.Debug("embedding batch fully served from db cache", zap.Int("total", len(texts)))
		return out, nil
	}
	fetched, err := d.next.EmbedBatch(ctx, missTexts, taskType)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		_, contentHash := cacheKey(d.next.ModelName(), taskType, missTexts[j])
		if err := d.cache.Save(ctx, d.next.ModelName(), taskType, contentHash, fetched[j]); err != nil {
			logger.Warn("failed to cache embedding", zap.Error(err))
		}
		out[idx] = fetched[j]
	}
	return out, nil
}

func (d *dbEmbedder) ModelName() string {
	return d.next.ModelName()
}
