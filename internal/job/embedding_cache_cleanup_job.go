package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docsift/docsift/internal/embedcache"
)

// EmbeddingCacheCleanupJob evicts persistent cache rows past their keep
// window so the cache table does not grow without bound.
type EmbeddingCacheCleanupJob struct {
	cache    *embedcache.DBCache
	keepDays int
}

func NewEmbeddingCacheCleanupJob(cache *embedcache.DBCache, keepDays int) *EmbeddingCacheCleanupJob {
	return &EmbeddingCacheCleanupJob{cache: cache, keepDays: keepDays}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.cache == nil {
		return nil
	}
	keepDays := j.keepDays
	if keepDays <= 0 {
		keepDays = 30
	}
	cutoff := time.Now().Add(-time.Duration(keepDays) * 24 * time.Hour).Unix()
	deleted, err := j.cache.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("expired embedding cache rows removed", zap.Int64("deleted", deleted))
	}
	return nil
}
