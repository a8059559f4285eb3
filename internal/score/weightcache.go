package score

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/internal/store"
	"github.com/wonny/ygscore/pkg/logger"
	"github.com/wonny/ygscore/pkg/redis"
)

// WeightCache serves constituent weights with an explicit lifetime.
// 갱신은 Refresh/Invalidate 호출로만 일어난다. 레디스가 꺼져 있으면
// 프로세스 내 캐시만 쓴다.
type WeightCache struct {
	repo   *store.WeightRepository
	cache  *redis.Cache
	logger *logger.Logger

	mu     sync.RWMutex
	loaded bool
	local  []contracts.ConstituentWeight
}

// NewWeightCache creates a new weight cache
func NewWeightCache(repo *store.WeightRepository, cache *redis.Cache, log *logger.Logger) *WeightCache {
	return &WeightCache{repo: repo, cache: cache, logger: log}
}

// Get returns the cached weights, loading them on first use.
func (w *WeightCache) Get(ctx context.Context) ([]contracts.ConstituentWeight, error) {
	w.mu.RLock()
	if w.loaded {
		weights := w.local
		w.mu.RUnlock()
		return weights, nil
	}
	w.mu.RUnlock()

	return w.Refresh(ctx)
}

// Refresh reloads weights, preferring redis over the database.
func (w *WeightCache) Refresh(ctx context.Context) ([]contracts.ConstituentWeight, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var weights []contracts.ConstituentWeight
	hit, err := w.cache.Get(ctx, redis.WeightsKey(), &weights)
	if err != nil {
		w.logger.WithError(err).Warn("Weight cache read failed, falling back to database")
	}

	if !hit {
		weights, err = w.repo.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load weights: %w", err)
		}
		if err := w.cache.Set(ctx, redis.WeightsKey(), weights, redis.TTLHourly); err != nil {
			w.logger.WithError(err).Warn("Weight cache write failed")
		}
	}

	w.local = weights
	w.loaded = true

	w.logger.WithFields(map[string]interface{}{
		"count":     len(weights),
		"redis_hit": hit,
	}).Debug("Constituent weights refreshed")

	return weights, nil
}

// Invalidate drops both cache layers. 다음 Get에서 DB를 다시 읽는다.
func (w *WeightCache) Invalidate(ctx context.Context) error {
	w.mu.Lock()
	w.loaded = false
	w.local = nil
	w.mu.Unlock()

	return w.cache.Delete(ctx, redis.WeightsKey())
}
