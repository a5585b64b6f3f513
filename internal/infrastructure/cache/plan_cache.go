package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hostpanel/backend/internal/domain/catalog"
)

// CachedPlanRepository wraps a catalog.PlanRepository with a Redis
// read-through cache. Pricing rows change rarely but are read on every
// charge, so a short TTL keeps sweep load off the pricing tables.
//
// Redis failures degrade to the delegate: a broken cache must never stop
// billing. Not-found results are not cached, so newly created plans become
// visible immediately.
type CachedPlanRepository struct {
	delegate catalog.PlanRepository
	client   *redis.Client
	ttl      time.Duration
	logger   *zap.Logger
}

const (
	planKeyPrefix  = "billing:plan:"
	addonKeyPrefix = "billing:addon:"
)

// NewCachedPlanRepository creates a caching wrapper around delegate.
// A nil client disables caching entirely and every call passes through.
func NewCachedPlanRepository(delegate catalog.PlanRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedPlanRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedPlanRepository{
		delegate: delegate,
		client:   client,
		ttl:      ttl,
		logger:   logger,
	}
}

// FindPlan returns the cached plan when present, otherwise loads it from
// the delegate and populates the cache.
func (r *CachedPlanRepository) FindPlan(ctx context.Context, id uuid.UUID) (*catalog.Plan, error) {
	key := planKeyPrefix + id.String()

	var cached catalog.Plan
	if r.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	plan, err := r.delegate.FindPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, plan)
	return plan, nil
}

// FindBackupAddOn returns the cached add-on when present, otherwise loads
// it from the delegate and populates the cache.
func (r *CachedPlanRepository) FindBackupAddOn(ctx context.Context, id uuid.UUID) (*catalog.BackupAddOn, error) {
	key := addonKeyPrefix + id.String()

	var cached catalog.BackupAddOn
	if r.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	addon, err := r.delegate.FindBackupAddOn(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, addon)
	return addon, nil
}

// Invalidate drops both cache entries for a pricing row, called after an
// admin updates plan or add-on pricing.
func (r *CachedPlanRepository) Invalidate(ctx context.Context, id uuid.UUID) error {
	if r.client == nil {
		return nil
	}
	return r.client.Del(ctx, planKeyPrefix+id.String(), addonKeyPrefix+id.String()).Err()
}

func (r *CachedPlanRepository) lookup(ctx context.Context, key string, out any) bool {
	if r.client == nil {
		return false
	}
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("Plan cache read failed, falling through to database",
				zap.String("key", key),
				zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		r.logger.Warn("Plan cache entry corrupt, falling through to database",
			zap.String("key", key),
			zap.Error(err))
		return false
	}
	return true
}

func (r *CachedPlanRepository) store(ctx context.Context, key string, value any) {
	if r.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("Plan cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("Plan cache write failed", zap.String("key", key), zap.Error(err))
	}
}

var _ catalog.PlanRepository = (*CachedPlanRepository)(nil)
