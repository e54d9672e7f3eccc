package cached

import (
	"context"
	"encoding/json"
	"time"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/redis"
	"github.com/frontandrew/tollplaza/internal/repository"
	redisv9 "github.com/redis/go-redis/v9"
)

const (
	boothStatsCacheKey = "leaderboard:booth_stats"
	boothStatsCacheTTL = 30 * time.Second
)

// TollRepository adds Redis caching for the leaderboard read path. Booth
// counters change on every passage and purchase, so the cache is short-TTL
// and invalidated on writes.
type TollRepository struct {
	repo  repository.TollRepository
	cache *redis.Client
}

// NewTollRepository wraps a toll repository with booth-stats caching.
func NewTollRepository(repo repository.TollRepository, cache *redis.Client) *TollRepository {
	return &TollRepository{
		repo:  repo,
		cache: cache,
	}
}

var _ repository.TollRepository = (*TollRepository)(nil)

// ListBoothStats serves the leaderboard from cache when possible.
func (r *TollRepository) ListBoothStats(ctx context.Context) ([]*domain.TollBooth, error) {
	cached, err := r.cache.Get(ctx, boothStatsCacheKey)
	if err == nil {
		var booths []*domain.TollBooth
		if jsonErr := json.Unmarshal([]byte(cached), &booths); jsonErr == nil {
			return booths, nil
		}
		// Corrupt cache entry: drop it and fall through to the DB.
		_ = r.cache.Del(ctx, boothStatsCacheKey)
	} else if err != redisv9.Nil {
		// Cache unavailable is not fatal, the DB still answers.
	}

	booths, err := r.repo.ListBoothStats(ctx)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(booths); jsonErr == nil {
		_ = r.cache.Set(ctx, boothStatsCacheKey, payload, boothStatsCacheTTL)
	}

	return booths, nil
}

// IncrementBoothStats writes through and invalidates the cached stats.
func (r *TollRepository) IncrementBoothStats(ctx context.Context, tollID, boothID string, vehiclesDelta, chargesDelta int64) error {
	if err := r.repo.IncrementBoothStats(ctx, tollID, boothID, vehiclesDelta, chargesDelta); err != nil {
		return err
	}

	_ = r.cache.Del(ctx, boothStatsCacheKey)
	return nil
}

// Create stores a toll and invalidates the cached stats (new booths).
func (r *TollRepository) Create(ctx context.Context, toll *domain.Toll) error {
	if err := r.repo.Create(ctx, toll); err != nil {
		return err
	}

	_ = r.cache.Del(ctx, boothStatsCacheKey)
	return nil
}

// Remaining reads are infrequent and go straight to the DB.

func (r *TollRepository) GetByID(ctx context.Context, id string) (*domain.Toll, error) {
	return r.repo.GetByID(ctx, id)
}

func (r *TollRepository) Exists(ctx context.Context, id string) (bool, error) {
	return r.repo.Exists(ctx, id)
}

func (r *TollRepository) List(ctx context.Context) ([]*domain.Toll, error) {
	return r.repo.List(ctx)
}

func (r *TollRepository) Count(ctx context.Context) (int, error) {
	return r.repo.Count(ctx)
}
