package cached

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/redis"
	"github.com/frontandrew/tollplaza/internal/repository/memory"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededTollRepo(t *testing.T) *memory.TollRepository {
	t.Helper()

	repo := memory.NewTollRepository()
	require.NoError(t, repo.Create(context.Background(), &domain.Toll{
		ID:   "T1",
		Name: "Expressway Toll",
		Booths: []*domain.TollBooth{
			{ID: "T1-B1", Name: "Booth 1", VehiclesProcessed: 5, TotalChargesCollected: 300},
		},
	}))
	return repo
}

func TestTollRepository_ListBoothStats(t *testing.T) {
	ctx := context.Background()

	t.Run("cache miss falls through and populates", func(t *testing.T) {
		inner := seededTollRepo(t)
		db, mock := redismock.NewClientMock()
		repo := NewTollRepository(inner, redis.NewFromClient(db))

		expected, err := inner.ListBoothStats(ctx)
		require.NoError(t, err)
		payload, err := json.Marshal(expected)
		require.NoError(t, err)

		mock.ExpectGet(boothStatsCacheKey).RedisNil()
		mock.ExpectSet(boothStatsCacheKey, payload, boothStatsCacheTTL).SetVal("OK")

		booths, err := repo.ListBoothStats(ctx)
		require.NoError(t, err)
		require.Len(t, booths, 1)
		assert.Equal(t, "T1-B1", booths[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cache hit skips the database", func(t *testing.T) {
		// Empty inner repo: any result must come from the cache.
		inner := memory.NewTollRepository()
		db, mock := redismock.NewClientMock()
		repo := NewTollRepository(inner, redis.NewFromClient(db))

		cached := []*domain.TollBooth{
			{ID: "T1-B1", TollID: "T1", Name: "Booth 1", VehiclesProcessed: 42},
		}
		payload, err := json.Marshal(cached)
		require.NoError(t, err)

		mock.ExpectGet(boothStatsCacheKey).SetVal(string(payload))

		booths, err := repo.ListBoothStats(ctx)
		require.NoError(t, err)
		require.Len(t, booths, 1)
		assert.Equal(t, int64(42), booths[0].VehiclesProcessed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt cache entry is dropped", func(t *testing.T) {
		inner := seededTollRepo(t)
		db, mock := redismock.NewClientMock()
		repo := NewTollRepository(inner, redis.NewFromClient(db))

		expected, err := inner.ListBoothStats(ctx)
		require.NoError(t, err)
		payload, err := json.Marshal(expected)
		require.NoError(t, err)

		mock.ExpectGet(boothStatsCacheKey).SetVal("{not json")
		mock.ExpectDel(boothStatsCacheKey).SetVal(1)
		mock.ExpectSet(boothStatsCacheKey, payload, boothStatsCacheTTL).SetVal("OK")

		booths, err := repo.ListBoothStats(ctx)
		require.NoError(t, err)
		require.Len(t, booths, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTollRepository_WritesInvalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("increment booth stats", func(t *testing.T) {
		inner := seededTollRepo(t)
		db, mock := redismock.NewClientMock()
		repo := NewTollRepository(inner, redis.NewFromClient(db))

		mock.ExpectDel(boothStatsCacheKey).SetVal(1)

		err := repo.IncrementBoothStats(ctx, "T1", "T1-B1", 1, 50)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())

		// Write went through to the inner repo.
		booths, err := inner.ListBoothStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(6), booths[0].VehiclesProcessed)
		assert.Equal(t, int64(350), booths[0].TotalChargesCollected)
	})

	t.Run("create toll", func(t *testing.T) {
		inner := memory.NewTollRepository()
		db, mock := redismock.NewClientMock()
		repo := NewTollRepository(inner, redis.NewFromClient(db))

		mock.ExpectDel(boothStatsCacheKey).SetVal(1)

		err := repo.Create(ctx, &domain.Toll{
			ID:     "T1",
			Name:   "Toll",
			Booths: []*domain.TollBooth{{ID: "T1-B1", Name: "Booth 1"}},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed write does not invalidate", func(t *testing.T) {
		inner := memory.NewTollRepository()
		db, mock := redismock.NewClientMock()
		repo := NewTollRepository(inner, redis.NewFromClient(db))

		err := repo.IncrementBoothStats(ctx, "nope", "nope", 1, 0)
		assert.ErrorIs(t, err, domain.ErrBoothNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
