package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
	"github.com/rajivgeraev/flippy-exchange/internal/storage/mocks"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis недоступен: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestAdCache(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadThrough", func(t *testing.T) {
		client := getRedisClient(t)
		origin := new(mocks.AdRegistry)
		c := NewAdCache(origin, client, time.Minute)

		ad := models.Ad{
			ID:        uuid.New(),
			OwnerID:   uuid.New(),
			Title:     "Велосипед",
			Condition: models.ConditionUsed,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
		t.Cleanup(func() { client.Del(ctx, adKey(ad.ID)) })

		origin.On("GetAd", mock.Anything, ad.ID).Return(ad, nil).Once()

		first, err := c.GetAd(ctx, ad.ID)
		require.NoError(t, err)
		second, err := c.GetAd(ctx, ad.ID)
		require.NoError(t, err)

		assert.Equal(t, ad, first)
		assert.Equal(t, ad, second)
		origin.AssertExpectations(t)
	})

	t.Run("Invalidate", func(t *testing.T) {
		client := getRedisClient(t)
		origin := new(mocks.AdRegistry)
		c := NewAdCache(origin, client, time.Minute)

		ad := models.Ad{ID: uuid.New(), OwnerID: uuid.New(), Title: "Лыжи"}
		t.Cleanup(func() { client.Del(ctx, adKey(ad.ID)) })

		origin.On("GetAd", mock.Anything, ad.ID).Return(ad, nil).Twice()

		_, err := c.GetAd(ctx, ad.ID)
		require.NoError(t, err)
		require.NoError(t, c.Invalidate(ctx, ad.ID))
		_, err = c.GetAd(ctx, ad.ID)
		require.NoError(t, err)

		origin.AssertExpectations(t)
	})

	t.Run("NotFoundIsNotCached", func(t *testing.T) {
		client := getRedisClient(t)
		origin := new(mocks.AdRegistry)
		c := NewAdCache(origin, client, time.Minute)

		id := uuid.New()
		origin.On("GetAd", mock.Anything, id).Return(models.Ad{}, storage.ErrNotFound).Twice()

		_, err := c.GetAd(ctx, id)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = c.GetAd(ctx, id)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		origin.AssertExpectations(t)
	})

	t.Run("RedisDownFallsBack", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
		defer client.Close()
		origin := new(mocks.AdRegistry)
		c := NewAdCache(origin, client, time.Minute)

		ad := models.Ad{ID: uuid.New(), Title: "Палатка"}
		origin.On("GetAd", mock.Anything, ad.ID).Return(ad, nil).Once()

		got, err := c.GetAd(ctx, ad.ID)
		require.NoError(t, err)
		assert.Equal(t, ad, got)
		origin.AssertExpectations(t)
	})
}
