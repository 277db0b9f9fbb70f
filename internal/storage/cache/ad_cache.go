package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rajivgeraev/flippy-exchange/internal/models"
	"github.com/rajivgeraev/flippy-exchange/internal/storage"
)

const (
	adKeyPrefix  = "ad:"
	defaultAdTTL = 5 * time.Minute
)

// AdCache кэширует объявления в Redis поверх любого AdRegistry.
// Ошибки Redis не ломают чтение: запрос уходит в исходное хранилище.
type AdCache struct {
	origin storage.AdRegistry
	client redis.Cmdable
	ttl    time.Duration
}

var _ storage.AdRegistry = (*AdCache)(nil)

// NewAdCache создает кэш объявлений
func NewAdCache(origin storage.AdRegistry, client redis.Cmdable, ttl time.Duration) *AdCache {
	if ttl <= 0 {
		ttl = defaultAdTTL
	}
	return &AdCache{origin: origin, client: client, ttl: ttl}
}

func adKey(id uuid.UUID) string {
	return adKeyPrefix + id.String()
}

// GetAd возвращает объявление из кэша или из исходного хранилища
func (c *AdCache) GetAd(ctx context.Context, id uuid.UUID) (models.Ad, error) {
	data, err := c.client.Get(ctx, adKey(id)).Bytes()
	switch {
	case err == nil:
		var ad models.Ad
		if err := json.Unmarshal(data, &ad); err == nil {
			return ad, nil
		}
		log.Printf("Поврежденная запись кэша %s, читаем из хранилища", adKey(id))
	case !errors.Is(err, redis.Nil):
		log.Printf("Ошибка чтения кэша объявлений: %v", err)
	}

	ad, err := c.origin.GetAd(ctx, id)
	if err != nil {
		return models.Ad{}, err
	}

	if data, err := json.Marshal(ad); err == nil {
		if err := c.client.Set(ctx, adKey(id), data, c.ttl).Err(); err != nil {
			log.Printf("Ошибка записи кэша объявлений: %v", err)
		}
	}
	return ad, nil
}

// Invalidate удаляет объявление из кэша
func (c *AdCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, adKey(id)).Err()
}
