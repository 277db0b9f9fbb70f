package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "events:user:"

// UserChannel возвращает канал Redis, на который подписываются клиенты пользователя
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// RedisPublisher публикует события в Redis Pub/Sub, по каналу на пользователя
type RedisPublisher struct {
	client redis.Cmdable
}

// NewRedisPublisher создает новый экземпляр RedisPublisher
func NewRedisPublisher(client redis.Cmdable) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish отправляет событие в канал пользователя
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if event.UserID == "" {
		return fmt.Errorf("не указан получатель события %s", event.Type)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ошибка сериализации события: %w", err)
	}
	return p.client.Publish(ctx, UserChannel(event.UserID), data).Err()
}
