package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "adsbot:session:"

// RedisStore хранит сессии в JSON, TTL ключа совпадает с ExpiresAt.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(opt *redis.Options) *RedisStore {
	return &RedisStore{Client: redis.NewClient(opt)}
}

// redisKey: adsbot:session:<chat>:<user>
func redisKey(k Key) string {
	return fmt.Sprintf("%s%d:%d", keyPrefix, k.ChatID, k.UserID)
}

func (r *RedisStore) Get(ctx context.Context, k Key) (Session, error) {
	b, err := r.Client.Get(ctx, redisKey(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Idle(k), nil
	}
	if err != nil {
		return Idle(k), fmt.Errorf("get session %d/%d: %w", k.ChatID, k.UserID, err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Idle(k), fmt.Errorf("decode session %d/%d: %w", k.ChatID, k.UserID, err)
	}
	if s.Expired(time.Now()) {
		return Idle(k), nil
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	if s.State == StateIdle {
		return r.Clear(ctx, s.Key())
	}
	ttl := time.Until(s.ExpiresAt)
	if s.ExpiresAt.IsZero() {
		ttl = DefaultTTL
	}
	if ttl <= 0 {
		return r.Clear(ctx, s.Key())
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, redisKey(s.Key()), b, ttl).Err()
}

func (r *RedisStore) Clear(ctx context.Context, k Key) error {
	return r.Client.Del(ctx, redisKey(k)).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.Client.Close()
}
