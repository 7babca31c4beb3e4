package placement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-overlay/internal/domain"
)

// RedisStore shares a profile's position between machines (streaming PC and
// control PC).
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, profile string) *RedisStore {
	return &RedisStore{rdb: rdb, key: keyPosition(profile)}
}

// NewRedisStoreFromURL parses a redis:// url and pings the server.
func NewRedisStoreFromURL(ctx context.Context, url, profile string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStore(rdb, profile), nil
}

func keyPosition(profile string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = "default"
	}
	return "overlay:position:" + profile
}

func (s *RedisStore) Key() string { return s.key }

func (s *RedisStore) Load(ctx context.Context) (domain.OverlayPosition, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.OverlayPosition{}, false, nil
	}
	if err != nil {
		return domain.OverlayPosition{}, false, err
	}
	var p domain.OverlayPosition
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.OverlayPosition{}, false, fmt.Errorf("decode position: %w", err)
	}
	return p, true, nil
}

func (s *RedisStore) Save(ctx context.Context, p domain.OverlayPosition) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, raw, 0).Err()
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
