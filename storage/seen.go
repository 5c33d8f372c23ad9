package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const seenKeyPrefix = "gmaps:seen:"

// RedisSeen remembers which listing identities earlier runs collected,
// one Redis set per normalized query.
type RedisSeen struct {
	rdb *redis.Client
}

func NewRedisSeen(ctx context.Context, addr, password string) (*RedisSeen, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisSeen{rdb: rdb}, nil
}

func SeenKey(query string) string {
	return seenKeyPrefix + strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func (s *RedisSeen) Seen(ctx context.Context, query, identity string) (bool, error) {
	return s.rdb.SIsMember(ctx, SeenKey(query), identity).Result()
}

func (s *RedisSeen) Mark(ctx context.Context, query string, identities ...string) error {
	if len(identities) == 0 {
		return nil
	}
	members := make([]any, len(identities))
	for i, id := range identities {
		members[i] = id
	}
	return s.rdb.SAdd(ctx, SeenKey(query), members...).Err()
}

func (s *RedisSeen) Close() error {
	return s.rdb.Close()
}
