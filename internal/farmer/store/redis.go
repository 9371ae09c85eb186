package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "agritrace/pkg/domain"
	"agritrace/pkg/platform/sentinel"
)

// verifiedSetKey is the Redis set holding verified farmer principals.
const verifiedSetKey = "agritrace:farmers:verified"

// Redis persists the verified set as a Redis SET so multiple gateway
// instances share one registry.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed farmer store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Add(ctx context.Context, farmer id.Principal) error {
	added, err := s.client.SAdd(ctx, verifiedSetKey, farmer.String()).Result()
	if err != nil {
		return fmt.Errorf("add verified farmer: %w", err)
	}
	if added == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Redis) Contains(ctx context.Context, farmer id.Principal) (bool, error) {
	member, err := s.client.SIsMember(ctx, verifiedSetKey, farmer.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check verified farmer: %w", err)
	}
	return member, nil
}
