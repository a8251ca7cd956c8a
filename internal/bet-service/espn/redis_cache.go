package espn

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	ctopics "github.com/radieske/sports-bet-demo/pkg/contracts/topics"
)

// RedisScoreboardCache guarda o placar bruto no Redis com TTL curto, para que
// réplicas do bet-service e varreduras próximas não repitam a mesma chamada.
type RedisScoreboardCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisScoreboardCache(c *redis.Client, ttl time.Duration) *RedisScoreboardCache {
	return &RedisScoreboardCache{Client: c, TTL: ttl}
}

func key(sportPath string) string { return ctopics.KeyScoreboard + sportPath }

func (r *RedisScoreboardCache) Get(ctx context.Context, sportPath string) ([]byte, bool, error) {
	b, err := r.Client.Get(ctx, key(sportPath)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisScoreboardCache) Set(ctx context.Context, sportPath string, body []byte) error {
	return r.Client.Set(ctx, key(sportPath), body, r.TTL).Err()
}
