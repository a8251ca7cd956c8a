package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type RedisBroadcaster struct {
	r redis.Cmdable
}

func NewRedisBroadcaster(r redis.Cmdable) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

// Publish envia o payload ao canal; os bet-service inscritos repassam ao WS.
func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}
