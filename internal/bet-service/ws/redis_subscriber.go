package ws

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRedisSubscriber escuta o canal de liquidações no Redis Pub/Sub e
// repassa cada mensagem ao Hub. Encerra quando ctx é cancelado.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := hub.Dispatch([]byte(msg.Payload)); err != nil {
					log.Warn("ws subscriber unmarshal error", zap.String("channel", channel), zap.Error(err))
				}
			}
		}
	}()
}
