package pubsub

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestPublishReachesSubscriber(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	sub := rdb.Subscribe(ctx, "settlement-test")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	if err := NewRedisBroadcaster(rdb).Publish(ctx, "settlement-test", []byte(`{"bet_id":"b1"}`)); err != nil {
		t.Fatal(err)
	}
	select {
	case msg := <-sub.Channel():
		if msg.Payload != `{"bet_id":"b1"}` {
			t.Errorf("payload = %s", msg.Payload)
		}
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}
