package publisher

import (
	"context"
	"encoding/json"
	"testing"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/radieske/sports-bet-demo/internal/shared/kafka"
	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

type captureWriter struct {
	msgs   []kafkago.Message
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { w.closed = true; return nil }

func TestPublishGameOddsKeyedByGame(t *testing.T) {
	w := &captureWriter{}
	p := NewKafkaPublisher(kafka.NewPublisher(w, nil))

	g := events.GameOdds{ID: "game-42", Sport: "nba", HomeTeam: "Lakers", AwayTeam: "Celtics"}
	if err := p.PublishGameOdds(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "game-42" {
		t.Fatalf("messages = %+v", w.msgs)
	}
	var got events.GameOdds
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil || got.HomeTeam != "Lakers" {
		t.Errorf("value = %s (%v)", w.msgs[0].Value, err)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close: err=%v closed=%v", err, w.closed)
	}
}
