package producer

import (
	"context"
	"time"

	"github.com/radieske/sports-bet-demo/internal/shared/kafka"
	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

// KafkaPublisher publica os eventos do ciclo de vida da aposta,
// cada tipo no seu tópico, com o betId como chave.
type KafkaPublisher struct {
	placed  *kafka.Publisher
	settled *kafka.Publisher
	now     func() time.Time
}

func NewKafkaPublisher(placed, settled *kafka.Publisher) *KafkaPublisher {
	return &KafkaPublisher{placed: placed, settled: settled, now: time.Now}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = p.now().UnixMilli()
	return p.placed.PublishJSON(ctx, e.BetID, e)
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	return p.settled.PublishJSON(ctx, e.BetID, e)
}

func (p *KafkaPublisher) Close() error {
	err1 := p.placed.Close()
	err2 := p.settled.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
