package publisher

import (
	"context"

	"github.com/radieske/sports-bet-demo/internal/shared/kafka"
	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

// KafkaPublisher publica snapshots de jogos no tópico odds_updates.
// A chave da mensagem é o id do jogo, mantendo as versões de um jogo na mesma partição.
type KafkaPublisher struct {
	pub *kafka.Publisher
}

func NewKafkaPublisher(p *kafka.Publisher) *KafkaPublisher {
	return &KafkaPublisher{pub: p}
}

func (p *KafkaPublisher) PublishGameOdds(ctx context.Context, g events.GameOdds) error {
	return p.pub.PublishJSON(ctx, g.ID, g)
}

func (p *KafkaPublisher) Close() error { return p.pub.Close() }
