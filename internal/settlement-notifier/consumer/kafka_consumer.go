package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

// MessageReader é o subconjunto do kafka.Reader usado pelo Relay.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Relay consome liquidações do tópico bet_settled e as repassa ao canal
// Redis Pub/Sub ouvido pelos hubs WebSocket do bet-service.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Relay struct {
	Log         *zap.Logger
	Reader      MessageReader
	Broadcaster Broadcaster
	Channel     string

	PublishTimeout time.Duration // padrão 500ms
	RetryDelay     time.Duration // pausa após falha de leitura, padrão 500ms

	OnConsumed func()       // métricas (counter++)
	OnRelayed  func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop de consumo; retorna ctx.Err() quando o contexto é cancelado.
func (p *Relay) Run(ctx context.Context) error {
	if p.Log == nil {
		p.Log = zap.NewNop()
	}
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.onError("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(durationOr(p.RetryDelay, 500*time.Millisecond)):
			}
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var ev events.BetSettled
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			p.Log.Warn("invalid message", zap.Error(err), zap.Int64("offset", m.Offset))
			p.onError("decode")
			continue
		}
		if ev.BetID == "" || ev.Username == "" {
			p.Log.Warn("settlement without bet or user, skipping", zap.Int64("offset", m.Offset))
			p.onError("decode")
			continue
		}

		// reserializa para o canal só levar campos conhecidos
		payload, _ := json.Marshal(ev)

		pctx, cancel := context.WithTimeout(ctx, durationOr(p.PublishTimeout, 500*time.Millisecond))
		err = p.Broadcaster.Publish(pctx, p.Channel, payload)
		cancel()
		if err != nil {
			p.Log.Warn("settlement broadcast failed",
				zap.String("bet_id", ev.BetID),
				zap.String("username", ev.Username),
				zap.Error(err),
			)
			p.onError("publish")
			continue
		}

		if p.OnRelayed != nil {
			p.OnRelayed()
		}
		p.Log.Debug("settlement relayed",
			zap.String("bet_id", ev.BetID),
			zap.String("username", ev.Username),
			zap.String("status", ev.Status),
		)
	}
}

func (p *Relay) onError(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
