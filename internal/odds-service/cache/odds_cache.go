package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
	ctopics "github.com/radieske/sports-bet-demo/pkg/contracts/topics"
)

// Cache espelha os snapshots de odds no Redis para leitura rápida e para o
// bet-service, que lê odds:game:{gameId} ao capturar a linha da aposta.
type Cache struct {
	R   redis.Cmdable
	TTL time.Duration
}

func New(r redis.Cmdable, ttl time.Duration) *Cache { return &Cache{R: r, TTL: ttl} }

func keySport(sport string) string { return ctopics.KeySportOdds + sport }

func keyGame(gameID string) string { return ctopics.KeyGameOdds + gameID }

// Mirror grava cada esporte, cada jogo e o horário de atualização num único pipeline.
func (c *Cache) Mirror(ctx context.Context, odds map[string][]events.GameOdds, at time.Time) error {
	_, err := c.R.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for sport, games := range odds {
			b, err := json.Marshal(games)
			if err != nil {
				return err
			}
			p.Set(ctx, keySport(sport), b, c.TTL)
			for _, g := range games {
				gb, err := json.Marshal(g)
				if err != nil {
					return err
				}
				p.Set(ctx, keyGame(g.ID), gb, c.TTL)
			}
		}
		p.Set(ctx, ctopics.KeyOddsUpdated, at.UTC().Format(time.RFC3339Nano), c.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror odds: %w", err)
	}
	return nil
}

// GetSport lê o snapshot do esporte; false quando não está em cache.
func (c *Cache) GetSport(ctx context.Context, sport string) ([]events.GameOdds, bool, error) {
	b, err := c.R.Get(ctx, keySport(sport)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var games []events.GameOdds
	if err := json.Unmarshal(b, &games); err != nil {
		return nil, false, err
	}
	return games, true, nil
}
