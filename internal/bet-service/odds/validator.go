package odds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
	ctopics "github.com/radieske/sports-bet-demo/pkg/contracts/topics"
)

// Source devolve as odds em cache de uma partida; (nil, nil) quando não há cache.
type Source interface {
	GameOdds(ctx context.Context, gameID string) (*events.GameOdds, error)
}

type TeamMatcher interface {
	Matches(betSelection, liveTeamName string) bool
}

// RedisSource lê o snapshot gravado pelo odds-service em "odds:game:{gameId}".
type RedisSource struct {
	Rdb redis.Cmdable
}

func NewRedisSource(r redis.Cmdable) *RedisSource { return &RedisSource{Rdb: r} }

func (s *RedisSource) GameOdds(ctx context.Context, gameID string) (*events.GameOdds, error) {
	raw, err := s.Rdb.Get(ctx, ctopics.KeyGameOdds+gameID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached odds: %w", err)
	}
	var g events.GameOdds
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode cached odds: %w", err)
	}
	return &g, nil
}

// Validator completa a linha de apostas de spread/total com a linha em cache
// quando o cliente não a enviou.
type Validator struct {
	src   Source
	teams TeamMatcher
}

func NewValidator(src Source, teams TeamMatcher) *Validator {
	return &Validator{src: src, teams: teams}
}

// CachedLine procura a linha do mercado da aposta. Retorna linha ausente quando
// o tipo não usa linha ou o cache não tem a seleção.
func (v *Validator) CachedLine(ctx context.Context, bet *model.Bet) (model.Line, error) {
	var market string
	switch bet.BetType {
	case model.BetSpread:
		market = "spread"
	case model.BetTotal:
		market = "total"
	default:
		return model.Line{}, nil
	}

	g, err := v.src.GameOdds(ctx, bet.GameID)
	if err != nil || g == nil {
		return model.Line{}, err
	}

	if q, ok := g.Odds[events.OddsKey(bet.Selection, market)]; ok && q.Line != nil {
		return model.NewLine(*q.Line), nil
	}
	if market == "total" || v.teams == nil {
		return model.Line{}, nil
	}

	// seleção com nome curto ("Lakers") contra chave com nome completo
	suffix := "_" + market
	for key, q := range g.Odds {
		if q.Line == nil || !strings.HasSuffix(key, suffix) {
			continue
		}
		if v.teams.Matches(bet.Selection, strings.TrimSuffix(key, suffix)) {
			return model.NewLine(*q.Line), nil
		}
	}
	return model.Line{}, nil
}

// FillLine grava a linha em cache na aposta sem linha. Falha de cache não
// bloqueia a aposta; o avaliador aplica o default.
func (v *Validator) FillLine(ctx context.Context, bet *model.Bet) error {
	if v == nil || bet.Line.Valid {
		return nil
	}
	l, err := v.CachedLine(ctx, bet)
	if err != nil {
		return err
	}
	if l.Valid {
		bet.Line = l
	}
	return nil
}
