package refresher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/radieske/sports-bet-demo/internal/odds-service/oddsapi"
	"github.com/radieske/sports-bet-demo/internal/odds-service/processor"
	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

var ErrAllSportsFailed = errors.New("odds fetch failed for every sport")

type Fetcher interface {
	FetchOdds(ctx context.Context, sport string) ([]oddsapi.Game, string, error)
}

type Store interface {
	Save(ctx context.Context, odds map[string][]events.GameOdds, at time.Time) error
	ForSport(ctx context.Context, sport string) ([]events.GameOdds, error)
	LastUpdate(ctx context.Context) (time.Time, bool, error)
}

type Mirror interface {
	Mirror(ctx context.Context, odds map[string][]events.GameOdds, at time.Time) error
}

type Publisher interface {
	PublishGameOdds(ctx context.Context, g events.GameOdds) error
}

// Result resume uma atualização.
type Result struct {
	UpdatedAt time.Time         `json:"updatedAt"`
	Games     map[string]int    `json:"games"`
	Sources   map[string]string `json:"sources"`
	Failed    []string          `json:"failed,omitempty"`
}

// Refresher busca odds no máximo uma vez por dia do calendário. O dia é
// calculado no fuso loc com o relógio injetado.
type Refresher struct {
	fetch  Fetcher
	store  Store
	mirror Mirror
	pub    Publisher
	log    *zap.Logger
	now    func() time.Time
	loc    *time.Location
	group  singleflight.Group

	OnRefresh func(source string) // métricas por origem
	OnError   func(stage string)  // métricas por fase
}

type Option func(*Refresher)

func WithMirror(m Mirror) Option { return func(r *Refresher) { r.mirror = m } }

func WithPublisher(p Publisher) Option { return func(r *Refresher) { r.pub = p } }

func WithClock(now func() time.Time) Option { return func(r *Refresher) { r.now = now } }

func WithLocation(loc *time.Location) Option { return func(r *Refresher) { r.loc = loc } }

func New(fetch Fetcher, store Store, log *zap.Logger, opts ...Option) *Refresher {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Refresher{
		fetch: fetch,
		store: store,
		log:   log,
		now:   time.Now,
		loc:   time.UTC,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NeedsUpdate é verdadeiro sem snapshot ou quando o último é de outro dia.
func (r *Refresher) NeedsUpdate(ctx context.Context) (bool, error) {
	last, ok, err := r.store.LastUpdate(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	ly, lm, ld := last.In(r.loc).Date()
	ny, nm, nd := r.now().In(r.loc).Date()
	return ly != ny || lm != nm || ld != nd, nil
}

// EnsureFresh atualiza se necessário. Falhas são registradas e os leitores
// seguem com o snapshot existente.
func (r *Refresher) EnsureFresh(ctx context.Context) {
	need, err := r.NeedsUpdate(ctx)
	if err != nil {
		r.log.Warn("odds freshness check failed", zap.Error(err))
		r.onError("check")
		return
	}
	if !need {
		return
	}
	r.log.Info("odds need updating, fetching from provider")
	if _, err := r.ForceUpdate(ctx); err != nil {
		r.log.Warn("odds update failed, serving cached data", zap.Error(err))
	}
}

// ForceUpdate busca todos os esportes agora. Chamadas concorrentes
// compartilham a mesma busca.
func (r *Refresher) ForceUpdate(ctx context.Context) (Result, error) {
	v, err, _ := r.group.Do("refresh", func() (any, error) {
		return r.update(context.WithoutCancel(ctx))
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (r *Refresher) update(ctx context.Context) (Result, error) {
	at := r.now().UTC()
	res := Result{UpdatedAt: at, Games: map[string]int{}, Sources: map[string]string{}}
	odds := map[string][]events.GameOdds{}

	for _, sport := range oddsapi.Sports() {
		games, source, err := r.fetch.FetchOdds(ctx, sport)
		if err != nil {
			r.log.Error("failed to fetch odds", zap.String("sport", sport), zap.Error(err))
			r.onError("fetch")
			res.Failed = append(res.Failed, sport)
			continue
		}
		odds[sport] = processor.Process(games, sport, source, at)
		res.Games[sport] = len(odds[sport])
		res.Sources[sport] = source
		if r.OnRefresh != nil {
			r.OnRefresh(source)
		}
	}
	if len(odds) == 0 {
		return res, ErrAllSportsFailed
	}

	// esporte que falhou mantém o snapshot anterior
	if err := r.store.Save(ctx, odds, at); err != nil {
		r.onError("store")
		return res, fmt.Errorf("save odds: %w", err)
	}

	if r.mirror != nil {
		all := make(map[string][]events.GameOdds, len(oddsapi.Sports()))
		for _, sport := range oddsapi.Sports() {
			if games, ok := odds[sport]; ok {
				all[sport] = games
				continue
			}
			prev, err := r.store.ForSport(ctx, sport)
			if err != nil {
				r.log.Warn("could not reload previous odds", zap.String("sport", sport), zap.Error(err))
				continue
			}
			all[sport] = prev
		}
		if err := r.mirror.Mirror(ctx, all, at); err != nil {
			r.log.Warn("odds cache mirror failed", zap.Error(err))
			r.onError("cache")
		}
	}

	if r.pub != nil {
		for _, sport := range oddsapi.Sports() {
			for _, g := range odds[sport] {
				if err := r.pub.PublishGameOdds(ctx, g); err != nil {
					r.log.Warn("odds_updates publish failed", zap.String("game_id", g.ID), zap.Error(err))
					r.onError("publish")
				}
			}
		}
	}

	r.log.Info("odds updated",
		zap.Any("games", res.Games),
		zap.Strings("failed", res.Failed),
	)
	return res, nil
}

func (r *Refresher) onError(stage string) {
	if r.OnError != nil {
		r.OnError(stage)
	}
}
