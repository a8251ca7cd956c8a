package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
	"github.com/radieske/sports-bet-demo/internal/bet-service/pending"
	"github.com/radieske/sports-bet-demo/internal/bet-service/settlement"
	ctopics "github.com/radieske/sports-bet-demo/pkg/contracts/topics"
)

var (
	ErrAlreadyRunning  = errors.New("auto resolution already running")
	ErrInvalidInterval = errors.New("interval must be a positive number of minutes")
	ErrLockHeld        = errors.New("resolver lock held by another instance")
)

// GameProvider consulta o estado de uma partida. (nil, nil) significa partida
// não encontrada; erro significa falha transitória. Os dois adiam a resolução.
type GameProvider interface {
	FetchGame(ctx context.Context, gameID, sport string) (*model.GameSnapshot, error)
}

type Evaluator interface {
	Evaluate(bet *model.Bet, game *model.GameSnapshot) *model.Outcome
}

type Settler interface {
	Settle(ctx context.Context, pb model.PendingBet, out *model.Outcome, trigger string) bool
}

// Locker trava a varredura entre processos.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// SweepReport resume uma varredura.
type SweepReport struct {
	Trigger        string        `json:"trigger"`
	StartedAt      time.Time     `json:"startedAt"`
	Duration       time.Duration `json:"duration"`
	Pending        int           `json:"pending"`
	Games          int           `json:"games"`
	GamesCompleted int           `json:"gamesCompleted"`
	GamesDeferred  int           `json:"gamesDeferred"`
	Settled        int           `json:"settled"`
	Won            int           `json:"won"`
	Lost           int           `json:"lost"`
	Unresolved     int           `json:"unresolved"`
	Failed         int           `json:"failed"`
	SkippedLocked  bool          `json:"skippedLocked,omitempty"`
}

// Status é o estado público do agendador.
type Status struct {
	Running         bool         `json:"running"`
	IntervalMinutes int          `json:"intervalMinutes,omitempty"`
	StartedAt       *time.Time   `json:"startedAt,omitempty"`
	LastSweep       *SweepReport `json:"lastSweep,omitempty"`
}

// Resolver varre apostas pendentes, consulta cada partida uma única vez e
// liquida as apostas de partidas encerradas. Varreduras do timer e forçadas
// nunca rodam ao mesmo tempo no mesmo processo.
type Resolver struct {
	users   pending.UserLister
	games   GameProvider
	eval    Evaluator
	settler Settler
	log     *zap.Logger
	metrics *Metrics

	locker  Locker
	lockTTL time.Duration

	sweepMu sync.Mutex

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	interval  time.Duration
	startedAt time.Time
	last      *SweepReport
}

type Option func(*Resolver)

func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithLocker liga a trava distribuída; varreduras que não conseguem a trava são puladas.
func WithLocker(l Locker, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.locker = l
		r.lockTTL = ttl
	}
}

func New(users pending.UserLister, games GameProvider, eval Evaluator, settler Settler, log *zap.Logger, opts ...Option) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resolver{
		users:   users,
		games:   games,
		eval:    eval,
		settler: settler,
		log:     log,
		lockTTL: 2 * time.Minute,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ForceSweep roda uma varredura síncrona fora do timer.
func (r *Resolver) ForceSweep(ctx context.Context) (SweepReport, error) {
	return r.Sweep(ctx, settlement.TriggerForce)
}

// Sweep executa uma varredura completa. Só retorna erro quando não foi possível
// listar as apostas pendentes ou obter a trava; falhas por partida ou por aposta
// ficam no relatório e nos logs.
func (r *Resolver) Sweep(ctx context.Context, trigger string) (SweepReport, error) {
	r.sweepMu.Lock()
	defer r.sweepMu.Unlock()

	rep := SweepReport{Trigger: trigger, StartedAt: time.Now().UTC()}
	start := time.Now()

	if r.locker != nil {
		unlock, err := r.locker.Acquire(ctx, ctopics.KeyResolverLock, r.lockTTL)
		if errors.Is(err, ErrLockHeld) {
			r.log.Debug("another instance is sweeping, skipping", zap.String("trigger", trigger))
			rep.SkippedLocked = true
			return rep, nil
		}
		if err != nil {
			return rep, fmt.Errorf("acquire sweep lock: %w", err)
		}
		defer unlock()
	}

	if r.metrics != nil {
		r.metrics.Sweeps.WithLabelValues(trigger).Inc()
	}

	bets, err := pending.Collect(ctx, r.users)
	if err != nil {
		r.log.Error("could not collect pending bets", zap.Error(err))
		return rep, err
	}
	rep.Pending = len(bets)
	if r.metrics != nil {
		r.metrics.Pending.Set(float64(len(bets)))
	}

	groups := pending.GroupByGame(bets)
	rep.Games = len(groups)
	for _, g := range groups {
		r.sweepGame(ctx, g, trigger, &rep)
	}

	rep.Duration = time.Since(start)
	if r.metrics != nil {
		r.metrics.SweepDuration.Observe(rep.Duration.Seconds())
	}
	r.recordLast(rep)

	if rep.Pending > 0 {
		r.log.Info("sweep finished",
			zap.String("trigger", trigger),
			zap.Int("pending", rep.Pending),
			zap.Int("games", rep.Games),
			zap.Int("games_completed", rep.GamesCompleted),
			zap.Int("settled", rep.Settled),
			zap.Int("failed", rep.Failed),
			zap.Duration("duration", rep.Duration),
		)
	}
	return rep, nil
}

// sweepGame resolve as apostas de uma partida; pânico aqui não derruba a varredura.
func (r *Resolver) sweepGame(ctx context.Context, g pending.GameGroup, trigger string, rep *SweepReport) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("panic while resolving game", zap.String("game_id", g.GameID), zap.Any("panic", p))
			rep.GamesDeferred++
		}
	}()

	snap, err := r.games.FetchGame(ctx, g.GameID, g.Sport)
	if err != nil {
		r.log.Warn("game fetch failed, retrying next sweep",
			zap.String("game_id", g.GameID),
			zap.String("sport", g.Sport),
			zap.Error(err),
		)
		if r.metrics != nil {
			r.metrics.FetchErrors.Inc()
		}
		rep.GamesDeferred++
		return
	}
	if snap == nil {
		r.log.Debug("game not found in scoreboard", zap.String("game_id", g.GameID), zap.String("sport", g.Sport))
		rep.GamesDeferred++
		return
	}
	if !snap.Completed() {
		r.log.Debug("game not completed yet", zap.String("game_id", g.GameID))
		rep.GamesDeferred++
		return
	}

	rep.GamesCompleted++
	for _, pb := range g.Bets {
		r.resolveBet(ctx, pb, snap, trigger, rep)
	}
}

func (r *Resolver) resolveBet(ctx context.Context, pb model.PendingBet, snap *model.GameSnapshot, trigger string, rep *SweepReport) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("panic while resolving bet", zap.String("bet_id", pb.Bet.ID), zap.Any("panic", p))
			rep.Failed++
		}
	}()

	out := r.eval.Evaluate(pb.Bet, snap)
	if out == nil {
		rep.Unresolved++
		return
	}
	if !r.settler.Settle(ctx, pb, out, trigger) {
		rep.Failed++
		return
	}

	rep.Settled++
	switch out.Status {
	case model.StatusWon:
		rep.Won++
	case model.StatusLost:
		rep.Lost++
	}
	if r.metrics != nil {
		r.metrics.Settled.WithLabelValues(string(out.Status)).Inc()
	}
}

// StartAutoResolution roda uma varredura imediatamente e depois a cada intervalMinutes.
func (r *Resolver) StartAutoResolution(intervalMinutes int) error {
	if intervalMinutes <= 0 {
		return ErrInvalidInterval
	}
	return r.startEvery(time.Duration(intervalMinutes) * time.Minute)
}

func (r *Resolver) startEvery(d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.interval = d
	r.startedAt = time.Now().UTC()

	go r.loop(ctx, d, done)
	r.log.Info("auto resolution started", zap.Duration("interval", d))
	return nil
}

// loop cancela apenas os próximos ticks: a varredura em curso usa um contexto
// desligado do cancelamento e termina normalmente.
func (r *Resolver) loop(ctx context.Context, d time.Duration, done chan struct{}) {
	defer close(done)

	sweepCtx := context.WithoutCancel(ctx)
	run := func() {
		if _, err := r.Sweep(sweepCtx, settlement.TriggerTimer); err != nil {
			r.log.Warn("scheduled sweep failed", zap.Error(err))
		}
	}

	run()

	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Stop durante a varredura anterior não deve disparar mais uma
			if ctx.Err() != nil {
				return
			}
			run()
		}
	}
}

// Stop impede novas varreduras agendadas. Não espera a varredura em curso.
func (r *Resolver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel == nil {
		return
	}
	r.cancel()
	r.cancel = nil
	r.interval = 0
	r.log.Info("auto resolution stopped")
}

// Shutdown para o agendador e aguarda a varredura em curso, até o prazo de ctx.
func (r *Resolver) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	r.Stop()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Resolver) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

func (r *Resolver) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{Running: r.cancel != nil}
	if st.Running {
		st.IntervalMinutes = int(r.interval / time.Minute)
		t := r.startedAt
		st.StartedAt = &t
	}
	if r.last != nil {
		last := *r.last
		st.LastSweep = &last
	}
	return st
}

func (r *Resolver) recordLast(rep SweepReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = &rep
}
