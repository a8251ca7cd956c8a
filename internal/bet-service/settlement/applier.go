package settlement

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

// Origem da liquidação, propagada no evento bet_settled.
const (
	TriggerTimer  = "timer"
	TriggerForce  = "force"
	TriggerManual = "manual"
)

var ErrInvalidStatus = errors.New("settlement status must be won or lost")

type Store interface {
	GetUser(ctx context.Context, username string) (*model.User, error)
	ApplySettlement(ctx context.Context, s model.Settlement) (*model.User, error)
}

type Publisher interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// Applier grava o resultado de uma aposta e os incrementos de saldo do dono.
type Applier struct {
	store Store
	pub   Publisher
	log   *zap.Logger
	now   func() time.Time
}

type Option func(*Applier)

// WithPublisher liga a publicação de bet_settled após cada liquidação.
func WithPublisher(p Publisher) Option {
	return func(a *Applier) { a.pub = p }
}

func WithClock(now func() time.Time) Option {
	return func(a *Applier) { a.now = now }
}

func NewApplier(store Store, log *zap.Logger, opts ...Option) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Applier{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Settle aplica o resultado calculado pela varredura. Dono ou aposta ausentes,
// aposta já liquidada e falhas de store viram false com log; nunca propaga erro.
func (a *Applier) Settle(ctx context.Context, pb model.PendingBet, out *model.Outcome, trigger string) bool {
	if pb.Bet == nil || out == nil {
		return false
	}
	result := out.ActualResult
	_, err := a.Apply(ctx, pb.Username, pb.Bet.ID, out.Status, &result, trigger)

	fields := []zap.Field{
		zap.String("bet_id", pb.Bet.ID),
		zap.String("username", pb.Username),
		zap.String("game_id", pb.Bet.GameID),
	}
	switch {
	case err == nil:
		a.log.Info("bet settled", append(fields, zap.String("status", string(out.Status)))...)
		return true
	case errors.Is(err, model.ErrUserNotFound), errors.Is(err, model.ErrBetNotFound):
		a.log.Error("bet owner or bet vanished before settlement", append(fields, zap.Error(err))...)
	case errors.Is(err, model.ErrBetAlreadySettled):
		a.log.Info("bet already settled by another writer, skipping", fields...)
	default:
		a.log.Error("settlement failed", append(fields, zap.Error(err))...)
	}
	return false
}

// Apply liquida a aposta betID do usuário. Usado pela varredura e pela
// resolução manual; erros são os sentinelas de model.
func (a *Applier) Apply(ctx context.Context, username, betID string, status model.BetStatus, result *model.ActualResult, trigger string) (*model.User, error) {
	if !status.Terminal() {
		return nil, ErrInvalidStatus
	}

	u, err := a.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	bet := u.FindBet(betID)
	if bet == nil {
		return nil, model.ErrBetNotFound
	}
	if bet.Status != model.StatusPending {
		return nil, model.ErrBetAlreadySettled
	}

	s := model.NewSettlement(username, bet, status, result, a.now())
	updated, err := a.store.ApplySettlement(ctx, s)
	if err != nil {
		return nil, err
	}

	a.publish(ctx, bet, s, trigger)
	return updated, nil
}

func (a *Applier) publish(ctx context.Context, bet *model.Bet, s model.Settlement, trigger string) {
	if a.pub == nil {
		return
	}
	ev := events.BetSettled{
		BetID:             bet.ID,
		Username:          s.Username,
		GameID:            bet.GameID,
		Status:            string(s.Status),
		AmountCents:       int64(bet.Amount),
		PotentialWinCents: int64(bet.PotentialWin),
		BalanceDeltaCents: int64(s.BalanceDelta),
		Trigger:           trigger,
		ResolvedAt:        s.ResolvedAt,
	}
	if r := s.ActualResult; r != nil {
		ev.HomeTeam, ev.AwayTeam = r.HomeTeam, r.AwayTeam
		ev.HomeScore, ev.AwayScore = r.HomeScore, r.AwayScore
	}
	// a liquidação já foi gravada; falha aqui só perde a notificação
	if err := a.pub.PublishBetSettled(ctx, ev); err != nil {
		a.log.Warn("bet_settled publish failed", zap.String("bet_id", bet.ID), zap.Error(err))
	}
}
