package outcome

import (
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
)

// Linhas usadas quando a aposta não trouxe a linha travada na colocação.
const (
	DefaultSpreadLine = 0.0
	DefaultTotalLine  = 220.0
)

// TeamMatcher decide se a seleção da aposta corresponde ao nome do time no feed.
type TeamMatcher interface {
	Matches(betSelection, liveTeamName string) bool
}

// Evaluator calcula vitória/derrota de uma aposta contra o placar final de uma partida.
// Não faz I/O; o relógio é injetado para que resolvedAt seja determinístico em testes.
type Evaluator struct {
	teams TeamMatcher
	log   *zap.Logger
	now   func() time.Time
}

type Option func(*Evaluator)

// WithClock substitui a fonte de tempo usada em resolvedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

func NewEvaluator(teams TeamMatcher, log *zap.Logger, opts ...Option) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Evaluator{
		teams: teams,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate retorna nil quando a partida ainda não pode resolver a aposta
// (snapshot ausente, competidores ou status ausentes, partida não encerrada)
// ou quando o tipo de aposta é desconhecido.
func (e *Evaluator) Evaluate(bet *model.Bet, game *model.GameSnapshot) *model.Outcome {
	if bet == nil || game == nil || game.Home == nil || game.Away == nil || game.Status == nil {
		return nil
	}
	if !game.Status.Completed {
		return nil
	}

	homeScore, awayScore := game.Home.Score, game.Away.Score
	homeWon := homeScore > awayScore
	awayWon := awayScore > homeScore
	totalPoints := homeScore + awayScore

	var won bool
	switch bet.BetType {
	case model.BetMoneyline:
		switch {
		case e.teams.Matches(bet.Selection, game.Home.Team):
			won = homeWon
		case e.teams.Matches(bet.Selection, game.Away.Team):
			won = awayWon
		default:
			e.warnUnmatched(bet, game)
		}

	case model.BetSpread:
		// A linha é a margem que o lado escolhido precisa superar; a mesma
		// comparação vale para mandante e visitante.
		line := e.spreadLine(bet)
		switch {
		case e.teams.Matches(bet.Selection, game.Home.Team):
			won = float64(homeScore-awayScore) > line
		case e.teams.Matches(bet.Selection, game.Away.Team):
			won = float64(awayScore-homeScore) > line
		default:
			e.warnUnmatched(bet, game)
		}

	case model.BetTotal:
		// igualdade perde para os dois lados (sem push)
		line := e.totalLine(bet)
		switch bet.Selection {
		case model.SelectionOver:
			won = float64(totalPoints) > line
		case model.SelectionUnder:
			won = float64(totalPoints) < line
		default:
			e.warnUnmatched(bet, game)
		}

	default:
		e.log.Warn("unresolvable bet type",
			zap.String("bet_id", bet.ID),
			zap.String("bet_type", string(bet.BetType)),
		)
		return nil
	}

	status := model.StatusLost
	if won {
		status = model.StatusWon
	}

	return &model.Outcome{
		Status: status,
		ActualResult: model.ActualResult{
			HomeTeam:    game.Home.Team,
			AwayTeam:    game.Away.Team,
			HomeScore:   homeScore,
			AwayScore:   awayScore,
			TotalPoints: totalPoints,
			GameStatus:  model.GameStatusFinal,
			ResolvedAt:  e.now(),
		},
	}
}

func (e *Evaluator) spreadLine(bet *model.Bet) float64 {
	if bet.Line.Valid {
		return bet.Line.Value
	}
	e.log.Warn("no spread line found for bet, using default",
		zap.String("bet_id", bet.ID),
		zap.Float64("default_line", DefaultSpreadLine),
	)
	return DefaultSpreadLine
}

func (e *Evaluator) totalLine(bet *model.Bet) float64 {
	if bet.Line.Valid {
		return bet.Line.Value
	}
	e.log.Warn("no total line found for bet, using default",
		zap.String("bet_id", bet.ID),
		zap.Float64("default_line", DefaultTotalLine),
	)
	return DefaultTotalLine
}

func (e *Evaluator) warnUnmatched(bet *model.Bet, game *model.GameSnapshot) {
	e.log.Warn("bet selection matches neither side, settling as lost",
		zap.String("bet_id", bet.ID),
		zap.String("selection", bet.Selection),
		zap.String("home_team", game.Home.Team),
		zap.String("away_team", game.Away.Team),
	)
}
