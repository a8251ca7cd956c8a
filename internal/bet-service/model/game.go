package model

import "time"

// GameStatusFinal é o rótulo gravado em ActualResult.GameStatus.
const GameStatusFinal = "Final"

// Competitor é um dos lados da partida como reportado pelo placar ao vivo.
type Competitor struct {
	Team  string
	Score int
}

// GameStatus espelha o status da competição no feed.
type GameStatus struct {
	Completed bool
	Detail    string
}

// GameSnapshot é o estado efêmero de uma partida obtido do provedor de dados ao vivo.
// Home, Away ou Status nulos indicam dados incompletos no feed.
type GameSnapshot struct {
	GameID string
	Sport  string
	Home   *Competitor
	Away   *Competitor
	Status *GameStatus
}

// Completed indica se o feed marcou a partida como encerrada.
func (g *GameSnapshot) Completed() bool {
	return g != nil && g.Status != nil && g.Status.Completed
}

// Outcome é o resultado calculado pelo avaliador para uma aposta.
type Outcome struct {
	Status       BetStatus
	ActualResult ActualResult
}

// Settlement é a mudança atômica aplicada pelo store: campos terminais da aposta
// mais os incrementos de saldo e contadores do dono.
type Settlement struct {
	Username     string
	BetID        string
	Status       BetStatus
	ResolvedAt   time.Time
	ActualResult *ActualResult
	BalanceDelta Cents
	WonDelta     Cents
	LostDelta    Cents
}

// NewSettlement calcula os incrementos a partir do status final.
// Vitória devolve stake + potentialWin ao saldo; derrota só soma o stake em totalLost,
// pois o saldo já foi debitado na colocação.
func NewSettlement(username string, bet *Bet, status BetStatus, result *ActualResult, at time.Time) Settlement {
	s := Settlement{
		Username:     username,
		BetID:        bet.ID,
		Status:       status,
		ResolvedAt:   at,
		ActualResult: result,
	}
	switch status {
	case StatusWon:
		s.BalanceDelta = bet.Amount + bet.PotentialWin
		s.WonDelta = bet.PotentialWin
	case StatusLost:
		s.LostDelta = bet.Amount
	}
	return s
}

// Apply grava a liquidação em memória no usuário e na aposta.
func (s Settlement) Apply(u *User, b *Bet) {
	b.Status = s.Status
	t := s.ResolvedAt
	b.ResolvedAt = &t
	if s.ActualResult != nil {
		ar := *s.ActualResult
		b.ActualResult = &ar
	} else {
		b.ActualResult = nil
	}
	u.Balance += s.BalanceDelta
	u.TotalWon += s.WonDelta
	u.TotalLost += s.LostDelta
	u.UpdatedAt = s.ResolvedAt
}
