package events

import "time"

// Evento publicado no tópico "bet_settled" após a liquidação de uma aposta.
type BetSettled struct {
	BetID             string    `json:"bet_id"`
	Username          string    `json:"username"`
	GameID            string    `json:"game_id"`
	Status            string    `json:"status"` // won | lost
	AmountCents       int64     `json:"amount_cents"`
	PotentialWinCents int64     `json:"potential_win_cents"`
	BalanceDeltaCents int64     `json:"balance_delta_cents"`
	HomeTeam          string    `json:"home_team,omitempty"`
	AwayTeam          string    `json:"away_team,omitempty"`
	HomeScore         int       `json:"home_score"`
	AwayScore         int       `json:"away_score"`
	Trigger           string    `json:"trigger"` // timer | force | manual
	ResolvedAt        time.Time `json:"resolved_at"`
}
