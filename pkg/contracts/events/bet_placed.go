package events

// Evento publicado no tópico "bet_placed" quando a aposta é registrada e o stake debitado.
type BetPlaced struct {
	BetID             string   `json:"bet_id"`
	Username          string   `json:"username"`
	GameID            string   `json:"game_id"`
	Sport             string   `json:"sport"`
	BetType           string   `json:"bet_type"` // moneyline | spread | total
	Selection         string   `json:"selection"`
	AmountCents       int64    `json:"amount_cents"`
	Odds              string   `json:"odds"`
	Line              *float64 `json:"line,omitempty"`
	PotentialWinCents int64    `json:"potential_win_cents"`
	TsUnixMs          int64    `json:"ts_unix_ms"`
}
