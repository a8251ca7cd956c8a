package events

import "time"

// Quote é uma cotação americana; Line só existe em spread e total.
type Quote struct {
	Price float64  `json:"price"`
	Line  *float64 `json:"line,omitempty"`
}

// GameOdds é o evento publicado no tópico "odds_updates" e o formato servido pelo odds-service.
// As chaves de Odds seguem "<time>_moneyline", "<time>_spread", "Over_total" e "Under_total".
type GameOdds struct {
	ID           string           `json:"id"`
	Sport        string           `json:"sport"`
	HomeTeam     string           `json:"homeTeam"`
	AwayTeam     string           `json:"awayTeam"`
	CommenceTime time.Time        `json:"commenceTime"`
	Odds         map[string]Quote `json:"odds"`
	LastUpdated  time.Time        `json:"lastUpdated"`
	Source       string           `json:"source"` // the-odds-api | mock
}

// OddsKey monta a chave de cotação para a seleção e o mercado.
func OddsKey(selection, market string) string { return selection + "_" + market }
