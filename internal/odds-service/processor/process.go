package processor

import (
	"time"

	"github.com/radieske/sports-bet-demo/internal/odds-service/oddsapi"
	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

// mercado da The Odds API -> sufixo da chave de cotação
var marketSuffix = map[string]string{
	"h2h":     "moneyline",
	"spreads": "spread",
	"totals":  "total",
}

// Process converte os jogos da API no formato servido aos clientes.
// Só o primeiro bookmaker é considerado.
func Process(games []oddsapi.Game, sport, source string, now time.Time) []events.GameOdds {
	out := make([]events.GameOdds, 0, len(games))
	for _, g := range games {
		out = append(out, events.GameOdds{
			ID:           g.ID,
			Sport:        sport,
			HomeTeam:     g.HomeTeam,
			AwayTeam:     g.AwayTeam,
			CommenceTime: g.CommenceTime,
			Odds:         extract(g.Bookmakers),
			LastUpdated:  now,
			Source:       source,
		})
	}
	return out
}

func extract(books []oddsapi.Bookmaker) map[string]events.Quote {
	odds := map[string]events.Quote{}
	if len(books) == 0 {
		return odds
	}
	for _, m := range books[0].Markets {
		suffix, ok := marketSuffix[m.Key]
		if !ok {
			continue
		}
		for _, o := range m.Outcomes {
			q := events.Quote{Price: o.Price}
			// moneyline não tem linha
			if suffix != "moneyline" && o.Point != nil {
				l := *o.Point
				q.Line = &l
			}
			odds[events.OddsKey(o.Name, suffix)] = q
		}
	}
	return odds
}
