package oddsapi

import "time"

type mockGame struct {
	id, home, away    string
	homeML, awayML    float64
	homeSpread, total float64
}

var mockGames = map[string][]mockGame{
	"nba": {
		{"mock-nba-1", "Detroit Pistons", "Cleveland Cavaliers", 120, -142, 2.5, 231.5},
		{"mock-nba-2", "Philadelphia 76ers", "Orlando Magic", 145, -175, 3.5, 225.5},
		{"mock-nba-3", "Los Angeles Lakers", "Golden State Warriors", -110, -110, -1.5, 235.5},
		{"mock-nba-4", "Boston Celtics", "Miami Heat", -165, 140, -4.5, 228.5},
	},
	"ncaa-basketball": {
		{"mock-ncaa-bb-1", "Duke Blue Devils", "North Carolina Tar Heels", -110, -110, -1.5, 145.5},
	},
	"ncaa-football": {
		{"mock-ncaa-fb-1", "Alabama Crimson Tide", "Georgia Bulldogs", -150, 130, -3.5, 52.5},
	},
}

// MockGames gera jogos simulados para amanhã, no formato da The Odds API.
func MockGames(sport string, now time.Time) []Game {
	defs := mockGames[sport]
	out := make([]Game, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.game(now.Add(24*time.Hour).UTC()))
	}
	return out
}

func (m mockGame) game(commence time.Time) Game {
	pt := func(v float64) *float64 { return &v }
	return Game{
		ID:           m.id,
		CommenceTime: commence,
		HomeTeam:     m.home,
		AwayTeam:     m.away,
		Bookmakers: []Bookmaker{{
			Key: SourceMock,
			Markets: []Market{
				{Key: "h2h", Outcomes: []Outcome{
					{Name: m.home, Price: m.homeML},
					{Name: m.away, Price: m.awayML},
				}},
				{Key: "spreads", Outcomes: []Outcome{
					{Name: m.home, Point: pt(m.homeSpread), Price: -110},
					{Name: m.away, Point: pt(-m.homeSpread), Price: -110},
				}},
				{Key: "totals", Outcomes: []Outcome{
					{Name: "Over", Point: pt(m.total), Price: -110},
					{Name: "Under", Point: pt(m.total), Price: -110},
				}},
			},
		}},
	}
}
