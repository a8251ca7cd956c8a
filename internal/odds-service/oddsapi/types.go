package oddsapi

import "time"

// Game é um evento retornado por /v4/sports/{sport}/odds.
type Game struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key,omitempty"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

type Bookmaker struct {
	Key     string   `json:"key,omitempty"`
	Title   string   `json:"title,omitempty"`
	Markets []Market `json:"markets"`
}

// Market.Key: h2h | spreads | totals
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome traz Point só em spreads e totals.
type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}
