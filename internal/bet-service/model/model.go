package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// StartingBalance é o saldo concedido a todo usuário no cadastro (1000.00).
const StartingBalance Cents = 100000

// DefaultSport é usado quando a aposta não carrega o esporte (apostas antigas).
const DefaultSport = "nba"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrBetNotFound         = errors.New("bet not found")
	ErrBetAlreadySettled   = errors.New("bet already settled")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type BetType string

const (
	BetMoneyline BetType = "moneyline"
	BetSpread    BetType = "spread"
	BetTotal     BetType = "total"
)

func (t BetType) Valid() bool {
	switch t {
	case BetMoneyline, BetSpread, BetTotal:
		return true
	}
	return false
}

type BetStatus string

const (
	StatusPending BetStatus = "pending"
	StatusWon     BetStatus = "won"
	StatusLost    BetStatus = "lost"
)

// Terminal indica se o status é final (won | lost).
func (s BetStatus) Terminal() bool { return s == StatusWon || s == StatusLost }

// Seleções literais de apostas de total.
const (
	SelectionOver  = "Over"
	SelectionUnder = "Under"
)

// Line é a linha (spread ou total) travada no momento da aposta.
// Aceita número, string numérica ou null no JSON.
type Line struct {
	Value float64
	Valid bool
}

func NewLine(v float64) Line { return Line{Value: v, Valid: true} }

// ParseLine interpreta o texto como float. Texto vazio ou inválido resulta em linha ausente.
func ParseLine(s string) Line {
	s = strings.TrimSpace(s)
	if s == "" {
		return Line{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Line{}
	}
	return NewLine(v)
}

func (l Line) MarshalJSON() ([]byte, error) {
	if !l.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(l.Value)
}

func (l *Line) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = Line{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("line: %w", err)
		}
		*l = ParseLine(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("line: %w", err)
	}
	*l = NewLine(v)
	return nil
}

// ActualResult é o retrato do placar final gravado na aposta resolvida.
type ActualResult struct {
	HomeTeam    string    `json:"homeTeam"`
	AwayTeam    string    `json:"awayTeam"`
	HomeScore   int       `json:"homeScore"`
	AwayScore   int       `json:"awayScore"`
	TotalPoints int       `json:"totalPoints"`
	GameStatus  string    `json:"gameStatus"`
	ResolvedAt  time.Time `json:"resolvedAt"`
}

// Bet pertence a exatamente um usuário.
type Bet struct {
	ID           string          `json:"id"`
	GameID       string          `json:"gameId"`
	Sport        string          `json:"sport,omitempty"`
	BetType      BetType         `json:"betType"`
	Selection    string          `json:"selection"`
	Amount       Cents           `json:"amount"`
	Odds         string          `json:"odds"`
	Line         Line            `json:"line"`
	PotentialWin Cents           `json:"potentialWin"`
	Status       BetStatus       `json:"status"`
	PlacedAt     time.Time       `json:"placedAt"`
	GameData     json.RawMessage `json:"gameData,omitempty"`
	ActualResult *ActualResult   `json:"actualResult,omitempty"`
	ResolvedAt   *time.Time      `json:"resolvedAt,omitempty"`
}

// SportOrDefault retorna o esporte da aposta ou o default.
func (b *Bet) SportOrDefault() string {
	if b.Sport == "" {
		return DefaultSport
	}
	return b.Sport
}

func (b *Bet) Clone() *Bet {
	if b == nil {
		return nil
	}
	c := *b
	if b.GameData != nil {
		c.GameData = append(json.RawMessage(nil), b.GameData...)
	}
	if b.ActualResult != nil {
		ar := *b.ActualResult
		c.ActualResult = &ar
	}
	if b.ResolvedAt != nil {
		t := *b.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

type User struct {
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Balance      Cents     `json:"balance"`
	TotalWagered Cents     `json:"totalWagered"`
	TotalWon     Cents     `json:"totalWon"`
	TotalLost    Cents     `json:"totalLost"`
	Bets         []*Bet    `json:"bets"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"lastUpdated"`
}

// NewUser cria um usuário com o saldo inicial padrão.
func NewUser(username, email, passwordHash string, now time.Time) *User {
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Balance:      StartingBalance,
		Bets:         []*Bet{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (u *User) FindBet(id string) *Bet {
	for _, b := range u.Bets {
		if b != nil && b.ID == id {
			return b
		}
	}
	return nil
}

// NetProfit = totalWon - totalLost
func (u *User) NetProfit() Cents { return u.TotalWon - u.TotalLost }

// WinRate retorna o percentual (arredondado) de apostas resolvidas que foram ganhas.
func (u *User) WinRate() int {
	var settled, won int
	for _, b := range u.Bets {
		if b == nil || !b.Status.Terminal() {
			continue
		}
		settled++
		if b.Status == StatusWon {
			won++
		}
	}
	if settled == 0 {
		return 0
	}
	return int(math.Round(float64(won) / float64(settled) * 100))
}

// Clone copia o usuário e suas apostas; entradas nulas são descartadas.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Bets = make([]*Bet, 0, len(u.Bets))
	for _, b := range u.Bets {
		if b != nil {
			c.Bets = append(c.Bets, b.Clone())
		}
	}
	return &c
}

// PendingBet é uma aposta pendente marcada com o dono, produzida pelo agregador.
type PendingBet struct {
	Bet      *Bet
	Username string
}
