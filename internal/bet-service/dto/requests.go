package dto

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
)

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PlaceBetRequest struct {
	GameID       string          `json:"gameId"`
	Sport        string          `json:"sport"`
	BetType      model.BetType   `json:"betType"` // moneyline | spread | total
	Selection    string          `json:"selection"`
	Amount       model.Cents     `json:"amount"` // unidades no JSON
	Odds         FlexString      `json:"odds"` // "-110", "+150" ou número
	Line         model.Line      `json:"line"`
	PotentialWin model.Cents     `json:"potentialWin"`
	GameData     json.RawMessage `json:"gameData,omitempty"`
}

// ResolveBetRequest é o corpo da resolução manual.
type ResolveBetRequest struct {
	Status       model.BetStatus     `json:"status"` // won | lost
	ActualResult *model.ActualResult `json:"actualResult,omitempty"`
}

type StartAutoResolveRequest struct {
	IntervalMinutes int `json:"intervalMinutes"`
}

// FlexString aceita string ou número no JSON e guarda o texto.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}
