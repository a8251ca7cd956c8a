package espn

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Scoreboard é o subconjunto do placar do ESPN usado na resolução de apostas.
type Scoreboard struct {
	Events []Event `json:"events"`
}

type Event struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Competitions []Competition `json:"competitions"`
}

type Competition struct {
	Competitors []Competitor `json:"competitors"`
	Status      *Status      `json:"status"`
}

type Competitor struct {
	HomeAway string `json:"homeAway"` // home | away
	Score    Score  `json:"score"`
	Team     Team   `json:"team"`
}

type Team struct {
	DisplayName      string `json:"displayName"`
	ShortDisplayName string `json:"shortDisplayName"`
}

// Name prefere o nome curto ("Lakers") e cai para o completo.
func (t Team) Name() string {
	if t.ShortDisplayName != "" {
		return t.ShortDisplayName
	}
	return t.DisplayName
}

type Status struct {
	Type *StatusType `json:"type"`
}

type StatusType struct {
	State       string `json:"state"` // pre | in | post
	Completed   bool   `json:"completed"`
	Detail      string `json:"detail"`
	ShortDetail string `json:"shortDetail"`
}

// Score aceita o placar como string ("110") ou número. Valores ilegíveis viram 0;
// texto com sufixo não numérico usa os dígitos iniciais.
type Score int

func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = 0
		return nil
	}
	var text string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			*s = 0
			return nil
		}
	} else {
		text = string(b)
	}
	*s = Score(leadingInt(text))
	return nil
}

func leadingInt(text string) int {
	text = strings.TrimSpace(text)
	neg := false
	if strings.HasPrefix(text, "-") || strings.HasPrefix(text, "+") {
		neg = text[0] == '-'
		text = text[1:]
	}
	n := 0
	for _, r := range text {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		return -n
	}
	return n
}
