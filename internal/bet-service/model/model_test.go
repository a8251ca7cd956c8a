package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestLineUnmarshal(t *testing.T) {
	tests := []struct {
		in        string
		wantValid bool
		wantValue float64
	}{
		{`-3.5`, true, -3.5},
		{`"231.5"`, true, 231.5},
		{`" 7 "`, true, 7},
		{`null`, false, 0},
		{`""`, false, 0},
		{`"abc"`, false, 0},
	}
	for _, tt := range tests {
		var l Line
		if err := json.Unmarshal([]byte(tt.in), &l); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if l.Valid != tt.wantValid || l.Value != tt.wantValue {
			t.Errorf("Unmarshal(%s) = %+v, want valid=%v value=%v", tt.in, l, tt.wantValid, tt.wantValue)
		}
	}
}

func TestBetJSONWithoutLine(t *testing.T) {
	var b Bet
	if err := json.Unmarshal([]byte(`{"id":"b1","gameId":"g1","betType":"moneyline","selection":"Lakers","amount":10}`), &b); err != nil {
		t.Fatal(err)
	}
	if b.Line.Valid {
		t.Errorf("line should be absent, got %+v", b.Line)
	}
	out, _ := json.Marshal(b)
	var back map[string]any
	_ = json.Unmarshal(out, &back)
	if back["line"] != nil {
		t.Errorf("line should marshal as null, got %v", back["line"])
	}
}

func TestNewSettlement(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	bet := &Bet{ID: "b1", Amount: 5000, PotentialWin: 4500, Status: StatusPending}

	won := NewSettlement("ana", bet, StatusWon, nil, now)
	if won.BalanceDelta != 9500 || won.WonDelta != 4500 || won.LostDelta != 0 {
		t.Errorf("won settlement = %+v", won)
	}

	lost := NewSettlement("ana", bet, StatusLost, nil, now)
	if lost.BalanceDelta != 0 || lost.WonDelta != 0 || lost.LostDelta != 5000 {
		t.Errorf("lost settlement = %+v", lost)
	}
}

func TestSettlementApply(t *testing.T) {
	now := time.Now().UTC()
	u := NewUser("ana", "", "", now)
	u.Balance = 95000
	bet := &Bet{ID: "b1", Amount: 5000, PotentialWin: 4500, Status: StatusPending}
	u.Bets = append(u.Bets, bet)

	res := &ActualResult{HomeTeam: "Lakers", AwayTeam: "Celtics", HomeScore: 100, AwayScore: 90, TotalPoints: 190, GameStatus: GameStatusFinal}
	NewSettlement("ana", bet, StatusWon, res, now).Apply(u, bet)

	if u.Balance != 104500 {
		t.Errorf("balance = %d, want 104500", u.Balance)
	}
	if u.TotalWon != 4500 {
		t.Errorf("totalWon = %d, want 4500", u.TotalWon)
	}
	if bet.Status != StatusWon || bet.ResolvedAt == nil || bet.ActualResult == nil {
		t.Errorf("bet not updated: %+v", bet)
	}
}

func TestWinRate(t *testing.T) {
	u := &User{Bets: []*Bet{
		{Status: StatusWon}, {Status: StatusLost}, {Status: StatusLost}, {Status: StatusPending},
	}}
	if got := u.WinRate(); got != 33 {
		t.Errorf("WinRate() = %d, want 33", got)
	}
	if got := (&User{}).WinRate(); got != 0 {
		t.Errorf("WinRate() on empty = %d, want 0", got)
	}
}

func TestUserToleratesNilBets(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"username":"ana","bets":[null,{"id":"b1","status":"won"},null]}`), &u); err != nil {
		t.Fatal(err)
	}
	if got := u.WinRate(); got != 100 {
		t.Errorf("WinRate() = %d, want 100", got)
	}
	if b := u.FindBet("b1"); b == nil {
		t.Error("FindBet(b1) = nil")
	}
	if b := u.FindBet("missing"); b != nil {
		t.Errorf("FindBet(missing) = %+v", b)
	}
	if c := u.Clone(); len(c.Bets) != 1 || c.Bets[0].ID != "b1" {
		t.Errorf("Clone() bets = %+v", c.Bets)
	}
}

func TestUserCloneIsDeep(t *testing.T) {
	u := &User{Username: "ana", Bets: []*Bet{{ID: "b1", Status: StatusPending}}}
	c := u.Clone()
	c.Bets[0].Status = StatusWon
	if u.Bets[0].Status != StatusPending {
		t.Error("clone shares bet pointers with original")
	}
}
