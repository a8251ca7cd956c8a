package outcome

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
	"github.com/radieske/sports-bet-demo/internal/bet-service/teams"
)

var fixedNow = time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)

func newEvaluator(log *zap.Logger) *Evaluator {
	return NewEvaluator(teams.Default(), log, WithClock(func() time.Time { return fixedNow }))
}

func finalGame(home string, homeScore int, away string, awayScore int) *model.GameSnapshot {
	return &model.GameSnapshot{
		GameID: "401",
		Home:   &model.Competitor{Team: home, Score: homeScore},
		Away:   &model.Competitor{Team: away, Score: awayScore},
		Status: &model.GameStatus{Completed: true, Detail: "Final"},
	}
}

func TestEvaluateNotResolvable(t *testing.T) {
	e := newEvaluator(nil)
	bet := &model.Bet{ID: "b1", BetType: model.BetMoneyline, Selection: "Lakers"}

	inProgress := finalGame("Lakers", 50, "Celtics", 40)
	inProgress.Status.Completed = false

	noStatus := finalGame("Lakers", 50, "Celtics", 40)
	noStatus.Status = nil

	noAway := finalGame("Lakers", 50, "Celtics", 40)
	noAway.Away = nil

	unknownType := &model.Bet{ID: "b2", BetType: "parlay", Selection: "Lakers"}

	cases := map[string]struct {
		bet  *model.Bet
		game *model.GameSnapshot
	}{
		"nil snapshot":   {bet, nil},
		"in progress":    {bet, inProgress},
		"missing status": {bet, noStatus},
		"missing side":   {bet, noAway},
		"unknown type":   {unknownType, finalGame("Lakers", 100, "Celtics", 90)},
	}
	for name, c := range cases {
		if got := e.Evaluate(c.bet, c.game); got != nil {
			t.Errorf("%s: Evaluate = %+v, want nil", name, got)
		}
	}
}

func TestEvaluateMoneyline(t *testing.T) {
	e := newEvaluator(nil)
	game := finalGame("Lakers", 110, "Celtics", 102)

	tests := []struct {
		selection string
		want      model.BetStatus
	}{
		{"Lakers", model.StatusWon},
		{"Los Angeles Lakers", model.StatusWon},
		{"Celtics", model.StatusLost},
		{"Boston Celtics", model.StatusLost},
	}
	for _, tt := range tests {
		got := e.Evaluate(&model.Bet{ID: "b", BetType: model.BetMoneyline, Selection: tt.selection}, game)
		if got == nil || got.Status != tt.want {
			t.Errorf("moneyline %q: got %+v, want %s", tt.selection, got, tt.want)
		}
	}
}

func TestEvaluateMoneylineOppositeSidesAreInverse(t *testing.T) {
	e := newEvaluator(nil)
	for _, g := range []*model.GameSnapshot{
		finalGame("Duke Blue Devils", 70, "North Carolina Tar Heels", 81),
		finalGame("Duke Blue Devils", 90, "North Carolina Tar Heels", 81),
	} {
		home := e.Evaluate(&model.Bet{BetType: model.BetMoneyline, Selection: "Duke"}, g)
		away := e.Evaluate(&model.Bet{BetType: model.BetMoneyline, Selection: "UNC"}, g)
		if home == nil || away == nil {
			t.Fatalf("expected outcomes for %+v", g)
		}
		if home.Status == away.Status {
			t.Errorf("home=%s away=%s, want opposite results", home.Status, away.Status)
		}
	}
}

func TestEvaluateMoneylineTieLosesBothSides(t *testing.T) {
	e := newEvaluator(nil)
	g := finalGame("Lakers", 100, "Celtics", 100)
	for _, sel := range []string{"Lakers", "Celtics"} {
		got := e.Evaluate(&model.Bet{BetType: model.BetMoneyline, Selection: sel}, g)
		if got == nil || got.Status != model.StatusLost {
			t.Errorf("tie %s: got %+v, want lost", sel, got)
		}
	}
}

func TestEvaluateSpread(t *testing.T) {
	e := newEvaluator(nil)
	game := finalGame("Lakers", 100, "Celtics", 90)

	tests := []struct {
		name      string
		selection string
		line      model.Line
		want      model.BetStatus
	}{
		{"home covers", "Lakers", model.NewLine(5), model.StatusWon},
		{"home misses", "Lakers", model.NewLine(15), model.StatusLost},
		{"home exact margin", "Lakers", model.NewLine(10), model.StatusLost},
		{"away with negative line", "Celtics", model.NewLine(-12.5), model.StatusWon},
		{"away with positive line", "Celtics", model.NewLine(2.5), model.StatusLost},
		{"missing line defaults to zero", "Lakers", model.Line{}, model.StatusWon},
	}
	for _, tt := range tests {
		got := e.Evaluate(&model.Bet{ID: "b", BetType: model.BetSpread, Selection: tt.selection, Line: tt.line}, game)
		if got == nil || got.Status != tt.want {
			t.Errorf("%s: got %+v, want %s", tt.name, got, tt.want)
		}
	}
}

func TestEvaluateTotal(t *testing.T) {
	e := newEvaluator(nil)
	game := finalGame("Lakers", 110, "Celtics", 100) // 210

	tests := []struct {
		selection string
		line      model.Line
		want      model.BetStatus
	}{
		{model.SelectionOver, model.NewLine(210), model.StatusLost},
		{model.SelectionUnder, model.NewLine(210), model.StatusLost},
		{model.SelectionOver, model.NewLine(209), model.StatusWon},
		{model.SelectionUnder, model.NewLine(210.5), model.StatusWon},
		{model.SelectionOver, model.Line{}, model.StatusLost},  // default 220
		{model.SelectionUnder, model.Line{}, model.StatusWon}, // default 220
		{"over", model.NewLine(100), model.StatusLost},         // seleção sensível a maiúsculas
	}
	for _, tt := range tests {
		got := e.Evaluate(&model.Bet{ID: "b", BetType: model.BetTotal, Selection: tt.selection, Line: tt.line}, game)
		if got == nil || got.Status != tt.want {
			t.Errorf("total %s %+v: got %+v, want %s", tt.selection, tt.line, got, tt.want)
		}
	}
}

func TestEvaluateActualResult(t *testing.T) {
	e := newEvaluator(nil)
	got := e.Evaluate(&model.Bet{BetType: model.BetMoneyline, Selection: "Lakers"}, finalGame("Lakers", 101, "Celtics", 99))
	want := model.ActualResult{
		HomeTeam: "Lakers", AwayTeam: "Celtics",
		HomeScore: 101, AwayScore: 99, TotalPoints: 200,
		GameStatus: "Final", ResolvedAt: fixedNow,
	}
	if got == nil || got.ActualResult != want {
		t.Errorf("ActualResult = %+v, want %+v", got, want)
	}
}

func TestEvaluateMissingLineLogsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := newEvaluator(zap.New(core))

	e.Evaluate(&model.Bet{ID: "b9", BetType: model.BetTotal, Selection: model.SelectionOver}, finalGame("Lakers", 1, "Celtics", 2))

	entries := logs.FilterMessage("no total line found for bet, using default").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["bet_id"] != "b9" {
		t.Errorf("warning missing bet_id: %v", entries[0].ContextMap())
	}
}

func TestEvaluateUnmatchedSelectionIsLoss(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := newEvaluator(zap.New(core))

	got := e.Evaluate(&model.Bet{ID: "b", BetType: model.BetMoneyline, Selection: "Knicks"}, finalGame("Lakers", 110, "Celtics", 100))
	if got == nil || got.Status != model.StatusLost {
		t.Fatalf("got %+v, want lost", got)
	}
	if logs.Len() != 1 {
		t.Errorf("expected unmatched warning, got %d entries", logs.Len())
	}
}
