package repo

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
)

var t0 = time.Date(2025, 2, 1, 18, 0, 0, 0, time.UTC)

func newBet(id string, amount model.Cents) *model.Bet {
	return &model.Bet{
		ID: id, GameID: "401", Sport: "nba", BetType: model.BetSpread, Selection: "Lakers",
		Amount: amount, Odds: "-110", Line: model.NewLine(-3.5), PotentialWin: amount * 9 / 10,
		Status: model.StatusPending, PlacedAt: t0,
	}
}

// exerciseStore roda o mesmo contrato contra qualquer implementação.
func exerciseStore(t *testing.T, s Store, username string) {
	t.Helper()
	ctx := context.Background()

	if err := s.CreateUser(ctx, model.NewUser(username, username+"@example.com", "hash", t0)); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.CreateUser(ctx, model.NewUser(username, "", "", t0)); !errors.Is(err, model.ErrUserExists) {
		t.Fatalf("duplicate CreateUser err = %v, want ErrUserExists", err)
	}

	if _, err := s.PlaceBet(ctx, username, newBet(username+"-big", 500000)); !errors.Is(err, model.ErrInsufficientBalance) {
		t.Fatalf("PlaceBet over balance err = %v", err)
	}
	if _, err := s.PlaceBet(ctx, "ghost-"+username, newBet(username+"-x", 100)); !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("PlaceBet unknown user err = %v", err)
	}

	u, err := s.PlaceBet(ctx, username, newBet(username+"-b1", 5000))
	if err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	if u.Balance != 95000 || u.TotalWagered != 5000 || len(u.Bets) != 1 {
		t.Fatalf("after placement: balance=%d wagered=%d bets=%d", u.Balance, u.TotalWagered, len(u.Bets))
	}
	if got := u.Bets[0]; !got.Line.Valid || got.Line.Value != -3.5 || got.Status != model.StatusPending {
		t.Errorf("stored bet = %+v", got)
	}

	bet := u.Bets[0]
	res := &model.ActualResult{HomeTeam: "Lakers", AwayTeam: "Celtics", HomeScore: 100, AwayScore: 90, TotalPoints: 190, GameStatus: "Final", ResolvedAt: t0}
	s1 := model.NewSettlement(username, bet, model.StatusWon, res, t0.Add(time.Hour))

	u, err = s.ApplySettlement(ctx, s1)
	if err != nil {
		t.Fatalf("ApplySettlement: %v", err)
	}
	if u.Balance != 104500 || u.TotalWon != 4500 {
		t.Errorf("after win: balance=%d totalWon=%d", u.Balance, u.TotalWon)
	}
	if b := u.FindBet(bet.ID); b.Status != model.StatusWon || b.ActualResult == nil || b.ResolvedAt == nil {
		t.Errorf("settled bet = %+v", b)
	}

	// segunda liquidação da mesma aposta é rejeitada e não mexe no saldo
	if _, err := s.ApplySettlement(ctx, model.NewSettlement(username, bet, model.StatusLost, nil, t0)); !errors.Is(err, model.ErrBetAlreadySettled) {
		t.Fatalf("second settlement err = %v, want ErrBetAlreadySettled", err)
	}
	if _, err := s.ApplySettlement(ctx, model.Settlement{Username: username, BetID: "missing", Status: model.StatusLost}); !errors.Is(err, model.ErrBetNotFound) {
		t.Fatalf("unknown bet err = %v", err)
	}
	if _, err := s.ApplySettlement(ctx, model.Settlement{Username: "ghost-" + username, BetID: bet.ID, Status: model.StatusLost}); !errors.Is(err, model.ErrUserNotFound) {
		t.Fatalf("unknown user err = %v", err)
	}

	u, err = s.GetUser(ctx, username)
	if err != nil {
		t.Fatal(err)
	}
	if u.Balance != 104500 || u.TotalLost != 0 {
		t.Errorf("balance changed by rejected settlement: %+v", u)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, lu := range users {
		if lu.Username == username {
			found = len(lu.Bets) == 1
		}
	}
	if !found {
		t.Error("ListUsers missing user or bets")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory(), "ana")
}

// exerciseSmallStakes aposta 0.10 e 0.20 e confere o saldo exato.
func exerciseSmallStakes(t *testing.T, s Store, username string) {
	t.Helper()
	ctx := context.Background()

	if err := s.CreateUser(ctx, model.NewUser(username, "", "", t0)); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	var u *model.User
	for i, units := range []float64{0.10, 0.20} {
		var err error
		u, err = s.PlaceBet(ctx, username, newBet(fmt.Sprintf("%s-s%d", username, i), model.ToCents(units)))
		if err != nil {
			t.Fatalf("PlaceBet(%v): %v", units, err)
		}
	}
	if u.Balance != 99970 || u.TotalWagered != 30 {
		t.Fatalf("balance=%d wagered=%d, want 99970/30", u.Balance, u.TotalWagered)
	}

	u, err := s.GetUser(ctx, username)
	if err != nil {
		t.Fatal(err)
	}
	out, _ := json.Marshal(u)
	var body struct {
		Balance      json.Number `json:"balance"`
		TotalWagered json.Number `json:"totalWagered"`
	}
	dec := json.NewDecoder(bytes.NewReader(out))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Balance != "999.7" || body.TotalWagered != "0.3" {
		t.Errorf("json balance=%s wagered=%s, want 999.7/0.3", body.Balance, body.TotalWagered)
	}
}

func TestSmallStakesKeepExactBalance(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		exerciseSmallStakes(t, NewMemory(), "ana")
	})
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "users.json")
		f, err := NewFile(path)
		if err != nil {
			t.Fatal(err)
		}
		exerciseSmallStakes(t, f, "ana")

		reopened, err := NewFile(path)
		if err != nil {
			t.Fatal(err)
		}
		u, err := reopened.GetUser(context.Background(), "ana")
		if err != nil {
			t.Fatal(err)
		}
		if u.Balance != 99970 || u.TotalWagered != 30 {
			t.Errorf("reloaded balance=%d wagered=%d", u.Balance, u.TotalWagered)
		}
	})
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.CreateUser(ctx, model.NewUser("ana", "", "", t0))
	_, _ = m.PlaceBet(ctx, "ana", newBet("b1", 1000))

	u, _ := m.GetUser(ctx, "ana")
	u.Balance = 0
	u.Bets[0].Status = model.StatusWon

	again, _ := m.GetUser(ctx, "ana")
	if again.Balance != 99000 || again.Bets[0].Status != model.StatusPending {
		t.Errorf("store mutated through returned value: %+v", again)
	}
}

func TestMemoryConcurrentSettlementAppliesOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.CreateUser(ctx, model.NewUser("ana", "", "", t0))
	u, _ := m.PlaceBet(ctx, "ana", newBet("b1", 5000))
	s := model.NewSettlement("ana", u.Bets[0], model.StatusWon, nil, t0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.ApplySettlement(ctx, s); err == nil {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if applied != 1 {
		t.Fatalf("settlement applied %d times, want 1", applied)
	}
	final, _ := m.GetUser(ctx, "ana")
	if final.Balance != 104500 {
		t.Errorf("balance = %d, want 104500", final.Balance)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "users.json")

	f, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, f, "ana")

	reopened, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	u, err := reopened.GetUser(context.Background(), "ana")
	if err != nil {
		t.Fatal(err)
	}
	if u.PasswordHash != "hash" {
		t.Errorf("password hash not persisted: %q", u.PasswordHash)
	}
	if u.Balance != 104500 || len(u.Bets) != 1 || u.Bets[0].Status != model.StatusWon {
		t.Errorf("reloaded user = %+v", u)
	}
}

func TestFileStorePersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.CreateUser(ctx, model.NewUser("ana", "", "", t0))
	boom := errors.New("disk full")
	m.persist = func(map[string]*model.User) error { return boom }

	if _, err := m.PlaceBet(ctx, "ana", newBet("b1", 1000)); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	u, _ := m.GetUser(ctx, "ana")
	if u.Balance != model.StartingBalance || len(u.Bets) != 0 {
		t.Errorf("failed write leaked into memory: %+v", u)
	}
}

func TestFileStoreSkipsNullBets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	raw := `{"ana":{"username":"ana","balance":950,"bets":[null,{"id":"b1","gameId":"401","betType":"moneyline","selection":"Lakers","amount":50,"odds":"-110","potentialWin":45.45,"status":"pending"},null]}}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	u, err := f.GetUser(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(u.Bets) != 1 || u.Bets[0].ID != "b1" {
		t.Fatalf("bets = %+v", u.Bets)
	}
	if u.Balance != 95000 || u.Bets[0].Amount != 5000 || u.Bets[0].PotentialWin != 4545 {
		t.Errorf("amounts not read as cents: balance=%d amount=%d win=%d", u.Balance, u.Bets[0].Amount, u.Bets[0].PotentialWin)
	}

	bet := u.Bets[0]
	u, err = f.ApplySettlement(ctx, model.NewSettlement("ana", bet, model.StatusWon, nil, t0))
	if err != nil {
		t.Fatalf("ApplySettlement: %v", err)
	}
	if u.Balance != 104545 {
		t.Errorf("balance = %d, want 104545", u.Balance)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

// Requer um Postgres real: POSTGRES_TEST_DSN=postgres://... go test ./...
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	p := NewPostgres(conn)
	if err := p.EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, p, "it-"+uuid.NewString()[:8])
	exerciseSmallStakes(t, p, "it-"+uuid.NewString()[:8])
}
