package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/radieske/sports-bet-demo/internal/shared/db"
	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

type snapshotStore interface {
	Save(ctx context.Context, odds map[string][]events.GameOdds, at time.Time) error
	ForSport(ctx context.Context, sport string) ([]events.GameOdds, error)
	All(ctx context.Context) (map[string][]events.GameOdds, error)
	LastUpdate(ctx context.Context) (time.Time, bool, error)
}

func exerciseSnapshots(t *testing.T, s snapshotStore) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.LastUpdate(ctx); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if games, err := s.ForSport(ctx, "nba"); err != nil || len(games) != 0 {
		t.Fatalf("empty sport: %v %v", games, err)
	}

	line := 221.5
	first := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	err := s.Save(ctx, map[string][]events.GameOdds{
		"nba": {{ID: "g1", Sport: "nba", HomeTeam: "Los Angeles Lakers", AwayTeam: "Boston Celtics",
			Odds: map[string]events.Quote{"Over_total": {Price: -110, Line: &line}}}},
		"ncaa-football": {},
	}, first)
	if err != nil {
		t.Fatal(err)
	}

	nba, err := s.ForSport(ctx, "nba")
	if err != nil || len(nba) != 1 || *nba[0].Odds["Over_total"].Line != 221.5 {
		t.Fatalf("nba = %+v err=%v", nba, err)
	}

	second := first.Add(24 * time.Hour)
	if err := s.Save(ctx, map[string][]events.GameOdds{"nba": {{ID: "g2"}, {ID: "g3"}}}, second); err != nil {
		t.Fatal(err)
	}
	all, err := s.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all["nba"]) != 2 || len(all["ncaa-football"]) != 0 {
		t.Errorf("all = %+v", all)
	}
	last, ok, err := s.LastUpdate(ctx)
	if err != nil || !ok || !last.Equal(second) {
		t.Errorf("last update = %v ok=%v err=%v", last, ok, err)
	}
}

func TestMemorySnapshots(t *testing.T) {
	exerciseSnapshots(t, NewMemory())
}

func TestPostgresSnapshots(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	pg, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer pg.Close()

	r := NewPostgres(pg)
	if _, err := pg.ExecContext(ctx, `DROP TABLE IF EXISTS odds_snapshots`); err != nil {
		t.Fatal(err)
	}
	if err := r.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	exerciseSnapshots(t, r)
}
