package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/radieske/sports-bet-demo/internal/shared/db"
	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

// Schema guarda o último snapshot de odds por esporte.
const Schema = `
CREATE TABLE IF NOT EXISTS odds_snapshots (
	sport      TEXT PRIMARY KEY,
	games      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// Postgres persiste os snapshots de odds em odds_snapshots
type Postgres struct{ DB *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{DB: db} }

func (r *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure odds schema: %w", err)
	}
	return nil
}

// Save substitui o snapshot de cada esporte informado numa única transação.
// Utiliza ON CONFLICT para manter uma linha por esporte
func (r *Postgres) Save(ctx context.Context, odds map[string][]events.GameOdds, at time.Time) error {
	const q = `
		INSERT INTO odds_snapshots (sport, games, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (sport) DO UPDATE SET
		  games      = EXCLUDED.games,
		  updated_at = EXCLUDED.updated_at
	`
	return db.InTx(ctx, r.DB, func(tx *sql.Tx) error {
		for sport, games := range odds {
			if games == nil {
				games = []events.GameOdds{}
			}
			raw, err := json.Marshal(games)
			if err != nil {
				return fmt.Errorf("marshal %s odds: %w", sport, err)
			}
			if _, err := tx.ExecContext(ctx, q, sport, string(raw), at); err != nil {
				return fmt.Errorf("upsert %s odds: %w", sport, err)
			}
		}
		return nil
	})
}

func (r *Postgres) ForSport(ctx context.Context, sport string) ([]events.GameOdds, error) {
	var raw []byte
	err := r.DB.QueryRowContext(ctx, `SELECT games FROM odds_snapshots WHERE sport = $1`, sport).Scan(&raw)
	if err == sql.ErrNoRows {
		return []events.GameOdds{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s odds: %w", sport, err)
	}
	var games []events.GameOdds
	if err := json.Unmarshal(raw, &games); err != nil {
		return nil, fmt.Errorf("decode %s odds: %w", sport, err)
	}
	return games, nil
}

func (r *Postgres) All(ctx context.Context) (map[string][]events.GameOdds, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT sport, games FROM odds_snapshots ORDER BY sport`)
	if err != nil {
		return nil, fmt.Errorf("select odds: %w", err)
	}
	defer rows.Close()

	out := map[string][]events.GameOdds{}
	for rows.Next() {
		var (
			sport string
			raw   []byte
			games []events.GameOdds
		)
		if err := rows.Scan(&sport, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &games); err != nil {
			return nil, fmt.Errorf("decode %s odds: %w", sport, err)
		}
		out[sport] = games
	}
	return out, rows.Err()
}

// LastUpdate retorna o horário do snapshot mais recente; ok=false quando não há nenhum.
func (r *Postgres) LastUpdate(ctx context.Context) (time.Time, bool, error) {
	var t sql.NullTime
	if err := r.DB.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM odds_snapshots`).Scan(&t); err != nil {
		return time.Time{}, false, fmt.Errorf("select last update: %w", err)
	}
	return t.Time, t.Valid, nil
}
