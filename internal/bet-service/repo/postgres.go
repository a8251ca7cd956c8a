package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
	"github.com/radieske/sports-bet-demo/internal/shared/db"
)

// Schema cria as tabelas de usuários e apostas quando ainda não existem.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	username      TEXT PRIMARY KEY,
	email         TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	balance_cents       BIGINT NOT NULL,
	total_wagered_cents BIGINT NOT NULL DEFAULT 0,
	total_won_cents     BIGINT NOT NULL DEFAULT 0,
	total_lost_cents    BIGINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS bets (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL REFERENCES users(username),
	game_id       TEXT NOT NULL,
	sport         TEXT NOT NULL DEFAULT '',
	bet_type      TEXT NOT NULL,
	selection     TEXT NOT NULL,
	amount_cents  BIGINT NOT NULL,
	odds          TEXT NOT NULL DEFAULT '',
	line          DOUBLE PRECISION NULL,
	potential_win_cents BIGINT NOT NULL,
	status        TEXT NOT NULL,
	placed_at     TIMESTAMPTZ NOT NULL,
	game_data     JSONB NULL,
	actual_result JSONB NULL,
	resolved_at   TIMESTAMPTZ NULL
);

CREATE INDEX IF NOT EXISTS bets_username_idx ON bets (username, placed_at);
CREATE INDEX IF NOT EXISTS bets_pending_idx ON bets (game_id) WHERE status = 'pending';
`

// Postgres implementa o Store em banco Postgres
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const userColumns = `username, email, password_hash, balance_cents, total_wagered_cents, total_won_cents, total_lost_cents,
	created_at, updated_at`

const betColumns = `id, username, game_id, sport, bet_type, selection, amount_cents, odds, line, potential_win_cents,
	status, placed_at, game_data, actual_result, resolved_at`

func (p *Postgres) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	byName := make(map[string]*model.User)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
		byName[u.Username] = u
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	brows, err := p.db.QueryContext(ctx, `SELECT `+betColumns+` FROM bets ORDER BY placed_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer brows.Close()
	for brows.Next() {
		owner, b, err := scanBet(brows)
		if err != nil {
			return nil, err
		}
		if u, ok := byName[owner]; ok {
			u.Bets = append(u.Bets, b)
		}
	}
	return users, brows.Err()
}

func (p *Postgres) GetUser(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, `SELECT `+betColumns+` FROM bets WHERE username=$1 ORDER BY placed_at, id`, username)
	if err != nil {
		return nil, fmt.Errorf("list bets of %s: %w", username, err)
	}
	defer rows.Close()
	for rows.Next() {
		_, b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		u.Bets = append(u.Bets, b)
	}
	return u, rows.Err()
}

func (p *Postgres) CreateUser(ctx context.Context, u *model.User) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		u.Username, u.Email, u.PasswordHash, int64(u.Balance), int64(u.TotalWagered), int64(u.TotalWon), int64(u.TotalLost),
		u.CreatedAt, u.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		return model.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// PlaceBet debita o stake e grava a aposta na mesma transação.
// Garante lock pessimista na linha do usuário
func (p *Postgres) PlaceBet(ctx context.Context, username string, bet *model.Bet) (*model.User, error) {
	err := db.InTx(ctx, p.db, func(tx *sql.Tx) error {
		var balance model.Cents
		err := tx.QueryRowContext(ctx, `SELECT balance_cents FROM users WHERE username=$1 FOR UPDATE`, username).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if balance < bet.Amount {
			return model.ErrInsufficientBalance
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET balance_cents = balance_cents - $1, total_wagered_cents = total_wagered_cents + $1, updated_at = $2
			WHERE username = $3`, int64(bet.Amount), bet.PlacedAt, username); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO bets (`+betColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			bet.ID, username, bet.GameID, bet.Sport, string(bet.BetType), bet.Selection, int64(bet.Amount), bet.Odds,
			nullLine(bet.Line), int64(bet.PotentialWin), string(bet.Status), bet.PlacedAt,
			nullJSON(bet.GameData), nil, nil,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p.GetUser(ctx, username)
}

// ApplySettlement só altera a aposta se ela ainda estiver pendente; saldo e
// contadores do dono são incrementados na mesma transação.
func (p *Postgres) ApplySettlement(ctx context.Context, s model.Settlement) (*model.User, error) {
	err := db.InTx(ctx, p.db, func(tx *sql.Tx) error {
		var result any
		if s.ActualResult != nil {
			b, err := json.Marshal(s.ActualResult)
			if err != nil {
				return fmt.Errorf("marshal actual result: %w", err)
			}
			result = string(b) // jsonb via texto; []byte iria como bytea
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE bets SET status = $1, actual_result = $2, resolved_at = $3
			WHERE id = $4 AND username = $5 AND status = 'pending'`,
			string(s.Status), result, s.ResolvedAt, s.BetID, s.Username)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return p.missingOrSettled(ctx, tx, s)
		}

		res, err = tx.ExecContext(ctx, `
			UPDATE users SET balance_cents = balance_cents + $1, total_won_cents = total_won_cents + $2,
				total_lost_cents = total_lost_cents + $3, updated_at = $4
			WHERE username = $5`,
			int64(s.BalanceDelta), int64(s.WonDelta), int64(s.LostDelta), s.ResolvedAt, s.Username)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p.GetUser(ctx, s.Username)
}

// missingOrSettled distingue aposta inexistente de aposta já liquidada.
func (p *Postgres) missingOrSettled(ctx context.Context, tx *sql.Tx, s model.Settlement) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username=$1)`, s.Username).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return model.ErrUserNotFound
	}
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM bets WHERE id=$1 AND username=$2`, s.BetID, s.Username).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrBetNotFound
	}
	if err != nil {
		return err
	}
	return model.ErrBetAlreadySettled
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (*model.User, error) {
	u := &model.User{Bets: []*model.Bet{}}
	if err := r.Scan(&u.Username, &u.Email, &u.PasswordHash, &u.Balance, &u.TotalWagered, &u.TotalWon, &u.TotalLost,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func scanBet(r rowScanner) (string, *model.Bet, error) {
	var (
		owner      string
		b          model.Bet
		betType    string
		status     string
		line       sql.NullFloat64
		gameData   []byte
		result     []byte
		resolvedAt sql.NullTime
	)
	if err := r.Scan(&b.ID, &owner, &b.GameID, &b.Sport, &betType, &b.Selection, &b.Amount, &b.Odds, &line,
		&b.PotentialWin, &status, &b.PlacedAt, &gameData, &result, &resolvedAt); err != nil {
		return "", nil, err
	}
	b.BetType = model.BetType(betType)
	b.Status = model.BetStatus(status)
	if line.Valid {
		b.Line = model.NewLine(line.Float64)
	}
	if len(gameData) > 0 {
		b.GameData = json.RawMessage(gameData)
	}
	if len(result) > 0 {
		var ar model.ActualResult
		if err := json.Unmarshal(result, &ar); err != nil {
			return "", nil, fmt.Errorf("bet %s actual_result: %w", b.ID, err)
		}
		b.ActualResult = &ar
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		b.ResolvedAt = &t
	}
	b.PlacedAt = b.PlacedAt.UTC()
	return owner, &b, nil
}

func nullLine(l model.Line) any {
	if !l.Valid {
		return nil
	}
	return l.Value
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
