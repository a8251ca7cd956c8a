package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
)

// fileUser acrescenta o hash da senha, omitido no JSON público do usuário.
type fileUser struct {
	*model.User
	Password string `json:"password,omitempty"`
}

// NewFile abre um store em memória espelhado num arquivo JSON
// (username -> usuário). Arquivo inexistente começa vazio.
func NewFile(path string) (*Memory, error) {
	m := NewMemory()

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read users file: %w", err)
	case len(b) > 0:
		raw := map[string]json.RawMessage{}
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("parse users file: %w", err)
		}
		for name, r := range raw {
			fu := fileUser{User: &model.User{}}
			if err := json.Unmarshal(r, &fu); err != nil {
				return nil, fmt.Errorf("parse user %q: %w", name, err)
			}
			fu.User.PasswordHash = fu.Password
			if fu.User.Username == "" {
				fu.User.Username = name
			}
			// entradas null no array de apostas são ignoradas
			bets := make([]*model.Bet, 0, len(fu.User.Bets))
			for _, b := range fu.User.Bets {
				if b != nil {
					bets = append(bets, b)
				}
			}
			fu.User.Bets = bets
			m.users[fu.User.Username] = fu.User
		}
	}

	m.persist = func(users map[string]*model.User) error { return writeUsersFile(path, users) }
	return m, nil
}

// writeUsersFile grava num arquivo temporário e renomeia, para que um leitor
// nunca veja o JSON pela metade.
func writeUsersFile(path string, users map[string]*model.User) error {
	out := make(map[string]fileUser, len(users))
	for k, u := range users {
		out[k] = fileUser{User: u, Password: u.PasswordHash}
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create users dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace users file: %w", err)
	}
	return nil
}
