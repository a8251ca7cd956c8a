package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
)

// Memory mantém os usuários num mapa protegido por mutex. Cada mutação é
// montada numa cópia do usuário e só substitui o original depois que o hook
// de persistência (se houver) aceitar o novo estado.
type Memory struct {
	mu      sync.Mutex
	users   map[string]*model.User
	persist func(map[string]*model.User) error
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]*model.User)}
}

func (m *Memory) ListUsers(_ context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *Memory) GetUser(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.Username]; ok {
		return model.ErrUserExists
	}
	c := u.Clone()
	if c.Bets == nil {
		c.Bets = []*model.Bet{}
	}
	return m.commit(c)
}

func (m *Memory) PlaceBet(_ context.Context, username string, bet *model.Bet) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.users[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if cur.Balance < bet.Amount {
		return nil, model.ErrInsufficientBalance
	}

	u := cur.Clone()
	u.Bets = append(u.Bets, bet.Clone())
	u.Balance -= bet.Amount
	u.TotalWagered += bet.Amount
	u.UpdatedAt = bet.PlacedAt

	if err := m.commit(u); err != nil {
		return nil, err
	}
	return u.Clone(), nil
}

func (m *Memory) ApplySettlement(_ context.Context, s model.Settlement) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.users[s.Username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := cur.Clone()
	b := u.FindBet(s.BetID)
	if b == nil {
		return nil, model.ErrBetNotFound
	}
	if b.Status != model.StatusPending {
		return nil, model.ErrBetAlreadySettled
	}
	s.Apply(u, b)

	if err := m.commit(u); err != nil {
		return nil, err
	}
	return u.Clone(), nil
}

// commit precisa ser chamado com m.mu travado.
func (m *Memory) commit(u *model.User) error {
	if m.persist != nil {
		if err := m.persist(m.snapshotLocked(u)); err != nil {
			return err
		}
	}
	m.users[u.Username] = u
	return nil
}

func (m *Memory) snapshotLocked(override *model.User) map[string]*model.User {
	out := make(map[string]*model.User, len(m.users)+1)
	for k, u := range m.users {
		out[k] = u
	}
	out[override.Username] = override
	return out
}
