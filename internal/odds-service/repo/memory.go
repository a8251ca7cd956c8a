package repo

import (
	"context"
	"sync"
	"time"

	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

// Memory guarda os snapshots em memória; usado com STORE_DRIVER=memory e em testes.
type Memory struct {
	mu      sync.RWMutex
	odds    map[string][]events.GameOdds
	updated time.Time
}

func NewMemory() *Memory { return &Memory{odds: map[string][]events.GameOdds{}} }

func (m *Memory) Save(_ context.Context, odds map[string][]events.GameOdds, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sport, games := range odds {
		m.odds[sport] = append([]events.GameOdds{}, games...)
	}
	m.updated = at
	return nil
}

func (m *Memory) ForSport(_ context.Context, sport string) ([]events.GameOdds, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]events.GameOdds{}, m.odds[sport]...), nil
}

func (m *Memory) All(_ context.Context) (map[string][]events.GameOdds, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]events.GameOdds, len(m.odds))
	for sport, games := range m.odds {
		out[sport] = append([]events.GameOdds{}, games...)
	}
	return out, nil
}

func (m *Memory) LastUpdate(_ context.Context) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updated, !m.updated.IsZero(), nil
}
