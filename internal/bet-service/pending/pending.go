package pending

import (
	"context"
	"fmt"
	"sort"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
)

// UserLister é a leitura mínima do store usada pelo agregador.
type UserLister interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// GameGroup reúne as apostas pendentes de uma partida. Sport é o da primeira
// aposta do grupo e decide qual feed será consultado.
type GameGroup struct {
	GameID string
	Sport  string
	Bets   []model.PendingBet
}

// Collect varre todos os usuários e devolve as apostas pendentes marcadas com o dono.
// Usuários são visitados em ordem de username para que a sequência seja estável.
// Nada é alterado: as apostas devolvidas são cópias.
func Collect(ctx context.Context, users UserLister) ([]model.PendingBet, error) {
	all, err := users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	sorted := make([]*model.User, 0, len(all))
	for _, u := range all {
		if u != nil {
			sorted = append(sorted, u)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Username < sorted[j].Username })

	var out []model.PendingBet
	for _, u := range sorted {
		for _, b := range u.Bets {
			if b == nil || b.Status != model.StatusPending {
				continue
			}
			out = append(out, model.PendingBet{Bet: b.Clone(), Username: u.Username})
		}
	}
	return out, nil
}

// GroupByGame agrupa por gameId preservando a ordem em que cada partida aparece.
func GroupByGame(bets []model.PendingBet) []GameGroup {
	idx := make(map[string]int)
	var groups []GameGroup
	for _, pb := range bets {
		i, ok := idx[pb.Bet.GameID]
		if !ok {
			i = len(groups)
			idx[pb.Bet.GameID] = i
			groups = append(groups, GameGroup{GameID: pb.Bet.GameID, Sport: pb.Bet.SportOrDefault()})
		}
		groups[i].Bets = append(groups[i].Bets, pb)
	}
	return groups
}
