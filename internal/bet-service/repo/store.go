package repo

import (
	"context"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
)

// Store persiste usuários e suas apostas. Implementações devolvem cópias:
// alterar o valor retornado nunca altera o estado armazenado.
//
// ApplySettlement é condicional: só liquida aposta ainda pendente e devolve
// model.ErrBetAlreadySettled caso outro escritor tenha chegado antes.
type Store interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	GetUser(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
	PlaceBet(ctx context.Context, username string, bet *model.Bet) (*model.User, error)
	ApplySettlement(ctx context.Context, s model.Settlement) (*model.User, error)
}
