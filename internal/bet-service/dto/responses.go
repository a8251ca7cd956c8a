package dto

import (
	"time"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
	"github.com/radieske/sports-bet-demo/internal/bet-service/resolver"
)

// UserResponse é o usuário sem o hash de senha, com as estatísticas derivadas.
type UserResponse struct {
	*model.User
	NetProfit model.Cents `json:"netProfit"`
	WinRate   int         `json:"winRate"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{User: u, NetProfit: u.NetProfit(), WinRate: u.WinRate()}
}

type PlaceBetResponse struct {
	Success bool         `json:"success"`
	Bet     *model.Bet   `json:"bet"`
	User    UserResponse `json:"user"`
}

type ResolveBetResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ForceResolveResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Report  resolver.SweepReport `json:"report"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
