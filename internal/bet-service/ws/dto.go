package ws

import "github.com/radieske/sports-bet-demo/pkg/contracts/events"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Username: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// SettlementUpdate é enviada ao cliente quando uma aposta dele é liquidada
type SettlementUpdate struct {
	Type     string            `json:"type"` // bet_settled
	Username string            `json:"username"`
	Payload  events.BetSettled `json:"payload"`
}
