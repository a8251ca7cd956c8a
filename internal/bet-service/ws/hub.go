package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

const writeWait = 10 * time.Second

// conn serializa as escritas: o gorilla aceita um único escritor por conexão
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// Hub gerencia conexões WebSocket e assinaturas por usuário
// subs: mapeia username para o conjunto de conexões inscritas
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	subs     map[string]map[*conn]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[string]map[*conn]struct{}),
	}
}

// ServeHTTP gerencia o ciclo de vida de uma conexão WebSocket
// Cada cliente pode acompanhar mais de um usuário
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	c := &conn{ws: wsConn}
	defer wsConn.Close()

	for {
		var msg ClientMsg
		if err := wsConn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.Username == "" {
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.Username]; !ok {
				h.subs[msg.Username] = make(map[*conn]struct{})
			}
			h.subs[msg.Username][c] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.remove(msg.Username, c)
		case "ping":
			_ = c.writeJSON(map[string]string{"type": "pong"})
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for user, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, user)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) remove(username string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[username]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, username)
		}
	}
}

// Subscribers retorna quantas conexões acompanham o usuário
func (h *Hub) Subscribers(username string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[username])
}

// Broadcast envia a liquidação para as conexões inscritas no dono da aposta
func (h *Hub) Broadcast(ev events.BetSettled) {
	h.mu.RLock()
	conns := make([]*conn, 0, len(h.subs[ev.Username]))
	for c := range h.subs[ev.Username] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	upd := SettlementUpdate{Type: "bet_settled", Username: ev.Username, Payload: ev}
	for _, c := range conns {
		if err := c.writeJSON(upd); err != nil {
			h.log.Debug("ws write failed", zap.String("username", ev.Username), zap.Error(err))
		}
	}
}

// Dispatch decodifica o payload do canal Pub/Sub e repassa aos inscritos
func (h *Hub) Dispatch(payload []byte) error {
	var ev events.BetSettled
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	h.Broadcast(ev)
	return nil
}
