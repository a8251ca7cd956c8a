package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/radieske/sports-bet-demo/internal/bet-service/dto"
	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
	"github.com/radieske/sports-bet-demo/internal/bet-service/repo"
	"github.com/radieske/sports-bet-demo/internal/bet-service/resolver"
	"github.com/radieske/sports-bet-demo/internal/bet-service/settlement"
	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

// ManualResolver liquida uma aposta com status informado pelo cliente.
type ManualResolver interface {
	Apply(ctx context.Context, username, betID string, status model.BetStatus, result *model.ActualResult, trigger string) (*model.User, error)
}

// Scheduler é o controle do resolvedor automático exposto nas rotas de admin.
type Scheduler interface {
	ForceSweep(ctx context.Context) (resolver.SweepReport, error)
	StartAutoResolution(intervalMinutes int) error
	Stop()
	Status() resolver.Status
}

type LineFiller interface {
	FillLine(ctx context.Context, bet *model.Bet) error
}

type BetPlacedPublisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
}

type Server struct {
	log       *zap.Logger
	store     repo.Store
	settler   ManualResolver
	scheduler Scheduler

	lines     LineFiller
	publ      BetPlacedPublisher
	ws        http.Handler
	origins   []string
	storeName string
	cost      int
	now       func() time.Time
}

type Option func(*Server)

// WithLineFiller completa a linha de spread/total a partir do cache de odds.
func WithLineFiller(f LineFiller) Option { return func(s *Server) { s.lines = f } }

func WithPublisher(p BetPlacedPublisher) Option { return func(s *Server) { s.publ = p } }

// WithWebSocket monta o hub de notificações em /ws.
func WithWebSocket(h http.Handler) Option { return func(s *Server) { s.ws = h } }

func WithAllowedOrigins(origins ...string) Option { return func(s *Server) { s.origins = origins } }

// WithStoreName define o rótulo de banco reportado em /api/health.
func WithStoreName(name string) Option { return func(s *Server) { s.storeName = name } }

// WithBcryptCost troca o custo do hash (testes usam bcrypt.MinCost).
func WithBcryptCost(cost int) Option { return func(s *Server) { s.cost = cost } }

func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

func NewServer(log *zap.Logger, store repo.Store, settler ManualResolver, scheduler Scheduler, opts ...Option) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		log:       log,
		store:     store,
		settler:   settler,
		scheduler: scheduler,
		origins:   []string{"*"},
		storeName: "postgres",
		cost:      12,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/health", s.health)

	r.Post("/api/user", s.createUser)
	r.Post("/api/auth/login", s.login)
	r.Get("/api/users", s.listUsers)
	r.Get("/api/user/{username}", s.getUser)
	r.Post("/api/user/{username}/bet", s.placeBet)
	r.Put("/api/user/{username}/bet/{betId}", s.resolveBet)

	r.Post("/api/bets/force-resolve", s.forceResolve)
	r.Get("/api/bets/auto-resolve", s.autoResolveStatus)
	r.Post("/api/bets/auto-resolve/start", s.startAutoResolve)
	r.Post("/api/bets/auto-resolve/stop", s.stopAutoResolve)

	if s.ws != nil {
		r.Handle("/ws", s.ws)
	}
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "OK", Timestamp: s.now(), Database: s.storeName})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	if err := ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		s.log.Error("hash password failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	u := model.NewUser(req.Username, req.Email, string(hash), s.now())
	if err := s.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, model.ErrUserExists) {
			writeError(w, http.StatusConflict, "Username already exists")
			return
		}
		s.log.Error("create user failed", zap.String("username", req.Username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	s.log.Info("user created", zap.String("username", u.Username))
	writeJSON(w, http.StatusCreated, dto.NewUserResponse(u))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	u, err := s.store.GetUser(r.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, model.ErrUserNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		s.log.Error("login lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.log.Error("list users failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load users")
		return
	}
	out := make(map[string]dto.UserResponse, len(users))
	for _, u := range users {
		out[u.Username] = dto.NewUserResponse(u)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.GetUser(r.Context(), chi.URLParam(r, "username"))
	if errors.Is(err, model.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.log.Error("get user failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.GameID == "" || req.Selection == "" {
		writeError(w, http.StatusBadRequest, "gameId and selection are required")
		return
	}
	if !req.BetType.Valid() {
		writeError(w, http.StatusBadRequest, "betType must be moneyline, spread or total")
		return
	}
	// valores abaixo de meio centavo arredondam para zero
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	bet := &model.Bet{
		ID:           uuid.NewString(),
		GameID:       req.GameID,
		Sport:        req.Sport,
		BetType:      req.BetType,
		Selection:    req.Selection,
		Amount:       req.Amount,
		Odds:         string(req.Odds),
		Line:         req.Line,
		PotentialWin: req.PotentialWin,
		Status:       model.StatusPending,
		PlacedAt:     s.now(),
		GameData:     req.GameData,
	}
	if bet.PotentialWin <= 0 {
		bet.PotentialWin = PotentialWin(bet.Amount, bet.Odds)
	}
	if s.lines != nil {
		if err := s.lines.FillLine(r.Context(), bet); err != nil {
			s.log.Warn("cached line lookup failed", zap.String("game_id", bet.GameID), zap.Error(err))
		}
	}

	u, err := s.store.PlaceBet(r.Context(), username, bet)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, model.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, "Insufficient balance")
		return
	case err != nil:
		s.log.Error("place bet failed", zap.String("username", username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to place bet")
		return
	}

	s.publishPlaced(r.Context(), username, bet)
	s.log.Info("bet placed",
		zap.String("bet_id", bet.ID),
		zap.String("username", username),
		zap.String("game_id", bet.GameID),
		zap.String("bet_type", string(bet.BetType)),
		zap.Int64("amount_cents", int64(bet.Amount)),
	)
	writeJSON(w, http.StatusOK, dto.PlaceBetResponse{Success: true, Bet: u.FindBet(bet.ID), User: dto.NewUserResponse(u)})
}

func (s *Server) publishPlaced(ctx context.Context, username string, b *model.Bet) {
	if s.publ == nil {
		return
	}
	ev := events.BetPlaced{
		BetID:             b.ID,
		Username:          username,
		GameID:            b.GameID,
		Sport:             b.SportOrDefault(),
		BetType:           string(b.BetType),
		Selection:         b.Selection,
		AmountCents:       int64(b.Amount),
		Odds:              b.Odds,
		PotentialWinCents: int64(b.PotentialWin),
	}
	if b.Line.Valid {
		l := b.Line.Value
		ev.Line = &l
	}
	// aposta já gravada; falha aqui só perde o evento
	if err := s.publ.PublishBetPlaced(ctx, ev); err != nil {
		s.log.Warn("bet_placed publish failed", zap.String("bet_id", b.ID), zap.Error(err))
	}
}

func (s *Server) resolveBet(w http.ResponseWriter, r *http.Request) {
	username, betID := chi.URLParam(r, "username"), chi.URLParam(r, "betId")

	var req dto.ResolveBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	u, err := s.settler.Apply(r.Context(), username, betID, req.Status, req.ActualResult, settlement.TriggerManual)
	switch {
	case errors.Is(err, settlement.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "status must be won or lost")
		return
	case errors.Is(err, model.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, model.ErrBetNotFound):
		writeError(w, http.StatusNotFound, "Bet not found")
		return
	case errors.Is(err, model.ErrBetAlreadySettled):
		writeError(w, http.StatusConflict, "Bet already settled")
		return
	case err != nil:
		s.log.Error("manual resolve failed", zap.String("bet_id", betID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to resolve bet")
		return
	}
	writeJSON(w, http.StatusOK, dto.ResolveBetResponse{Success: true, User: dto.NewUserResponse(u)})
}

func (s *Server) forceResolve(w http.ResponseWriter, r *http.Request) {
	rep, err := s.scheduler.ForceSweep(r.Context())
	if err != nil {
		s.log.Error("force resolve failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to resolve bets", Details: err.Error()})
		return
	}
	msg := "Bets resolved successfully"
	if rep.SkippedLocked {
		msg = "Another instance is resolving bets"
	}
	writeJSON(w, http.StatusOK, dto.ForceResolveResponse{Success: true, Message: msg, Report: rep})
}

func (s *Server) autoResolveStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduler.Status())
}

func (s *Server) startAutoResolve(w http.ResponseWriter, r *http.Request) {
	req := dto.StartAutoResolveRequest{IntervalMinutes: 1}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	switch err := s.scheduler.StartAutoResolution(req.IntervalMinutes); {
	case errors.Is(err, resolver.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, resolver.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.scheduler.Status())
}

func (s *Server) stopAutoResolve(w http.ResponseWriter, _ *http.Request) {
	s.scheduler.Stop()
	writeJSON(w, http.StatusOK, s.scheduler.Status())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// requestLogger registra método, rota, status e latência de cada requisição
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
