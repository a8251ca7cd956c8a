package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-demo/internal/odds-service/oddsapi"
	"github.com/radieske/sports-bet-demo/internal/odds-service/refresher"
	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

type Store interface {
	ForSport(ctx context.Context, sport string) ([]events.GameOdds, error)
	All(ctx context.Context) (map[string][]events.GameOdds, error)
	LastUpdate(ctx context.Context) (time.Time, bool, error)
}

type Refresher interface {
	EnsureFresh(ctx context.Context)
	ForceUpdate(ctx context.Context) (refresher.Result, error)
}

// SportCache é a leitura rápida do espelho no Redis.
type SportCache interface {
	GetSport(ctx context.Context, sport string) ([]events.GameOdds, bool, error)
}

// API expõe os endpoints REST de consulta de odds esportivas
// Lê do cache Redis quando possível e cai para o repositório Postgres
type API struct {
	Log     *zap.Logger
	Store   Store
	Refresh Refresher
	Cache   SportCache // opcional
	Origins []string
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	if a.Log == nil {
		a.Log = zap.NewNop()
	}
	origins := a.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/odds/last-update", a.lastUpdate) // horário do último snapshot
	r.Post("/api/odds/force-update", a.forceUpdate)

	r.Group(func(r chi.Router) {
		r.Use(a.ensureFresh)
		r.Get("/api/odds", a.allOdds)          // odds de todos os esportes
		r.Get("/api/odds/{sport}", a.sportOdds) // odds de um esporte
	})
	return r
}

// ensureFresh atualiza as odds uma vez por dia antes de servir leituras
func (a *API) ensureFresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.Refresh.EnsureFresh(r.Context())
		next.ServeHTTP(w, r)
	})
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) sportOdds(w http.ResponseWriter, r *http.Request) {
	sport := chi.URLParam(r, "sport")
	if !oddsapi.Supported(sport) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Invalid sport. Supported sports: " + strings.Join(oddsapi.Sports(), ", "),
		})
		return
	}

	if a.Cache != nil {
		games, ok, err := a.Cache.GetSport(r.Context(), sport)
		if err != nil {
			a.Log.Warn("odds cache read failed", zap.String("sport", sport), zap.Error(err))
		}
		if ok {
			writeJSON(w, http.StatusOK, games)
			return
		}
	}

	games, err := a.Store.ForSport(r.Context(), sport)
	if err != nil {
		a.Log.Error("load odds failed", zap.String("sport", sport), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load odds"})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (a *API) allOdds(w http.ResponseWriter, r *http.Request) {
	all, err := a.Store.All(r.Context())
	if err != nil {
		a.Log.Error("load all odds failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load odds"})
		return
	}
	for _, sport := range oddsapi.Sports() {
		if all[sport] == nil {
			all[sport] = []events.GameOdds{}
		}
	}
	writeJSON(w, http.StatusOK, all)
}

func (a *API) lastUpdate(w http.ResponseWriter, r *http.Request) {
	t, ok, err := a.Store.LastUpdate(r.Context())
	if err != nil {
		a.Log.Error("last update lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get last update time"})
		return
	}
	var v *time.Time
	if ok {
		v = &t
	}
	writeJSON(w, http.StatusOK, map[string]*time.Time{"lastUpdated": v})
}

func (a *API) forceUpdate(w http.ResponseWriter, r *http.Request) {
	res, err := a.Refresh.ForceUpdate(r.Context())
	if err != nil {
		a.Log.Error("force update failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to force update odds",
			"details": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Odds updated successfully",
		"result":  res,
	})
}
