package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const (
	UpstreamOdds = "odds-service"
	UpstreamBet  = "bet-service"
)

// Gateway encaminha /api/odds* ao odds-service e o restante da API,
// inclusive o WebSocket /ws, ao bet-service. Os caminhos seguem intactos.
type Gateway struct {
	log  *zap.Logger
	odds *httputil.ReverseProxy
	bet  *httputil.ReverseProxy

	Origins []string              // origens liberadas no CORS; vazio libera todas
	OnProxy func(upstream string) // métricas por destino
	OnError func(upstream string) // falhas de conexão com o destino
}

func New(oddsURL, betURL string, log *zap.Logger) (*Gateway, error) {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gateway{log: log}

	var err error
	if g.odds, err = g.reverseProxy(UpstreamOdds, oddsURL); err != nil {
		return nil, err
	}
	if g.bet, err = g.reverseProxy(UpstreamBet, betURL); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Gateway) reverseProxy(name, target string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s url %q", name, target)
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	// o gateway responde pelo CORS; cabeçalhos do destino duplicariam a origem
	rp.ModifyResponse = func(resp *http.Response) error {
		for k := range resp.Header {
			if strings.HasPrefix(k, "Access-Control-") {
				resp.Header.Del(k)
			}
		}
		return nil
	}
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		g.log.Warn("upstream request failed",
			zap.String("upstream", name),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if g.OnError != nil {
			g.OnError(name)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": name + " unavailable"})
	}
	return rp, nil
}

// Handler devolve o roteamento com CORS aplicado.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/odds", g.forward(UpstreamOdds, g.odds))
	mux.Handle("/api/odds/", g.forward(UpstreamOdds, g.odds))
	mux.Handle("/api/", g.forward(UpstreamBet, g.bet))
	mux.Handle("/ws", g.forward(UpstreamBet, g.bet))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	origins := g.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:       []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:               300,
		OptionsSuccessStatus: http.StatusNoContent,
	})(mux)
}

func (g *Gateway) forward(name string, rp *httputil.ReverseProxy) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.OnProxy != nil {
			g.OnProxy(name)
		}
		g.log.Debug("proxying", zap.String("upstream", name), zap.String("method", r.Method), zap.String("path", r.URL.Path))
		rp.ServeHTTP(w, r)
	})
}
