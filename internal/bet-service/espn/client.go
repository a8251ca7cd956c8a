package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-demo/internal/bet-service/model"
)

const (
	BaseURL = "https://site.api.espn.com/apis/site/v2/sports"

	defaultSportPath = "basketball/nba"
)

var sportPaths = map[string]string{
	"nba":             "basketball/nba",
	"nfl":             "football/nfl",
	"ncaa-basketball": "basketball/mens-college-basketball",
	"ncaa-football":   "football/college-football",
}

// SportPath traduz o código de esporte da aposta para o caminho do feed.
// Esporte desconhecido cai no feed da NBA.
func SportPath(sport string) string {
	if p, ok := sportPaths[strings.ToLower(strings.TrimSpace(sport))]; ok {
		return p
	}
	return defaultSportPath
}

// ScoreboardCache guarda o corpo bruto do placar por caminho de esporte.
// Várias partidas do mesmo esporte numa varredura reaproveitam a mesma resposta.
type ScoreboardCache interface {
	Get(ctx context.Context, sportPath string) ([]byte, bool, error)
	Set(ctx context.Context, sportPath string, body []byte) error
}

// Client consulta o placar público do ESPN
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	cache      ScoreboardCache
	log        *zap.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithCache(cache ScoreboardCache) Option {
	return func(c *Client) { c.cache = cache }
}

func New(log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		baseURL: BaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent: "Mozilla/5.0 (compatible; SportsBetResolver/1.0)",
		log:       log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchGame procura a partida no placar do esporte. Partida ausente no placar
// retorna (nil, nil); falhas de rede ou de parse retornam erro, e o chamador
// deve tratar ambos como "tentar de novo na próxima varredura".
func (c *Client) FetchGame(ctx context.Context, gameID, sport string) (*model.GameSnapshot, error) {
	sb, err := c.FetchScoreboard(ctx, sport)
	if err != nil {
		return nil, err
	}
	for i := range sb.Events {
		if sb.Events[i].ID == gameID {
			return toSnapshot(&sb.Events[i], sport), nil
		}
	}
	return nil, nil
}

// FetchScoreboard busca o placar do dia do esporte, passando pelo cache quando configurado.
func (c *Client) FetchScoreboard(ctx context.Context, sport string) (*Scoreboard, error) {
	path := SportPath(sport)

	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, path)
		if err != nil {
			c.log.Warn("scoreboard cache get failed", zap.String("sport_path", path), zap.Error(err))
		} else if ok {
			var sb Scoreboard
			if err := json.Unmarshal(body, &sb); err == nil {
				return &sb, nil
			}
			c.log.Warn("discarding unreadable cached scoreboard", zap.String("sport_path", path))
		}
	}

	body, err := c.fetch(ctx, fmt.Sprintf("%s/%s/scoreboard", c.baseURL, path))
	if err != nil {
		return nil, err
	}

	var sb Scoreboard
	if err := json.Unmarshal(body, &sb); err != nil {
		return nil, fmt.Errorf("decoding scoreboard: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, path, body); err != nil {
			c.log.Warn("scoreboard cache set failed", zap.String("sport_path", path), zap.Error(err))
		}
	}
	return &sb, nil
}

// fetch makes an HTTP GET request and returns the raw body
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ESPN API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// toSnapshot lê a primeira competição do evento. Campos ausentes no feed
// ficam nulos no snapshot e o avaliador trata como "ainda não resolvível".
func toSnapshot(ev *Event, sport string) *model.GameSnapshot {
	snap := &model.GameSnapshot{GameID: ev.ID, Sport: sport}
	if len(ev.Competitions) == 0 {
		return snap
	}
	comp := ev.Competitions[0]

	for _, cp := range comp.Competitors {
		side := &model.Competitor{Team: cp.Team.Name(), Score: int(cp.Score)}
		switch cp.HomeAway {
		case "home":
			if snap.Home == nil {
				snap.Home = side
			}
		case "away":
			if snap.Away == nil {
				snap.Away = side
			}
		}
	}

	if comp.Status != nil {
		st := &model.GameStatus{}
		if comp.Status.Type != nil {
			st.Completed = comp.Status.Type.Completed
			st.Detail = comp.Status.Type.Detail
		}
		snap.Status = st
	}
	return snap
}
