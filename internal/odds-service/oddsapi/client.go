package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const BaseURL = "https://api.the-odds-api.com/v4"

// Origem dos dados retornados por FetchOdds.
const (
	SourceAPI  = "the-odds-api"
	SourceMock = "mock"
)

var ErrUnsupportedSport = errors.New("unsupported sport")

// esporte da aplicação -> chave da The Odds API
var sportKeys = map[string]string{
	"nba":             "basketball_nba",
	"ncaa-basketball": "basketball_ncaab",
	"ncaa-football":   "americanfootball_ncaaf",
}

var sports = []string{"nba", "ncaa-basketball", "ncaa-football"}

// Sports lista os esportes suportados em ordem fixa.
func Sports() []string { return append([]string(nil), sports...) }

func SportKey(sport string) (string, bool) {
	k, ok := sportKeys[sport]
	return k, ok
}

// Supported indica se o esporte tem odds disponíveis.
func Supported(sport string) bool {
	_, ok := sportKeys[sport]
	return ok
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

func New(apiKey string, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		baseURL: BaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchOdds busca moneyline, spread e total (odds americanas) do esporte.
// Chave inválida (401) ou cota esgotada (429) caem para jogos simulados;
// demais falhas voltam como erro.
func (c *Client) FetchOdds(ctx context.Context, sport string) ([]Game, string, error) {
	key, ok := SportKey(sport)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedSport, sport)
	}
	if c.apiKey == "" {
		c.log.Info("odds api key not configured, serving mock odds", zap.String("sport", sport))
		return MockGames(sport, c.now()), SourceMock, nil
	}

	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("regions", "us")
	q.Set("markets", "h2h,spreads,totals")
	q.Set("oddsFormat", "american")
	q.Set("dateFormat", "iso")
	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, key, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build odds request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch odds for %s: %w", sport, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		c.log.Warn("odds api unavailable, serving mock odds",
			zap.String("sport", sport),
			zap.Int("status", resp.StatusCode),
		)
		return MockGames(sport, c.now()), SourceMock, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("odds api %s: status %d: %s", sport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var games []Game
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, "", fmt.Errorf("decode odds for %s: %w", sport, err)
	}

	c.log.Debug("odds fetched",
		zap.String("sport", sport),
		zap.Int("games", len(games)),
		zap.String("requests_remaining", resp.Header.Get("x-requests-remaining")),
	)
	return games, SourceAPI, nil
}
