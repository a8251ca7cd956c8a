package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/sports-bet-demo/internal/bet-service/espn"
	bhttp "github.com/radieske/sports-bet-demo/internal/bet-service/http"
	"github.com/radieske/sports-bet-demo/internal/bet-service/odds"
	"github.com/radieske/sports-bet-demo/internal/bet-service/outcome"
	"github.com/radieske/sports-bet-demo/internal/bet-service/producer"
	"github.com/radieske/sports-bet-demo/internal/bet-service/repo"
	"github.com/radieske/sports-bet-demo/internal/bet-service/resolver"
	"github.com/radieske/sports-bet-demo/internal/bet-service/settlement"
	"github.com/radieske/sports-bet-demo/internal/bet-service/teams"
	"github.com/radieske/sports-bet-demo/internal/bet-service/ws"
	"github.com/radieske/sports-bet-demo/internal/shared/cache"
	"github.com/radieske/sports-bet-demo/internal/shared/config"
	"github.com/radieske/sports-bet-demo/internal/shared/db"
	"github.com/radieske/sports-bet-demo/internal/shared/kafka"
	"github.com/radieske/sports-bet-demo/internal/shared/logger"
	"github.com/radieske/sports-bet-demo/internal/shared/metrics"
	"github.com/radieske/sports-bet-demo/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	checks := map[string]metrics.HealthFunc{}

	// Armazenamento de usuários e apostas
	var store repo.Store
	switch cfg.StoreDriver {
	case "memory":
		store = repo.NewMemory()
	case "file":
		fs, err := repo.NewFile(cfg.UsersFile)
		if err != nil {
			log.Fatal("users file", zap.String("path", cfg.UsersFile), zap.Error(err))
		}
		store = fs
	default:
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		pgStore := repo.NewPostgres(pg)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Fatal("postgres schema", zap.Error(err))
		}
		checks["postgres"] = pg.PingContext
		store = pgStore
	}
	log.Info("store ready", zap.String("driver", cfg.StoreDriver))

	// Redis é opcional: sem ele não há cache de placar, lock distribuído,
	// linhas de odds em cache nem fan-out entre instâncias
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Warn("redis unavailable, running standalone", zap.Error(err))
	} else {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// Kafka: bet_placed e bet_settled
	brokers := cfg.Brokers()
	for _, topic := range []string{cfg.TopicBetPlaced, cfg.TopicBetSettled} {
		tctx, tcancel := context.WithTimeout(ctx, 5*time.Second)
		if err := kafka.EnsureTopic(tctx, brokers, topic, log); err != nil {
			log.Warn("kafka topic not ensured", zap.String("topic", topic), zap.Error(err))
		}
		tcancel()
	}
	kpub := producer.NewKafkaPublisher(
		kafka.NewPublisher(kafka.NewWriter(brokers, cfg.TopicBetPlaced), log),
		kafka.NewPublisher(kafka.NewWriter(brokers, cfg.TopicBetSettled), log),
	)
	defer kpub.Close()

	matcher := teams.Default()
	if cfg.TeamNamesFile != "" {
		if matcher, err = teams.LoadFile(cfg.TeamNamesFile); err != nil {
			log.Fatal("team names", zap.String("path", cfg.TeamNamesFile), zap.Error(err))
		}
	}

	hub := ws.NewHub(originPolicy(cfg.AllowedOrigins), log)

	// Sem Redis o notifier não alcança esta instância; o hub recebe direto
	var settledPub settlement.Publisher = kpub
	if rdb == nil {
		settledPub = localFanout{next: kpub, hub: hub}
	}

	espnOpts := []espn.Option{espn.WithBaseURL(cfg.ESPNBaseURL)}
	if rdb != nil {
		espnOpts = append(espnOpts, espn.WithCache(espn.NewRedisScoreboardCache(rdb, cfg.ScoreboardCacheTTL)))
	}
	scores := espn.New(log, espnOpts...)

	applier := settlement.NewApplier(store, log, settlement.WithPublisher(settledPub))

	resOpts := []resolver.Option{resolver.WithMetrics(resolver.NewMetrics(prometheus.DefaultRegisterer))}
	if rdb != nil {
		resOpts = append(resOpts, resolver.WithLocker(resolver.NewRedisLocker(rdb), cfg.ResolverLockTTL))
	}
	res := resolver.New(store, scores, outcome.NewEvaluator(matcher, log), applier, log, resOpts...)

	if cfg.ResolverAutostart {
		if err := res.StartAutoResolution(cfg.ResolveIntervalMinutes); err != nil {
			log.Error("auto resolution not started", zap.Int("interval_minutes", cfg.ResolveIntervalMinutes), zap.Error(err))
		}
	}

	// HTTP público
	apiOpts := []bhttp.Option{
		bhttp.WithPublisher(kpub),
		bhttp.WithWebSocket(hub),
		bhttp.WithStoreName(cfg.StoreDriver),
	}
	if len(cfg.AllowedOrigins) > 0 {
		apiOpts = append(apiOpts, bhttp.WithAllowedOrigins(cfg.AllowedOrigins...))
	}
	if rdb != nil {
		apiOpts = append(apiOpts, bhttp.WithLineFiller(odds.NewValidator(odds.NewRedisSource(rdb), matcher)))
		ws.StartRedisSubscriber(ctx, rdb, cfg.RedisSettlementChannel, hub, log)
	}
	api := bhttp.NewServer(log, store, applier, res, apiOpts...)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks(checks), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("bet-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sctx, scancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer scancel()

		if err := apiSrv.Shutdown(sctx); err != nil {
			log.Warn("api shutdown", zap.Error(err))
		}
		// aguarda a varredura em andamento antes de fechar o store
		if err := res.Shutdown(sctx); err != nil {
			log.Warn("resolver shutdown", zap.Error(err))
		}
		return metricsSrv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("bet-service stopped with error", zap.Error(err))
	}
	log.Info("bet-service stopped")
}

// originPolicy libera o handshake do WebSocket só para as origens configuradas.
func originPolicy(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// localFanout entrega a liquidação ao hub local além do Kafka.
type localFanout struct {
	next settlement.Publisher
	hub  *ws.Hub
}

func (f localFanout) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	f.hub.Broadcast(e)
	return f.next.PublishBetSettled(ctx, e)
}
