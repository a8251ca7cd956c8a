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

	"github.com/radieske/sports-bet-demo/internal/odds-service/cache"
	httpapi "github.com/radieske/sports-bet-demo/internal/odds-service/http"
	"github.com/radieske/sports-bet-demo/internal/odds-service/oddsapi"
	"github.com/radieske/sports-bet-demo/internal/odds-service/publisher"
	"github.com/radieske/sports-bet-demo/internal/odds-service/refresher"
	"github.com/radieske/sports-bet-demo/internal/odds-service/repo"
	sharedcache "github.com/radieske/sports-bet-demo/internal/shared/cache"
	"github.com/radieske/sports-bet-demo/internal/shared/config"
	"github.com/radieske/sports-bet-demo/internal/shared/db"
	"github.com/radieske/sports-bet-demo/internal/shared/kafka"
	"github.com/radieske/sports-bet-demo/internal/shared/logger"
	"github.com/radieske/sports-bet-demo/internal/shared/metrics"
)

// store reúne o que o refresher e a API leem e gravam.
type store interface {
	refresher.Store
	httpapi.Store
}

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loc, err := time.LoadLocation(cfg.OddsTimezone)
	if err != nil {
		log.Fatal("invalid odds timezone", zap.String("tz", cfg.OddsTimezone), zap.Error(err))
	}

	checks := map[string]metrics.HealthFunc{}

	// snapshots diários: Postgres, ou memória em dev
	var snapshots store
	if cfg.StoreDriver == "memory" {
		snapshots = repo.NewMemory()
	} else {
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		pgRepo := repo.NewPostgres(pg)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Fatal("postgres schema", zap.Error(err))
		}
		checks["postgres"] = pg.PingContext
		snapshots = pgRepo
		log.Info("postgres connected")
	}

	// Métricas Prometheus do ciclo de atualização
	refreshed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_refresh_total", Help: "esportes atualizados por origem"}, []string{"source"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_refresh_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(refreshed, errorsBy)

	client := oddsapi.New(cfg.OddsAPIKey, log, oddsapi.WithBaseURL(cfg.OddsAPIBaseURL))
	if cfg.OddsAPIKey == "" {
		log.Warn("ODDS_API_KEY not set, serving mock odds")
	}

	opts := []refresher.Option{refresher.WithLocation(loc)}

	api := &httpapi.API{Log: log, Store: snapshots, Origins: cfg.AllowedOrigins}

	// conecta com cache Redis; sem ele as leituras vão direto ao repositório
	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Warn("redis unavailable, odds cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		oddsCache := cache.New(redisClient, cfg.OddsCacheTTL)
		opts = append(opts, refresher.WithMirror(oddsCache))
		api.Cache = oddsCache
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		log.Info("redis connected")
	}

	// publica cada jogo atualizado no tópico odds_updates
	brokers := cfg.Brokers()
	tctx, tcancel := context.WithTimeout(ctx, 5*time.Second)
	if err := kafka.EnsureTopic(tctx, brokers, cfg.TopicOddsUpdates, log); err != nil {
		log.Warn("kafka topic not ensured", zap.String("topic", cfg.TopicOddsUpdates), zap.Error(err))
	}
	tcancel()
	kpub := publisher.NewKafkaPublisher(kafka.NewPublisher(kafka.NewWriter(brokers, cfg.TopicOddsUpdates), log))
	defer kpub.Close()
	opts = append(opts, refresher.WithPublisher(kpub))
	log.Info("kafka writer ready", zap.String("topic", cfg.TopicOddsUpdates))

	ref := refresher.New(client, snapshots, log, opts...)
	ref.OnRefresh = func(source string) { refreshed.WithLabelValues(source).Inc() }
	ref.OnError = func(stage string) { errorsBy.WithLabelValues(stage).Inc() }
	api.Refresh = ref

	// aquece o snapshot do dia antes de aceitar requisições
	ref.EnsureFresh(ctx)

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks(checks), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("odds-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		if err := apiSrv.Shutdown(sctx); err != nil {
			log.Warn("api shutdown", zap.Error(err))
		}
		return metricsSrv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("odds-service stopped with error", zap.Error(err))
	}
	log.Info("odds-service stopped")
}
