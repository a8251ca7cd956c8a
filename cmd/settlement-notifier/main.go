package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-demo/internal/settlement-notifier/consumer"
	"github.com/radieske/sports-bet-demo/internal/settlement-notifier/pubsub"
	sharedcache "github.com/radieske/sports-bet-demo/internal/shared/cache"
	"github.com/radieske/sports-bet-demo/internal/shared/config"
	"github.com/radieske/sports-bet-demo/internal/shared/kafka"
	"github.com/radieske/sports-bet-demo/internal/shared/logger"
	"github.com/radieske/sports-bet-demo/internal/shared/metrics"
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

	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Configura o consumer Kafka (consumer group settlement-notifier)
	brokers := cfg.Brokers()
	tctx, tcancel := context.WithTimeout(ctx, 5*time.Second)
	if err := kafka.EnsureTopic(tctx, brokers, cfg.TopicBetSettled, log); err != nil {
		log.Warn("kafka topic not ensured", zap.String("topic", cfg.TopicBetSettled), zap.Error(err))
	}
	tcancel()
	reader := kafka.NewReader(brokers, cfg.TopicBetSettled, "settlement-notifier")
	defer reader.Close()

	// Métricas Prometheus para monitoramento do repasse
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_notifier_messages_consumed_total", Help: "mensagens consumidas"})
	relayed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_notifier_relayed_total", Help: "liquidações repassadas ao pub/sub"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_notifier_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, relayed, errorsBy)

	relay := &consumer.Relay{
		Log:         log,
		Reader:      reader,
		Broadcaster: pubsub.NewRedisBroadcaster(redisClient),
		Channel:     cfg.RedisSettlementChannel,
		OnConsumed:  func() { consumed.Inc() },
		OnRelayed:   func() { relayed.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, metrics.Checks(map[string]metrics.HealthFunc{
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}), log)
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = metricsSrv.Shutdown(sctx)
	}()

	log.Info("settlement-notifier started",
		zap.String("topic", cfg.TopicBetSettled),
		zap.String("channel", cfg.RedisSettlementChannel),
	)
	if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("relay stopped with error", zap.Error(err))
	}
	log.Info("settlement-notifier stopped")
}
