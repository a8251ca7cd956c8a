package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-demo/internal/api-gateway/proxy"
	"github.com/radieske/sports-bet-demo/internal/shared/config"
	"github.com/radieske/sports-bet-demo/internal/shared/logger"
	"github.com/radieske/sports-bet-demo/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gw, err := proxy.New(cfg.OddsServiceURL, cfg.BetServiceURL, log)
	if err != nil {
		log.Fatal("gateway config", zap.Error(err))
	}

	proxied := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "gateway_requests_total", Help: "requisições encaminhadas por destino"}, []string{"upstream"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "gateway_upstream_errors_total", Help: "falhas de conexão por destino"}, []string{"upstream"})
	prometheus.MustRegister(proxied, failed)
	gw.Origins = cfg.AllowedOrigins
	gw.OnProxy = func(u string) { proxied.WithLabelValues(u).Inc() }
	gw.OnError = func(u string) { failed.WithLabelValues(u).Inc() }

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, nil, log)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		_ = srv.Shutdown(sctx)
		_ = metricsSrv.Shutdown(sctx)
	}()

	log.Info("api-gateway listening",
		zap.String("addr", srv.Addr),
		zap.String("odds", cfg.OddsServiceURL),
		zap.String("bet", cfg.BetServiceURL),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("gateway failed", zap.Error(err))
	}
}
