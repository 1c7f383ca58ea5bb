package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"testament/internal/audit"
	"testament/internal/ledger"
	"testament/internal/platform/config"
	"testament/internal/platform/httpserver"
	"testament/internal/platform/logger"
	"testament/internal/platform/metrics"
	"testament/internal/platform/middleware"
	platformredis "testament/internal/platform/redis"
	willhandler "testament/internal/will/handler"
	willmetrics "testament/internal/will/metrics"
	"testament/internal/will/service"
	willstore "testament/internal/will/store"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/will.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	wills, closeStore, err := newWillStore(cfg)
	if err != nil {
		log.Error("will store init failed", "error", err.Error())
		os.Exit(1)
	}
	defer closeStore()

	var settlement ledger.Ledger
	if redisClient != nil {
		settlement = ledger.NewRedis(redisClient.Client)
	} else {
		settlement = ledger.NewInMemory()
	}

	var eventStore audit.Store
	if redisClient != nil {
		eventStore = audit.NewRedisStreamStore(redisClient.Client)
	} else {
		eventStore = audit.NewInMemoryStore()
	}
	publisher := audit.NewPublisher(eventStore, audit.WithAsyncBuffer(cfg.EventBuffer))
	defer publisher.Close()

	platformMetrics := metrics.New()
	svc := service.New(wills, settlement,
		service.WithLogger(log),
		service.WithEventPublisher(publisher),
		service.WithMetrics(willmetrics.New()),
	)

	verifier := middleware.NewHMACVerifier(cfg.JWTSigningKey)
	h := willhandler.New(svc, log, platformMetrics, verifier, cfg.RequestTimeout)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())
	h.Register(router)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting testament", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}

// newWillStore selects the durable registry when Postgres is configured and
// falls back to the in-memory one otherwise.
func newWillStore(cfg config.Config) (service.WillStore, func(), error) {
	if cfg.PostgresURL == "" {
		return willstore.NewInMemory(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return willstore.NewPostgres(db), func() { _ = db.Close() }, nil
}
