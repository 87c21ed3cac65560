package worker

import (
	"context"
	"corequeue/internal/config"
	"corequeue/internal/infra/exchange"
	"corequeue/internal/infra/postgres"
	"corequeue/internal/infra/redisq"
	"corequeue/internal/observability"
	"corequeue/internal/priority"
	"corequeue/internal/usecase"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	MetricsAddr string
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// StoreAttempts bounds result writes per request.
	StoreAttempts int
}

// Run starts the ingestor, dispatcher and metrics endpoint and blocks until
// SIGINT or SIGTERM.
func Run(appCfg *config.Config, cfg Config) error {
	if err := appCfg.ValidateWorker(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(appCfg.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	cli := redisq.New(appCfg.Redis)
	defer cli.Close()
	if err := cli.Connect(ctx); err != nil {
		return err
	}

	accounts, err := postgres.Connect(ctx, appCfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer accounts.Close()

	sc := appCfg.Scheduler
	classifier, err := priority.LoadClassifier(sc.PrioritiesFile, sc.DefaultPriorityClass)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	core := usecase.NewCore(sc.QueueWaitTimeout(), classifier, metrics)

	ingestor := usecase.Ingestor{
		Q:            cli.Queue(),
		Core:         core,
		PollInterval: sc.IngestorPollInterval(),
		BaseBackoff:  cfg.BaseBackoff,
		MaxBackoff:   cfg.MaxBackoff,
	}
	dispatcher := &usecase.Dispatcher{
		Core:        core,
		MaxPerCycle: sc.MaxRequestsPerSecond,
		Delay:       sc.InterDispatchDelay(),
		Exec: &usecase.Executor{
			Accounts:      accounts,
			Upstream:      exchange.New(appCfg.Exchange.BaseURL, appCfg.Exchange.RequestTimeout),
			Results:       cli.Results(),
			TTL:           sc.ResultTTL(),
			Metrics:       metrics,
			StoreAttempts: cfg.StoreAttempts,
			BaseBackoff:   cfg.BaseBackoff,
			MaxBackoff:    cfg.MaxBackoff,
		},
	}

	metricsAddr := cfg.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = appCfg.Metrics.Address
	}
	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := cli.Rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	log.Info().Str("queue", appCfg.Redis.QueueKey).Int("max_rps", sc.MaxRequestsPerSecond).
		Str("metrics", metricsAddr).Msg("worker starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(ingestor.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(dispatcher.Run(gctx)) })
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()
	log.Info().Msg("worker stopping, waiting for in-flight requests")

	graceCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownGrace())
	defer cancel()
	if err := dispatcher.Wait(graceCtx); err != nil {
		log.Warn().Err(err).Msg("in-flight requests still running at shutdown")
	}
	log.Info().Msg("worker stopped")
	return runErr
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
