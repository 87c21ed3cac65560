package api

import (
	"context"
	"corequeue/internal/config"
	"corequeue/internal/domain"
	"corequeue/internal/infra/redisq"
	"corequeue/internal/rendezvous"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Submitter is the rendezvous the gateway waits on.
type Submitter interface {
	Do(ctx context.Context, s domain.Submission) (domain.Result, error)
}

type handlerReq struct {
	TargetFunc string         `json:"target_func"`
	UserID     *int64         `json:"user_id"`
	Args       map[string]any `json:"args"`
	// ReqTime is the caller's submission time in unix seconds.
	ReqTime *float64 `json:"req_time"`
}

type Server struct {
	router *chi.Mux
	closer func() error
}

// New connects to redis and builds the gateway from cfg.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	cli := redisq.New(cfg.Redis)
	if err := cli.Connect(ctx); err != nil {
		return nil, err
	}
	rv := rendezvous.New(cli.Queue(), cli.Results(),
		cfg.Scheduler.QueueWaitTimeout(), cfg.Scheduler.RendezvousPollInterval())
	s := NewServer(rv, func(ctx context.Context) error { return cli.Rdb.Ping(ctx).Err() })
	s.closer = cli.Close
	return s, nil
}

// NewServer wires the routes around rv. ready backs /healthz.
func NewServer(rv Submitter, ready func(context.Context) error) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(func(r *http.Request) bool { return r.URL.Path == "/healthz" }))
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"msg": "pong"})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/if/handler", func(w http.ResponseWriter, r *http.Request) {
		var req handlerReq
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.TargetFunc == "" {
			http.Error(w, "target_func is required", http.StatusBadRequest)
			return
		}

		sub := domain.Submission{Operation: req.TargetFunc, UserID: req.UserID, Arguments: req.Args}
		if req.ReqTime != nil {
			sec, frac := math.Modf(*req.ReqTime)
			sub.SubmittedAt = time.Unix(int64(sec), int64(frac*1e9))
		}

		res, err := rv.Do(r.Context(), sub)
		switch {
		case errors.Is(err, domain.ErrTimedOut):
			writeJSON(w, http.StatusGatewayTimeout, domain.Failed(domain.KindTimeout, "request timed out", 0))
		case errors.Is(err, domain.ErrQueueUnavailable):
			writeJSON(w, http.StatusServiceUnavailable, domain.Failed(domain.KindUpstreamExecution, err.Error(), 0))
		case err != nil:
			log.Ctx(r.Context()).Error().Err(err).Msg("handler request failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		default:
			writeJSON(w, http.StatusOK, res)
		}
	})

	return &Server{router: r}
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves on port until ctx is done, then drains for up to 30 seconds.
func (s *Server) Run(ctx context.Context, port int) error {
	if s.closer != nil {
		defer func() { _ = s.closer() }()
	}
	httpServer := http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("server serving on port %d", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Server is shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
