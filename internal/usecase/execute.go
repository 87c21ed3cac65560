package usecase

import (
	"context"
	"corequeue/internal/domain"
	"corequeue/internal/observability"
	"corequeue/internal/ports"
	"corequeue/pkg/backoff"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ ports.Executor = (*Executor)(nil)

// Executor resolves credentials, calls the upstream once and records the
// outcome. The upstream call is never retried; only the result write is.
type Executor struct {
	Accounts ports.AccountStore
	Upstream ports.Upstream
	Results  ports.ResultStore
	TTL      time.Duration
	Metrics  *observability.Metrics

	// StoreAttempts bounds result writes during a store outage.
	StoreAttempts int
	BaseBackoff   time.Duration
	MaxBackoff    time.Duration
}

func (e *Executor) Execute(ctx context.Context, r domain.ScheduledRequest) {
	ctx, span := observability.StartSpan(ctx, "execute",
		attribute.String("request.id", r.ID),
		attribute.String("request.operation", r.Operation),
		attribute.Int("request.priority", r.BasePriority))
	defer span.End()

	logger := log.Ctx(ctx).With().Str("component", "executor").
		Str("request_id", r.ID).Str("operation", r.Operation).Logger()
	ctx = logger.WithContext(ctx)

	res := e.run(ctx, r)
	if !res.OK() {
		span.SetStatus(codes.Error, string(res.Kind()))
		logger.Warn().Str("kind", string(res.Kind())).Interface("errors", res.Errors).Msg("request failed")
	} else {
		logger.Debug().Msg("request succeeded")
	}
	if e.Metrics != nil {
		e.Metrics.ObserveResult(res)
	}

	if err := e.store(ctx, logger, r.ID, res); err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("result lost, store unavailable")
	}
}

func (e *Executor) run(ctx context.Context, r domain.ScheduledRequest) (res domain.Result) {
	defer func() {
		if p := recover(); p != nil {
			res = domain.Failed(domain.KindUpstreamExecution, fmt.Sprintf("panic: %v", p), 0)
		}
	}()

	var creds *domain.Credentials
	if r.UserID != nil {
		c, err := e.Accounts.Lookup(ctx, *r.UserID)
		if err != nil {
			return domain.Failed(domain.KindCredentialResolution, err.Error(), 0)
		}
		creds = &c
	}

	data, err := e.Upstream.Call(ctx, r.Operation, r.Arguments, creds)
	if err != nil {
		return domain.FailureFromError(err)
	}
	return domain.Success(data)
}

func (e *Executor) store(ctx context.Context, logger zerolog.Logger, id string, res domain.Result) error {
	attempts := max(e.StoreAttempts, 1)
	retry := backoff.Retrier{Base: e.BaseBackoff, Max: e.MaxBackoff}
	var err error
	for {
		if err = e.Results.Put(ctx, id, res, e.TTL); err == nil {
			return nil
		}
		if e.Metrics != nil {
			e.Metrics.InfraErrors.WithLabelValues("result_store").Inc()
		}
		if retry.Failures()+1 >= attempts {
			return err
		}
		delay := retry.Fail()
		logger.Warn().Err(err).Int("failures", retry.Failures()).Dur("retry_in", delay).Msg("result write failed")
		if !sleep(ctx, delay) {
			return err
		}
	}
}
