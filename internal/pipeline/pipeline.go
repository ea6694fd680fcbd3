// Package pipeline holds the refresh orchestrators. Each run loads the
// resorts, processes them one at a time through the batch runner, invalidates
// the cache entries it rewrote and emits a RunMetrics summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/batch"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/couchcryptid/snowline-etl-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Pipeline names, used as metric labels, Kafka keys and CLI arguments.
const (
	NameForecast   = "forecast-refresh"
	NameConditions = "conditions-refresh"
	NameSnotel     = "snotel-daily"
)

// errPersist marks item failures caused by the store rather than a provider.
var errPersist = errors.New("persist")

const publishTimeout = 5 * time.Second

// ResortLister loads the per-run work list.
type ResortLister interface {
	ListResorts(ctx context.Context) ([]domain.Resort, error)
}

// Invalidator drops cache keys after a successful write. *cache.Cache satisfies it.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

// RunSink receives the summary of every run. A nil sink means log-only.
type RunSink interface {
	PublishRun(ctx context.Context, m domain.RunMetrics) error
}

// Orchestrator is one schedulable pipeline.
type Orchestrator interface {
	Name() string
	Run(ctx context.Context) domain.RunMetrics
}

// Options carries the collaborators shared by every orchestrator.
type Options struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Cache   Invalidator
	Sink    RunSink
	Clock   clockwork.Clock
	// Delay between resorts; see batch.Options.
	Delay time.Duration
}

// itemResult is what one resort contributed to a run.
type itemResult struct {
	rows     int
	warnings int
}

// runner holds the per-run mechanics common to all orchestrators.
type runner struct {
	name    string
	logger  *slog.Logger
	metrics *observability.Metrics
	cache   Invalidator
	sink    RunSink
	clock   clockwork.Clock
	delay   time.Duration
}

func newRunner(name string, opts Options) runner {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return runner{
		name:    name,
		logger:  logger.With("pipeline", name),
		metrics: opts.Metrics,
		cache:   opts.Cache,
		sink:    opts.Sink,
		clock:   clock,
		delay:   opts.Delay,
	}
}

func (r *runner) Name() string { return r.name }

// run executes one orchestrator invocation. The run is failed only when the
// store is unreachable: load fails, or every item failed to persist.
func (r *runner) run(ctx context.Context, load func(context.Context) ([]domain.Resort, error), op func(context.Context, domain.Resort) (itemResult, error)) domain.RunMetrics {
	m := domain.RunMetrics{
		RunID:     uuid.NewString(),
		Pipeline:  r.name,
		StartedAt: r.clock.Now().UTC(),
	}
	r.logger.Info("pipeline run started", "run_id", m.RunID)

	resorts, err := load(ctx)
	if err != nil {
		perr := &domain.PipelineError{Pipeline: r.name, Op: "load resorts", Err: err}
		r.logger.Error("pipeline run aborted", "run_id", m.RunID, "error", perr)
		m.Status = domain.RunFailed
		return r.finish(ctx, m)
	}

	res := batch.Run(ctx, resorts, func(ctx context.Context, resort domain.Resort, _ int) (itemResult, error) {
		return op(ctx, resort)
	}, batch.Options[domain.Resort]{
		Delay: r.delay,
		Clock: r.clock,
		OnError: func(resort domain.Resort, _ int, err error) {
			if errors.Is(err, errPersist) {
				r.logger.Error("resort persist failed", "run_id", m.RunID, "resort_id", resort.ID, "resort", resort.Slug, "error", err)
				return
			}
			r.logger.Warn("resort failed", "run_id", m.RunID, "resort_id", resort.ID, "resort", resort.Slug, "error", err)
		},
	})

	m.ItemsProcessed = res.Metrics.Processed
	m.Errors = res.Metrics.Failed
	for _, ir := range res.Results {
		m.RowsUpserted += ir.rows
		m.Warnings += ir.warnings
	}
	m.Status = status(res.Errors, res.Metrics.Processed)
	return r.finish(ctx, m)
}

func status(errs []batch.ItemError[domain.Resort], processed int) domain.RunStatus {
	if len(errs) == 0 {
		return domain.RunCompleted
	}
	if len(errs) == processed {
		allPersist := true
		for _, e := range errs {
			if !errors.Is(e, errPersist) {
				allPersist = false
				break
			}
		}
		if allPersist {
			return domain.RunFailed
		}
	}
	return domain.RunCompletedWithErrors
}

// finish stamps completion, records metrics and hands the summary to the sink.
func (r *runner) finish(ctx context.Context, m domain.RunMetrics) domain.RunMetrics {
	m.CompletedAt = r.clock.Now().UTC()
	elapsed := m.CompletedAt.Sub(m.StartedAt)
	m.DurationMs = elapsed.Milliseconds()

	if r.metrics != nil {
		r.metrics.PipelineRuns.WithLabelValues(r.name, string(m.Status)).Inc()
		r.metrics.ItemsProcessed.WithLabelValues(r.name).Add(float64(m.ItemsProcessed))
		r.metrics.RowsUpserted.WithLabelValues(r.name).Add(float64(m.RowsUpserted))
		r.metrics.ItemErrors.WithLabelValues(r.name).Add(float64(m.Errors))
		r.metrics.RunDuration.WithLabelValues(r.name).Observe(elapsed.Seconds())
	}

	r.logger.Info("pipeline run finished",
		"run_id", m.RunID,
		"status", m.Status,
		"duration_ms", m.DurationMs,
		"items_processed", m.ItemsProcessed,
		"rows_upserted", m.RowsUpserted,
		"errors", m.Errors,
		"warnings", m.Warnings,
	)

	if r.sink != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := r.sink.PublishRun(pctx, m); err != nil {
			r.logger.Warn("run metrics publish failed", "run_id", m.RunID, "error", err)
		}
	}
	return m
}

// warn logs every violation of one row and counts them.
func (r *runner) warn(resort domain.Resort, violations []domain.ValidationError) int {
	for _, v := range violations {
		r.logger.Warn("validation warning",
			"resort_id", resort.ID,
			"field", v.Field,
			"value", v.Value,
			"message", v.Message,
		)
	}
	if r.metrics != nil && len(violations) > 0 {
		r.metrics.ValidationWarnings.WithLabelValues(r.name).Add(float64(len(violations)))
	}
	return len(violations)
}

func (r *runner) invalidate(ctx context.Context, keys ...string) {
	if r.cache != nil {
		r.cache.Invalidate(ctx, keys...)
	}
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", errPersist, op, err)
}
