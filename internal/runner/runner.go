// Package runner executes sources in order and persists what they produce.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/metrics"
	"github.com/JakeFAU/isro-crawler/internal/output"
	"github.com/JakeFAU/isro-crawler/internal/publisher"
	"github.com/JakeFAU/isro-crawler/internal/record"
	"github.com/JakeFAU/isro-crawler/internal/sources"
	"github.com/JakeFAU/isro-crawler/internal/storage/postgres"
)

// Source outcomes, used in metrics and run rows.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusError   = "error"
)

// Writer persists one dataset.
type Writer interface {
	Write(ctx context.Context, name string, records []record.Record) (output.Written, error)
}

// RunRecorder stores per-source outcomes.
type RunRecorder interface {
	RecordRun(ctx context.Context, row postgres.RunRow) error
}

// Runner runs sources sequentially, writing each dataset as it completes.
type Runner struct {
	writer    Writer
	publisher publisher.Publisher
	recorder  RunRecorder
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
	pushURL   string
	pushJob   string
}

// Option configures a Runner.
type Option func(*Runner)

// WithPublisher sends a RunEvent after every source.
func WithPublisher(p publisher.Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithRunRecorder stores a row per source.
func WithRunRecorder(rec RunRecorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithPushgateway pushes metrics once a run finishes.
func WithPushgateway(url, job string) Option {
	return func(r *Runner) {
		r.pushURL = url
		r.pushJob = job
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithIDGenerator overrides run ID generation.
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) { r.newID = fn }
}

// New constructs a Runner around writer.
func New(writer Writer, logger *zap.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		writer: writer,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes srcs in order. A failing source does not stop the run; every
// failure is returned together once all sources have finished.
func (r *Runner) Run(ctx context.Context, srcs []sources.Source) (Summary, error) {
	summary := Summary{RunID: r.newID(), StartedAt: r.now()}
	logger := r.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("run started", zap.Int("sources", len(srcs)))

	var errs error
	for _, src := range srcs {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		res := r.runSource(ctx, summary.RunID, src, logger)
		summary.Results = append(summary.Results, res)
		if res.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", res.Name, res.Err))
		}
	}
	summary.FinishedAt = r.now()

	if err := metrics.Push(ctx, r.pushURL, r.pushJob); err != nil {
		logger.Warn("metrics push failed", zap.Error(err))
	}
	logger.Info("run finished",
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
		zap.Int("failed", len(summary.Failed())),
	)
	return summary, errs
}

// RunOne executes a single source.
func (r *Runner) RunOne(ctx context.Context, src sources.Source) (Result, error) {
	summary, err := r.Run(ctx, []sources.Source{src})
	if len(summary.Results) == 0 {
		return Result{Name: src.Name(), Label: src.Label(), Err: err}, err
	}
	return summary.Results[0], err
}

func (r *Runner) runSource(ctx context.Context, runID string, src sources.Source, logger *zap.Logger) Result {
	logger = logger.With(zap.String("source", src.Name()))
	started := r.now()
	res := Result{Name: src.Name(), Label: src.Label()}

	records, err := src.Scrape(ctx)
	res.Count = len(records)
	res.Err = err

	// A source that failed outright leaves earlier output in place.
	if err == nil || len(records) > 0 {
		written, werr := r.writer.Write(ctx, src.Name(), records)
		if werr != nil {
			res.Err = multierr.Append(res.Err, werr)
		} else {
			res.Outputs = written.URIs()
		}
	}
	res.Duration = r.now().Sub(started)
	res.Status = statusOf(res)

	metrics.ObserveSource(res.Name, res.Status, res.Count, res.Duration)
	if res.Err != nil {
		logger.Warn("source finished with errors", zap.Int("records", res.Count), zap.Error(res.Err))
	} else {
		logger.Info("source finished", zap.Int("records", res.Count), zap.Strings("outputs", res.Outputs))
	}

	r.notify(ctx, runID, started, res, logger)
	return res
}

func (r *Runner) notify(ctx context.Context, runID string, started time.Time, res Result, logger *zap.Logger) {
	finished := started.Add(res.Duration)
	var errMsg string
	if res.Err != nil {
		errMsg = res.Err.Error()
	}
	if r.publisher != nil {
		id, err := r.publisher.Publish(ctx, publisher.RunEvent{
			RunID:      runID,
			Source:     res.Name,
			Count:      res.Count,
			Outputs:    res.Outputs,
			Error:      errMsg,
			FinishedAt: finished,
		})
		if err != nil {
			logger.Warn("run event publish failed", zap.Error(err))
		} else {
			logger.Debug("run event published", zap.String("message_id", id))
		}
	}
	if r.recorder != nil {
		err := r.recorder.RecordRun(ctx, postgres.RunRow{
			RunID:      runID,
			Source:     res.Name,
			Count:      res.Count,
			Status:     res.Status,
			Error:      errMsg,
			StartedAt:  started,
			FinishedAt: finished,
		})
		if err != nil {
			logger.Warn("run row not recorded", zap.Error(err))
		}
	}
}

func statusOf(res Result) string {
	switch {
	case res.Err == nil:
		return StatusOK
	case len(res.Outputs) > 0:
		return StatusPartial
	default:
		return StatusError
	}
}
