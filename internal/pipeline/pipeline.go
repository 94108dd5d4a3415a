package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"

	"github.com/couchcryptid/survey-demand-etl/internal/domain"
	"github.com/couchcryptid/survey-demand-etl/internal/form"
	"github.com/couchcryptid/survey-demand-etl/internal/observability"
	"github.com/couchcryptid/survey-demand-etl/internal/survey"
)

// Extractor reads every raw submission of the survey in ingestion order.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.RawResponse, error)
}

// Loader writes a processed batch to a destination.
type Loader interface {
	Load(ctx context.Context, batch domain.Batch) error
}

type sink struct {
	name   string
	loader Loader
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLoader adds a named destination. Loaders run in the order they are added.
func WithLoader(name string, l Loader) Option {
	return func(p *Pipeline) { p.sinks = append(p.sinks, sink{name: name, loader: l}) }
}

// WithMaxAttempts bounds the number of extraction attempts per run.
func WithMaxAttempts(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff overrides the initial and maximum retry delay.
func WithBackoff(initial, maxBackoff time.Duration) Option {
	return func(p *Pipeline) {
		p.initialBackoff = initial
		p.maxBackoff = maxBackoff
	}
}

// WithVerbose logs per-record diagnostics at Info instead of Debug.
func WithVerbose(v bool) Option {
	return func(p *Pipeline) { p.verbose = v }
}

// Pipeline orchestrates extract, survey processing and load for one batch per Run.
type Pipeline struct {
	extractor Extractor
	parser    *form.Parser
	sinks     []sink
	logger    *slog.Logger
	metrics   *observability.Metrics
	verbose   bool

	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	ready  atomic.Bool
	mu     sync.Mutex
	latest *domain.Batch
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, parser *form.Parser, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: e,
		parser:    parser,
		logger:    logger,
		metrics:   metrics,
		// Exponential backoff: start at 200ms, double each retry, cap at 5s.
		maxAttempts:    3,
		initialBackoff: 200 * time.Millisecond,
		maxBackoff:     5 * time.Second,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// CheckReadiness returns nil once a batch has been processed and loaded, or
// an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not loaded any batch yet")
	}
	return nil
}

// Latest returns the last batch produced by Run, or nil before the first one.
func (p *Pipeline) Latest() *domain.Batch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Run processes one batch: extract with retries, weight and normalize the
// selected respondents, and hand the result to every loader. A failing loader
// does not prevent the others from running; their errors are joined.
func (p *Pipeline) Run(ctx context.Context, sel survey.Selector) (*domain.Batch, error) {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("pipeline started", "selection", sel.String())

	raw, err := p.extract(ctx, logger)
	if err != nil {
		return nil, err
	}
	p.metrics.SubmissionsExtracted.Add(float64(len(raw)))
	p.metrics.BatchSize.Observe(float64(len(raw)))

	s := survey.New(p.parser, logger, survey.WithVerbose(p.verbose))
	records, err := s.Run(raw, sel)
	if err != nil {
		return nil, fmt.Errorf("process survey: %w", err)
	}

	report := s.Report()
	batch := domain.Batch{
		RunID:       runID,
		Records:     records,
		Authority:   report.Authority,
		Warnings:    report.Warnings,
		Skipped:     report.Skipped,
		Excluded:    report.Excluded,
		ProcessedAt: domain.Now(),
	}
	p.observe(batch)

	loadErr := p.load(ctx, logger, batch)

	p.mu.Lock()
	p.latest = &batch
	p.mu.Unlock()

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	if loadErr != nil {
		return &batch, loadErr
	}

	p.ready.Store(true)
	logger.Info("pipeline finished",
		"records", len(batch.Records),
		"skipped", len(batch.Skipped),
		"excluded", len(batch.Excluded),
		"warnings", len(batch.Warnings),
		"duration", time.Since(start),
	)
	return &batch, nil
}

// extract calls the extractor until it succeeds, the attempts are exhausted,
// or the context is cancelled.
func (p *Pipeline) extract(ctx context.Context, logger *slog.Logger) ([]domain.RawResponse, error) {
	backoff := p.initialBackoff
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		raw, err := p.extractor.Extract(ctx)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("extract submissions: %w", ctx.Err())
		}

		lastErr = err
		p.metrics.ExtractErrors.Inc()
		logger.Error("extract failed", "error", err, "attempt", attempt, "max_attempts", p.maxAttempts)

		if attempt == p.maxAttempts {
			break
		}
		if !sharedretry.SleepWithContext(ctx, backoff) {
			return nil, fmt.Errorf("extract submissions: %w", ctx.Err())
		}
		backoff = sharedretry.NextBackoff(backoff, p.maxBackoff)
	}

	return nil, fmt.Errorf("extract submissions after %d attempts: %w", p.maxAttempts, lastErr)
}

func (p *Pipeline) load(ctx context.Context, logger *slog.Logger, batch domain.Batch) error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.loader.Load(ctx, batch); err != nil {
			logger.Error("load batch failed", "sink", s.name, "error", err, "records", len(batch.Records))
			p.metrics.LoadErrors.WithLabelValues(s.name).Inc()
			errs = append(errs, fmt.Errorf("load %s: %w", s.name, err))
			continue
		}
		p.metrics.RecordsLoaded.Add(float64(len(batch.Records)))
		logger.Debug("batch loaded", "sink", s.name, "records", len(batch.Records))
	}
	return errors.Join(errs...)
}

func (p *Pipeline) observe(batch domain.Batch) {
	for _, rec := range batch.Records {
		p.metrics.RecordsProcessed.WithLabelValues(string(rec.Category)).Inc()
	}
	p.metrics.RecordsSkipped.Add(float64(len(batch.Skipped)))
	p.metrics.RecordsExcluded.Add(float64(len(batch.Excluded)))
	p.metrics.SurveyWarnings.Add(float64(len(batch.Warnings)))
}
