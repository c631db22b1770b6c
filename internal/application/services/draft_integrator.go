package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/providers"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Medicalqueryreview/pkg/errors"
)

// DraftJob asks for a draft for one query
type DraftJob struct {
	QueryID string
	Request entities.DraftRequest
}

// DraftSink receives drafts produced by the integrator
type DraftSink interface {
	AttachDraft(ctx context.Context, queryID, text string)
}

// DraftIntegratorConfig sizes the worker pool and bounds each request
type DraftIntegratorConfig struct {
	Timeout   time.Duration
	Workers   int
	QueueSize int
}

// DraftIntegrator requests drafts from an external provider on a pool of workers.
// Every failure is absorbed: the job simply produces no draft.
type DraftIntegrator struct {
	provider providers.DraftProvider
	timeout  time.Duration
	workers  int

	jobs   chan DraftJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	sink    DraftSink
	started bool
	stopped bool
}

// NewDraftIntegrator creates an integrator. provider may be nil to disable drafting.
func NewDraftIntegrator(provider providers.DraftProvider, cfg DraftIntegratorConfig) *DraftIntegrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &DraftIntegrator{
		provider: provider,
		timeout:  cfg.Timeout,
		workers:  cfg.Workers,
		jobs:     make(chan DraftJob, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Enabled reports whether a provider is configured
func (d *DraftIntegrator) Enabled() bool {
	return d.provider != nil
}

// Start launches the workers; drafts are delivered to sink
func (d *DraftIntegrator) Start(sink DraftSink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.sink = sink
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

// Dispatch queues job without blocking. It returns false when the job was dropped.
func (d *DraftIntegrator) Dispatch(job DraftJob) bool {
	logger := observability.LoggerFromContext(d.ctx)
	if d.provider == nil {
		logger.Debug().Str("query_id", job.QueryID).Msg("drafting disabled; no draft requested")
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		logger.Warn().Str("query_id", job.QueryID).Str("error_type", string(apperrors.ErrorTypeDraftUnavailable)).
			Msg("draft integrator stopped; draft dropped")
		return false
	}

	select {
	case d.jobs <- job:
		return true
	default:
		logger.Warn().Str("query_id", job.QueryID).Str("error_type", string(apperrors.ErrorTypeDraftUnavailable)).
			Int("queue_depth", len(d.jobs)).
			Msg("draft queue full; draft dropped")
		return false
	}
}

// RequestDraft asks the provider for a draft and settles the returned channel exactly once.
// Failures are logged and settle as a result with OK=false. Queued jobs are served through it.
func (d *DraftIntegrator) RequestDraft(ctx context.Context, queryText, condition string) <-chan entities.DraftResult {
	result := make(chan entities.DraftResult, 1)
	go func() {
		defer close(result)
		start := time.Now()
		text, err := d.fetch(ctx, entities.DraftRequest{QueryText: queryText, Condition: condition})
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("draft request failed")
			result <- entities.DraftResult{}
			return
		}
		result <- entities.DraftResult{Text: text, OK: true}
	}()
	return result
}

// QueueDepth returns the number of jobs waiting for a worker
func (d *DraftIntegrator) QueueDepth() int {
	return len(d.jobs)
}

// Stop stops accepting jobs and waits for queued ones. When ctx expires first,
// in-flight requests are cancelled and their drafts discarded.
func (d *DraftIntegrator) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return fmt.Errorf("draft integrator stopped before queue drained: %w", ctx.Err())
	}
}

func (d *DraftIntegrator) work() {
	defer d.wg.Done()
	for job := range d.jobs {
		d.handle(job)
	}
}

func (d *DraftIntegrator) handle(job DraftJob) {
	logger := observability.LoggerFromContext(d.ctx).With().Str("query_id", job.QueryID).Logger()

	draft := <-d.RequestDraft(d.ctx, job.Request.QueryText, job.Request.Condition)
	if !draft.OK {
		logger.Warn().Str("error_type", string(apperrors.ErrorTypeDraftUnavailable)).Msg("no draft available")
		return
	}

	d.mu.Lock()
	sink := d.sink
	d.mu.Unlock()
	if sink == nil {
		return
	}
	sink.AttachDraft(d.ctx, job.QueryID, draft.Text)
}

type draftOutcome struct {
	text string
	err  error
}

// fetch bounds the provider call by the configured timeout even if the provider ignores ctx.
func (d *DraftIntegrator) fetch(ctx context.Context, req entities.DraftRequest) (string, error) {
	if d.provider == nil {
		return "", apperrors.NewDraftUnavailableError("no draft provider configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	outcome := make(chan draftOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcome <- draftOutcome{err: fmt.Errorf("draft provider panicked: %v", r)}
			}
		}()
		text, err := d.provider.Draft(ctx, req)
		outcome <- draftOutcome{text: text, err: err}
	}()

	var out draftOutcome
	select {
	case out = <-outcome:
	case <-ctx.Done():
		return "", apperrors.NewDraftUnavailableError("draft request timed out", ctx.Err())
	}

	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) {
			return "", apperrors.NewDraftUnavailableError("draft request timed out", out.err)
		}
		return "", apperrors.NewDraftUnavailableError("draft request failed", out.err)
	}
	if strings.TrimSpace(out.text) == "" {
		return "", apperrors.NewDraftUnavailableError("draft provider returned empty text", nil)
	}
	return out.text, nil
}
