// Package scheduler expands calculation inputs into one job per parsed
// section and executes them on a bounded worker pool with per-job
// timeouts and fail-fast cancellation.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"uvcal/internal/calc"
	"uvcal/internal/config"
	"uvcal/internal/errs"
	"uvcal/internal/infrastructure"
	"uvcal/internal/pipeline"
)

// job pairs a pipeline work unit with its submission-order slot.
type job struct {
	index int
	data  *pipeline.SectionData
}

// Scheduler runs correction batches.
type Scheduler struct {
	cfg      config.SchedulerConfig
	pipeline *pipeline.Pipeline
	metrics  *Metrics
	logger   *slog.Logger
}

// New creates a scheduler. metrics may be nil.
func New(cfg config.SchedulerConfig, p *pipeline.Pipeline, metrics *Metrics, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:      cfg,
		pipeline: p,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "scheduler")),
	}
}

// poolSize bounds worker parallelism. Jobs block on the external solver,
// so the pool oversubscribes the CPUs slightly, under a hard cap that
// keeps a big batch from overloading the solver host.
func (s *Scheduler) poolSize(jobs int) int {
	size := runtime.NumCPU() + s.cfg.WorkerSlack
	if size > s.cfg.WorkerCap {
		size = s.cfg.WorkerCap
	}
	if size > jobs {
		size = jobs
	}
	if size < 1 {
		size = 1
	}
	return size
}

// Run executes one batch: every section of every input becomes one job.
// Results follow submission order (sections in parse order, inputs in
// caller order), not completion order. The batch is all-or-nothing: a
// job timeout or failure cancels everything outstanding and returns a
// single error with no partial results. Zero inputs is not an error and
// still drives the Init(0)/Finish sequence.
func (s *Scheduler) Run(ctx context.Context, inputs []*calc.Input, progress Progress) ([]*pipeline.Result, error) {
	if progress == nil {
		progress = NopProgress{}
	}
	batchID := uuid.NewString()
	ctx = infrastructure.WithBatchID(ctx, batchID)
	start := time.Now()

	jobs, err := s.expand(inputs)
	if err != nil {
		return nil, err
	}

	total := len(jobs)
	progress.Init(total)
	if s.metrics != nil {
		s.metrics.batchSize.Observe(float64(total))
	}
	s.logger.InfoContext(ctx, "batch expanded",
		slog.Int("inputs", len(inputs)),
		slog.Int("jobs", total))

	if total == 0 {
		progress.Finish(time.Since(start))
		return []*pipeline.Result{}, nil
	}

	results := make([]*pipeline.Result, total)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.poolSize(total))

	for _, jb := range jobs {
		g.Go(func() error {
			result, err := s.runJob(gctx, jb)
			if err != nil {
				return err
			}
			results[jb.index] = result
			d := int(done.Add(1))
			progress.Tick(d, total)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "batch failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		// Already-computed results are discarded; the batch is
		// all-or-nothing at this level.
		return nil, err
	}

	elapsed := time.Since(start)
	progress.Finish(elapsed)
	s.logger.InfoContext(ctx, "batch completed",
		slog.Int("jobs", total),
		slog.Duration("elapsed", elapsed))
	return results, nil
}

// expand parses every input and builds one job per section. Parsing and
// provider construction happen here, synchronously, and are cached on
// the inputs for reuse across jobs.
func (s *Scheduler) expand(inputs []*calc.Input) ([]job, error) {
	var jobs []job
	for _, in := range inputs {
		sections, err := in.Sections()
		if err != nil {
			return nil, err
		}
		cal, err := in.Calibration()
		if err != nil {
			return nil, err
		}
		arf, err := in.ARF()
		if err != nil {
			return nil, err
		}
		ozone, err := in.Ozone()
		if err != nil {
			return nil, err
		}
		params, err := in.Params()
		if err != nil {
			return nil, err
		}

		for i, section := range sections {
			jobs = append(jobs, job{
				index: len(jobs),
				data: &pipeline.SectionData{
					Section:      section,
					SectionIndex: i,
					InputID:      in.ID,
					Calibration:  cal,
					ARF:          arf,
					Ozone:        ozone,
					Params:       params,
					Warnings:     in.Warnings(),
				},
			})
		}
	}
	return jobs, nil
}

// runJob executes one section job under the per-job timeout. A deadline
// hit converts to the batch-fatal timeout error; any other failure is
// wrapped with the job context.
func (s *Scheduler) runJob(ctx context.Context, jb job) (*pipeline.Result, error) {
	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.pipeline.Process(jobCtx, jb.data)
	duration := time.Since(start)

	if err != nil {
		status := "failed"
		if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
			status = "timeout"
			err = errs.NewTimeout("scheduler.job", s.cfg.JobTimeout.String()).
				With("input", jb.data.InputID).
				With("section", jb.data.SectionIndex)
		} else {
			err = errs.Wrap(err, "scheduler.job", "section job failed").
				With("input", jb.data.InputID).
				With("section", jb.data.SectionIndex)
		}
		if s.metrics != nil {
			s.metrics.jobsTotal.WithLabelValues(status).Inc()
			s.metrics.jobDuration.Observe(duration.Seconds())
		}
		s.logger.ErrorContext(ctx, "section job failed",
			slog.String("input", jb.data.InputID),
			slog.Int("section", jb.data.SectionIndex),
			slog.String("status", status),
			slog.String("error", err.Error()))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.jobsTotal.WithLabelValues("completed").Inc()
		s.metrics.jobDuration.Observe(duration.Seconds())
	}
	return result, nil
}
