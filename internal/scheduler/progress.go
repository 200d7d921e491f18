package scheduler

import (
	"log/slog"
	"sync"
	"time"
)

// Progress receives batch lifecycle callbacks. Init runs once before any
// job starts (with the total job count, possibly zero), Tick once per
// completed job, Finish once after the batch ends. Tick may be called
// concurrently from pool workers.
type Progress interface {
	Init(total int)
	Tick(done, total int)
	Finish(elapsed time.Duration)
}

// NopProgress discards all callbacks.
type NopProgress struct{}

func (NopProgress) Init(int) {}

func (NopProgress) Tick(int, int) {}

func (NopProgress) Finish(time.Duration) {}

// LogProgress reports batch progress to a logger.
type LogProgress struct {
	logger *slog.Logger

	mu    sync.Mutex
	total int
}

// NewLogProgress creates a logging progress reporter.
func NewLogProgress(logger *slog.Logger) *LogProgress {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgress{logger: logger.With(slog.String("component", "progress"))}
}

func (p *LogProgress) Init(total int) {
	p.mu.Lock()
	p.total = total
	p.mu.Unlock()
	p.logger.Info("batch started", slog.Int("total_jobs", total))
}

func (p *LogProgress) Tick(done, total int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(done) / float64(total) * 100
	}
	p.logger.Info("job completed",
		slog.Int("done", done),
		slog.Int("total", total),
		slog.Float64("percentage", percentage))
}

func (p *LogProgress) Finish(elapsed time.Duration) {
	p.mu.Lock()
	total := p.total
	p.mu.Unlock()
	p.logger.Info("batch finished",
		slog.Int("total_jobs", total),
		slog.Duration("elapsed", elapsed))
}
