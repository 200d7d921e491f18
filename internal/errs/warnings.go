package errs

import (
	"fmt"
	"sync"
	"time"
)

// Warning records a recoverable condition, typically a default substituted
// for a missing ancillary file.
type Warning struct {
	Source  string
	Message string
	Time    time.Time
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Source, w.Message)
}

// Warnings is a concurrency-safe append-only warning sink. Workers append
// from pool goroutines; the scheduler merges per input at batch boundaries.
type Warnings struct {
	mu   sync.Mutex
	list []Warning
}

// Add appends a warning.
func (w *Warnings) Add(source, format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.list = append(w.list, Warning{
		Source:  source,
		Message: fmt.Sprintf(format, args...),
		Time:    time.Now(),
	})
}

// Merge appends all warnings from other.
func (w *Warnings) Merge(other *Warnings) {
	if other == nil {
		return
	}
	other.mu.Lock()
	copied := make([]Warning, len(other.list))
	copy(copied, other.list)
	other.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.list = append(w.list, copied...)
}

// List returns a snapshot of the accumulated warnings.
func (w *Warnings) List() []Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Warning, len(w.list))
	copy(out, w.list)
	return out
}

// Len returns the number of accumulated warnings.
func (w *Warnings) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.list)
}
