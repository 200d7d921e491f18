// Package solver is the boundary to the external radiative-transfer
// process. One invocation per measurement section; the subprocess is
// spawned fresh per call and is therefore self-isolating. Failures are
// fatal for the calling section only and are never retried.
package solver

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"uvcal/internal/errs"
)

// Output holds the solver's columnar stdout parsed into named arrays.
type Output struct {
	columns map[string][]float64
	rows    int
}

// NewOutput builds an Output directly from named column arrays, all of
// one shared length. Callers that obtain solver results without running
// the executable (fakes, replayed captures) construct outputs here.
func NewOutput(columns map[string][]float64) *Output {
	out := &Output{columns: make(map[string][]float64, len(columns))}
	for name, col := range columns {
		out.columns[name] = append([]float64(nil), col...)
		out.rows = len(col)
	}
	return out
}

// Column returns the named output array.
func (o *Output) Column(name string) []float64 {
	return o.columns[name]
}

// Rows returns the number of output rows.
func (o *Output) Rows() int {
	return o.rows
}

// Client invokes the external solver executable.
type Client struct {
	executable string
	dataDir    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a solver client. The limiter caps how quickly
// concurrent workers may launch solver subprocesses so a large batch
// cannot overload the machine.
func NewClient(executable, dataDir string, limiter *rate.Limiter, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		executable: executable,
		dataDir:    dataDir,
		limiter:    limiter,
		logger:     logger.With(slog.String("component", "solver")),
	}
}

// Run serializes req, invokes the solver synchronously with the request
// on stdin, and parses its columnar stdout. Non-zero exit or a row whose
// column count does not match the request is fatal for this invocation.
func (c *Client) Run(ctx context.Context, req *Request) (*Output, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errs.Wrap(err, "solver.run", "rate limiter wait")
		}
	}

	input := req.Serialize(c.dataDir)
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.executable)
	cmd.Stdin = strings.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errs.NewSolver("solver.run", err, "solver process failed").
			With("stderr", strings.TrimSpace(stderr.String()))
	}

	out, err := parseOutput(stdout.String(), req.Outputs)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "solver invocation completed",
		slog.Int("rows", out.rows),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}

// parseOutput parses whitespace-separated numeric rows into the named
// arrays, verifying the column count of every row against the request.
func parseOutput(raw string, outputs []string) (*Output, error) {
	out := &Output{columns: make(map[string][]float64, len(outputs))}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(outputs) {
			return nil, errs.NewSolver("solver.parse", nil, "solver output column count mismatch").
				With("line", line).
				With("expected", len(outputs)).
				With("got", len(fields))
		}
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errs.NewSolver("solver.parse", err, "non-numeric solver output").With("line", line)
			}
			out.columns[outputs[i]] = append(out.columns[outputs[i]], v)
		}
		out.rows++
	}

	if out.rows == 0 {
		return nil, errs.NewSolver("solver.parse", nil, "solver produced no output rows")
	}
	return out, nil
}
