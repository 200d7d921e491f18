package ancillary

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"uvcal/internal/errs"
)

// ARF is the instrument's angular response function: relative sensitivity
// against solar zenith angle in degrees. The correction integral needs
// continuous evaluation between the tabulated angles, so queries go
// through a cubic-spline fit rather than the raw sample points. The
// loader always appends a synthetic terminal point at (90, 0) so the fit
// closes the full range.
type ARF struct {
	angles    []float64
	responses []float64
	spline    *cubicSpline
}

// NewARF builds a provider from parallel angle/response slices. Angles
// must be strictly ascending; a non-monotonic table is a validation
// error.
func NewARF(angles, responses []float64) (*ARF, error) {
	for i := 1; i < len(angles); i++ {
		if angles[i] <= angles[i-1] {
			return nil, errs.NewValidation("ancillary.arf", "angular response angles must be strictly ascending")
		}
	}
	a := &ARF{
		angles:    append([]float64(nil), angles...),
		responses: append([]float64(nil), responses...),
	}
	if len(angles) >= 2 {
		a.spline = newCubicSpline(a.angles, a.responses)
	}
	return a, nil
}

// Empty reports whether the provider has no points.
func (a *ARF) Empty() bool {
	return a == nil || len(a.angles) == 0
}

// Interpolate evaluates the spline fit at angle theta (degrees). A
// single-point table is constant.
func (a *ARF) Interpolate(theta float64) float64 {
	if len(a.angles) == 1 {
		return a.responses[0]
	}
	return a.spline.at(theta)
}

// LoadARF parses an angular response file. Lines starting with '%' are
// comments. Data lines have at least 5 whitespace-separated numeric
// fields; the first is the solar zenith angle and column selects the
// response value. A column index beyond the line falls back to the last
// field, with a warning. The synthetic terminal point (90, 0) is always
// appended.
func LoadARF(r io.Reader, column int, warnings *errs.Warnings) (*ARF, error) {
	scanner := bufio.NewScanner(r)
	var angles, responses []float64
	warnedColumn := false

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "%") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 5 {
			return nil, errs.NewFormat("ancillary.arf", "angular response line must have at least 5 fields", line)
		}

		angle, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errs.NewFormat("ancillary.arf", "non-numeric zenith angle", line)
		}

		idx := column
		if idx >= len(fields) {
			idx = len(fields) - 1
			if !warnedColumn && warnings != nil {
				warnings.Add("arf", "response column %d out of range, falling back to last column %d", column, idx)
				warnedColumn = true
			}
		}
		response, err := strconv.ParseFloat(fields[idx], 64)
		if err != nil {
			return nil, errs.NewFormat("ancillary.arf", "non-numeric response value", line)
		}

		angles = append(angles, angle)
		responses = append(responses, response)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(err, "ancillary.arf", "read angular response file")
	}

	if len(angles) == 0 {
		return &ARF{}, nil
	}

	// Guarantees a closed-range fit up to the horizon.
	angles = append(angles, 90)
	responses = append(responses, 0)
	return NewARF(angles, responses)
}
