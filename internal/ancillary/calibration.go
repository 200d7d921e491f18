package ancillary

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"uvcal/internal/errs"
)

// Calibration maps wavelength (nm) to instrument sensitivity. Linear
// interpolation with extrapolation beyond the tabulated range. At least
// two points are required for normal operation; fewer than two and the
// provider reports itself empty, except for the shared one-point contract.
type Calibration struct {
	wavelengths []float64
	values      []float64
}

// NewCalibration builds a provider from parallel wavelength/sensitivity
// slices, assumed sorted ascending by wavelength.
func NewCalibration(wavelengths, values []float64) *Calibration {
	return &Calibration{
		wavelengths: append([]float64(nil), wavelengths...),
		values:      append([]float64(nil), values...),
	}
}

// Empty reports whether the provider has no points.
func (c *Calibration) Empty() bool {
	return c == nil || len(c.wavelengths) == 0
}

// Interpolate returns the sensitivity at wavelength w, extrapolating
// linearly outside the tabulated range. A single-point table is constant.
func (c *Calibration) Interpolate(w float64) float64 {
	n := len(c.wavelengths)
	if n == 1 {
		return c.values[0]
	}

	// Select the segment; queries outside the range extrapolate from the
	// nearest segment.
	i := 0
	for i < n-2 && w > c.wavelengths[i+1] {
		i++
	}
	x0, x1 := c.wavelengths[i], c.wavelengths[i+1]
	y0, y1 := c.values[i], c.values[i+1]
	return y0 + (w-x0)*(y1-y0)/(x1-x0)
}

// LoadCalibration parses a calibration file: one record per line with
// exactly two whitespace-separated numeric fields, wavelength in tenths
// of a nanometer (divided by 10 on load) and sensitivity. Any other field
// count is fatal. Fewer than two usable points yields an empty provider.
func LoadCalibration(r io.Reader) (*Calibration, error) {
	scanner := bufio.NewScanner(r)
	var wavelengths, values []float64

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errs.NewFormat("ancillary.calibration", "calibration line must have exactly 2 fields", line)
		}
		w, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errs.NewFormat("ancillary.calibration", "non-numeric wavelength", line)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errs.NewFormat("ancillary.calibration", "non-numeric sensitivity", line)
		}
		wavelengths = append(wavelengths, w/10)
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(err, "ancillary.calibration", "read calibration file")
	}

	// Interpolation needs at least two points; a shorter table is treated
	// as no calibration data at all.
	if len(wavelengths) < 2 {
		return &Calibration{}, nil
	}
	return NewCalibration(wavelengths, values), nil
}
