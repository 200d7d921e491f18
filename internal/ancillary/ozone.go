package ancillary

import (
	"bufio"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"uvcal/internal/errs"
)

// OzoneSeries maps time of day (minutes since midnight) to total ozone
// column in Dobson units. Queries answer with the nearest recorded sample,
// extrapolating to the first/last sample outside the recorded range.
type OzoneSeries struct {
	times  []float64
	values []float64
}

// NewOzoneSeries builds a provider from parallel time/value slices,
// assumed sorted ascending by time.
func NewOzoneSeries(times, values []float64) *OzoneSeries {
	return &OzoneSeries{
		times:  append([]float64(nil), times...),
		values: append([]float64(nil), values...),
	}
}

// Empty reports whether the provider has no points.
func (o *OzoneSeries) Empty() bool {
	return o == nil || len(o.times) == 0
}

// Interpolate returns the ozone column of the sample nearest to t.
// Exact midpoints resolve to the earlier sample.
func (o *OzoneSeries) Interpolate(t float64) float64 {
	best := 0
	bestDist := math.Abs(t - o.times[0])
	for i := 1; i < len(o.times); i++ {
		if d := math.Abs(t - o.times[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return o.values[best]
}

// OzoneQuality carries the loader's record quality thresholds.
type OzoneQuality struct {
	// MaxAirMass discards records measured through too long an
	// atmospheric path.
	MaxAirMass float64
	// MaxStd discards records whose ozone standard deviation is too high.
	MaxStd float64
}

// LoadOzone parses the instrument's daily observation file, indexing only
// its summary records: lines whose second field is the literal "summary",
// with time (minutes since midnight), ozone column, ozone standard
// deviation and air mass at fixed field positions. Records failing the
// quality thresholds are discarded before indexing; all other record
// types in the file are skipped.
func LoadOzone(r io.Reader, quality OzoneQuality, logger *slog.Logger) (*OzoneSeries, error) {
	if logger == nil {
		logger = slog.Default()
	}
	scanner := bufio.NewScanner(r)
	var times, values []float64
	dropped := 0

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] != "summary" {
			continue
		}
		if len(fields) < 5 {
			return nil, errs.NewFormat("ancillary.ozone", "summary record must have 5 fields", line)
		}

		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errs.NewFormat("ancillary.ozone", "non-numeric summary time", line)
		}
		ozone, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, errs.NewFormat("ancillary.ozone", "non-numeric ozone column", line)
		}
		std, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, errs.NewFormat("ancillary.ozone", "non-numeric ozone standard deviation", line)
		}
		airMass, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, errs.NewFormat("ancillary.ozone", "non-numeric air mass", line)
		}

		if airMass > quality.MaxAirMass || std > quality.MaxStd {
			dropped++
			continue
		}
		times = append(times, t)
		values = append(values, ozone)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(err, "ancillary.ozone", "read ozone file")
	}

	if dropped > 0 {
		logger.Debug("discarded low quality ozone records",
			slog.Int("dropped", dropped),
			slog.Int("kept", len(times)))
	}
	return NewOzoneSeries(times, values), nil
}
