package ancillary

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"uvcal/internal/errs"
)

// Aerosol is the Angstrom aerosol parameter pair.
type Aerosol struct {
	Alpha float64
	Beta  float64
}

// parameterPoint is one recorded day of atmospheric parameters.
type parameterPoint struct {
	day        int
	albedo     float64
	aerosol    Aerosol
	cloudCover float64
	hasCloud   bool
}

// ParameterSeries maps day of year to surface albedo, aerosol parameters
// and cloud cover. Albedo and aerosol answer with the previous recorded
// value (the first value before the first recorded day); cloud cover is
// an exact-day lookup and never interpolated.
type ParameterSeries struct {
	points []parameterPoint
}

// Empty reports whether the series has no recorded days.
func (p *ParameterSeries) Empty() bool {
	return p == nil || len(p.points) == 0
}

// forwardFillIndex returns the index of the last recorded day <= day,
// or 0 before the first recorded day.
func (p *ParameterSeries) forwardFillIndex(day int) int {
	idx := sort.Search(len(p.points), func(i int) bool {
		return p.points[i].day > day
	})
	if idx == 0 {
		return 0
	}
	return idx - 1
}

// Albedo returns the surface albedo for day by forward fill.
func (p *ParameterSeries) Albedo(day int) float64 {
	return p.points[p.forwardFillIndex(day)].albedo
}

// AerosolParams returns the aerosol parameters for day by forward fill.
func (p *ParameterSeries) AerosolParams(day int) Aerosol {
	return p.points[p.forwardFillIndex(day)].aerosol
}

// CloudCover returns the recorded cloud cover for exactly day. The second
// return is false when the day is absent or recorded without cloud data.
func (p *ParameterSeries) CloudCover(day int) (float64, bool) {
	if p.Empty() {
		return 0, false
	}
	idx := sort.Search(len(p.points), func(i int) bool {
		return p.points[i].day >= day
	})
	if idx == len(p.points) || p.points[idx].day != day || !p.points[idx].hasCloud {
		return 0, false
	}
	return p.points[idx].cloudCover, true
}

// LoadParameters parses the atmospheric parameter file: one record per
// line, five semicolon-delimited fields (day; albedo; aerosol alpha;
// aerosol beta; cloud cover). Blank albedo or aerosol fields carry the
// previous day's value forward; a blank cloud cover means no data for
// that day. The first line must supply albedo and both aerosol values.
func LoadParameters(r io.Reader) (*ParameterSeries, error) {
	scanner := bufio.NewScanner(r)
	series := &ParameterSeries{}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) != 5 {
			return nil, errs.NewFormat("ancillary.params", "parameter line must have 5 semicolon-delimited fields", line)
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		day, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errs.NewFormat("ancillary.params", "non-numeric day", line)
		}

		point := parameterPoint{day: day}
		first := len(series.points) == 0

		if fields[1] == "" || fields[2] == "" || fields[3] == "" {
			if first {
				return nil, errs.NewFormat("ancillary.params", "first parameter line must supply albedo and aerosol", line)
			}
			prev := series.points[len(series.points)-1]
			point.albedo = prev.albedo
			point.aerosol = prev.aerosol
		}
		if fields[1] != "" {
			if point.albedo, err = strconv.ParseFloat(fields[1], 64); err != nil {
				return nil, errs.NewFormat("ancillary.params", "non-numeric albedo", line)
			}
		}
		if fields[2] != "" {
			if point.aerosol.Alpha, err = strconv.ParseFloat(fields[2], 64); err != nil {
				return nil, errs.NewFormat("ancillary.params", "non-numeric aerosol alpha", line)
			}
		}
		if fields[3] != "" {
			if point.aerosol.Beta, err = strconv.ParseFloat(fields[3], 64); err != nil {
				return nil, errs.NewFormat("ancillary.params", "non-numeric aerosol beta", line)
			}
		}
		if fields[4] != "" {
			if point.cloudCover, err = strconv.ParseFloat(fields[4], 64); err != nil {
				return nil, errs.NewFormat("ancillary.params", "non-numeric cloud cover", line)
			}
			point.hasCloud = true
		}

		series.points = append(series.points, point)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(err, "ancillary.params", "read parameter file")
	}

	sort.Slice(series.points, func(i, j int) bool {
		return series.points[i].day < series.points[j].day
	})
	return series, nil
}
