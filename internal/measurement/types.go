package measurement

import (
	"math"
	"sort"
	"time"
)

// Header holds the per-section instrument state parsed from a raw file.
// Immutable once parsed.
type Header struct {
	// InstrumentType is the two-letter type code identifying the
	// spectroradiometer model family.
	InstrumentType string
	// IntegrationTime is the sampling integration time in seconds.
	IntegrationTime float64
	// DeadTime is the photomultiplier dead time in seconds.
	DeadTime float64
	// CycleCount is the number of measurement cycles per sample.
	CycleCount int
	// Date is the measurement day at UTC midnight.
	Date time.Time
	// Place is the station name, possibly multi-word.
	Place     string
	Latitude  float64
	Longitude float64
	// Temperature is the instrument temperature in degrees Celsius.
	Temperature float64
	// Pressure is the surface pressure in hPa.
	Pressure float64
	// Dark is the dark count baseline subtracted from every sample.
	Dark float64
}

// Sample is one spectral measurement point.
type Sample struct {
	// Time is the time of day in minutes since midnight.
	Time float64
	// Wavelength is in nanometers (the file stores tenths of nm).
	Wavelength float64
	// Step is the monochromator step count.
	Step float64
	// Events is the raw photon event count.
	Events float64
	// Std is the derived relative standard deviation: 0 when Events is 0,
	// 1/sqrt(Events) otherwise.
	Std float64
}

// StdForEvents computes the derived standard deviation for an event count.
func StdForEvents(events float64) float64 {
	if events == 0 {
		return 0
	}
	return 1 / math.Sqrt(events)
}

// Section is one header plus its ordered sample list.
type Section struct {
	Header  Header
	Samples []Sample
}

// Wavelengths returns the sample wavelengths in order.
func (s *Section) Wavelengths() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Wavelength
	}
	return out
}

// Times returns the per-sample times in order.
func (s *Section) Times() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Time
	}
	return out
}

// Events returns the raw event counts in order.
func (s *Section) Events() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Events
	}
	return out
}

// MergeDuplicates groups samples sharing a wavelength, averages their
// time, step and event fields, and recomputes the standard deviation.
// The returned section is sorted by wavelength; wavelengths are unique
// and ascending afterwards. Used for network-sourced sections, which may
// interleave repeated scans of the same wavelength.
func (s *Section) MergeDuplicates() *Section {
	type acc struct {
		time, step, events float64
		n                  int
	}
	groups := make(map[float64]*acc)
	order := make([]float64, 0, len(s.Samples))
	for _, smp := range s.Samples {
		g, ok := groups[smp.Wavelength]
		if !ok {
			g = &acc{}
			groups[smp.Wavelength] = g
			order = append(order, smp.Wavelength)
		}
		g.time += smp.Time
		g.step += smp.Step
		g.events += smp.Events
		g.n++
	}
	sort.Float64s(order)

	merged := &Section{Header: s.Header, Samples: make([]Sample, 0, len(order))}
	for _, w := range order {
		g := groups[w]
		n := float64(g.n)
		events := g.events / n
		merged.Samples = append(merged.Samples, Sample{
			Time:       g.time / n,
			Wavelength: w,
			Step:       g.step / n,
			Events:     events,
			Std:        StdForEvents(events),
		})
	}
	return merged
}
