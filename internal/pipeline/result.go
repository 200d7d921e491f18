package pipeline

import "math"

// Spectrum holds the per-wavelength arrays of one corrected section.
// All slices share the same length and index by sample position.
type Spectrum struct {
	// Wavelengths in nm, unique and ascending.
	Wavelengths []float64
	// Times are the per-sample measurement times, minutes since midnight.
	Times []float64
	// RawEvents are the uncorrected photon event counts.
	RawEvents []float64
	// Calibrated is the spectrum after calibration and temperature
	// correction, before the cosine correction.
	Calibrated []float64
	// Corrected is the cosine-corrected spectrum.
	Corrected []float64
	// CosFactors are the cosine-correction multipliers as evaluated; a
	// NaN entry was applied as 1 but is retained here for diagnostics.
	CosFactors []float64
}

// Result is the output of the correction pipeline for one section.
type Result struct {
	// SectionIndex is the section's position in its input's parse order.
	SectionIndex int
	// InputID references the originating calculation input.
	InputID string
	// SZA is the solar zenith angle in degrees, from the solver.
	SZA float64
	// AirMass is the relative atmospheric path length (informational).
	AirMass float64
	// TempFactor is the uniform temperature-correction factor applied.
	TempFactor float64
	Spectrum   Spectrum
}

// Earth geometry for the air mass estimate.
const (
	earthRadius     = 6370000.0
	effectiveHeight = 22000.0
)

// AirMass estimates the relative atmospheric path length for a solar
// zenith angle in degrees, on a spherical-shell atmosphere of effective
// height 22 km.
func AirMass(szaDegrees float64) float64 {
	sza := szaDegrees * math.Pi / 180
	s := earthRadius * math.Sin(math.Pi-sza) / (earthRadius + effectiveHeight)
	return 1 / math.Cos(math.Asin(s))
}
