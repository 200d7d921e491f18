package pipeline

import (
	"math"

	"uvcal/internal/ancillary"
)

// diffuseIntegralSteps is the number of equally spaced angles used for
// the trapezoidal evaluation of the diffuse response integral.
const diffuseIntegralSteps = 160

// diffuseMultiplier computes the cosine-correction multiplier for a fully
// diffuse sky: 1 / (2 * integral of ARF(theta)*sin(theta) over 0..pi/2),
// with the angular response evaluated through its spline fit.
func diffuseMultiplier(arf *ancillary.ARF) float64 {
	h := (math.Pi / 2) / float64(diffuseIntegralSteps-1)
	integral := 0.0
	prev := 0.0
	for i := 0; i < diffuseIntegralSteps; i++ {
		theta := float64(i) * h
		f := arf.Interpolate(theta*180/math.Pi) * math.Sin(theta)
		if i > 0 {
			integral += (prev + f) / 2 * h
		}
		prev = f
	}
	return 1 / (2 * integral)
}

// clearSkyFactor computes the per-wavelength cosine-correction multiplier
// under a clear sky, weighting the diffuse multiplier by the diffuse
// fraction and the angular response ratio by the direct fraction.
// szaDegrees is the solver's solar zenith angle.
func clearSkyFactor(edir, ediff, eglobal, coscorDiff, arfAtSZA, szaDegrees float64) float64 {
	sza := szaDegrees * math.Pi / 180
	return 1 / (coscorDiff*(ediff/eglobal) + (edir/eglobal)*arfAtSZA/math.Cos(sza))
}

// verifyClearSkyFactor is the alternate form of the clear-sky multiplier
// carried in the instrument's processing notes. The two are claimed
// equivalent whenever the global irradiance equals direct plus diffuse;
// this form exists for cross-checking only and is never the production
// path.
func verifyClearSkyFactor(edir, ediff, coscorDiff, arfAtSZA, szaDegrees float64) float64 {
	sza := szaDegrees * math.Pi / 180
	return (edir + ediff) / (edir*arfAtSZA/math.Cos(sza) + ediff*coscorDiff)
}
