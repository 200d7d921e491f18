// Package ancillary provides the four interpolating data providers the
// correction pipeline depends on: calibration sensitivity, angular
// response, ozone column and atmospheric parameters.
//
// All providers share one contract: an empty provider answers queries with
// a caller-supplied default (and the substitution is recorded as a
// warning); a provider built from exactly one point returns that point's
// value for every query.
package ancillary

import "uvcal/internal/errs"

// Interpolator is the common provider contract.
type Interpolator interface {
	// Empty reports whether the provider has no usable data points.
	Empty() bool
	// Interpolate evaluates the provider at x. Must not be called on an
	// empty provider.
	Interpolate(x float64) float64
}

// ValueOr evaluates p at x, substituting def with a warning when p is
// empty.
func ValueOr(p Interpolator, x, def float64, warnings *errs.Warnings, source string) float64 {
	if p == nil || p.Empty() {
		if warnings != nil {
			warnings.Add(source, "no data available, using default %g", def)
		}
		return def
	}
	return p.Interpolate(x)
}
