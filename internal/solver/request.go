package solver

import (
	"fmt"
	"math"
	"strings"
	"time"

	"uvcal/internal/errs"
)

// Column names the pipeline depends on. Every request must ask for at
// least these four.
const (
	ColSZA    = "sza"
	ColDirect = "edir"
	ColDown   = "edn"
	ColGlobal = "eglo"
	ColLambda = "lambda"
)

// Request describes one radiative-transfer solver invocation for one
// measurement section.
type Request struct {
	// WavelengthStart/End/Step define the output grid in nm.
	WavelengthStart float64
	WavelengthEnd   float64
	WavelengthStep  float64
	// Latitude is positive north; Longitude positive west.
	Latitude  float64
	Longitude float64
	// Ozone is the total column in Dobson units.
	Ozone float64
	// Date plus Time (decimal hours, local) locate the sun.
	Date time.Time
	Time float64
	// Pressure is the surface pressure in hPa.
	Pressure float64
	Albedo   float64
	// AerosolAlpha/Beta are the Angstrom parameters.
	AerosolAlpha float64
	AerosolBeta  float64
	// Outputs are the requested output columns, in order.
	Outputs []string
}

// Validate checks the request before serialization.
func (r *Request) Validate() error {
	if len(r.Outputs) == 0 {
		return errs.NewValidation("solver.request", "at least one output column must be requested")
	}
	for _, required := range []string{ColSZA, ColDirect, ColDown, ColGlobal} {
		found := false
		for _, out := range r.Outputs {
			if out == required {
				found = true
				break
			}
		}
		if !found {
			return errs.NewValidation("solver.request", fmt.Sprintf("required output column %q missing", required))
		}
	}
	if r.WavelengthEnd < r.WavelengthStart {
		return errs.NewValidation("solver.request", "wavelength range is inverted")
	}
	if r.WavelengthStep <= 0 {
		return errs.NewValidation("solver.request", "wavelength step must be positive")
	}
	return nil
}

// Serialize renders the solver input: a fixed preamble, one directive per
// line, and the trailing output-column directive.
func (r *Request) Serialize(dataDir string) string {
	var b strings.Builder

	// Fixed preamble: model atmosphere and extraterrestrial spectrum.
	if dataDir != "" {
		fmt.Fprintf(&b, "data_files_path %s\n", dataDir)
	}
	b.WriteString("atmosphere_file afglus.dat\n")
	b.WriteString("source solar atlas_plus_modtran\n")

	latHemi, lat := "N", r.Latitude
	if lat < 0 {
		latHemi, lat = "S", -lat
	}
	longHemi, long := "W", r.Longitude
	if long < 0 {
		longHemi, long = "E", -long
	}

	hours := int(r.Time)
	minutes := int(math.Round((r.Time - float64(hours)) * 60))
	if minutes == 60 {
		hours, minutes = hours+1, 0
	}

	fmt.Fprintf(&b, "latitude %s %.5f\n", latHemi, lat)
	fmt.Fprintf(&b, "longitude %s %.5f\n", longHemi, long)
	fmt.Fprintf(&b, "mol_modify O3 %.2f DU\n", r.Ozone)
	fmt.Fprintf(&b, "time %04d %02d %02d %02d %02d 00\n",
		r.Date.Year(), int(r.Date.Month()), r.Date.Day(), hours, minutes)
	fmt.Fprintf(&b, "pressure %.2f\n", r.Pressure)
	fmt.Fprintf(&b, "albedo %.4f\n", r.Albedo)
	b.WriteString("aerosol_default\n")
	fmt.Fprintf(&b, "aerosol_angstrom %.4f %.4f\n", r.AerosolAlpha, r.AerosolBeta)
	fmt.Fprintf(&b, "wavelength %.1f %.1f\n", r.WavelengthStart, r.WavelengthEnd)
	fmt.Fprintf(&b, "spline %.1f %.1f %.1f\n", r.WavelengthStart, r.WavelengthEnd, r.WavelengthStep)
	fmt.Fprintf(&b, "output_user %s\n", strings.Join(r.Outputs, " "))

	return b.String()
}
