// Package export renders corrected spectra for the downstream format
// consumers. The writers only see the Result boundary; nothing in here
// feeds back into the correction core.
package export

import (
	"fmt"
	"io"

	"uvcal/internal/pipeline"
)

// WriteQasume renders one result in the qasume text layout: three
// comment header lines followed by one row per wavelength with the
// corrected irradiance, measurement time and the cosine-correction
// factor actually evaluated.
func WriteQasume(w io.Writer, result *pipeline.Result, place string) error {
	if _, err := fmt.Fprintf(w, "%% Generated by uvcal\n"); err != nil {
		return fmt.Errorf("write qasume header: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%% %s\n", place); err != nil {
		return fmt.Errorf("write qasume header: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%% SZA=%.3f airmass=%.3f tempfactor=%.5f\n",
		result.SZA, result.AirMass, result.TempFactor); err != nil {
		return fmt.Errorf("write qasume header: %w", err)
	}

	sp := result.Spectrum
	for i := range sp.Wavelengths {
		if _, err := fmt.Fprintf(w, "%.1f\t %.9f\t %.2f\t %.5f\n",
			sp.Wavelengths[i], sp.Corrected[i], sp.Times[i], sp.CosFactors[i]); err != nil {
			return fmt.Errorf("write qasume row: %w", err)
		}
	}
	return nil
}
