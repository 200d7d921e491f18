package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"uvcal/internal/pipeline"
)

// csvHeader is the column layout of the spectrum CSV export.
var csvHeader = []string{
	"wavelength_nm", "time_min", "raw_events",
	"calibrated", "corrected", "cos_factor",
}

// WriteCSV renders one result's spectrum as RFC 4180 rows.
func WriteCSV(w io.Writer, result *pipeline.Result) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	sp := result.Spectrum
	for i := range sp.Wavelengths {
		record := []string{
			strconv.FormatFloat(sp.Wavelengths[i], 'f', 1, 64),
			strconv.FormatFloat(sp.Times[i], 'f', 2, 64),
			strconv.FormatFloat(sp.RawEvents[i], 'f', 0, 64),
			strconv.FormatFloat(sp.Calibrated[i], 'g', 9, 64),
			strconv.FormatFloat(sp.Corrected[i], 'g', 9, 64),
			strconv.FormatFloat(sp.CosFactors[i], 'f', 5, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
