// Package calc models one calculation input: a raw measurement stream
// plus its ancillary sources, with every derived artifact computed once
// on first access and cached for the input's lifetime.
package calc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"uvcal/internal/ancillary"
	"uvcal/internal/config"
	"uvcal/internal/errs"
	"uvcal/internal/measurement"
)

// Input is one unit of work for the scheduler: a measurement source and
// its four optional ancillary sources. Derived values are cached on
// first access, never recomputed and never mutated in place; a new input
// value is the only way to invalidate.
type Input struct {
	// ID identifies the input in results, warnings and logs.
	ID string

	// Measurements is the raw instrument file; required.
	Measurements Source
	// The ancillary sources are optional: a missing one substitutes
	// defaults with a warning.
	CalibrationSrc Source
	ARFSrc         Source
	OzoneSrc       Source
	ParamsSrc      Source

	// MergeDuplicates applies the duplicate-wavelength merge to every
	// parsed section. Network-sourced measurement streams interleave
	// repeated scans and need it; file-backed ones do not.
	MergeDuplicates bool

	cfg      config.AncillaryConfig
	logger   *slog.Logger
	warnings *errs.Warnings

	sectionsOnce sync.Once
	sections     []*measurement.Section
	sectionsErr  error

	calOnce sync.Once
	cal     *ancillary.Calibration
	calErr  error

	arfOnce sync.Once
	arf     *ancillary.ARF
	arfErr  error

	ozoneOnce sync.Once
	ozone     *ancillary.OzoneSeries
	ozoneErr  error

	paramsOnce sync.Once
	params     *ancillary.ParameterSeries
	paramsErr  error
}

// NewInput creates a calculation input.
func NewInput(id string, measurements Source, cfg config.AncillaryConfig, logger *slog.Logger) *Input {
	if logger == nil {
		logger = slog.Default()
	}
	return &Input{
		ID:           id,
		Measurements: measurements,
		cfg:          cfg,
		logger:       logger.With(slog.String("input", id)),
		warnings:     &errs.Warnings{},
	}
}

// Warnings returns the input's warning sink.
func (in *Input) Warnings() *errs.Warnings {
	return in.warnings
}

// Sections parses the measurement source on first call and caches the
// result. A structurally invalid measurement file is fatal.
func (in *Input) Sections() ([]*measurement.Section, error) {
	in.sectionsOnce.Do(func() {
		if in.Measurements == nil {
			in.sectionsErr = errs.NewValidation("calc.input", "input has no measurement source").With("input", in.ID)
			return
		}
		r, err := in.Measurements.Open()
		if err != nil {
			in.sectionsErr = errs.Wrap(err, "calc.input", "open measurement source")
			return
		}
		defer r.Close()

		sections, err := measurement.NewParser(in.logger).Parse(r)
		if err != nil {
			in.sectionsErr = err
			return
		}
		if in.MergeDuplicates {
			for i, s := range sections {
				sections[i] = s.MergeDuplicates()
			}
		}
		in.sections = sections
	})
	return in.sections, in.sectionsErr
}

// Calibration loads the calibration provider on first call.
func (in *Input) Calibration() (*ancillary.Calibration, error) {
	in.calOnce.Do(func() {
		r, ok := in.openOptional(in.CalibrationSrc, "calibration")
		if !ok {
			in.cal = &ancillary.Calibration{}
			return
		}
		defer r.Close()
		in.cal, in.calErr = ancillary.LoadCalibration(r)
	})
	return in.cal, in.calErr
}

// ARF loads the angular response provider on first call.
func (in *Input) ARF() (*ancillary.ARF, error) {
	in.arfOnce.Do(func() {
		r, ok := in.openOptional(in.ARFSrc, "arf")
		if !ok {
			in.arf = &ancillary.ARF{}
			return
		}
		defer r.Close()
		in.arf, in.arfErr = ancillary.LoadARF(r, in.cfg.ARFColumn, in.warnings)
	})
	return in.arf, in.arfErr
}

// Ozone loads the ozone provider on first call.
func (in *Input) Ozone() (*ancillary.OzoneSeries, error) {
	in.ozoneOnce.Do(func() {
		r, ok := in.openOptional(in.OzoneSrc, "ozone")
		if !ok {
			in.ozone = &ancillary.OzoneSeries{}
			return
		}
		defer r.Close()
		quality := ancillary.OzoneQuality{
			MaxAirMass: in.cfg.OzoneMaxAirMass,
			MaxStd:     in.cfg.OzoneMaxStd,
		}
		in.ozone, in.ozoneErr = ancillary.LoadOzone(r, quality, in.logger)
	})
	return in.ozone, in.ozoneErr
}

// Params loads the atmospheric parameter provider on first call.
func (in *Input) Params() (*ancillary.ParameterSeries, error) {
	in.paramsOnce.Do(func() {
		r, ok := in.openOptional(in.ParamsSrc, "params")
		if !ok {
			in.params = &ancillary.ParameterSeries{}
			return
		}
		defer r.Close()
		in.params, in.paramsErr = ancillary.LoadParameters(r)
	})
	return in.params, in.paramsErr
}

// openOptional opens an optional ancillary source. Absence (nil source or
// a not-exist open error) records a warning and reports ok=false; any
// other open error is also treated as absence but logged, since an
// unreadable optional file must never fail the batch.
func (in *Input) openOptional(src Source, kind string) (io.ReadCloser, bool) {
	if src == nil {
		in.warnings.Add(kind, "no %s source configured, defaults will be substituted", kind)
		return nil, false
	}
	rc, err := src.Open()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			in.warnings.Add(kind, "%s file %s not found, defaults will be substituted", kind, src.Name())
		} else {
			in.warnings.Add(kind, "%s file %s unreadable (%v), defaults will be substituted", kind, src.Name(), err)
			in.logger.Warn(fmt.Sprintf("failed to open %s source", kind),
				slog.String("source", src.Name()),
				slog.String("error", err.Error()))
		}
		return nil, false
	}
	return rc, true
}
