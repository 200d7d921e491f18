// Package pipeline turns one parsed measurement section into calibrated,
// temperature- and cosine-corrected spectral irradiance.
package pipeline

import (
	"context"
	"log/slog"
	"math"
	"time"

	"uvcal/internal/ancillary"
	"uvcal/internal/config"
	"uvcal/internal/errs"
	"uvcal/internal/measurement"
	"uvcal/internal/solver"
)

// straylightCutoff is the wavelength below which the instrument measures
// no real signal; the mean there estimates optical leakage.
const straylightCutoff = 292.0

// photonRateScale converts dark-corrected counts to a photon rate
// together with the cycle count and integration time.
const photonRateScale = 4.0

// deadTimeIterations is the fixed iteration count of the non-linearity
// correction. The count is part of the numerical contract and must not
// be replaced by a convergence loop.
const deadTimeIterations = 25

// solverStep is the wavelength step requested from the solver; measured
// wavelengths are interpolated from the returned grid.
const solverStep = 0.5

// SolverRunner abstracts the radiative-transfer client for testing.
type SolverRunner interface {
	Run(ctx context.Context, req *solver.Request) (*solver.Output, error)
}

// SectionData bundles one section with the ancillary providers and the
// warning sink of its calculation input.
type SectionData struct {
	Section      *measurement.Section
	SectionIndex int
	InputID      string
	Calibration  *ancillary.Calibration
	ARF          *ancillary.ARF
	Ozone        *ancillary.OzoneSeries
	Params       *ancillary.ParameterSeries
	Warnings     *errs.Warnings
}

// Pipeline applies the correction steps for sections of one instrument
// configuration. Safe for concurrent use; all state is read-only.
type Pipeline struct {
	cfg    config.PipelineConfig
	runner SolverRunner
	// straylight resolves whether an instrument type needs the
	// stray-light correction.
	straylight func(instrumentType string) bool
	logger     *slog.Logger
}

// New creates a pipeline.
func New(cfg config.PipelineConfig, straylight func(string) bool, runner SolverRunner, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		runner:     runner,
		straylight: straylight,
		logger:     logger.With(slog.String("component", "pipeline")),
	}
}

// Process corrects one section. Any failure is wrapped with the section
// context and fails only this section's job.
func (p *Pipeline) Process(ctx context.Context, data *SectionData) (*Result, error) {
	start := time.Now()
	section := data.Section
	header := section.Header
	n := len(section.Samples)
	if n == 0 {
		return nil, errs.NewValidation("pipeline.process", "section has no samples").
			With("section", data.SectionIndex)
	}

	values := make([]float64, n)
	for i, smp := range section.Samples {
		values[i] = smp.Events
	}

	// Step 1: dark count subtraction.
	for i := range values {
		values[i] -= header.Dark
	}

	// Step 2: stray-light correction for instrument models that leak
	// above-threshold light into the UV-B range.
	if p.straylight(header.InstrumentType) {
		p.subtractStraylight(section, values)
	}

	// Step 3: photon rate.
	rateScale := photonRateScale / (float64(header.CycleCount) * header.IntegrationTime)
	for i := range values {
		values[i] *= rateScale
	}

	// Step 4: dead-time non-linearity, fixed-point with constant base rate.
	for i := range values {
		rate0 := values[i]
		rate := rate0
		for k := 0; k < deadTimeIterations; k++ {
			rate = rate0 * math.Exp(rate*header.DeadTime)
		}
		values[i] = rate
	}

	// Step 5: clamp negative rates.
	for i := range values {
		if values[i] < 0 {
			values[i] = 0
		}
	}

	// Step 6: calibration sensitivity.
	for i, smp := range section.Samples {
		sensitivity := ancillary.ValueOr(data.Calibration, smp.Wavelength, 1, data.Warnings, "calibration")
		values[i] /= sensitivity
	}

	// Step 7: uniform temperature correction.
	tempFactor := 1 + p.cfg.TempCoefficient*(header.Temperature-p.cfg.TempReference)
	for i := range values {
		values[i] *= tempFactor
	}

	calibrated := append([]float64(nil), values...)

	// Steps 8-9 need the solver's sun geometry and irradiance split.
	out, err := p.invokeSolver(ctx, data)
	if err != nil {
		return nil, errs.Wrap(err, "pipeline.process", "solver invocation").
			With("input", data.InputID).
			With("section", data.SectionIndex)
	}
	sza := out.Column(solver.ColSZA)[0]

	factors := p.cosineFactors(data, out, sza)
	corrected := make([]float64, n)
	for i := range values {
		f := factors[i]
		if math.IsNaN(f) {
			// Zero global irradiance; applied as identity, the raw factor
			// stays in the result for diagnostics.
			f = 1
		}
		corrected[i] = calibrated[i] * f
	}

	result := &Result{
		SectionIndex: data.SectionIndex,
		InputID:      data.InputID,
		SZA:          sza,
		AirMass:      AirMass(sza),
		TempFactor:   tempFactor,
		Spectrum: Spectrum{
			Wavelengths: section.Wavelengths(),
			Times:       section.Times(),
			RawEvents:   section.Events(),
			Calibrated:  calibrated,
			Corrected:   corrected,
			CosFactors:  factors,
		},
	}

	p.logger.DebugContext(ctx, "section corrected",
		slog.String("input", data.InputID),
		slog.Int("section", data.SectionIndex),
		slog.Float64("sza", sza),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// subtractStraylight removes the mean signal measured below the cutoff
// wavelength from every value. Skipped when the section has no
// sub-cutoff samples.
func (p *Pipeline) subtractStraylight(section *measurement.Section, values []float64) {
	sum, count := 0.0, 0
	for i, smp := range section.Samples {
		if smp.Wavelength < straylightCutoff {
			sum += values[i]
			count++
		}
	}
	if count == 0 {
		return
	}
	mean := sum / float64(count)
	for i := range values {
		values[i] -= mean
	}
}

// invokeSolver builds and runs the radiative-transfer request for the
// section, resolving ozone, albedo and aerosol through the providers
// with configured defaults.
func (p *Pipeline) invokeSolver(ctx context.Context, data *SectionData) (*solver.Output, error) {
	section := data.Section
	header := section.Header

	meanTime := 0.0
	for _, smp := range section.Samples {
		meanTime += smp.Time
	}
	meanTime /= float64(len(section.Samples))

	ozone := ancillary.ValueOr(data.Ozone, meanTime, p.cfg.DefaultOzone, data.Warnings, "ozone")

	day := header.Date.YearDay()
	albedo := p.cfg.DefaultAlbedo
	aerosol := ancillary.Aerosol{Alpha: p.cfg.DefaultAerosol.Alpha, Beta: p.cfg.DefaultAerosol.Beta}
	if data.Params.Empty() {
		if data.Warnings != nil {
			data.Warnings.Add("params", "no parameter data, using default albedo %g and aerosol (%g, %g)",
				albedo, aerosol.Alpha, aerosol.Beta)
		}
	} else {
		albedo = data.Params.Albedo(day)
		aerosol = data.Params.AerosolParams(day)
	}

	wavelengths := section.Wavelengths()
	req := &solver.Request{
		WavelengthStart: wavelengths[0],
		WavelengthEnd:   wavelengths[len(wavelengths)-1],
		WavelengthStep:  solverStep,
		Latitude:        header.Latitude,
		Longitude:       header.Longitude,
		Ozone:           ozone,
		Date:            header.Date,
		Time:            meanTime / 60,
		Pressure:        header.Pressure,
		Albedo:          albedo,
		AerosolAlpha:    aerosol.Alpha,
		AerosolBeta:     aerosol.Beta,
		Outputs:         []string{solver.ColLambda, solver.ColSZA, solver.ColDirect, solver.ColDown, solver.ColGlobal},
	}
	return p.runner.Run(ctx, req)
}

// cosineFactors evaluates the cosine-correction multiplier per sample,
// selecting the sky state: disabled or no angular response data yields
// identity; cloud cover at or above the threshold classifies the sky as
// fully diffuse; otherwise the clear-sky ratio formula applies per
// wavelength.
func (p *Pipeline) cosineFactors(data *SectionData, out *solver.Output, sza float64) []float64 {
	n := len(data.Section.Samples)
	factors := make([]float64, n)

	if !p.cfg.CosineCorrection || data.ARF.Empty() {
		for i := range factors {
			factors[i] = 1
		}
		return factors
	}

	coscorDiff := diffuseMultiplier(data.ARF)

	day := data.Section.Header.Date.YearDay()
	if cloud, ok := data.Params.CloudCover(day); ok && cloud >= p.cfg.DiffuseThreshold {
		for i := range factors {
			factors[i] = coscorDiff
		}
		return factors
	}

	lambda := out.Column(solver.ColLambda)
	edir := out.Column(solver.ColDirect)
	ediff := out.Column(solver.ColDown)
	eglo := out.Column(solver.ColGlobal)
	arfAtSZA := data.ARF.Interpolate(sza)

	for i, smp := range data.Section.Samples {
		factors[i] = clearSkyFactor(
			columnAt(lambda, edir, smp.Wavelength),
			columnAt(lambda, ediff, smp.Wavelength),
			columnAt(lambda, eglo, smp.Wavelength),
			coscorDiff, arfAtSZA, sza)
	}
	return factors
}

// columnAt linearly interpolates a solver column at wavelength w, clamping
// outside the solver grid.
func columnAt(lambda, col []float64, w float64) float64 {
	n := len(lambda)
	if n == 1 || w <= lambda[0] {
		return col[0]
	}
	if w >= lambda[n-1] {
		return col[n-1]
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if lambda[mid] <= w {
			lo = mid
		} else {
			hi = mid
		}
	}
	frac := (w - lambda[lo]) / (lambda[hi] - lambda[lo])
	return col[lo] + frac*(col[hi]-col[lo])
}
