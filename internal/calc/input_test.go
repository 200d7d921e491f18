package calc_test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uvcal/internal/calc"
	"uvcal/internal/config"
	"uvcal/internal/errs"
)

const rawMeasurements = "uv 1.0 0 4 17 06 17 Davos 46.78 9.84 21.0 820.0 0\n" +
	"600 2950 10 100\n" +
	"601 3050 12 200\n" +
	"end\n"

// countingSource counts how often the underlying payload is opened.
type countingSource struct {
	calc.BytesSource
	opens int
}

func (c *countingSource) Open() (io.ReadCloser, error) {
	c.opens++
	return c.BytesSource.Open()
}

func newInput(t *testing.T, measurements calc.Source) *calc.Input {
	t.Helper()
	return calc.NewInput("test.uvr", measurements, config.Default().Ancillary, nil)
}

func TestSectionsParsedOnce(t *testing.T) {
	src := &countingSource{BytesSource: calc.BytesSource{Label: "mem", Data: []byte(rawMeasurements)}}
	in := newInput(t, src)

	first, err := in.Sections()
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Len(t, first[0].Samples, 2)

	second, err := in.Sections()
	require.NoError(t, err)
	assert.Equal(t, 1, src.opens)

	// Cached: the same parsed value comes back, never a re-parse.
	assert.Same(t, first[0], second[0])
}

func TestSectionsParseErrorIsCached(t *testing.T) {
	src := &countingSource{BytesSource: calc.BytesSource{Label: "mem", Data: []byte("garbage that is no header\n")}}
	in := newInput(t, src)

	_, err := in.Sections()
	require.Error(t, err)
	assert.Equal(t, errs.KindFormat, errs.KindOf(err))

	_, again := in.Sections()
	assert.Equal(t, err, again)
	assert.Equal(t, 1, src.opens)
}

func TestSectionsMissingMeasurementSource(t *testing.T) {
	in := newInput(t, nil)
	_, err := in.Sections()
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
}

func TestSectionsMergeDuplicates(t *testing.T) {
	raw := "uv 1.0 0 4 17 06 17 Davos 46.78 9.84 21.0 820.0 0\n" +
		"600 2950 10 100\n" +
		"602 2950 10 300\n" +
		"end\n"
	in := newInput(t, calc.BytesSource{Label: "mem", Data: []byte(raw)})
	in.MergeDuplicates = true

	sections, err := in.Sections()
	require.NoError(t, err)
	require.Len(t, sections, 1)
	require.Len(t, sections[0].Samples, 1)
	assert.Equal(t, 200.0, sections[0].Samples[0].Events)
	assert.Equal(t, 601.0, sections[0].Samples[0].Time)
}

func TestOptionalSourcesAbsent(t *testing.T) {
	in := newInput(t, calc.BytesSource{Label: "mem", Data: []byte(rawMeasurements)})

	cal, err := in.Calibration()
	require.NoError(t, err)
	assert.True(t, cal.Empty())

	arf, err := in.ARF()
	require.NoError(t, err)
	assert.True(t, arf.Empty())

	ozone, err := in.Ozone()
	require.NoError(t, err)
	assert.True(t, ozone.Empty())

	params, err := in.Params()
	require.NoError(t, err)
	assert.True(t, params.Empty())

	// One absence warning per missing source.
	assert.Equal(t, 4, in.Warnings().Len())
}

func TestOptionalFileNotFoundIsNotFatal(t *testing.T) {
	in := newInput(t, calc.BytesSource{Label: "mem", Data: []byte(rawMeasurements)})
	in.CalibrationSrc = calc.FileSource{Path: filepath.Join(t.TempDir(), "missing.cal")}

	cal, err := in.Calibration()
	require.NoError(t, err)
	assert.True(t, cal.Empty())

	require.Equal(t, 1, in.Warnings().Len())
	assert.Contains(t, in.Warnings().List()[0].Message, "not found")
}

func TestMalformedOptionalFileIsFatal(t *testing.T) {
	in := newInput(t, calc.BytesSource{Label: "mem", Data: []byte(rawMeasurements)})
	in.CalibrationSrc = calc.BytesSource{Label: "bad.cal", Data: []byte("2900 0.5 junk\n")}

	_, err := in.Calibration()
	require.Error(t, err)
	assert.Equal(t, errs.KindFormat, errs.KindOf(err))

	// The failure is cached like the value would be.
	_, again := in.Calibration()
	assert.Equal(t, err, again)
}

func TestProvidersLoaded(t *testing.T) {
	in := newInput(t, calc.BytesSource{Label: "mem", Data: []byte(rawMeasurements)})
	in.CalibrationSrc = calc.BytesSource{Label: "cal", Data: []byte("2900 0.5\n3100 1.5\n")}
	in.ARFSrc = calc.BytesSource{Label: "arf", Data: []byte("0 1.0 1.0 1.0 1.0\n45 0.7 0.7 0.7 0.7\n")}
	in.OzoneSrc = calc.BytesSource{Label: "ozone", Data: []byte("600 summary 312 1.0 1.2\n")}
	in.ParamsSrc = calc.BytesSource{Label: "params", Data: []byte("168;0.1;1.3;0.1;0.5\n")}

	cal, err := in.Calibration()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cal.Interpolate(300), 1e-12)

	arf, err := in.ARF()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, arf.Interpolate(0), 1e-9)

	ozone, err := in.Ozone()
	require.NoError(t, err)
	assert.Equal(t, 312.0, ozone.Interpolate(0))

	params, err := in.Params()
	require.NoError(t, err)
	assert.Equal(t, 0.1, params.Albedo(200))

	assert.Zero(t, in.Warnings().Len())
}
