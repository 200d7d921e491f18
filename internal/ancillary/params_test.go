package ancillary_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uvcal/internal/ancillary"
	"uvcal/internal/errs"
)

func loadParams(t *testing.T, raw string) *ancillary.ParameterSeries {
	t.Helper()
	series, err := ancillary.LoadParameters(strings.NewReader(raw))
	require.NoError(t, err)
	return series
}

func TestParamsForwardFill(t *testing.T) {
	series := loadParams(t,
		"10;0.1;1.0;0.05;\n"+
			"12;0.3;1.1;0.06;0.2\n"+
			"14;0.5;1.2;0.07;\n")
	require.False(t, series.Empty())

	tests := []struct {
		name string
		day  int
		want float64
	}{
		{"before first day", 9, 0.1},
		{"at first day", 10, 0.1},
		{"between days", 11, 0.1},
		{"at later day", 13, 0.3},
		{"after last day", 100, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, series.Albedo(tt.day))
		})
	}

	assert.Equal(t, ancillary.Aerosol{Alpha: 1.1, Beta: 0.06}, series.AerosolParams(13))
	assert.Equal(t, ancillary.Aerosol{Alpha: 1.0, Beta: 0.05}, series.AerosolParams(3))
}

func TestParamsCloudCoverExactDayOnly(t *testing.T) {
	series := loadParams(t,
		"10;0.1;1.0;0.05;\n"+
			"12;0.3;1.1;0.06;0.2\n")

	cloud, ok := series.CloudCover(12)
	require.True(t, ok)
	assert.Equal(t, 0.2, cloud)

	// Cloud cover never forward-fills.
	_, ok = series.CloudCover(11)
	assert.False(t, ok)
	_, ok = series.CloudCover(13)
	assert.False(t, ok)

	// Day 10 is recorded, but without cloud data.
	_, ok = series.CloudCover(10)
	assert.False(t, ok)
}

func TestParamsCloudCoverEmptySeries(t *testing.T) {
	var series ancillary.ParameterSeries
	assert.True(t, series.Empty())
	_, ok := series.CloudCover(10)
	assert.False(t, ok)
}

func TestParamsBlankFieldsCarryForward(t *testing.T) {
	series := loadParams(t,
		"10;0.1;1.0;0.05;\n"+
			"12; ; ; ;0.5\n")

	assert.Equal(t, 0.1, series.Albedo(12))
	assert.Equal(t, ancillary.Aerosol{Alpha: 1.0, Beta: 0.05}, series.AerosolParams(12))

	cloud, ok := series.CloudCover(12)
	require.True(t, ok)
	assert.Equal(t, 0.5, cloud)
}

func TestParamsFirstLineMustBeComplete(t *testing.T) {
	_, err := ancillary.LoadParameters(strings.NewReader("10;;1.0;0.05;\n"))
	require.Error(t, err)
	assert.Equal(t, errs.KindFormat, errs.KindOf(err))
	assert.Contains(t, err.Error(), "first parameter line")
}

func TestParamsFieldCountFatal(t *testing.T) {
	_, err := ancillary.LoadParameters(strings.NewReader("10;0.1;1.0\n"))
	require.Error(t, err)
	assert.Equal(t, errs.KindFormat, errs.KindOf(err))
}

func TestParamsUnsortedInputIsSorted(t *testing.T) {
	series := loadParams(t,
		"14;0.5;1.2;0.07;\n"+
			"10;0.1;1.0;0.05;\n")
	assert.Equal(t, 0.1, series.Albedo(11))
	assert.Equal(t, 0.5, series.Albedo(14))
}

func TestValueOrSubstitutesDefault(t *testing.T) {
	var warnings errs.Warnings

	got := ancillary.ValueOr(&ancillary.Calibration{}, 300, 1, &warnings, "calibration")
	assert.Equal(t, 1.0, got)

	got = ancillary.ValueOr(nil, 600, 300, &warnings, "ozone")
	assert.Equal(t, 300.0, got)

	require.Equal(t, 2, warnings.Len())
	assert.Equal(t, "calibration", warnings.List()[0].Source)
	assert.Contains(t, warnings.List()[1].Message, "using default 300")
}

func TestValueOrUsesProvider(t *testing.T) {
	var warnings errs.Warnings
	cal := ancillary.NewCalibration([]float64{300}, []float64{5})

	got := ancillary.ValueOr(cal, 310, 1, &warnings, "calibration")
	assert.Equal(t, 5.0, got)
	assert.Zero(t, warnings.Len())
}
