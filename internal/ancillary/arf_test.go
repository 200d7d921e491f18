package ancillary_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uvcal/internal/ancillary"
	"uvcal/internal/errs"
)

func TestARFSplineReproducesKnots(t *testing.T) {
	angles := []float64{0, 10, 20, 30, 45, 60, 75, 90}
	responses := []float64{1.0, 0.98, 0.94, 0.86, 0.70, 0.49, 0.25, 0}

	arf, err := ancillary.NewARF(angles, responses)
	require.NoError(t, err)
	require.False(t, arf.Empty())

	for i, angle := range angles {
		assert.InDelta(t, responses[i], arf.Interpolate(angle), 1e-9, "knot %g", angle)
	}
}

func TestARFInterpolatesBetweenKnots(t *testing.T) {
	arf, err := ancillary.NewARF([]float64{0, 30, 60, 90}, []float64{1.0, 0.85, 0.5, 0})
	require.NoError(t, err)

	// The spline fit stays within the local response range.
	got := arf.Interpolate(45)
	assert.Greater(t, got, 0.5)
	assert.Less(t, got, 0.85)

	// Outside the knot range the fit clamps to the endpoints.
	assert.Equal(t, 1.0, arf.Interpolate(-5))
	assert.Equal(t, 0.0, arf.Interpolate(95))
}

func TestARFSinglePointIsConstant(t *testing.T) {
	arf, err := ancillary.NewARF([]float64{30}, []float64{0.8})
	require.NoError(t, err)
	assert.False(t, arf.Empty())
	assert.Equal(t, 0.8, arf.Interpolate(0))
	assert.Equal(t, 0.8, arf.Interpolate(60))
}

func TestNewARFRejectsNonMonotonicAngles(t *testing.T) {
	_, err := ancillary.NewARF([]float64{0, 30, 30, 60}, []float64{1, 0.9, 0.9, 0.5})
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
}

func TestLoadARF(t *testing.T) {
	raw := "% angular response, instrument 117\n" +
		"0  1.00 1.01 0.99 1.00\n" +
		"30 0.86 0.87 0.85 0.86\n" +
		"60 0.49 0.50 0.48 0.49\n"

	var warnings errs.Warnings
	arf, err := ancillary.LoadARF(strings.NewReader(raw), 1, &warnings)
	require.NoError(t, err)
	require.False(t, arf.Empty())
	assert.Zero(t, warnings.Len())

	assert.InDelta(t, 1.00, arf.Interpolate(0), 1e-9)
	assert.InDelta(t, 0.86, arf.Interpolate(30), 1e-9)

	// The loader closes the range with a synthetic (90, 0) point.
	assert.InDelta(t, 0.0, arf.Interpolate(90), 1e-9)
}

func TestLoadARFColumnFallback(t *testing.T) {
	raw := "0  1.00 1.01 0.99 0.98\n" +
		"45 0.70 0.71 0.69 0.68\n"

	var warnings errs.Warnings
	arf, err := ancillary.LoadARF(strings.NewReader(raw), 9, &warnings)
	require.NoError(t, err)

	// Out-of-range column falls back to the last field, warned once.
	assert.InDelta(t, 0.98, arf.Interpolate(0), 1e-9)
	assert.InDelta(t, 0.68, arf.Interpolate(45), 1e-9)
	require.Equal(t, 1, warnings.Len())
	assert.Contains(t, warnings.List()[0].Message, "falling back")
}

func TestLoadARFShortLineFatal(t *testing.T) {
	_, err := ancillary.LoadARF(strings.NewReader("0 1.0 0.9\n"), 1, nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindFormat, errs.KindOf(err))
}

func TestLoadARFEmpty(t *testing.T) {
	arf, err := ancillary.LoadARF(strings.NewReader("% comments only\n"), 1, nil)
	require.NoError(t, err)
	assert.True(t, arf.Empty())
}
