package solver_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uvcal/internal/errs"
	"uvcal/internal/solver"
)

func validRequest() *solver.Request {
	return &solver.Request{
		WavelengthStart: 290,
		WavelengthEnd:   325,
		WavelengthStep:  0.5,
		Latitude:        46.78,
		Longitude:       -6.95,
		Ozone:           312.5,
		Date:            time.Date(2017, time.June, 17, 0, 0, 0, 0, time.UTC),
		Time:            10.5,
		Pressure:        1013,
		Albedo:          0.04,
		AerosolAlpha:    1.3,
		AerosolBeta:     0.1,
		Outputs:         []string{solver.ColLambda, solver.ColSZA, solver.ColDirect, solver.ColDown, solver.ColGlobal},
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*solver.Request)
		wantErr string
	}{
		{"valid", func(r *solver.Request) {}, ""},
		{"no outputs", func(r *solver.Request) { r.Outputs = nil }, "at least one output"},
		{"missing global column", func(r *solver.Request) {
			r.Outputs = []string{solver.ColSZA, solver.ColDirect, solver.ColDown}
		}, `"eglo" missing`},
		{"inverted range", func(r *solver.Request) { r.WavelengthEnd = 280 }, "inverted"},
		{"zero step", func(r *solver.Request) { r.WavelengthStep = 0 }, "step must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errs.KindValidation, errs.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequestSerialize(t *testing.T) {
	want := "data_files_path /opt/solver/data\n" +
		"atmosphere_file afglus.dat\n" +
		"source solar atlas_plus_modtran\n" +
		"latitude N 46.78000\n" +
		"longitude E 6.95000\n" +
		"mol_modify O3 312.50 DU\n" +
		"time 2017 06 17 10 30 00\n" +
		"pressure 1013.00\n" +
		"albedo 0.0400\n" +
		"aerosol_default\n" +
		"aerosol_angstrom 1.3000 0.1000\n" +
		"wavelength 290.0 325.0\n" +
		"spline 290.0 325.0 0.5\n" +
		"output_user lambda sza edir edn eglo\n"

	assert.Equal(t, want, validRequest().Serialize("/opt/solver/data"))
}

func TestRequestSerializeNoDataDir(t *testing.T) {
	got := validRequest().Serialize("")
	assert.NotContains(t, got, "data_files_path")
	assert.Contains(t, got, "atmosphere_file afglus.dat\n")
}

func TestRequestSerializeSouthernHemisphere(t *testing.T) {
	req := validRequest()
	req.Latitude = -34.6
	req.Longitude = 58.4
	got := req.Serialize("")
	assert.Contains(t, got, "latitude S 34.60000\n")
	assert.Contains(t, got, "longitude W 58.40000\n")
}

func TestRequestSerializeMinuteRollover(t *testing.T) {
	req := validRequest()
	req.Time = 10.9999
	got := req.Serialize("")
	assert.Contains(t, got, "time 2017 06 17 11 00 00\n")
}
