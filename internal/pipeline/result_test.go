package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"uvcal/internal/pipeline"
)

func TestAirMass(t *testing.T) {
	tests := []struct {
		name  string
		sza   float64
		want  float64
		delta float64
	}{
		{"overhead sun", 0, 1.0, 1e-9},
		{"mid elevation", 60, 1.98, 0.01},
		{"low sun", 75, 3.69, 0.01},
		{"near horizon", 85, 8.33, 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, pipeline.AirMass(tt.sza), tt.delta)
		})
	}
}

func TestAirMassMonotonic(t *testing.T) {
	prev := pipeline.AirMass(0)
	for sza := 5.0; sza <= 85; sza += 5 {
		got := pipeline.AirMass(sza)
		assert.Greater(t, got, prev, "air mass must grow with zenith angle at %g", sza)
		prev = got
	}
}
