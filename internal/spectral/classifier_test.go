package spectral

import (
	"testing"

	"github.com/roadsense/roadsense/internal/types"
)

func f(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name        string
		surfaceTemp *float64
		whiteness   float64
		nirGreen    float64
		expected    types.SurfaceState
	}{
		{
			name:        "freezing bright low-NIR surface is ice",
			surfaceTemp: f(-1),
			whiteness:   1.5,
			nirGreen:    0.5,
			expected:    types.SurfaceIceDetected,
		},
		{
			name:        "freezing dark low-NIR surface is possible black ice",
			surfaceTemp: f(-1),
			whiteness:   0.5,
			nirGreen:    0.5,
			expected:    types.SurfacePossibleBlackIce,
		},
		{
			name:        "warm surface is normal regardless of reflectance",
			surfaceTemp: f(5),
			whiteness:   2.0,
			nirGreen:    0.1,
			expected:    types.SurfaceNormal,
		},
		{
			name:        "missing surface temperature is normal",
			surfaceTemp: nil,
			whiteness:   2.0,
			nirGreen:    0.1,
			expected:    types.SurfaceNormal,
		},
		{
			name:        "exactly zero degrees still gates as freezing",
			surfaceTemp: f(0),
			whiteness:   1.5,
			nirGreen:    0.5,
			expected:    types.SurfaceIceDetected,
		},
		{
			name:        "freezing but high NIR ratio is normal",
			surfaceTemp: f(-5),
			whiteness:   1.5,
			nirGreen:    0.9,
			expected:    types.SurfaceNormal,
		},
		{
			name:        "whiteness at threshold does not trip ice rule",
			surfaceTemp: f(-1),
			whiteness:   1.2,
			nirGreen:    0.5,
			expected:    types.SurfacePossibleBlackIce,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := types.FeatureVector{Whiteness: tt.whiteness, NIRGreenRatio: tt.nirGreen}
			got := Classify(tt.surfaceTemp, fv, th)
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// The classifier must be deterministic: same inputs, same answer.
func TestClassifyDeterministic(t *testing.T) {
	th := DefaultThresholds()
	fv := types.FeatureVector{Whiteness: 1.5, NIRGreenRatio: 0.5}

	first := Classify(f(-1), fv, th)
	for i := 0; i < 100; i++ {
		if got := Classify(f(-1), fv, th); got != first {
			t.Fatalf("classification changed between calls: %v then %v", first, got)
		}
	}
}
