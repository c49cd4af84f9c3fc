package sim

import (
	"testing"

	"github.com/roadsense/roadsense/internal/spectral"
	"github.com/roadsense/roadsense/internal/types"
)

func classifyOnce(t *testing.T, src *Source) types.SurfaceState {
	t.Helper()
	sample, err := src.Sample()
	if err != nil {
		t.Fatalf("spectral sample: %v", err)
	}
	thermal, err := src.Thermal().Sample()
	if err != nil {
		t.Fatalf("thermal sample: %v", err)
	}
	return spectral.Classify(thermal.Surface, spectral.ComputeFeatures(sample), spectral.DefaultThresholds())
}

func TestIceProfileClassifiesAsIce(t *testing.T) {
	src := New(ProfileIce, 1)
	for i := 0; i < 50; i++ {
		if state := classifyOnce(t, src); state != types.SurfaceIceDetected {
			t.Fatalf("ice profile produced %v on iteration %d", state, i)
		}
	}
}

func TestDryProfileClassifiesAsNormal(t *testing.T) {
	src := New(ProfileDry, 1)
	for i := 0; i < 50; i++ {
		if state := classifyOnce(t, src); state != types.SurfaceNormal {
			t.Fatalf("dry profile produced %v on iteration %d", state, i)
		}
	}
}

func TestSeededSourceIsReproducible(t *testing.T) {
	a, b := New(ProfileIce, 42), New(ProfileIce, 42)
	sa, _ := a.Sample()
	sb, _ := b.Sample()
	if sa != sb {
		t.Errorf("same seed produced different samples: %+v vs %+v", sa, sb)
	}
}
