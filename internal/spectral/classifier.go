package spectral

import "github.com/roadsense/roadsense/internal/types"

// Thresholds holds the classification cut-offs. The defaults were
// calibrated against the deployed sensor head; they can be overridden
// per-device in configuration without changing the decision shape.
type Thresholds struct {
	Whiteness float64 // whiteness index above which a bright surface reads as ice
	NIRGreen  float64 // NIR/green ratio below which a surface reads as wet/icy
}

// DefaultThresholds returns the field-calibrated classification cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Whiteness: 1.2,
		NIRGreen:  0.8,
	}
}

// Classify determines the surface state from the surface temperature and
// the reflectance features. Rules are evaluated in priority order and the
// first match wins:
//
//  1. surface ≤ 0°C, whiteness above threshold, NIR/green below threshold → ice
//  2. surface ≤ 0°C, NIR/green below threshold → possible black ice
//  3. otherwise → normal
//
// A nil surface temperature (sensor fault) is never compared numerically
// and resolves to SurfaceNormal.
func Classify(surfaceTemp *float64, fv types.FeatureVector, th Thresholds) types.SurfaceState {
	if surfaceTemp == nil {
		return types.SurfaceNormal
	}

	if *surfaceTemp <= 0 && fv.Whiteness > th.Whiteness && fv.NIRGreenRatio < th.NIRGreen {
		return types.SurfaceIceDetected
	}

	if *surfaceTemp <= 0 && fv.NIRGreenRatio < th.NIRGreen {
		return types.SurfacePossibleBlackIce
	}

	return types.SurfaceNormal
}
