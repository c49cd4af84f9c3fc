// Package spectral derives reflectance features from raw spectral channel
// readings and classifies the road surface state from them.
package spectral

import "github.com/roadsense/roadsense/internal/types"

// ComputeFeatures derives the reflectance feature vector from one spectral
// sample. It is a pure, total function: defined for all non-negative
// channel intensities with no error condition.
//
// The +1 bias on the G and NIR denominators prevents division by zero on
// dark readings and is part of the defined algorithm, shared with the
// deployed sensor firmware. It is not an approximation to be tuned.
func ComputeFeatures(s types.SpectralSample) types.FeatureVector {
	return types.FeatureVector{
		VISMean:       (s.R + s.G + s.B) / 3,
		NIRGreenRatio: s.NIR / (s.G + 1),
		Whiteness:     (s.R + s.G + s.B) / (s.NIR + 1),
	}
}
