// Package sim provides simulated sensor sources so the sensing daemon and
// bench setups can run without the physical sensor head attached.
package sim

import (
	"math/rand"

	"github.com/roadsense/roadsense/internal/types"
)

// Profile selects the kind of surface the simulator produces readings
// for.
type Profile string

const (
	ProfileDry Profile = "dry"
	ProfileIce Profile = "ice"
)

// Source produces plausible spectral, thermal, and climate readings for
// the selected profile. A non-zero seed makes the sequence reproducible.
type Source struct {
	rng     *rand.Rand
	profile Profile
}

// New creates a simulated source.
func New(profile Profile, seed int64) *Source {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Source{
		rng:     rand.New(rand.NewSource(seed)),
		profile: profile,
	}
}

func (s *Source) jitter(center, spread float64) float64 {
	return center + (s.rng.Float64()-0.5)*spread
}

// Sample implements sensor.SpectralSource.
func (s *Source) Sample() (types.SpectralSample, error) {
	if s.profile == ProfileIce {
		// Bright visible reflectance with suppressed NIR, the signature
		// of snow and ice.
		return types.SpectralSample{
			R:   s.jitter(220, 30),
			G:   s.jitter(230, 30),
			B:   s.jitter(240, 30),
			NIR: s.jitter(90, 20),
		}, nil
	}
	return types.SpectralSample{
		R:   s.jitter(60, 20),
		G:   s.jitter(65, 20),
		B:   s.jitter(55, 20),
		NIR: s.jitter(120, 30),
	}, nil
}

// Thermal returns a sensor.ThermalSource for the profile.
func (s *Source) Thermal() *ThermalSource { return &ThermalSource{s} }

// Climate returns a sensor.ClimateSource for the profile.
func (s *Source) Climate() *ClimateSource { return &ClimateSource{s} }

type ThermalSource struct{ src *Source }

func (t *ThermalSource) Sample() (types.ThermalSample, error) {
	var surface float64
	if t.src.profile == ProfileIce {
		surface = t.src.jitter(-2.5, 2)
	} else {
		surface = t.src.jitter(8, 4)
	}
	internal := t.src.jitter(15, 2)
	return types.ThermalSample{Internal: &internal, Surface: &surface}, nil
}

type ClimateSource struct{ src *Source }

func (c *ClimateSource) Sample() (types.ClimateSample, error) {
	var air float64
	if c.src.profile == ProfileIce {
		air = c.src.jitter(-1, 3)
	} else {
		air = c.src.jitter(12, 5)
	}
	humidity := c.src.jitter(60, 25)
	return types.ClimateSample{AirTemp: &air, Humidity: &humidity}, nil
}
