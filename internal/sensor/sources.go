// Package sensor drives the edge node's sensing cycle: sample the
// sensors, derive reflectance features, classify the surface, and
// transmit a telemetry message over the radio link.
package sensor

import (
	"errors"

	"github.com/roadsense/roadsense/internal/types"
)

// ErrSensorUnavailable marks a sample that could not be acquired. It is
// non-fatal: depending on the sensor, the cycle proceeds with an absent
// marker or is skipped.
var ErrSensorUnavailable = errors.New("sensor unavailable")

// SpectralSource acquires one spectral reflectance sample per call.
// Implementations own the hardware specifics (LED strobe, channel
// selection); the station only sees channel intensities.
type SpectralSource interface {
	Sample() (types.SpectralSample, error)
}

// ThermalSource acquires one infrared temperature sample per call.
type ThermalSource interface {
	Sample() (types.ThermalSample, error)
}

// ClimateSource acquires one air temperature/humidity sample per call.
type ClimateSource interface {
	Sample() (types.ClimateSample, error)
}

// Transmitter issues one AT command to the radio module and returns its
// acknowledgment. Satisfied by lora.Modem.
type Transmitter interface {
	SendCommand(cmd string) (string, error)
}
