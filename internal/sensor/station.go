package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roadsense/roadsense/internal/lora"
	"github.com/roadsense/roadsense/internal/spectral"
	"github.com/roadsense/roadsense/internal/types"
	"go.uber.org/zap"
)

// ErrCycleSkipped reports a cycle that produced no transmission because a
// wire field was unavailable. The run loop logs it and waits for the next
// cycle.
var ErrCycleSkipped = errors.New("cycle skipped")

// Station runs the sensing cycle on a fixed cadence. All hardware is
// injected, so the cycle logic is free of any direct device dependency.
type Station struct {
	spectralSrc SpectralSource
	thermalSrc  ThermalSource
	climateSrc  ClimateSource
	modem       Transmitter
	clock       lora.Clock
	thresholds  spectral.Thresholds
	destAddr    int
	interval    time.Duration
	logger      *zap.SugaredLogger
}

// NewStation creates a sensing station.
func NewStation(spectralSrc SpectralSource, thermalSrc ThermalSource, climateSrc ClimateSource,
	modem Transmitter, clock lora.Clock, thresholds spectral.Thresholds,
	destAddr int, interval time.Duration, logger *zap.SugaredLogger) *Station {
	return &Station{
		spectralSrc: spectralSrc,
		thermalSrc:  thermalSrc,
		climateSrc:  climateSrc,
		modem:       modem,
		clock:       clock,
		thresholds:  thresholds,
		destAddr:    destAddr,
		interval:    interval,
		logger:      logger,
	}
}

// Run executes sensing cycles at the configured cadence until
// cancellation. Cycle errors are logged and never abort the loop.
func (s *Station) Run(ctx context.Context) {
	s.logger.Infof("starting sensing loop, interval %v", s.interval)

	for {
		if err := s.Tick(); err != nil {
			if errors.Is(err, ErrCycleSkipped) || errors.Is(err, ErrSensorUnavailable) {
				s.logger.Warnf("no transmission this cycle: %v", err)
			} else {
				s.logger.Errorf("cycle failed: %v", err)
			}
		}

		select {
		case <-ctx.Done():
			s.logger.Info("cancellation request received, stopping sensing loop")
			return
		case <-s.clock.After(s.interval):
		}
	}
}

// Tick runs one sensing cycle: acquire samples, compute features,
// classify, and transmit. It is a single repeatable operation so tests
// can drive it without a scheduler.
func (s *Station) Tick() error {
	// The climate sensor is independent; its failure is non-fatal and
	// leaves the fields absent.
	var climate types.ClimateSample
	if c, err := s.climateSrc.Sample(); err != nil {
		s.logger.Warnf("climate sensor: %v", err)
	} else {
		climate = c
	}

	var thermal types.ThermalSample
	if th, err := s.thermalSrc.Sample(); err != nil {
		s.logger.Warnf("thermal sensor: %v", err)
	} else {
		thermal = th
	}

	// Without a spectral sample there is nothing to derive or send.
	sample, err := s.spectralSrc.Sample()
	if err != nil {
		return fmt.Errorf("%w: spectral sensor: %v", ErrSensorUnavailable, err)
	}

	features := spectral.ComputeFeatures(sample)
	state := spectral.Classify(thermal.Surface, features, s.thresholds)

	s.logLiveData(climate, thermal, features, state)

	// An absent value must never reach numeric formatting: a cycle
	// missing any wire field is skipped rather than padded.
	if climate.AirTemp == nil || climate.Humidity == nil || thermal.Surface == nil {
		return fmt.Errorf("%w: incomplete sample set", ErrCycleSkipped)
	}

	msg := types.TelemetryMessage{
		AirTemp:       *climate.AirTemp,
		Humidity:      *climate.Humidity,
		SurfaceTemp:   *thermal.Surface,
		VISMean:       features.VISMean,
		NIRGreenRatio: features.NIRGreenRatio,
		Whiteness:     features.Whiteness,
	}

	cmd := lora.EncodeSend(msg, s.destAddr)
	resp, err := s.modem.SendCommand(cmd)
	if err != nil {
		return fmt.Errorf("transmitting telemetry: %w", err)
	}
	if resp != "" {
		s.logger.Debugf("transmit acknowledged: %s", resp)
	}

	return nil
}

func (s *Station) logLiveData(climate types.ClimateSample, thermal types.ThermalSample,
	fv types.FeatureVector, state types.SurfaceState) {
	s.logger.Infof("surface condition: %s (vis=%.2f nir/green=%.2f whiteness=%.2f)",
		state, fv.VISMean, fv.NIRGreenRatio, fv.Whiteness)

	if climate.AirTemp != nil && climate.Humidity != nil {
		s.logger.Infof("air: %.2f°C %.2f%%", *climate.AirTemp, *climate.Humidity)
	}
	if thermal.Surface != nil {
		s.logger.Infof("surface temp: %.2f°C", *thermal.Surface)
	}
	if thermal.Internal != nil {
		s.logger.Debugf("sensor die temp: %.2f°C", *thermal.Internal)
	}
}
