// Package app wires configuration, the radio modem, and the processing
// loops into runnable sensor and gateway applications.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/roadsense/roadsense/internal/forwarder"
	"github.com/roadsense/roadsense/internal/gateway"
	"github.com/roadsense/roadsense/internal/log"
	"github.com/roadsense/roadsense/internal/lora"
	"github.com/roadsense/roadsense/internal/sensor"
	"github.com/roadsense/roadsense/internal/spectral"
	"github.com/roadsense/roadsense/internal/storage"
	"github.com/roadsense/roadsense/pkg/config"
	"go.uber.org/zap"
)

// connectivityAttempts bounds the startup reachability check against the
// ingestion backend. Past this the gateway refuses to start rather than
// run degraded.
const connectivityAttempts = 10

// SensorApp is the edge sensing daemon.
type SensorApp struct {
	cfg         *config.SensorData
	spectralSrc sensor.SpectralSource
	thermalSrc  sensor.ThermalSource
	climateSrc  sensor.ClimateSource
	logger      *zap.SugaredLogger
}

// NewSensorApp creates the sensing daemon. Sensor sources are injected by
// the caller, which picks hardware drivers or simulators.
func NewSensorApp(cfg *config.ConfigData, spectralSrc sensor.SpectralSource,
	thermalSrc sensor.ThermalSource, climateSrc sensor.ClimateSource, logger *zap.SugaredLogger) (*SensorApp, error) {
	if cfg.Sensor == nil {
		return nil, fmt.Errorf("configuration has no sensor section")
	}
	return &SensorApp{
		cfg:         cfg.Sensor,
		spectralSrc: spectralSrc,
		thermalSrc:  thermalSrc,
		climateSrc:  climateSrc,
		logger:      logger,
	}, nil
}

// Run starts the sensing loop and blocks until shutdown. A radio link
// that cannot be configured is fatal: the daemon refuses to enter its
// loop.
func (a *SensorApp) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clock := lora.SystemClock{}

	modem, err := lora.Dial(a.cfg.Radio, clock, a.logger)
	if err != nil {
		return fmt.Errorf("opening radio link: %w", err)
	}
	defer modem.Close()

	if err := modem.Setup(a.cfg.Radio.Address, a.cfg.Radio.NetworkID, a.cfg.Radio.Band); err != nil {
		return err
	}

	thresholds := spectral.DefaultThresholds()
	if a.cfg.Thresholds.Whiteness != 0 {
		thresholds.Whiteness = a.cfg.Thresholds.Whiteness
	}
	if a.cfg.Thresholds.NIRGreen != 0 {
		thresholds.NIRGreen = a.cfg.Thresholds.NIRGreen
	}

	station := sensor.NewStation(a.spectralSrc, a.thermalSrc, a.climateSrc,
		modem, clock, thresholds, a.cfg.DestAddress, a.cfg.Interval(), a.logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		station.Run(ctx)
	}()

	log.Info("sensor daemon started")
	waitForShutdown(ctx)
	cancel()
	wg.Wait()
	log.Info("shutdown complete")
	return nil
}

// GatewayApp is the receive-and-forward daemon.
type GatewayApp struct {
	cfg     *config.GatewayData
	storage config.StorageData
	logger  *zap.SugaredLogger
}

// NewGatewayApp creates the gateway daemon.
func NewGatewayApp(cfg *config.ConfigData, logger *zap.SugaredLogger) (*GatewayApp, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("configuration has no gateway section")
	}
	return &GatewayApp{
		cfg:     cfg.Gateway,
		storage: cfg.Storage,
		logger:  logger,
	}, nil
}

// Run starts the receive loop and blocks until shutdown. Startup-time
// failures (radio setup, backend reachability) are fatal; everything
// after that is recovered per frame.
func (a *GatewayApp) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clock := lora.SystemClock{}

	modem, err := lora.Dial(a.cfg.Radio, clock, a.logger)
	if err != nil {
		return fmt.Errorf("opening radio link: %w", err)
	}
	defer modem.Close()

	if err := modem.Setup(a.cfg.Radio.Address, a.cfg.Radio.NetworkID, a.cfg.Radio.Band); err != nil {
		return err
	}

	fwd := forwarder.New(a.cfg.IngestURL, a.logger)
	if err := fwd.CheckConnectivity(connectivityAttempts, time.Second); err != nil {
		return fmt.Errorf("backend connectivity: %w", err)
	}

	var wg sync.WaitGroup

	manager, err := storage.NewManager(ctx, &wg, a.storage)
	if err != nil {
		return err
	}

	gw := gateway.New(modem, fwd, manager.Distributor, a.cfg.DeviceID,
		a.cfg.PollInterval(), clock, a.logger)

	if a.cfg.StatusListenAddr != "" {
		gateway.NewStatusServer(gw, a.cfg.StatusListenAddr, a.logger).Start(ctx)
	}

	runErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr <- gw.Run(ctx)
	}()

	log.Info("gateway daemon started")

	var result error
	select {
	case err := <-runErr:
		result = err
	case <-shutdownSignal():
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
	}

	cancel()
	wg.Wait()
	log.Info("shutdown complete")
	return result
}

func waitForShutdown(ctx context.Context) {
	select {
	case <-shutdownSignal():
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
	}
}

func shutdownSignal() <-chan os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	return sigs
}
