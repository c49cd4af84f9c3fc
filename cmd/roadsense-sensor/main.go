package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/roadsense/roadsense/internal/app"
	"github.com/roadsense/roadsense/internal/constants"
	"github.com/roadsense/roadsense/internal/log"
	"github.com/roadsense/roadsense/internal/sensor"
	"github.com/roadsense/roadsense/internal/sensor/sim"
	"github.com/roadsense/roadsense/pkg/config"
)

const version = constants.Version + "-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	simulate := flag.String("simulate", "", "Run with simulated sensors instead of hardware: 'dry' or 'ice'")
	simSeed := flag.Int64("sim-seed", 0, "Seed for the simulated sensor RNG (0 picks a random seed)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("roadsense-sensor %s\n", version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfgData, err := loadConfig(*cfgFile)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	spectralSrc, thermalSrc, climateSrc, err := buildSources(*simulate, *simSeed)
	if err != nil {
		log.Errorf("Failed to set up sensor sources: %v", err)
		os.Exit(1)
	}

	application, err := app.NewSensorApp(cfgData, spectralSrc, thermalSrc, climateSrc, log.GetSugaredLogger())
	if err != nil {
		log.Errorf("Failed to create application: %v", err)
		os.Exit(1)
	}
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}

// buildSources selects the sensor drivers. Hardware sensor heads register
// their drivers here; without one, the simulator is the only option.
func buildSources(simulate string, seed int64) (sensor.SpectralSource, sensor.ThermalSource, sensor.ClimateSource, error) {
	switch simulate {
	case string(sim.ProfileDry), string(sim.ProfileIce):
		src := sim.New(sim.Profile(simulate), seed)
		return src, src.Thermal(), src.Climate(), nil
	case "":
		return nil, nil, nil, fmt.Errorf("no hardware sensor driver built in; run with -simulate dry|ice")
	default:
		return nil, nil, nil, fmt.Errorf("unknown simulation profile %q", simulate)
	}
}

func loadConfig(cfgFile string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)
	provider := config.NewYAMLProvider(filename)
	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}
	return cfgData, nil
}
