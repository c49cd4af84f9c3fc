// Package config defines the configuration model and providers for the
// sensor and gateway daemons.
package config

import (
	"fmt"
	"time"

	"github.com/roadsense/roadsense/internal/constants"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)
}

// ConfigData represents the complete configuration structure. A deployment
// normally defines either the sensor or the gateway section, depending on
// which daemon runs on the node.
type ConfigData struct {
	Sensor  *SensorData  `yaml:"sensor,omitempty"`
	Gateway *GatewayData `yaml:"gateway,omitempty"`
	Storage StorageData  `yaml:"storage,omitempty"`
}

// RadioData holds the connection and link parameters for the LoRa module.
// The module is reached either over a serial device or over TCP
// (hostname+port), the latter typically pointing at an emulator.
type RadioData struct {
	SerialDevice string `yaml:"serial_device,omitempty"`
	Baud         int    `yaml:"baud,omitempty"`
	Hostname     string `yaml:"hostname,omitempty"`
	Port         string `yaml:"port,omitempty"`
	Address      int    `yaml:"address"`
	NetworkID    int    `yaml:"network_id,omitempty"`
	Band         int64  `yaml:"band,omitempty"`
	SettleMillis int    `yaml:"settle_millis,omitempty"`
}

// ThresholdsData holds the surface classification cut-offs.
type ThresholdsData struct {
	Whiteness float64 `yaml:"whiteness,omitempty"`
	NIRGreen  float64 `yaml:"nir_green,omitempty"`
}

// SensorData holds configuration for the edge sensor daemon.
type SensorData struct {
	Radio           RadioData      `yaml:"radio"`
	DestAddress     int            `yaml:"dest_address"`
	IntervalSeconds int            `yaml:"interval_seconds,omitempty"`
	Thresholds      ThresholdsData `yaml:"thresholds,omitempty"`
}

// GatewayData holds configuration for the gateway daemon.
type GatewayData struct {
	Radio            RadioData `yaml:"radio"`
	IngestURL        string    `yaml:"ingest_url"`
	DeviceID         int       `yaml:"device_id,omitempty"`
	PollMillis       int       `yaml:"poll_millis,omitempty"`
	StatusListenAddr string    `yaml:"status_listen_addr,omitempty"`
}

// StorageData holds the configuration for the optional archive backends on
// the gateway side.
type StorageData struct {
	SQLite      *SQLiteData      `yaml:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `yaml:"timescaledb,omitempty"`
}

type SQLiteData struct {
	Path string `yaml:"path"`
}

type TimescaleDBData struct {
	ConnectionString string `yaml:"connection_string"`
}

// SettleInterval returns the half-duplex settle wait applied after every
// AT command, defaulting to 500ms.
func (r RadioData) SettleInterval() time.Duration {
	if r.SettleMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(r.SettleMillis) * time.Millisecond
}

// Interval returns the sensing cadence, defaulting to 5s.
func (s SensorData) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

// PollInterval returns the radio poll cadence, defaulting to 100ms.
func (g GatewayData) PollInterval() time.Duration {
	if g.PollMillis <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(g.PollMillis) * time.Millisecond
}

// applyDefaults fills in link parameters left unset in the config file.
func (c *ConfigData) applyDefaults() {
	radios := []*RadioData{}
	if c.Sensor != nil {
		radios = append(radios, &c.Sensor.Radio)
	}
	if c.Gateway != nil {
		radios = append(radios, &c.Gateway.Radio)
		if c.Gateway.DeviceID == 0 {
			c.Gateway.DeviceID = constants.DefaultDeviceID
		}
	}

	for _, r := range radios {
		if r.Baud == 0 {
			r.Baud = constants.DefaultBaud
		}
		if r.NetworkID == 0 {
			r.NetworkID = constants.DefaultNetworkID
		}
		if r.Band == 0 {
			r.Band = constants.DefaultBand
		}
	}
}

// validate rejects configurations that cannot produce a runnable daemon.
func (c *ConfigData) validate() error {
	if c.Sensor == nil && c.Gateway == nil {
		return fmt.Errorf("config must define a sensor or gateway section")
	}
	if c.Sensor != nil {
		if err := validateRadio(c.Sensor.Radio, "sensor"); err != nil {
			return err
		}
		if c.Sensor.DestAddress == 0 {
			return fmt.Errorf("sensor must define dest_address")
		}
	}
	if c.Gateway != nil {
		if err := validateRadio(c.Gateway.Radio, "gateway"); err != nil {
			return err
		}
		if c.Gateway.IngestURL == "" {
			return fmt.Errorf("gateway must define ingest_url")
		}
	}
	return nil
}

func validateRadio(r RadioData, section string) error {
	if r.SerialDevice == "" && (r.Hostname == "" || r.Port == "") {
		return fmt.Errorf("%s radio must define either a serial device or hostname+port", section)
	}
	if r.Address == 0 {
		return fmt.Errorf("%s radio must define an address", section)
	}
	return nil
}
