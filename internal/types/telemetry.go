// Package types defines the data structures passed between the sensing,
// radio, and forwarding layers.
package types

import "time"

// SpectralSample holds raw channel intensities from one measurement cycle
// of the reflectance sensor. All channels are non-negative counts.
type SpectralSample struct {
	R   float64
	G   float64
	B   float64
	NIR float64
}

// ThermalSample holds one reading from the infrared temperature sensor.
// Surface is nil when the sensor could not produce a reading; callers must
// never compare a nil value numerically.
type ThermalSample struct {
	Internal *float64 // sensor die temperature, °C
	Surface  *float64 // road surface temperature, °C
}

// ClimateSample holds one reading from the air temperature/humidity
// sensor. Both fields are nil on a failed read; the sensor is independent
// of the others and its failure is non-fatal.
type ClimateSample struct {
	AirTemp  *float64 // °C
	Humidity *float64 // percent
}

// FeatureVector holds reflectance features derived from a SpectralSample.
type FeatureVector struct {
	VISMean       float64
	NIRGreenRatio float64
	Whiteness     float64
}

// SurfaceState is the classified condition of the road surface.
type SurfaceState int

const (
	SurfaceNormal SurfaceState = iota
	SurfacePossibleBlackIce
	SurfaceIceDetected
)

func (s SurfaceState) String() string {
	switch s {
	case SurfaceIceDetected:
		return "ICE DETECTED"
	case SurfacePossibleBlackIce:
		return "POSSIBLE BLACK ICE"
	default:
		return "NORMAL"
	}
}

// TelemetryMessage is the canonical wire payload: six fields in a fixed
// order shared by the framer and the parser. The contract is positional,
// not named, at the wire level.
type TelemetryMessage struct {
	AirTemp       float64
	Humidity      float64
	SurfaceTemp   float64
	VISMean       float64
	NIRGreenRatio float64
	Whiteness     float64
}

// RadioFrame is the result of parsing one inbound +RCV line, carrying the
// reconstructed payload and the link-quality metrics appended by the
// radio module.
type RadioFrame struct {
	SenderAddr int
	Length     int
	Payload    string
	RSSI       int
	SNR        int
}

// TelemetryRecord is the fully decoded, validated form of one sensing
// cycle, ready for delivery to the backend and the archive engines. The
// six telemetry fields appear in the same canonical order as in
// TelemetryMessage.
type TelemetryRecord struct {
	ID            string    `gorm:"column:id;primaryKey"`
	ReceivedAt    time.Time `gorm:"column:time"`
	DeviceID      int       `gorm:"column:deviceid"`
	AirTemp       float64   `gorm:"column:airtemp"`
	Humidity      float64   `gorm:"column:humidity"`
	SurfaceTemp   float64   `gorm:"column:surfacetemp"`
	VISMean       float64   `gorm:"column:vismean"`
	NIRGreenRatio float64   `gorm:"column:nirgreenratio"`
	Whiteness     float64   `gorm:"column:whiteness"`
	RSSI          int       `gorm:"column:rssi"`
	SNR           int       `gorm:"column:snr"`
}

// TableName implements the gorm Tabler interface so records land in a
// sensibly-named table.
func (TelemetryRecord) TableName() string {
	return "telemetry"
}
