// Package constants holds shared values used across the application.
package constants

// Version is the application version, stamped into logs and user agents.
const Version = "1.0"

// DefaultDeviceID identifies this sensor installation to the ingestion API.
const DefaultDeviceID = 16

// Radio link defaults, matching the RYLR998 module configuration used in
// the field deployment. Sender and receiver must share NetworkID and Band.
const (
	DefaultNetworkID = 5
	DefaultBand      = 915000000
	DefaultBaud      = 115200
)
