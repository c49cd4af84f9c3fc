package lora

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roadsense/roadsense/internal/types"
)

// payloadPrecisions is the decimal precision of each wire field, in
// canonical order: airTemp, humidity, surfaceTemp, visMean, nirGreenRatio,
// whiteness. The parser round-trips encoded values within half a unit of
// the last digit (0.05 or 0.005), and the paired receiver firmware
// expects exactly this formatting.
var payloadPrecisions = [6]int{1, 1, 1, 1, 2, 2}

// EncodePayload renders a telemetry message as the six-field CSV wire
// payload in canonical field order.
func EncodePayload(msg types.TelemetryMessage) string {
	fields := [6]float64{
		msg.AirTemp,
		msg.Humidity,
		msg.SurfaceTemp,
		msg.VISMean,
		msg.NIRGreenRatio,
		msg.Whiteness,
	}

	parts := make([]string, len(fields))
	for i, v := range fields {
		parts[i] = strconv.FormatFloat(v, 'f', payloadPrecisions[i], 64)
	}
	return strings.Join(parts, ",")
}

// EncodeSend builds the full transmit command for the radio module:
// AT+SEND=<destAddr>,<len>,<payload>, where len is the exact byte length
// of the payload.
func EncodeSend(msg types.TelemetryMessage, destAddr int) string {
	payload := EncodePayload(msg)
	return fmt.Sprintf("AT+SEND=%d,%d,%s", destAddr, len(payload), payload)
}
