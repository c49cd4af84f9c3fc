package lora

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roadsense/roadsense/internal/types"
)

// receivePrefix marks an inbound packet line from the radio module:
// +RCV=<srcAddr>,<len>,<payload>,<rssi>,<snr>
const receivePrefix = "+RCV="

// payloadFieldCount is the fixed number of CSV fields in a valid payload.
const payloadFieldCount = 6

// ParseFrame parses one raw line from the radio channel into a RadioFrame.
//
// Lines without the receive prefix return ErrNotReceiveFrame and should be
// ignored. The payload may itself contain commas, so it is reconstructed
// from every token between the length field and the two trailing
// link-quality fields. That framing assumes exactly two numeric tokens
// always follow the payload; a payload whose tail mimics rssi/snr cannot
// be disambiguated, which is an accepted limitation of the module's frame
// format.
func ParseFrame(line string) (*types.RadioFrame, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, receivePrefix) {
		return nil, ErrNotReceiveFrame
	}

	tokens := strings.Split(line, ",")
	if len(tokens) < 5 {
		return nil, fmt.Errorf("%w: %d tokens in frame", ErrMalformedPacket, len(tokens))
	}

	senderAddr, err := strconv.Atoi(strings.TrimPrefix(tokens[0], receivePrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: bad sender address %q", ErrMalformedPacket, tokens[0])
	}

	length, err := strconv.Atoi(tokens[1])
	if err != nil {
		return nil, fmt.Errorf("%w: bad length field %q", ErrMalformedPacket, tokens[1])
	}

	rssi, err := strconv.Atoi(tokens[len(tokens)-2])
	if err != nil {
		return nil, fmt.Errorf("%w: bad rssi field %q", ErrMalformedPacket, tokens[len(tokens)-2])
	}

	snr, err := strconv.Atoi(tokens[len(tokens)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: bad snr field %q", ErrMalformedPacket, tokens[len(tokens)-1])
	}

	return &types.RadioFrame{
		SenderAddr: senderAddr,
		Length:     length,
		Payload:    strings.Join(tokens[2:len(tokens)-2], ","),
		RSSI:       rssi,
		SNR:        snr,
	}, nil
}

// DecodeRecord validates a frame's payload and decodes it into a
// telemetry record carrying the fixed device identifier. The payload must
// split into exactly six numeric CSV fields; anything else is a terminal
// failure for this frame only.
func DecodeRecord(frame *types.RadioFrame, deviceID int) (*types.TelemetryRecord, error) {
	values := strings.Split(frame.Payload, ",")
	if len(values) != payloadFieldCount {
		return nil, fmt.Errorf("%w: expected %d payload fields, got %d",
			ErrMalformedPacket, payloadFieldCount, len(values))
	}

	var fields [payloadFieldCount]float64
	for i, v := range values {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, &FloatParseError{Token: v, Err: err}
		}
		fields[i] = parsed
	}

	return &types.TelemetryRecord{
		DeviceID:      deviceID,
		AirTemp:       fields[0],
		Humidity:      fields[1],
		SurfaceTemp:   fields[2],
		VISMean:       fields[3],
		NIRGreenRatio: fields[4],
		Whiteness:     fields[5],
		RSSI:          frame.RSSI,
		SNR:           frame.SNR,
	}, nil
}
