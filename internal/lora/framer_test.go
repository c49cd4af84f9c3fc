package lora

import (
	"fmt"
	"math"
	"testing"

	"github.com/roadsense/roadsense/internal/types"
)

func TestEncodeSend(t *testing.T) {
	msg := types.TelemetryMessage{
		AirTemp:       22.5,
		Humidity:      55.0,
		SurfaceTemp:   -1.0,
		VISMean:       40.0,
		NIRGreenRatio: 0.5,
		Whiteness:     1.0,
	}

	payload := "22.5,55.0,-1.0,40.0,0.50,1.00"
	expected := fmt.Sprintf("AT+SEND=2,%d,%s", len(payload), payload)

	if got := EncodeSend(msg, 2); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// The declared length field must be the exact byte length of the payload,
// including negative signs and varying field widths.
func TestEncodeSendLengthField(t *testing.T) {
	messages := []types.TelemetryMessage{
		{AirTemp: -10.25, Humidity: 100, SurfaceTemp: -0.05, VISMean: 12345.6, NIRGreenRatio: 0.125, Whiteness: 10.005},
		{},
		{AirTemp: 0.04, Humidity: 0.05, SurfaceTemp: -0.04, VISMean: 0.949, NIRGreenRatio: 0.004, Whiteness: 0.005},
	}

	for _, msg := range messages {
		cmd := EncodeSend(msg, 7)
		payload := EncodePayload(msg)
		expected := fmt.Sprintf("AT+SEND=7,%d,%s", len(payload), payload)
		if cmd != expected {
			t.Errorf("length field mismatch: expected %q, got %q", expected, cmd)
		}
	}
}

// Encoding then decoding must reproduce the original values within the
// rounding tolerance of each field's precision.
func TestPayloadRoundTrip(t *testing.T) {
	msg := types.TelemetryMessage{
		AirTemp:       22.5,
		Humidity:      55.0,
		SurfaceTemp:   -1.0,
		VISMean:       40.00,
		NIRGreenRatio: 0.50,
		Whiteness:     1.00,
	}

	payload := EncodePayload(msg)
	line := fmt.Sprintf("+RCV=1,%d,%s,-42,11", len(payload), payload)

	frame, err := ParseFrame(line)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	rec, err := DecodeRecord(frame, 16)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}

	checks := []struct {
		name      string
		original  float64
		decoded   float64
		tolerance float64
	}{
		{"airTemp", msg.AirTemp, rec.AirTemp, 0.05},
		{"humidity", msg.Humidity, rec.Humidity, 0.05},
		{"surfaceTemp", msg.SurfaceTemp, rec.SurfaceTemp, 0.05},
		{"visMean", msg.VISMean, rec.VISMean, 0.05},
		{"nirGreenRatio", msg.NIRGreenRatio, rec.NIRGreenRatio, 0.005},
		{"whiteness", msg.Whiteness, rec.Whiteness, 0.005},
	}

	for _, c := range checks {
		if math.Abs(c.original-c.decoded) > c.tolerance {
			t.Errorf("%s: %v decoded as %v, outside tolerance %v", c.name, c.original, c.decoded, c.tolerance)
		}
	}
}

// Round trip across a spread of values, checking the per-field tolerance
// holds for anything the sensors can plausibly produce. The comparison
// allows a small epsilon on top of each tolerance: a rounding midpoint
// like -1.05 encodes at precision 1 with an error of exactly half the
// last digit, which float64 arithmetic reports as a hair over 0.05.
func TestPayloadRoundTripSpread(t *testing.T) {
	values := []float64{-40.0, -1.05, -0.01, 0, 0.49, 25.37, 99.9, 1234.56}

	for _, v := range values {
		msg := types.TelemetryMessage{
			AirTemp:       v,
			Humidity:      v,
			SurfaceTemp:   v,
			VISMean:       v,
			NIRGreenRatio: v,
			Whiteness:     v,
		}

		payload := EncodePayload(msg)
		frame, err := ParseFrame(fmt.Sprintf("+RCV=1,%d,%s,-60,9", len(payload), payload))
		if err != nil {
			t.Fatalf("ParseFrame(%v): %v", v, err)
		}
		rec, err := DecodeRecord(frame, 16)
		if err != nil {
			t.Fatalf("DecodeRecord(%v): %v", v, err)
		}

		if math.Abs(rec.AirTemp-v) > 0.05+1e-9 {
			t.Errorf("airTemp %v decoded as %v", v, rec.AirTemp)
		}
		if math.Abs(rec.NIRGreenRatio-v) > 0.005+1e-9 {
			t.Errorf("nirGreenRatio %v decoded as %v", v, rec.NIRGreenRatio)
		}
	}
}
