package lora

import (
	"errors"
	"testing"

	"github.com/roadsense/roadsense/internal/types"
)

func TestParseFrame(t *testing.T) {
	frame, err := ParseFrame("+RCV=1,29,22.5,55.0,-1.0,40.0,0.50,1.00,-42,11")
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}

	if frame.SenderAddr != 1 {
		t.Errorf("sender: expected 1, got %d", frame.SenderAddr)
	}
	if frame.Length != 29 {
		t.Errorf("length: expected 29, got %d", frame.Length)
	}
	if frame.Payload != "22.5,55.0,-1.0,40.0,0.50,1.00" {
		t.Errorf("payload: got %q", frame.Payload)
	}
	if frame.RSSI != -42 || frame.SNR != 11 {
		t.Errorf("link quality: got rssi=%d snr=%d", frame.RSSI, frame.SNR)
	}
}

func TestParseFrameIgnoresOtherLines(t *testing.T) {
	lines := []string{
		"+OK",
		"+ERR=4",
		"+READY",
		"AT+SEND=2,5,hello",
		"",
		"garbage",
	}

	for _, line := range lines {
		if _, err := ParseFrame(line); !errors.Is(err, ErrNotReceiveFrame) {
			t.Errorf("ParseFrame(%q): expected ErrNotReceiveFrame, got %v", line, err)
		}
	}
}

func TestParseFrameMalformedHeader(t *testing.T) {
	lines := []string{
		"+RCV=",
		"+RCV=1,2",
		"+RCV=x,8,22.5,55.0,-1.0,40.0,0.5,1.0,9,9",
		"+RCV=1,nope,22.5,55.0,-1.0,40.0,0.5,1.0,9,9",
		"+RCV=1,8,22.5,55.0,-1.0,40.0,0.5,1.0,bad,9",
		"+RCV=1,8,22.5,55.0,-1.0,40.0,0.5,1.0,9,bad",
	}

	for _, line := range lines {
		if _, err := ParseFrame(line); !errors.Is(err, ErrMalformedPacket) {
			t.Errorf("ParseFrame(%q): expected ErrMalformedPacket, got %v", line, err)
		}
	}
}

// A payload with the wrong field count is a terminal failure for that
// frame, reported as a malformed packet.
func TestDecodeRecordRejectsWrongFieldCount(t *testing.T) {
	frame, err := ParseFrame("+RCV=2,8,22.5,55.0,9,9")
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}

	if _, err := DecodeRecord(frame, 16); !errors.Is(err, ErrMalformedPacket) {
		t.Errorf("expected ErrMalformedPacket, got %v", err)
	}
}

// A non-numeric payload token is reported as a FloatParseError naming the
// offending token.
func TestDecodeRecordRejectsBadFloat(t *testing.T) {
	frame, err := ParseFrame("+RCV=2,8,abc,55.0,-1.0,40.0,0.5,1.0,9,9")
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}

	_, err = DecodeRecord(frame, 16)
	var fpe *FloatParseError
	if !errors.As(err, &fpe) {
		t.Fatalf("expected FloatParseError, got %v", err)
	}
	if fpe.Token != "abc" {
		t.Errorf("expected offending token %q, got %q", "abc", fpe.Token)
	}
}

func TestDecodeRecord(t *testing.T) {
	frame := &types.RadioFrame{
		SenderAddr: 1,
		Length:     29,
		Payload:    "22.5,55.0,-1.0,40.0,0.50,1.00",
		RSSI:       -42,
		SNR:        11,
	}

	rec, err := DecodeRecord(frame, 16)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}

	if rec.DeviceID != 16 {
		t.Errorf("device id: expected 16, got %d", rec.DeviceID)
	}
	if rec.AirTemp != 22.5 || rec.Humidity != 55.0 || rec.SurfaceTemp != -1.0 {
		t.Errorf("climate fields wrong: %+v", rec)
	}
	if rec.VISMean != 40.0 || rec.NIRGreenRatio != 0.5 || rec.Whiteness != 1.0 {
		t.Errorf("feature fields wrong: %+v", rec)
	}
	if rec.RSSI != -42 || rec.SNR != 11 {
		t.Errorf("link quality not carried: %+v", rec)
	}
}
