package lora

import (
	"errors"
	"fmt"
)

// Frame-level failures. All of these are local to a single frame or
// command: the receive loop drops the frame and continues.
var (
	// ErrNotReceiveFrame marks a line that does not carry a received
	// packet (module chatter, command echoes). Ignored silently.
	ErrNotReceiveFrame = errors.New("not a receive frame")

	// ErrMalformedPacket marks a frame whose structure is wrong: too few
	// tokens, unparseable header fields, or a payload with the wrong
	// field count.
	ErrMalformedPacket = errors.New("malformed packet")

	// ErrEncoding marks bytes on the channel that do not decode as text.
	ErrEncoding = errors.New("unreadable bytes on radio channel")
)

// FloatParseError marks a payload token that failed numeric conversion.
type FloatParseError struct {
	Token string
	Err   error
}

func (e *FloatParseError) Error() string {
	return fmt.Sprintf("payload token %q is not a number: %v", e.Token, e.Err)
}

func (e *FloatParseError) Unwrap() error {
	return e.Err
}

// LinkSetupError marks a radio module that rejected its initial
// configuration. This is fatal to startup: the daemon must not enter its
// serving loop on a misconfigured link.
type LinkSetupError struct {
	Command  string
	Response string
}

func (e *LinkSetupError) Error() string {
	if e.Response == "" {
		return fmt.Sprintf("radio module did not acknowledge %q", e.Command)
	}
	return fmt.Sprintf("radio module rejected %q: %s", e.Command, e.Response)
}
