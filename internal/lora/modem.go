// Package lora drives an RYLR-style LoRa module over its AT command
// protocol and implements the framing and parsing of telemetry payloads
// carried on the link.
package lora

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/roadsense/roadsense/pkg/config"
	serial "github.com/tarm/goserial"
	"go.uber.org/zap"
)

// Modem is a half-duplex handle on the radio module. Exactly one goroutine
// may issue commands at a time, and inbound lines are consumed either by
// the command settle drain or by the owner reading Lines() -- never both
// concurrently. No locking is needed because the callers observe that
// discipline.
type Modem struct {
	rwc    io.ReadWriteCloser
	lines  chan string
	clock  Clock
	settle time.Duration
	logger *zap.SugaredLogger
}

// Dial opens the radio module over a serial device or TCP per the device
// configuration and starts the line reader.
func Dial(cfg config.RadioData, clock Clock, logger *zap.SugaredLogger) (*Modem, error) {
	var rwc io.ReadWriteCloser
	var err error

	switch {
	case cfg.SerialDevice != "":
		logger.Infof("connecting to radio module on %v at %d baud...", cfg.SerialDevice, cfg.Baud)
		sc := &serial.Config{Name: cfg.SerialDevice, Baud: cfg.Baud}
		rwc, err = serial.OpenPort(sc)
		if err != nil {
			return nil, fmt.Errorf("could not open serial port %s: %w", cfg.SerialDevice, err)
		}
	case cfg.Hostname != "" && cfg.Port != "":
		addr := net.JoinHostPort(cfg.Hostname, cfg.Port)
		logger.Infof("connecting to radio module at %v...", addr)
		conn, derr := net.DialTimeout("tcp", addr, 10*time.Second)
		if derr != nil {
			return nil, fmt.Errorf("could not connect to %v: %w", addr, derr)
		}
		rwc = conn
	default:
		return nil, fmt.Errorf("radio config must define either a serial device or hostname+port")
	}

	return NewModem(rwc, cfg.SettleInterval(), clock, logger), nil
}

// NewModem wraps an already-open connection to the radio module. Used
// directly by tests and the emulator tooling.
func NewModem(rwc io.ReadWriteCloser, settle time.Duration, clock Clock, logger *zap.SugaredLogger) *Modem {
	m := &Modem{
		rwc:    rwc,
		lines:  make(chan string, 32),
		clock:  clock,
		settle: settle,
		logger: logger,
	}
	go m.readLines()
	return m
}

// readLines scans the radio channel and publishes complete lines. It runs
// until the underlying connection errors or closes, then closes the line
// channel so consumers can tell the link is gone.
func (m *Modem) readLines() {
	defer close(m.lines)

	scanner := bufio.NewScanner(m.rwc)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if !utf8.Valid(raw) {
			m.logger.Warnf("dropping line: %v", ErrEncoding)
			continue
		}
		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}
		m.lines <- line
	}

	if err := scanner.Err(); err != nil {
		m.logger.Errorf("radio channel read error: %v", err)
	}
}

// Lines returns the channel of inbound lines from the module. The channel
// is closed when the link goes away.
func (m *Modem) Lines() <-chan string {
	return m.lines
}

// SendCommand writes one AT command to the module, then blocks for the
// settle interval draining the module's synchronous acknowledgment. The
// last response line seen during the settle window is returned. Every
// transmission is therefore a bounded blocking operation.
func (m *Modem) SendCommand(cmd string) (string, error) {
	m.logger.Debugf("radio command: %s", cmd)

	if _, err := io.WriteString(m.rwc, cmd+"\r\n"); err != nil {
		return "", fmt.Errorf("writing command %q: %w", cmd, err)
	}

	var response string
	deadline := m.clock.After(m.settle)
	for {
		// Prefer pending responses over the deadline so an
		// acknowledgment that raced the timer is not lost.
		select {
		case line, ok := <-m.lines:
			if !ok {
				return response, fmt.Errorf("radio channel closed while awaiting response to %q", cmd)
			}
			m.logger.Debugf("radio response: %s", line)
			response = line
			continue
		default:
		}

		select {
		case line, ok := <-m.lines:
			if !ok {
				return response, fmt.Errorf("radio channel closed while awaiting response to %q", cmd)
			}
			m.logger.Debugf("radio response: %s", line)
			response = line
		case <-deadline:
			return response, nil
		}
	}
}

// Setup configures the module's address, network identifier, and carrier
// frequency. Any command the module does not acknowledge with +OK yields a
// LinkSetupError; callers must treat that as fatal and refuse to enter
// their serving loop.
func (m *Modem) Setup(address, networkID int, band int64) error {
	m.logger.Info("initializing radio module...")

	commands := []string{
		"AT",
		fmt.Sprintf("AT+ADDRESS=%d", address),
		fmt.Sprintf("AT+NETWORKID=%d", networkID),
		fmt.Sprintf("AT+BAND=%d", band),
	}

	for _, cmd := range commands {
		resp, err := m.SendCommand(cmd)
		if err != nil {
			return fmt.Errorf("link setup: %w", err)
		}
		if !strings.HasPrefix(resp, "+OK") {
			return &LinkSetupError{Command: cmd, Response: resp}
		}
	}

	m.logger.Info("radio module initialized")
	return nil
}

// Close tears down the connection to the module.
func (m *Modem) Close() error {
	return m.rwc.Close()
}
