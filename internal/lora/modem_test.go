package lora

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakePort is an in-memory stand-in for the radio module's serial port.
// Commands written by the modem arrive on Commands; responses written via
// Respond show up on the modem's read side.
type fakePort struct {
	Commands chan string

	respW *io.PipeWriter
	respR *io.PipeReader
}

func newFakePort() *fakePort {
	r, w := io.Pipe()
	return &fakePort{
		Commands: make(chan string, 16),
		respW:    w,
		respR:    r,
	}
}

func (p *fakePort) Read(b []byte) (int, error) {
	return p.respR.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.Commands <- strings.TrimSpace(string(b))
	return len(b), nil
}

func (p *fakePort) Respond(line string) {
	io.WriteString(p.respW, line+"\r\n")
}

func (p *fakePort) RespondRaw(b []byte) {
	p.respW.Write(b)
}

func (p *fakePort) Close() error {
	return p.respR.Close()
}

func newTestModem(t *testing.T, port *fakePort) *Modem {
	t.Helper()
	m := NewModem(port, 50*time.Millisecond, SystemClock{}, zap.NewNop().Sugar())
	t.Cleanup(func() { m.Close() })
	return m
}

// respondTo acknowledges each command the modem sends with the scripted
// response, or stays silent for commands mapped to the empty string.
func respondTo(port *fakePort, script map[string]string) {
	go func() {
		for cmd := range port.Commands {
			if resp, ok := script[cmd]; ok && resp != "" {
				port.Respond(resp)
			}
		}
	}()
}

func TestSendCommandDrainsAcknowledgment(t *testing.T) {
	port := newFakePort()
	m := newTestModem(t, port)
	respondTo(port, map[string]string{"AT": "+OK"})

	resp, err := m.SendCommand("AT")
	if err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if resp != "+OK" {
		t.Errorf("expected +OK, got %q", resp)
	}
}

func TestSetup(t *testing.T) {
	port := newFakePort()
	m := newTestModem(t, port)
	respondTo(port, map[string]string{
		"AT":                "+OK",
		"AT+ADDRESS=2":      "+OK",
		"AT+NETWORKID=5":    "+OK",
		"AT+BAND=915000000": "+OK",
	})

	if err := m.Setup(2, 5, 915000000); err != nil {
		t.Fatalf("Setup: %v", err)
	}
}

func TestSetupRejectedCommandIsFatal(t *testing.T) {
	port := newFakePort()
	m := newTestModem(t, port)
	respondTo(port, map[string]string{
		"AT":           "+OK",
		"AT+ADDRESS=2": "+ERR=13",
	})

	err := m.Setup(2, 5, 915000000)
	var lse *LinkSetupError
	if !errors.As(err, &lse) {
		t.Fatalf("expected LinkSetupError, got %v", err)
	}
	if lse.Command != "AT+ADDRESS=2" {
		t.Errorf("expected failing command AT+ADDRESS=2, got %q", lse.Command)
	}
}

func TestSetupSilentModuleIsFatal(t *testing.T) {
	port := newFakePort()
	m := newTestModem(t, port)
	respondTo(port, map[string]string{})

	err := m.Setup(2, 5, 915000000)
	var lse *LinkSetupError
	if !errors.As(err, &lse) {
		t.Fatalf("expected LinkSetupError, got %v", err)
	}
}

// Unreadable bytes on the channel are dropped without poisoning the lines
// that follow them.
func TestReaderSkipsInvalidEncoding(t *testing.T) {
	port := newFakePort()
	m := newTestModem(t, port)

	go func() {
		port.RespondRaw([]byte{0xff, 0xfe, 0xfd, '\n'})
		port.Respond("+RCV=1,3,a,b,-40,10")
	}()

	select {
	case line := <-m.Lines():
		if !strings.HasPrefix(line, "+RCV=") {
			t.Errorf("expected the +RCV line, got %q", line)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for line")
	}
}

// Once the port goes away the line channel closes so the owning loop can
// tell the link is gone.
func TestLinesClosedOnPortClose(t *testing.T) {
	port := newFakePort()
	m := newTestModem(t, port)

	port.respW.Close()

	select {
	case _, ok := <-m.Lines():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
