// Package gateway receives telemetry frames from the radio link, decodes
// them, and hands the records to the forwarder and the archive engines.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roadsense/roadsense/internal/constants"
	"github.com/roadsense/roadsense/internal/lora"
	"github.com/roadsense/roadsense/internal/types"
	"go.uber.org/zap"
)

// LineSource provides lines received on the radio channel. The channel
// closes when the link is gone.
type LineSource interface {
	Lines() <-chan string
}

// RecordForwarder delivers one decoded record to the backend.
type RecordForwarder interface {
	Forward(*types.TelemetryRecord) error
}

// counters tracks receive-loop outcomes by cause for the status API.
type counters struct {
	mu               sync.Mutex
	framesReceived   int
	recordsDecoded   int
	recordsForwarded int
	droppedMalformed int
	droppedBadFloat  int
	forwardFailures  int
}

// StatusSnapshot is the gateway state reported by the status API.
type StatusSnapshot struct {
	SessionID        string            `json:"session_id"`
	Version          string            `json:"version"`
	FramesReceived   int               `json:"frames_received"`
	RecordsDecoded   int               `json:"records_decoded"`
	RecordsForwarded int               `json:"records_forwarded"`
	DroppedMalformed int               `json:"dropped_malformed"`
	DroppedBadFloat  int               `json:"dropped_bad_float"`
	ForwardFailures  int               `json:"forward_failures"`
	Link             LinkStatsSnapshot `json:"link"`
}

// Gateway drives the receive loop: poll the radio channel, decode frames,
// forward and archive records. All per-frame failures are recovered
// locally; nothing in the loop is fatal once it has started.
type Gateway struct {
	modem       LineSource
	fwd         RecordForwarder
	distributor chan<- types.TelemetryRecord
	deviceID    int
	poll        time.Duration
	clock       lora.Clock
	logger      *zap.SugaredLogger

	sessionID string
	stats     *LinkStats
	counters  counters

	lastMu sync.Mutex
	last   *types.TelemetryRecord
}

// New creates a gateway. The distributor channel may be nil when no
// archive backends are configured.
func New(modem LineSource, fwd RecordForwarder, distributor chan<- types.TelemetryRecord,
	deviceID int, poll time.Duration, clock lora.Clock, logger *zap.SugaredLogger) *Gateway {
	return &Gateway{
		modem:       modem,
		fwd:         fwd,
		distributor: distributor,
		deviceID:    deviceID,
		poll:        poll,
		clock:       clock,
		logger:      logger,
		sessionID:   uuid.NewString(),
		stats:       &LinkStats{},
	}
}

// Run polls the radio channel until cancellation. The short poll interval
// keeps end-to-end latency low without busy-spinning; each poll drains
// every line the module has buffered before sleeping again.
func (g *Gateway) Run(ctx context.Context) error {
	g.logger.Infof("gateway session %s waiting for radio frames...", g.sessionID)

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("cancellation request received, stopping receive loop")
			return nil
		case <-g.clock.After(g.poll):
			if err := g.drainPending(); err != nil {
				return err
			}
		}
	}
}

func (g *Gateway) drainPending() error {
	for {
		select {
		case line, ok := <-g.modem.Lines():
			if !ok {
				return fmt.Errorf("radio channel closed")
			}
			g.HandleLine(line)
		default:
			return nil
		}
	}
}

// HandleLine processes one raw line from the radio channel. Every failure
// here is terminal for this line only; the loop moves on to the next.
func (g *Gateway) HandleLine(line string) {
	frame, err := lora.ParseFrame(line)
	if errors.Is(err, lora.ErrNotReceiveFrame) {
		g.logger.Debugf("ignoring non-frame line: %q", line)
		return
	}

	g.counters.mu.Lock()
	g.counters.framesReceived++
	g.counters.mu.Unlock()

	if err != nil {
		g.logger.Warnf("dropping frame: %v", err)
		g.counters.mu.Lock()
		g.counters.droppedMalformed++
		g.counters.mu.Unlock()
		return
	}

	g.stats.Observe(frame.RSSI, frame.SNR)
	if frame.Length != len(frame.Payload) {
		g.logger.Debugf("declared payload length %d differs from received %d", frame.Length, len(frame.Payload))
	}

	rec, err := lora.DecodeRecord(frame, g.deviceID)
	if err != nil {
		g.logger.Warnf("dropping frame from addr %d: %v", frame.SenderAddr, err)
		g.counters.mu.Lock()
		var fpe *lora.FloatParseError
		if errors.As(err, &fpe) {
			g.counters.droppedBadFloat++
		} else {
			g.counters.droppedMalformed++
		}
		g.counters.mu.Unlock()
		return
	}

	rec.ID = uuid.NewString()
	rec.ReceivedAt = g.clock.Now()

	g.logger.Infof("decoded record from addr %d: air=%.1f°C rh=%.1f%% surface=%.1f°C rssi=%d snr=%d",
		frame.SenderAddr, rec.AirTemp, rec.Humidity, rec.SurfaceTemp, frame.RSSI, frame.SNR)

	g.lastMu.Lock()
	g.last = rec
	g.lastMu.Unlock()

	g.counters.mu.Lock()
	g.counters.recordsDecoded++
	g.counters.mu.Unlock()

	// Forward first, then archive: neither outcome affects the other.
	if err := g.fwd.Forward(rec); err != nil {
		g.logger.Errorf("record not delivered: %v", err)
		g.counters.mu.Lock()
		g.counters.forwardFailures++
		g.counters.mu.Unlock()
	} else {
		g.counters.mu.Lock()
		g.counters.recordsForwarded++
		g.counters.mu.Unlock()
	}

	if g.distributor != nil {
		g.distributor <- *rec
	}
}

// Status reports the session's receive counters and link quality.
func (g *Gateway) Status() StatusSnapshot {
	g.counters.mu.Lock()
	s := StatusSnapshot{
		SessionID:        g.sessionID,
		Version:          constants.Version,
		FramesReceived:   g.counters.framesReceived,
		RecordsDecoded:   g.counters.recordsDecoded,
		RecordsForwarded: g.counters.recordsForwarded,
		DroppedMalformed: g.counters.droppedMalformed,
		DroppedBadFloat:  g.counters.droppedBadFloat,
		ForwardFailures:  g.counters.forwardFailures,
	}
	g.counters.mu.Unlock()

	s.Link = g.stats.Snapshot()
	return s
}

// LastRecord returns the most recently decoded record, or nil before the
// first frame arrives.
func (g *Gateway) LastRecord() *types.TelemetryRecord {
	g.lastMu.Lock()
	defer g.lastMu.Unlock()
	return g.last
}
