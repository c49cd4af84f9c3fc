// Package forwarder delivers decoded telemetry records to the backend
// ingestion API over HTTP.
package forwarder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/roadsense/roadsense/internal/types"
	"go.uber.org/zap"
)

// ErrNetwork classes any transport failure (timeout, connection refused,
// DNS) reaching the ingestion endpoint. These errors are reported to the
// caller for logging and counting but must never halt the receive loop.
var ErrNetwork = errors.New("network error")

// ErrConnectivity marks a backend that stayed unreachable through the
// bounded startup retries. Unlike ErrNetwork it is fatal: the gateway
// must refuse to enter its receive loop.
var ErrConnectivity = errors.New("backend unreachable")

// ingestPayload is the JSON body expected by the ingestion API. Field
// names are part of the backend contract.
type ingestPayload struct {
	DeviceID      int     `json:"DeviceID"`
	AirTemp       float64 `json:"AirTemp"`
	Humidity      float64 `json:"Humidity"`
	SurfaceTemp   float64 `json:"SurfaceTemp"`
	VISMean       float64 `json:"VIS_Mean"`
	NIRGreenRatio float64 `json:"NIR_Green_Ratio"`
	Whiteness     float64 `json:"WhitenessIndex"`
}

// Forwarder posts telemetry records to a fixed ingestion URL. Each record
// is attempted exactly once; there is no retry or outbox, so a transport
// failure means that cycle's record is lost. That is a known gap carried
// over from the deployed system, not an oversight.
type Forwarder struct {
	url    string
	client *http.Client
	logger *zap.SugaredLogger
}

// New creates a forwarder for the given ingestion URL. The request timeout
// bounds worst-case loop latency per cycle.
func New(ingestURL string, logger *zap.SugaredLogger) *Forwarder {
	return &Forwarder{
		url: ingestURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Forward submits one record to the ingestion API. Success is any
// acknowledged response; non-2xx statuses are logged but not treated as
// failures, since the forwarder does not interpret the backend's status
// codes.
func (f *Forwarder) Forward(rec *types.TelemetryRecord) error {
	payload := ingestPayload{
		DeviceID:      rec.DeviceID,
		AirTemp:       rec.AirTemp,
		Humidity:      rec.Humidity,
		SurfaceTemp:   rec.SurfaceTemp,
		VISMean:       rec.VISMean,
		NIRGreenRatio: rec.NIRGreenRatio,
		Whiteness:     rec.Whiteness,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling ingest payload: %v", err)
	}

	req, err := http.NewRequest("POST", f.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating ingest request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	f.logger.Debugf("posting record to %s: %s", f.url, string(jsonData))

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: posting record: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading ingest response: %v", ErrNetwork, err)
	}

	f.logger.Debugf("ingest response status %d: %s", resp.StatusCode, string(body))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warnf("ingest API returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// CheckConnectivity verifies the ingestion endpoint's host is reachable,
// retrying a bounded number of times. Called once at startup; a gateway
// that cannot reach its backend should refuse to start rather than run
// degraded.
func (f *Forwarder) CheckConnectivity(attempts int, delay time.Duration) error {
	u, err := url.Parse(f.url)
	if err != nil {
		return fmt.Errorf("invalid ingest URL %q: %v", f.url, err)
	}

	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host = net.JoinHostPort(u.Hostname(), "443")
		default:
			host = net.JoinHostPort(u.Hostname(), "80")
		}
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			f.logger.Infof("retrying backend connectivity check (%d/%d)...", i+1, attempts)
			time.Sleep(delay)
		}
		conn, err := net.DialTimeout("tcp", host, 5*time.Second)
		if err == nil {
			conn.Close()
			f.logger.Infof("backend %s is reachable", host)
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("%w: backend %s after %d attempts: %v", ErrConnectivity, host, attempts, lastErr)
}
