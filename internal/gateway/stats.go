package gateway

import (
	"sync"

	"gonum.org/v1/gonum/stat"
)

// linkStatsWindow is how many recent frames feed the link-quality
// statistics.
const linkStatsWindow = 256

// LinkStats tracks rolling RSSI/SNR statistics over the most recent
// frames. It is written by the receive loop and read by the status API,
// so access is guarded.
type LinkStats struct {
	mu   sync.Mutex
	rssi []float64
	snr  []float64
}

// LinkStatsSnapshot is a point-in-time summary of link quality.
type LinkStatsSnapshot struct {
	Frames     int     `json:"frames"`
	RSSIMean   float64 `json:"rssi_mean"`
	RSSIStdDev float64 `json:"rssi_stddev"`
	SNRMean    float64 `json:"snr_mean"`
	SNRStdDev  float64 `json:"snr_stddev"`
}

// Observe records the link-quality metrics of one received frame.
func (l *LinkStats) Observe(rssi, snr int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rssi = append(l.rssi, float64(rssi))
	l.snr = append(l.snr, float64(snr))
	if len(l.rssi) > linkStatsWindow {
		l.rssi = l.rssi[len(l.rssi)-linkStatsWindow:]
		l.snr = l.snr[len(l.snr)-linkStatsWindow:]
	}
}

// Snapshot summarizes the current window.
func (l *LinkStats) Snapshot() LinkStatsSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := LinkStatsSnapshot{Frames: len(l.rssi)}
	if len(l.rssi) == 0 {
		return s
	}

	s.RSSIMean = stat.Mean(l.rssi, nil)
	s.SNRMean = stat.Mean(l.snr, nil)
	if len(l.rssi) > 1 {
		s.RSSIStdDev = stat.StdDev(l.rssi, nil)
		s.SNRStdDev = stat.StdDev(l.snr, nil)
	}
	return s
}
