package gateway

import (
	"math"
	"testing"
)

func TestLinkStatsSnapshot(t *testing.T) {
	var ls LinkStats
	for _, obs := range []struct{ rssi, snr int }{
		{-40, 10}, {-50, 12}, {-60, 8},
	} {
		ls.Observe(obs.rssi, obs.snr)
	}

	s := ls.Snapshot()
	if s.Frames != 3 {
		t.Errorf("expected 3 frames, got %d", s.Frames)
	}
	if s.RSSIMean != -50 {
		t.Errorf("expected rssi mean -50, got %v", s.RSSIMean)
	}
	if s.SNRMean != 10 {
		t.Errorf("expected snr mean 10, got %v", s.SNRMean)
	}
	if math.Abs(s.RSSIStdDev-10) > 1e-9 {
		t.Errorf("expected rssi stddev 10, got %v", s.RSSIStdDev)
	}
}

func TestLinkStatsEmpty(t *testing.T) {
	var ls LinkStats
	s := ls.Snapshot()
	if s.Frames != 0 || s.RSSIMean != 0 || s.SNRStdDev != 0 {
		t.Errorf("empty stats should be zero: %+v", s)
	}
}

func TestLinkStatsWindowBound(t *testing.T) {
	var ls LinkStats
	for i := 0; i < linkStatsWindow*2; i++ {
		ls.Observe(-40, 10)
	}
	if s := ls.Snapshot(); s.Frames != linkStatsWindow {
		t.Errorf("window should cap at %d frames, got %d", linkStatsWindow, s.Frames)
	}
}
