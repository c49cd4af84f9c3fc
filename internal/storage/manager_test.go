package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/roadsense/roadsense/internal/types"
	"github.com/roadsense/roadsense/pkg/config"
)

type captureEngine struct {
	records chan types.TelemetryRecord
}

func (c *captureEngine) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.TelemetryRecord {
	return c.records
}

func TestManagerFansOutToAllEngines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	m := &Manager{Distributor: make(chan types.TelemetryRecord, 20)}

	first := &captureEngine{records: make(chan types.TelemetryRecord, 1)}
	second := &captureEngine{records: make(chan types.TelemetryRecord, 1)}
	m.addEngine(ctx, &wg, first)
	m.addEngine(ctx, &wg, second)

	wg.Add(1)
	go m.startDistributor(ctx, &wg)

	rec := types.TelemetryRecord{DeviceID: 16, AirTemp: 22.5}
	m.Distributor <- rec

	for name, engine := range map[string]*captureEngine{"first": first, "second": second} {
		select {
		case got := <-engine.records:
			if got.DeviceID != 16 || got.AirTemp != 22.5 {
				t.Errorf("%s engine: wrong record %+v", name, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s engine never received the record", name)
		}
	}
}

// With no engines configured, records are consumed and discarded without
// blocking the distributor.
func TestManagerWithoutEngines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	m, err := NewManager(ctx, &wg, config.StorageData{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	for i := 0; i < 100; i++ {
		select {
		case m.Distributor <- types.TelemetryRecord{DeviceID: 16}:
		case <-time.After(time.Second):
			t.Fatal("distributor blocked with no engines configured")
		}
	}
}

func TestSQLiteStorageRoundTrip(t *testing.T) {
	s, err := NewSQLiteStorage(t.TempDir() + "/archive.db")
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	defer s.db.Close()

	rec := types.TelemetryRecord{
		ReceivedAt:    time.Now(),
		DeviceID:      16,
		AirTemp:       22.5,
		Humidity:      55.0,
		SurfaceTemp:   -1.0,
		VISMean:       40.0,
		NIRGreenRatio: 0.5,
		Whiteness:     1.0,
		RSSI:          -42,
		SNR:           11,
	}
	if err := s.StoreRecord(rec); err != nil {
		t.Fatalf("StoreRecord: %v", err)
	}

	var count int
	var airTemp float64
	row := s.db.QueryRow("SELECT COUNT(*), MAX(airtemp) FROM telemetry WHERE deviceid = 16")
	if err := row.Scan(&count, &airTemp); err != nil {
		t.Fatalf("querying archive: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 archived record, got %d", count)
	}
	if airTemp != 22.5 {
		t.Errorf("expected airtemp 22.5, got %v", airTemp)
	}
}
