package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/roadsense/roadsense/internal/log"
	"github.com/roadsense/roadsense/internal/types"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS telemetry (
	id TEXT PRIMARY KEY,
	time TIMESTAMP NOT NULL,
	deviceid INTEGER NOT NULL,
	airtemp REAL, humidity REAL, surfacetemp REAL,
	vismean REAL, nirgreenratio REAL, whiteness REAL,
	rssi INTEGER, snr INTEGER
);
CREATE INDEX IF NOT EXISTS telemetry_time_idx ON telemetry (time);
`

// SQLiteStorage archives telemetry records in a local SQLite database,
// suitable for a gateway with no reachable database server.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the archive database at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create telemetry table: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// StartStorageEngine creates a goroutine loop to receive records and write
// them to the archive.
func (s *SQLiteStorage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.TelemetryRecord {
	log.Info("starting SQLite archive engine...")
	recordChan := make(chan types.TelemetryRecord, 10)
	go s.processRecords(ctx, wg, recordChan)
	return recordChan
}

func (s *SQLiteStorage) processRecords(ctx context.Context, wg *sync.WaitGroup, rchan <-chan types.TelemetryRecord) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-rchan:
			if err := s.StoreRecord(r); err != nil {
				log.Error("could not archive record:", err)
			}
		case <-ctx.Done():
			log.Info("cancellation request received, stopping SQLite archive engine")
			s.db.Close()
			return
		}
	}
}

// StoreRecord writes one record to the archive.
func (s *SQLiteStorage) StoreRecord(r types.TelemetryRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	_, err := s.db.Exec(
		`INSERT INTO telemetry
		 (id, time, deviceid, airtemp, humidity, surfacetemp, vismean, nirgreenratio, whiteness, rssi, snr)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ReceivedAt, r.DeviceID,
		r.AirTemp, r.Humidity, r.SurfaceTemp,
		r.VISMean, r.NIRGreenRatio, r.Whiteness,
		r.RSSI, r.SNR,
	)
	return err
}
