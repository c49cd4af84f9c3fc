package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roadsense/roadsense/internal/log"
	"github.com/roadsense/roadsense/internal/types"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS telemetry (
	id TEXT PRIMARY KEY,
	time TIMESTAMPTZ NOT NULL,
	deviceid INTEGER NOT NULL,
	airtemp DOUBLE PRECISION, humidity DOUBLE PRECISION, surfacetemp DOUBLE PRECISION,
	vismean DOUBLE PRECISION, nirgreenratio DOUBLE PRECISION, whiteness DOUBLE PRECISION,
	rssi INTEGER, snr INTEGER
)`

// TimescaleDBStorage archives telemetry records in TimescaleDB for
// long-term retention and time-bucketed queries.
type TimescaleDBStorage struct {
	conn *gorm.DB
}

// NewTimescaleDBStorage connects to TimescaleDB and creates the telemetry
// table if needed.
func NewTimescaleDBStorage(ctx context.Context, connectionString string) (*TimescaleDBStorage, error) {
	t := &TimescaleDBStorage{}

	// Route gorm's logging through zap
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
		},
	)

	log.Info("connecting to TimescaleDB...")
	var err error
	t.conn, err = gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return nil, err
	}

	log.Info("creating telemetry table...")
	if err := t.conn.WithContext(ctx).Exec(createTableSQL).Error; err != nil {
		log.Warn("warning: could not create telemetry table:", err)
		return nil, err
	}

	// Hypertable conversion fails harmlessly on plain Postgres or when
	// the table was already converted.
	err = t.conn.WithContext(ctx).Exec(
		"SELECT create_hypertable('telemetry', 'time', if_not_exists => TRUE)").Error
	if err != nil {
		log.Infof("telemetry table not converted to hypertable: %v", err)
	}

	return t, nil
}

// StartStorageEngine creates a goroutine loop to receive records and send
// them off to TimescaleDB.
func (t *TimescaleDBStorage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.TelemetryRecord {
	log.Info("starting TimescaleDB archive engine...")
	recordChan := make(chan types.TelemetryRecord, 10)
	go t.processRecords(ctx, wg, recordChan)
	return recordChan
}

func (t *TimescaleDBStorage) processRecords(ctx context.Context, wg *sync.WaitGroup, rchan <-chan types.TelemetryRecord) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-rchan:
			if err := t.StoreRecord(r); err != nil {
				log.Error("could not archive record:", err)
			}
		case <-ctx.Done():
			log.Info("cancellation request received, stopping TimescaleDB archive engine")
			return
		}
	}
}

// StoreRecord stores one record in TimescaleDB.
func (t *TimescaleDBStorage) StoreRecord(r types.TelemetryRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return t.conn.Create(&r).Error
}
