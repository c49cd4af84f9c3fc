package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/roadsense/roadsense/internal/log"
	"github.com/roadsense/roadsense/internal/types"
	"github.com/roadsense/roadsense/pkg/config"
)

// Manager holds the active archive backends and fans decoded records out
// to all of them. Archiving is independent of forwarding: a record is
// archived whether or not its delivery to the backend succeeded.
type Manager struct {
	Engines     []Engine
	Distributor chan types.TelemetryRecord
}

// Engine pairs a backend with the channel used to pass records to it.
type Engine struct {
	Engine EngineInterface
	C      chan<- types.TelemetryRecord
}

// NewManager creates a Manager populated with every archive backend named
// in the configuration and starts the record distributor. With no
// backends configured, records are discarded after forwarding.
func NewManager(ctx context.Context, wg *sync.WaitGroup, cfg config.StorageData) (*Manager, error) {
	m := &Manager{
		Distributor: make(chan types.TelemetryRecord, 20),
	}

	if cfg.SQLite != nil && cfg.SQLite.Path != "" {
		engine, err := NewSQLiteStorage(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("could not add SQLite archive backend: %v", err)
		}
		m.addEngine(ctx, wg, engine)
	}

	if cfg.TimescaleDB != nil && cfg.TimescaleDB.ConnectionString != "" {
		engine, err := NewTimescaleDBStorage(ctx, cfg.TimescaleDB.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("could not add TimescaleDB archive backend: %v", err)
		}
		m.addEngine(ctx, wg, engine)
	}

	wg.Add(1)
	go m.startDistributor(ctx, wg)

	return m, nil
}

func (m *Manager) addEngine(ctx context.Context, wg *sync.WaitGroup, e EngineInterface) {
	m.Engines = append(m.Engines, Engine{
		Engine: e,
		C:      e.StartStorageEngine(ctx, wg),
	})
}

// startDistributor receives decoded records and fans them out to every
// configured archive backend.
func (m *Manager) startDistributor(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case r := <-m.Distributor:
			for _, e := range m.Engines {
				e.C <- r
			}
		case <-ctx.Done():
			log.Info("cancellation request received, stopping record distributor")
			return
		}
	}
}
