// Package storage defines interfaces and implementations for telemetry
// archive backends on the gateway.
package storage

import (
	"context"
	"sync"

	"github.com/roadsense/roadsense/internal/types"
)

// EngineInterface is the standardized contract for archive backends: an
// engine starts its own processing goroutine and returns the channel it
// consumes records from.
type EngineInterface interface {
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- types.TelemetryRecord
}
