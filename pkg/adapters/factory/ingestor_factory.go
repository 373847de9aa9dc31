package factory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/renjie/cellmatch-core/pkg/adapters/ingest"
	"github.com/renjie/cellmatch-core/pkg/core/domain"
	"github.com/renjie/cellmatch-core/pkg/core/ports"
)

// Downstream 摄入器的下游回调类型
type Downstream func(context.Context, []domain.Cell) error

// IngestorBuilder defines the contract for creating a format-specific ingestor
type IngestorBuilder func(downstream Downstream) ports.UniversalIngestor

// IngestorFactory is the registry for all available input formats
type IngestorFactory struct {
	builders map[string]IngestorBuilder
	mu       sync.RWMutex
}

var (
	instance *IngestorFactory
	once     sync.Once
)

// GetIngestorFactory returns the singleton instance
func GetIngestorFactory() *IngestorFactory {
	once.Do(func() {
		instance = NewIngestorFactory()
	})
	return instance
}

// NewIngestorFactory creates a new IngestorFactory instance with built-in formats registered
// This constructor is useful for testing where you need isolated factory instances
func NewIngestorFactory() *IngestorFactory {
	f := &IngestorFactory{
		builders: make(map[string]IngestorBuilder),
	}
	// Register built-in formats
	f.Register("csv", func(d Downstream) ports.UniversalIngestor {
		return ingest.NewCsvUniversalIngestor(d)
	})
	f.Register("json", func(d Downstream) ports.UniversalIngestor {
		return ingest.NewJsonUniversalIngestor(d)
	})
	return f
}

// Register adds or overrides an ingestor builder
func (f *IngestorFactory) Register(format string, builder IngestorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[strings.ToLower(format)] = builder
}

// Create instantiates an ingestor for the given format
func (f *IngestorFactory) Create(format string, downstream Downstream) (ports.UniversalIngestor, error) {
	f.mu.RLock()
	builder, ok := f.builders[strings.ToLower(format)]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no ingestor registered for format: %s", format)
	}
	return builder(downstream), nil
}
