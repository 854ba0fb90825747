package application

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ahrav/go-humeval/infrastructure/aggregate"
	"github.com/ahrav/go-humeval/internal/domain"
)

// AggregatorFactory creates a score aggregator.
type AggregatorFactory func() domain.ScoreAggregator

// AggregatorRegistry provides a factory for creating score aggregators by
// name. It supports dynamic registration of additional strategies.
type AggregatorRegistry struct {
	// factories maps strategy names to their factory functions.
	factories map[string]AggregatorFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewAggregatorRegistry creates a registry with the built-in "macro" and
// "micro" strategies pre-registered.
func NewAggregatorRegistry() *AggregatorRegistry {
	r := &AggregatorRegistry{factories: make(map[string]AggregatorFactory)}

	r.factories[aggregate.NameMacro] = func() domain.ScoreAggregator { return aggregate.NewMacroMean() }
	r.factories[aggregate.NameMicro] = func() domain.ScoreAggregator { return aggregate.NewMicroMean() }

	return r
}

// Create returns a new aggregator for the named strategy.
func (r *AggregatorRegistry) Create(name string) (domain.ScoreAggregator, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported aggregator: %s", name)
	}
	return factory(), nil
}

// Register adds or replaces the factory for a strategy name.
func (r *AggregatorRegistry) Register(name string, factory AggregatorFactory) error {
	if name == "" {
		return fmt.Errorf("aggregator name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
	return nil
}

// SupportedNames returns the registered strategy names in sorted order.
func (r *AggregatorRegistry) SupportedNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
