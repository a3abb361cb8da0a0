package signals

import (
	"fmt"

	"ProspectPilot/internal/ports"
)

// Strategy names known to the Fetcher.
const (
	StrategySearch = "search"
	StrategyFeed   = "feed"
)

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	strategies map[string]ports.SignalStrategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]ports.SignalStrategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy ports.SignalStrategy) {
	if r.strategies == nil {
		r.strategies = map[string]ports.SignalStrategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.SignalStrategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("signal strategy %s is not registered", name)
}
