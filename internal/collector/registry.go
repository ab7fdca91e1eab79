package collector

import (
	"fmt"
	"sync"

	"PoliticianEvaluator/internal/ports"
)

// Registry stores available collectors by name, remembering registration order.
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]ports.Collector
	order      []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{collectors: map[string]ports.Collector{}}
}

// Register adds or replaces a collector.
func (r *Registry) Register(c ports.Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.collectors[c.Name()]; !ok {
		r.order = append(r.order, c.Name())
	}
	r.collectors[c.Name()] = c
}

// Resolve returns a collector by name.
func (r *Registry) Resolve(name string) (ports.Collector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[name]
	if !ok {
		return nil, fmt.Errorf("collector %s not registered", name)
	}
	return c, nil
}

// Names lists registered collectors in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len reports how many collectors are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.collectors)
}
