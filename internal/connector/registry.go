package connector

import (
	"fmt"
	"sync"
)

// Registry resolves a connector adapter by the name stored on the merchant's
// connector account. Registration happens at startup; lookups are read-mostly.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Connector
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]Connector{}}
}

func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[c.Name()] = c
}

func (r *Registry) Resolve(name string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown connector: %s", name)
	}
	return c, nil
}
