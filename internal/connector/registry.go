package connector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/crimemap/crimemap/internal/query"
)

// Factory creates a new, unconnected Connector instance.
type Factory func() Connector

// Registry maps driver names to connector factories and tracks the open
// connections by name. The server opens one connection ("primary"); the
// CLI's seed and migrate commands reuse the same lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	active    map[string]Connector
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		active:    make(map[string]Connector),
	}
}

// RegisterDriver registers a connector factory for a driver type.
func (r *Registry) RegisterDriver(driver string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[driver] = factory
}

// Drivers returns the registered driver names, sorted.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableDrivers()
}

// Connect creates a connector for cfg.Driver, connects it and stores it
// under name, closing any connection previously held under that name.
func (r *Registry) Connect(name string, cfg ConnectionConfig) (Connector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, ok := r.factories[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver: %s (available: %v)", cfg.Driver, r.availableDrivers())
	}

	// The schema name is quoted into every table reference.
	if cfg.SchemaName != "" {
		if err := query.ValidateIdentifier(cfg.SchemaName); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
	}

	conn := factory()
	if err := conn.Connect(cfg); err != nil {
		return nil, fmt.Errorf("connect %q: %w", name, err)
	}

	if existing, ok := r.active[name]; ok {
		existing.Disconnect()
	}

	r.active[name] = conn
	return conn, nil
}

// Get returns the connector stored under name.
func (r *Registry) Get(name string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.active[name]
	if !ok {
		return nil, fmt.Errorf("connection %q not found", name)
	}
	return conn, nil
}

// Disconnect closes and forgets the connector stored under name.
func (r *Registry) Disconnect(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.active[name]
	if !ok {
		return fmt.Errorf("connection %q not found", name)
	}

	err := conn.Disconnect()
	delete(r.active, name)
	return err
}

// CloseAll disconnects every open connector.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, conn := range r.active {
		conn.Disconnect()
		delete(r.active, name)
	}
}

func (r *Registry) availableDrivers() []string {
	drivers := make([]string, 0, len(r.factories))
	for d := range r.factories {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	return drivers
}
