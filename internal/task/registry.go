package task

import (
	"fmt"
	"sort"
	"sync"
)

// Metadata describes a task for registration in the core system.
type Metadata struct {
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// Registration pairs a task handler with its static metadata.
type Registration struct {
	Name     string
	Metadata Metadata
	Handler  Handler
}

// Registry maps task names to handlers. Registration happens explicitly at
// process startup; duplicate names are an error rather than a silent
// overwrite.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Registration
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Registration)}
}

// Register adds a named task. Returns an error if the name is empty, the
// handler is nil, or the name is already taken.
func (r *Registry) Register(name string, md Metadata, h Handler) error {
	if name == "" {
		return fmt.Errorf("task name is required")
	}
	if h == nil {
		return fmt.Errorf("task %s: handler is required", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("task %s: already registered", name)
	}
	r.tasks[name] = Registration{Name: name, Metadata: md, Handler: h}
	return nil
}

// Get returns the registration for a task name.
func (r *Registry) Get(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.tasks[name]
	return reg, ok
}

// Names returns all registered task names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
