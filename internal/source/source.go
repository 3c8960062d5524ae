package source

import (
	"context"
	"fmt"

	"PmdaPipeline/internal/table"
)

// Batch is one raw table produced by a source, tagged with the encoding the
// fetch layer detected on the wire.
type Batch struct {
	Table    string
	Encoding string
	Data     table.Table
}

// Source captures a single raw-data provider (approvals listing, JAN/INN
// reference file, JADER case archive). A source may emit several batches.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Batch, error)
}

// Registry keeps raw-data sources in registration order.
type Registry struct {
	order   []string
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(s Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	if _, exists := r.sources[s.Name()]; !exists {
		r.order = append(r.order, s.Name())
	}
	r.sources[s.Name()] = s
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if s, ok := r.sources[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}

// All returns the registered sources in registration order.
func (r *Registry) All() []Source {
	out := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sources[name])
	}
	return out
}
