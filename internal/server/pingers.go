package server

import (
	"context"
	"fmt"

	"github.com/agrisathi/agrisathi-go/internal/rag"
)

// Pinger is a readiness probe against one upstream dependency.
type Pinger interface {
	// Ping returns nil if the dependency is reachable and serving.
	Ping(ctx context.Context) error
	// Name identifies the dependency in readiness responses.
	Name() string
}

// StorePinger probes the vector document store backing retrieval.
type StorePinger struct {
	store rag.DocumentStore
	name  string
}

// NewStorePinger wraps a document store as a readiness probe. The name is
// reported in /api/ready responses, typically the backend ("qdrant", "milvus").
func NewStorePinger(store rag.DocumentStore, name string) *StorePinger {
	if name == "" {
		name = "vector-store"
	}
	return &StorePinger{store: store, name: name}
}

func (p *StorePinger) Name() string { return p.name }

func (p *StorePinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("%s unreachable: %w", p.name, err)
	}
	return nil
}

// MultiPinger fans a readiness check out to several dependencies and
// fails if any of them does.
type MultiPinger struct {
	pingers []Pinger
}

func NewMultiPinger(pingers ...Pinger) *MultiPinger {
	return &MultiPinger{pingers: pingers}
}

func (m *MultiPinger) Name() string { return "all" }

func (m *MultiPinger) Ping(ctx context.Context) error {
	for _, p := range m.pingers {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}
