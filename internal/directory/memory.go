package directory

import (
	"context"
	"fmt"
	"sync"

	"comply/pkg/domain"
	"comply/pkg/platform/sentinel"
)

// InMemory is a Directory fake for tests and local development.
type InMemory struct {
	mu       sync.RWMutex
	entities map[domain.EntityID]*BusinessEntity
}

var _ Directory = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{entities: make(map[domain.EntityID]*BusinessEntity)}
}

// Put registers or replaces an entity.
func (d *InMemory) Put(entity *BusinessEntity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *entity
	d.entities[entity.ID] = &copied
}

func (d *InMemory) GetEntity(_ context.Context, id domain.EntityID) (*BusinessEntity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entity, ok := d.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", id, sentinel.ErrNotFound)
	}
	copied := *entity
	return &copied, nil
}
