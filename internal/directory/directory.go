// Package directory is the read-only port to the external business entity
// directory. The engine needs four fields per entity and nothing else.
package directory

import (
	"context"
	"time"

	"comply/pkg/domain"
)

// BusinessEntity is the directory's view of a registered entity, reduced to
// what due-date computation needs.
type BusinessEntity struct {
	ID            domain.EntityID
	State         string
	EntityType    string
	FormationDate time.Time
}

//go:generate mockgen -source=directory.go -destination=mocks/directory-mocks.go -package=mocks Directory

// Directory resolves entities by ID.
//
// Errors: implementations return sentinel.ErrNotFound (possibly wrapped) for
// unknown entities.
type Directory interface {
	GetEntity(ctx context.Context, id domain.EntityID) (*BusinessEntity, error)
}
