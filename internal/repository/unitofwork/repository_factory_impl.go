package unitofwork

import (
	"context"

	"gorm.io/gorm"
)

// RepositoryFactory hands out units of work bound to one database.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}

type RepositoryFactoryImpl struct {
	db *gorm.DB
}

func NewRepositoryFactory(db *gorm.DB) RepositoryFactory {
	return &RepositoryFactoryImpl{
		db: db,
	}
}

// NewUnitOfWork is cheap; create one per request or per orchestrator step.
func (f *RepositoryFactoryImpl) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return NewUnitOfWork(f.db)
}
