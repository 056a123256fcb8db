package unitofwork

import (
	"context"
	"fmt"

	"mistral-thing-be/internal/repository/contract"
	"mistral-thing-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db          *gorm.DB
	tx          *gorm.DB
	afterCommit []func()
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil

	hooks := u.afterCommit
	u.afterCommit = nil
	if err != nil {
		return err
	}
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// Rollback after a successful Commit is a no-op so callers can always defer it.
func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	u.afterCommit = nil
	return err
}

func (u *UnitOfWorkImpl) AfterCommit(fn func()) {
	if u.tx == nil {
		fn()
		return
	}
	u.afterCommit = append(u.afterCommit, fn)
}

// Repository Accessors

func (u *UnitOfWorkImpl) ThreadRepository() contract.ThreadRepository {
	return implementation.NewThreadRepository(u.getDB())
}

func (u *UnitOfWorkImpl) MessageRepository() contract.MessageRepository {
	return implementation.NewMessageRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SettingsRepository() contract.SettingsRepository {
	return implementation.NewSettingsRepository(u.getDB())
}
