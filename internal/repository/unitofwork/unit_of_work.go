package unitofwork

import (
	"context"

	"mistral-thing-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	// AfterCommit defers fn until the current transaction commits. Outside a
	// transaction fn runs immediately. Rolled back work drops its callbacks.
	AfterCommit(fn func())

	ThreadRepository() contract.ThreadRepository
	MessageRepository() contract.MessageRepository
	SettingsRepository() contract.SettingsRepository
}
