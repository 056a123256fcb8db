package service

import (
	"mistral-thing-be/internal/changefeed"
	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/repository/unitofwork"
)

// changeNotifier queues changefeed emissions on a unit of work so listeners
// only ever see committed rows.
type changeNotifier struct {
	feed *changefeed.Feed
}

func (n changeNotifier) emit(uow unitofwork.UnitOfWork, change changefeed.Change) {
	if n.feed == nil {
		return
	}
	uow.AfterCommit(func() {
		n.feed.Emit(change)
	})
}

func (n changeNotifier) threadUpdated(uow unitofwork.UnitOfWork, thread *entity.Thread) {
	if thread == nil {
		return
	}
	n.emit(uow, changefeed.Change{
		Kind:     changefeed.ThreadUpdated,
		ThreadId: thread.Id,
		UserId:   thread.UserId,
		Thread:   thread,
	})
}

func (n changeNotifier) threadDeleted(uow unitofwork.UnitOfWork, thread *entity.Thread) {
	n.emit(uow, changefeed.Change{
		Kind:     changefeed.ThreadDeleted,
		ThreadId: thread.Id,
		UserId:   thread.UserId,
		Thread:   thread,
	})
}

func (n changeNotifier) messageCreated(uow unitofwork.UnitOfWork, message *entity.Message) {
	n.emit(uow, changefeed.Change{
		Kind:     changefeed.MessageCreated,
		ThreadId: message.ThreadId,
		Message:  message,
	})
}

func (n changeNotifier) messageUpdated(uow unitofwork.UnitOfWork, message *entity.Message) {
	if message == nil {
		return
	}
	n.emit(uow, changefeed.Change{
		Kind:     changefeed.MessageUpdated,
		ThreadId: message.ThreadId,
		Message:  message,
	})
}
