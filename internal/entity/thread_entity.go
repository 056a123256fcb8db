package entity

import (
	"time"

	"github.com/google/uuid"
)

type ThreadStatus string

const (
	ThreadStatusReady     ThreadStatus = "ready"
	ThreadStatusSubmitted ThreadStatus = "submitted"
	ThreadStatusStreaming ThreadStatus = "streaming"
	ThreadStatusError     ThreadStatus = "error"
)

func (s ThreadStatus) IsValid() bool {
	switch s {
	case ThreadStatusReady, ThreadStatusSubmitted, ThreadStatusStreaming, ThreadStatusError:
		return true
	}
	return false
}

// IsBusy reports whether a generation is in flight.
func (s ThreadStatus) IsBusy() bool {
	return s == ThreadStatusSubmitted || s == ThreadStatusStreaming
}

// AcceptsMessages lists the states a new user message may start from.
func AcceptsMessages() []ThreadStatus {
	return []ThreadStatus{ThreadStatusReady, ThreadStatusError}
}

type Thread struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	Slug      string
	Status    ThreadStatus
	ModelId   string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

func (t *Thread) OwnedBy(userId uuid.UUID) bool {
	return t != nil && t.UserId == userId
}
