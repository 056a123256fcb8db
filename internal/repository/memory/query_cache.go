package memory

import (
	"fmt"
	"sync"
	"time"

	"mistral-thing-be/internal/changefeed"
	"mistral-thing-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

func ThreadListKey(userId uuid.UUID) string {
	return fmt.Sprintf("threads:user:%s", userId)
}

func MessagesKey(threadId uuid.UUID) string {
	return fmt.Sprintf("messages:thread:%s", threadId)
}

func isOlder(a, b *time.Time) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Before(*b)
}

// QueryCache is a read-through cache of list queries keyed by query
// identity. Committed changes are reconciled into cached entries instead of
// waiting for expiry.
type QueryCache struct {
	cache *cache.Cache

	mu       sync.Mutex
	versions map[string]uint64
}

func NewQueryCache(ttl time.Duration) *QueryCache {
	return &QueryCache{
		cache:    cache.New(ttl, 2*ttl),
		versions: make(map[string]uint64),
	}
}

// load runs loader on a miss. The result is only cached if no change for
// the key arrived while the loader was running.
func load[T any](q *QueryCache, key string, loader func() ([]T, error)) ([]T, error) {
	if x, found := q.cache.Get(key); found {
		return x.([]T), nil
	}

	q.mu.Lock()
	version := q.versions[key]
	q.mu.Unlock()

	rows, err := loader()
	if err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.versions[key] == version {
		q.cache.Set(key, rows, cache.DefaultExpiration)
	}
	return rows, nil
}

func (q *QueryCache) Threads(userId uuid.UUID, loader func() ([]*entity.Thread, error)) ([]*entity.Thread, error) {
	return load(q, ThreadListKey(userId), loader)
}

func (q *QueryCache) Messages(threadId uuid.UUID, loader func() ([]*entity.Message, error)) ([]*entity.Message, error) {
	return load(q, MessagesKey(threadId), loader)
}

func (q *QueryCache) OnChange(change changefeed.Change) {
	q.mu.Lock()
	defer q.mu.Unlock()

	messagesKey := MessagesKey(change.ThreadId)
	q.versions[messagesKey]++
	if x, found := q.cache.Get(messagesKey); found {
		if rows := ReconcileMessages(x.([]*entity.Message), change); rows == nil {
			q.cache.Delete(messagesKey)
		} else {
			q.cache.Set(messagesKey, rows, cache.DefaultExpiration)
		}
	}

	if change.Kind != changefeed.ThreadUpdated && change.Kind != changefeed.ThreadDeleted {
		return
	}
	threadsKey := ThreadListKey(change.UserId)
	q.versions[threadsKey]++
	if x, found := q.cache.Get(threadsKey); found {
		q.cache.Set(threadsKey, ReconcileThreads(x.([]*entity.Thread), change), cache.DefaultExpiration)
	}
}
