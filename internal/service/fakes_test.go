package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"mistral-thing-be/internal/changefeed"
	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/repository/specification"
	"mistral-thing-be/internal/repository/testutil"
	"mistral-thing-be/internal/repository/unitofwork"
	"mistral-thing-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingEvents struct {
	mu      sync.Mutex
	created []uuid.UUID
	deleted []uuid.UUID
	sent    []bool
}

func (r *recordingEvents) PublishThreadCreated(ctx context.Context, threadId, userId uuid.UUID, modelId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, threadId)
}

func (r *recordingEvents) PublishThreadDeleted(ctx context.Context, threadId, userId uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, threadId)
}

func (r *recordingEvents) PublishMessageSent(ctx context.Context, threadId, userId, messageId uuid.UUID, firstTurn bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, firstTurn)
}

type recordingQueue struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
	// onFail runs before err is returned.
	onFail func()
}

func (q *recordingQueue) Publish(ctx context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		if q.onFail != nil {
			q.onFail()
		}
		return q.err
	}
	q.payloads = append(q.payloads, payload)
	return nil
}

type recordingStopper struct {
	stopped []uuid.UUID
}

func (s *recordingStopper) Stop(threadId uuid.UUID) bool {
	s.stopped = append(s.stopped, threadId)
	return true
}

type countingObserver struct {
	limited int
}

func (o *countingObserver) RateLimited() { o.limited++ }

type changeLog struct {
	mu      sync.Mutex
	changes []changefeed.Change
}

func (c *changeLog) OnChange(change changefeed.Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, change)
}

func (c *changeLog) kinds() []changefeed.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]changefeed.Kind, 0, len(c.changes))
	for _, ch := range c.changes {
		kinds = append(kinds, ch.Kind)
	}
	return kinds
}

// scriptedLLM streams a fixed list of deltas and then either finishes or
// fails with err.
type scriptedLLM struct {
	deltas []string
	err    error
}

func (p *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	var out string
	for _, d := range p.deltas {
		out += d
	}
	return out, nil
}

func (p *scriptedLLM) StreamChat(ctx context.Context, history []llm.Message, options ...llm.Option) (llm.Stream, error) {
	return &scriptedLLMStream{deltas: p.deltas, err: p.err}, nil
}

type scriptedLLMStream struct {
	deltas []string
	err    error
	pos    int
}

func (s *scriptedLLMStream) Recv() (string, error) {
	if s.pos < len(s.deltas) {
		s.pos++
		return s.deltas[s.pos-1], nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *scriptedLLMStream) Close() error { return nil }

var errProviderDown = errors.New("provider down")

type logEntry struct {
	level   string
	module  string
	message string
	details map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, module, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, module: module, message: message, details: details})
}

func (l *recordingLogger) Debug(module, message string, details map[string]interface{}) {
	l.record("debug", module, message, details)
}

func (l *recordingLogger) Info(module, message string, details map[string]interface{}) {
	l.record("info", module, message, details)
}

func (l *recordingLogger) Warn(module, message string, details map[string]interface{}) {
	l.record("warn", module, message, details)
}

func (l *recordingLogger) Error(module, message string, details map[string]interface{}) {
	l.record("error", module, message, details)
}

func (l *recordingLogger) Sync() error { return nil }

func (l *recordingLogger) at(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	db      *gorm.DB
	factory unitofwork.RepositoryFactory
	feed    *changefeed.Feed
	changes *changeLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	changes := &changeLog{}
	db := testutil.NewDB(t)
	return &fixture{
		db:      db,
		factory: unitofwork.NewRepositoryFactory(db),
		feed:    changefeed.NewFeed(changes),
		changes: changes,
	}
}

func (f *fixture) thread(t *testing.T, userId uuid.UUID, status entity.ThreadStatus) *entity.Thread {
	t.Helper()
	ctx := context.Background()
	thread := &entity.Thread{
		Id:      uuid.New(),
		UserId:  userId,
		Slug:    uuid.NewString(),
		Status:  status,
		ModelId: "mistral-small-latest",
	}
	require.NoError(t, f.factory.NewUnitOfWork(ctx).ThreadRepository().Create(ctx, thread))
	return thread
}

func (f *fixture) message(t *testing.T, threadId uuid.UUID, role entity.MessageRole, content string, streaming bool) *entity.Message {
	t.Helper()
	ctx := context.Background()
	message := &entity.Message{
		Id:          uuid.New(),
		ThreadId:    threadId,
		Role:        role,
		Content:     content,
		IsStreaming: streaming,
	}
	require.NoError(t, f.factory.NewUnitOfWork(ctx).MessageRepository().Create(ctx, message))
	return message
}

func (f *fixture) loadThread(t *testing.T, id uuid.UUID) *entity.Thread {
	t.Helper()
	ctx := context.Background()
	thread, err := f.factory.NewUnitOfWork(ctx).ThreadRepository().FindOne(ctx, specification.ByID{ID: id})
	require.NoError(t, err)
	return thread
}

func (f *fixture) loadMessages(t *testing.T, threadId uuid.UUID) []*entity.Message {
	t.Helper()
	ctx := context.Background()
	messages, err := f.factory.NewUnitOfWork(ctx).MessageRepository().FindAll(ctx, specification.ByThreadID{ThreadID: threadId})
	require.NoError(t, err)
	return messages
}
