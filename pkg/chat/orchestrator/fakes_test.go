package orchestrator

import (
	"context"
	"io"
	"sync"
	"time"

	"mistral-thing-be/internal/entity"
	"mistral-thing-be/internal/repository/contract"
	"mistral-thing-be/pkg/llm"

	"github.com/google/uuid"
)

// memStore records every write so tests can inspect the sequence a
// subscriber would have observed.
type memStore struct {
	mu sync.Mutex

	threadId uuid.UUID
	status   entity.ThreadStatus
	deleted  bool

	statuses     []entity.ThreadStatus
	messages     []*entity.Message
	writes       map[uuid.UUID][]string
	maxStreaming int

	afterPatch func(s *memStore, n int)
	patches    int
}

func newMemStore(status entity.ThreadStatus, history ...*entity.Message) *memStore {
	s := &memStore{
		threadId: uuid.New(),
		status:   status,
		writes:   make(map[uuid.UUID][]string),
	}
	for _, m := range history {
		m.Id = uuid.New()
		m.ThreadId = s.threadId
		m.Seq = int64(len(s.messages) + 1)
		s.messages = append(s.messages, m)
	}
	return s
}

func (s *memStore) observeStreaming() {
	n := 0
	for _, m := range s.messages {
		if m.IsStreaming {
			n++
		}
	}
	if n > s.maxStreaming {
		s.maxStreaming = n
	}
}

func (s *memStore) UpdateThreadStatus(ctx context.Context, threadId uuid.UUID, status entity.ThreadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return contract.ErrGone
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.status = status
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *memStore) InsertPendingMessage(ctx context.Context, threadId uuid.UUID) (*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return nil, contract.ErrGone
	}
	m := &entity.Message{
		Id:          uuid.New(),
		ThreadId:    threadId,
		Role:        entity.MessageRoleAssistant,
		IsStreaming: true,
		Seq:         int64(len(s.messages) + 1),
	}
	s.messages = append(s.messages, m)
	s.observeStreaming()
	copied := *m
	return &copied, nil
}

func (s *memStore) PatchMessage(ctx context.Context, messageId uuid.UUID, content string, isStreaming bool) error {
	s.mu.Lock()
	if s.deleted {
		s.mu.Unlock()
		return contract.ErrGone
	}
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return err
	}
	var target *entity.Message
	for _, m := range s.messages {
		if m.Id == messageId {
			target = m
		}
	}
	if target == nil {
		s.mu.Unlock()
		return contract.ErrGone
	}
	target.Content = content
	target.IsStreaming = isStreaming
	s.writes[messageId] = append(s.writes[messageId], content)
	s.observeStreaming()
	s.patches++
	n := s.patches
	hook := s.afterPatch
	s.mu.Unlock()

	if hook != nil {
		hook(s, n)
	}
	return nil
}

// ListHistory deliberately returns every row, streaming or not, so the
// orchestrator's own filtering is what the tests observe.
func (s *memStore) ListHistory(ctx context.Context, threadId uuid.UUID) ([]*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return nil, contract.ErrGone
	}
	out := make([]*entity.Message, len(s.messages))
	for i, m := range s.messages {
		copied := *m
		out[i] = &copied
	}
	return out, nil
}

func (s *memStore) delete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = true
	s.messages = nil
}

func (s *memStore) last() *entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return nil
	}
	copied := *s.messages[len(s.messages)-1]
	return &copied
}

func (s *memStore) snapshotWrites(id uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes[id]...)
}

func (s *memStore) currentStatus() entity.ThreadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// scriptedProvider streams fixed deltas, then ends with err, blocks until
// the context is done, or finishes cleanly.
type scriptedProvider struct {
	mu sync.Mutex

	deltas  []string
	err     error
	openErr error
	block   bool

	histories [][]llm.Message
	models    []string
	streams   []*scriptedStream
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return "", nil
}

func (p *scriptedProvider) StreamChat(ctx context.Context, history []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.histories = append(p.histories, append([]llm.Message(nil), history...))
	p.models = append(p.models, llm.ApplyOptions("", opts...).Model)
	if p.openErr != nil {
		return nil, p.openErr
	}
	s := &scriptedStream{ctx: ctx, deltas: append([]string(nil), p.deltas...), err: p.err, block: p.block}
	p.streams = append(p.streams, s)
	return s, nil
}

type scriptedStream struct {
	mu     sync.Mutex
	ctx    context.Context
	deltas []string
	err    error
	block  bool
	closed bool
}

func (s *scriptedStream) Recv() (string, error) {
	s.mu.Lock()
	if len(s.deltas) > 0 {
		d := s.deltas[0]
		s.deltas = s.deltas[1:]
		s.mu.Unlock()
		return d, nil
	}
	s.mu.Unlock()

	if s.err != nil {
		return "", s.err
	}
	if s.block {
		<-s.ctx.Done()
		return "", llm.ReadError(s.ctx, "fake", s.ctx.Err())
	}
	return "", io.EOF
}

func (s *scriptedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *scriptedStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type finished struct {
	outcome Outcome
	tokens  int
}

type recordingObserver struct {
	mu       sync.Mutex
	started  int
	deltas   int
	finished []finished
}

func (r *recordingObserver) GenerationStarted(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *recordingObserver) DeltaPersisted(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas++
}

func (r *recordingObserver) GenerationFinished(job Job, outcome Outcome, elapsed time.Duration, outputTokens int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, finished{outcome: outcome, tokens: outputTokens})
}

func (r *recordingObserver) lastOutcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.finished) == 0 {
		return ""
	}
	return r.finished[len(r.finished)-1].outcome
}
