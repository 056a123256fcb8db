package llm

import (
	"fmt"
	"sync"
	"time"
)

type recvResult struct {
	delta string
	err   error
}

type idleStream struct {
	inner   Stream
	timeout time.Duration
	results chan recvResult
	pending bool
	failed  error
	once    sync.Once
}

// WithIdleTimeout fails the stream with KindIdleTimeout when no delta or
// error arrives within timeout. A zero timeout returns the stream unchanged.
func WithIdleTimeout(stream Stream, timeout time.Duration) Stream {
	if timeout <= 0 {
		return stream
	}
	return &idleStream{
		inner:   stream,
		timeout: timeout,
		results: make(chan recvResult, 1),
	}
}

func (s *idleStream) Recv() (string, error) {
	if s.failed != nil {
		return "", s.failed
	}
	if !s.pending {
		s.pending = true
		go func() {
			delta, err := s.inner.Recv()
			s.results <- recvResult{delta: delta, err: err}
		}()
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case r := <-s.results:
		s.pending = false
		return r.delta, r.err
	case <-timer.C:
		s.failed = NewProviderError("stream", KindIdleTimeout, fmt.Errorf("no data for %s", s.timeout))
		_ = s.Close()
		return "", s.failed
	}
}

func (s *idleStream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.inner.Close()
	})
	return err
}
