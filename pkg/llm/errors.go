package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindInvalidRequest ErrorKind = "invalid_request" // bad model id, bad payload, auth
	KindUnreachable    ErrorKind = "unreachable"
	KindInterrupted    ErrorKind = "interrupted"
	KindIdleTimeout    ErrorKind = "idle_timeout"
	KindBadResponse    ErrorKind = "bad_response"
)

var ErrStreamClosed = errors.New("stream closed")

// ProviderError is the single failure type surfaced by completion clients.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func NewProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// StatusError classifies a non-2xx provider response.
func StatusError(provider string, status int, body string) *ProviderError {
	kind := KindUnreachable
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		kind = KindInvalidRequest
	}
	return &ProviderError{
		Provider:   provider,
		Kind:       kind,
		StatusCode: status,
		Err:        fmt.Errorf("provider returned %d: %s", status, body),
	}
}

// ReadError classifies a failure while consuming a response body. Context
// cancellation stays visible through errors.Is.
func ReadError(ctx context.Context, provider string, err error) *ProviderError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewProviderError(provider, KindInterrupted, ctxErr)
	}
	return NewProviderError(provider, KindInterrupted, err)
}

func IsKind(err error, kind ErrorKind) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == kind
}
