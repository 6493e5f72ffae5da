package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
)

var (
	// ErrMissingSessionID is returned when a stream is started without a session id.
	ErrMissingSessionID = errors.New("session id is required")
	// ErrMissingBearerToken is returned when a stream is started without a bearer token.
	ErrMissingBearerToken = errors.New("bearer token is required")
	// ErrStreamActive is returned when a session already has a stream running.
	ErrStreamActive = errors.New("a stream is already active for this session")
)

const defaultReadSize = 32 * 1024

// StartParams identifies one invocation of the agent runtime.
type StartParams struct {
	Payload      json.RawMessage
	SessionID    string
	BearerToken  string
	EndpointName string
}

// Opener starts the transport for a stream and returns its body. A non-nil
// error means no body was opened; a non-success response must be reported
// as an error rather than a body.
type Opener func(ctx context.Context, params StartParams) (io.ReadCloser, error)

// Handlers receive the outcome of a stream. Each is optional. OnEvent is
// called for every decoded event, before it is applied to the aggregate.
// Exactly one of OnError or OnComplete is called per started stream.
type Handlers struct {
	OnEvent    func(Event)
	OnError    func(error)
	OnComplete func()
}

// Session owns the aggregate for a sequence of streams and runs at most
// one of them at a time.
type Session struct {
	handlers Handlers
	opts     Options
	readSize int

	aggregate *Aggregate

	mu     sync.Mutex
	status domain.StreamStatus
	err    error
}

// NewSession creates an idle session.
func NewSession(handlers Handlers, opts Options) *Session {
	return &Session{
		handlers:  handlers,
		opts:      opts,
		readSize:  defaultReadSize,
		aggregate: NewAggregate(),
		status:    domain.StreamStatusIdle,
	}
}

// Start runs one stream to its end and blocks until then. It returns nil
// once the transport reports a clean end of stream. Precondition failures
// return before any transport call; a transport failure moves the session
// to Failed and keeps whatever the aggregate already holds.
func (s *Session) Start(ctx context.Context, params StartParams, open Opener) error {
	if params.SessionID == "" {
		return s.reject(ErrMissingSessionID)
	}
	if params.BearerToken == "" {
		return s.reject(ErrMissingBearerToken)
	}
	if params.EndpointName == "" {
		params.EndpointName = domain.DefaultEndpointName
	}

	s.mu.Lock()
	if s.status == domain.StreamStatusStreaming {
		s.mu.Unlock()
		return ErrStreamActive
	}
	s.aggregate.Reset()
	s.status = domain.StreamStatusStreaming
	s.err = nil
	s.mu.Unlock()

	body, err := open(ctx, params)
	if err != nil {
		return s.fail(fmt.Errorf("failed to open stream: %w", err))
	}
	if body == nil {
		return s.fail(errors.New("no response body"))
	}
	defer body.Close()

	if err := s.consume(body); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.status = domain.StreamStatusCompleted
	s.mu.Unlock()
	if s.handlers.OnComplete != nil {
		s.handlers.OnComplete()
	}
	return nil
}

func (s *Session) consume(body io.Reader) error {
	r := NewReassembler(s.opts)
	buf := make([]byte, s.readSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			r.Feed(buf[:n], s.dispatch)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read stream: %w", err)
		}
	}
}

func (s *Session) dispatch(ev Event) {
	if s.handlers.OnEvent != nil {
		s.handlers.OnEvent(ev)
	}
	s.aggregate.Apply(ev)
}

func (s *Session) reject(err error) error {
	s.mu.Lock()
	if s.status != domain.StreamStatusStreaming {
		s.err = err
	}
	s.mu.Unlock()
	if s.handlers.OnError != nil {
		s.handlers.OnError(err)
	}
	return err
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.status = domain.StreamStatusFailed
	s.err = err
	s.mu.Unlock()
	if s.handlers.OnError != nil {
		s.handlers.OnError(err)
	}
	return err
}

// Clear empties the aggregate and the last error. It fails with
// ErrStreamActive while a stream is running.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == domain.StreamStatusStreaming {
		return ErrStreamActive
	}
	s.aggregate.Reset()
	s.err = nil
	s.status = domain.StreamStatusIdle
	return nil
}

// Status returns the current lifecycle state.
func (s *Session) Status() domain.StreamStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the error that ended the last stream, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Aggregate returns the live per-agent transcripts.
func (s *Session) Aggregate() *Aggregate {
	return s.aggregate
}
