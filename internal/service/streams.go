package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/stream"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/ws"
)

type streamEntry struct {
	sessionID string
	runID     string
	session   *stream.Session
	// active covers the window between reservation and the session
	// reporting Streaming.
	active bool
	seq    int64
}

// StartStream runs the agent stream for a session on the gateway. It
// returns once the run is recorded; events are persisted and published as
// they arrive.
func (s *Service) StartStream(ctx context.Context, token string, req domain.StartStreamRequest) (*domain.StartStreamResponse, error) {
	if isEmptyPayload(req.Payload) {
		return nil, invalid("payload is required")
	}
	if token == "" {
		return nil, stream.ErrMissingBearerToken
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	endpoint := req.EndpointName
	if endpoint == "" {
		endpoint = domain.DefaultEndpointName
	}

	entry := &streamEntry{
		sessionID: sessionID,
		runID:     "run_" + uuid.New().String()[:8],
		active:    true,
	}
	entry.session = stream.NewSession(s.handlersFor(entry), stream.Options{
		CarryPartial: s.config != nil && s.config.CarryPartialObjects,
	})

	s.mu.Lock()
	if prev, ok := s.streams[sessionID]; ok && prev.active {
		s.mu.Unlock()
		return nil, stream.ErrStreamActive
	}
	s.streams[sessionID] = entry
	s.mu.Unlock()

	run := &domain.StreamRun{
		RunID:        entry.runID,
		SessionID:    sessionID,
		EndpointName: endpoint,
		Status:       domain.StreamStatusStreaming,
		StartedAt:    time.Now(),
	}
	if err := s.store.CreateStreamRun(ctx, run); err != nil {
		s.mu.Lock()
		delete(s.streams, sessionID)
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	params := stream.StartParams{
		Payload:      req.Payload,
		SessionID:    sessionID,
		BearerToken:  token,
		EndpointName: endpoint,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runCtx := s.ctx
		if s.config != nil && s.config.AgentTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(s.ctx, s.config.AgentTimeout)
			defer cancel()
		}
		if err := entry.session.Start(runCtx, params, s.runtime.Invoke); err != nil {
			log.Printf("WARN: stream %s run %s ended with error: %v", sessionID, entry.runID, err)
		}
	}()

	log.Printf("INFO: stream started session=%s run=%s endpoint=%s", sessionID, entry.runID, endpoint)
	return &domain.StartStreamResponse{SessionID: sessionID, RunID: entry.runID, Status: domain.StreamStatusStreaming}, nil
}

func (s *Service) handlersFor(entry *streamEntry) stream.Handlers {
	return stream.Handlers{
		OnEvent: func(ev stream.Event) {
			entry.seq++
			s.recordEvent(entry, entry.seq, ev)
		},
		OnError: func(err error) {
			s.finish(entry, domain.StreamStatusFailed, err.Error())
		},
		OnComplete: func() {
			s.finish(entry, domain.StreamStatusCompleted, "")
		},
	}
}

func (s *Service) recordEvent(entry *streamEntry, seq int64, ev stream.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record := &domain.StreamEventRecord{
		EventID:   "evt_" + uuid.New().String()[:8],
		RunID:     entry.runID,
		SessionID: entry.sessionID,
		Seq:       seq,
		Type:      ev.Type(),
		Agent:     string(stream.EventAgent(ev)),
		Timestamp: eventTimestamp(ev),
		Raw:       ev.Raw(),
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateStreamEvent(ctx, record); err != nil {
		log.Printf("ERROR: failed to record event %d of run %s: %v", seq, entry.runID, err)
	}

	s.publish(entry.sessionID, ws.EventMessage{
		BaseMessage: ws.BaseMessage{
			Type:      ws.TypeEvent,
			Ts:        time.Now().UnixMilli(),
			SessionID: entry.sessionID,
			RunID:     entry.runID,
		},
		Seq:   seq,
		Event: ev.Raw(),
	})
}

func (s *Service) finish(entry *streamEntry, status domain.StreamStatus, errMsg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	agents := entry.session.Aggregate().Snapshot()
	if err := s.store.UpdateStreamRunCompleted(ctx, entry.runID, status, errMsg, agents); err != nil {
		log.Printf("ERROR: failed to complete run %s: %v", entry.runID, err)
	}

	s.mu.Lock()
	entry.active = false
	s.mu.Unlock()

	s.publish(entry.sessionID, ws.DoneMessage{
		BaseMessage: ws.BaseMessage{
			Type:      ws.TypeDone,
			Ts:        time.Now().UnixMilli(),
			SessionID: entry.sessionID,
			RunID:     entry.runID,
		},
		Status: status,
		Error:  errMsg,
		Agents: agents,
	})
	log.Printf("INFO: stream finished session=%s run=%s status=%s", entry.sessionID, entry.runID, status)
}

func (s *Service) publish(sessionID string, v interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.BroadcastJSON(sessionID, v); err != nil {
		log.Printf("WARN: failed to publish to session %s: %v", sessionID, err)
	}
}

// GetStream returns the live view of a session, falling back to its most
// recent recorded run. Unknown sessions return nil, nil.
func (s *Service) GetStream(ctx context.Context, sessionID string) (*domain.StreamSnapshot, error) {
	s.mu.Lock()
	entry, ok := s.streams[sessionID]
	active := ok && entry.active
	s.mu.Unlock()

	if ok {
		snap := &domain.StreamSnapshot{
			SessionID: sessionID,
			RunID:     entry.runID,
			Status:    entry.session.Status(),
			Agents:    entry.session.Aggregate().Snapshot(),
		}
		if active {
			snap.Status = domain.StreamStatusStreaming
		}
		if err := entry.session.Err(); err != nil && !active {
			snap.Error = err.Error()
		}
		return snap, nil
	}

	run, err := s.store.GetLatestRunForSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return nil, nil
	}
	agents := run.Agents
	if agents == nil {
		agents = map[domain.AgentID]string{}
	}
	return &domain.StreamSnapshot{
		SessionID: sessionID,
		RunID:     run.RunID,
		Status:    run.Status,
		Error:     run.Error,
		Agents:    agents,
	}, nil
}

// ClearStream empties the live aggregate of a session that is not
// streaming.
func (s *Service) ClearStream(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.streams[sessionID]
	if !ok {
		return ErrStreamNotFound
	}
	if entry.active {
		return stream.ErrStreamActive
	}
	if err := entry.session.Clear(); err != nil {
		return err
	}
	return nil
}

// ListRuns lists recorded runs of a session, newest first.
func (s *Service) ListRuns(ctx context.Context, sessionID string, limit int) ([]domain.StreamRun, error) {
	runs, err := s.store.ListStreamRuns(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetStreamEvents returns recorded events of a run after afterSeq. An empty
// runID selects the latest run of the session.
func (s *Service) GetStreamEvents(ctx context.Context, sessionID, runID string, afterSeq int64, limit int) ([]domain.StreamEventRecord, error) {
	if runID == "" {
		run, err := s.store.GetLatestRunForSession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get run: %w", err)
		}
		if run == nil {
			return nil, ErrStreamNotFound
		}
		runID = run.RunID
	} else {
		run, err := s.store.GetStreamRun(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to get run: %w", err)
		}
		if run == nil || run.SessionID != sessionID {
			return nil, ErrStreamNotFound
		}
	}

	events, err := s.store.GetStreamEvents(ctx, runID, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return events, nil
}

func eventTimestamp(ev stream.Event) string {
	switch e := ev.(type) {
	case stream.AgentStart:
		return e.Timestamp
	case stream.AgentChunk:
		return e.Timestamp
	case stream.AgentEnd:
		return e.Timestamp
	case stream.ErrorEvent:
		return e.Timestamp
	default:
		return ""
	}
}

// IsPrecondition reports whether err is a request problem rather than a
// failure of the gateway.
func IsPrecondition(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, stream.ErrMissingSessionID) ||
		errors.Is(err, stream.ErrMissingBearerToken)
}
