package service

import (
	"context"
	"sync"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/adapter/agentcore"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/adapter/lambda"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/config"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/policy"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/repository"
)

// Publisher fans a message out to the subscribers of a session.
type Publisher interface {
	BroadcastJSON(sessionID string, v interface{}) error
}

type Service struct {
	store        repository.Store
	runtime      agentcore.Runtime
	invoker      lambda.Invoker
	policyEngine *policy.Engine
	publisher    Publisher
	config       *config.Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	streams map[string]*streamEntry
}

// New wires the service. invoker may be nil when no file function is
// configured.
func New(store repository.Store, runtime agentcore.Runtime, invoker lambda.Invoker, policyEngine *policy.Engine, publisher Publisher, cfg *config.Config) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:        store,
		runtime:      runtime,
		invoker:      invoker,
		policyEngine: policyEngine,
		publisher:    publisher,
		config:       cfg,
		ctx:          ctx,
		cancel:       cancel,
		streams:      make(map[string]*streamEntry),
	}
}

// Shutdown cancels running streams and waits for them to record their
// outcome, or for ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
