package v1

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/adapter/agentcore"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/adapter/lambda"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/config"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/policy"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/repository"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/service"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/stream"
)

const testFilesARN = "arn:aws:lambda:ap-south-1:123456789012:function:homebuying-files"

type stubRuntime struct {
	mu     sync.Mutex
	body   string
	err    error
	params stream.StartParams
}

func (s *stubRuntime) Invoke(_ context.Context, params stream.StartParams) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.body)), nil
}

func (s *stubRuntime) last() stream.StartParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

var _ agentcore.Runtime = (*stubRuntime)(nil)

type stubInvoker struct {
	result *lambda.Result
	err    error
}

func (s *stubInvoker) Invoke(context.Context, string, []byte) (*lambda.Result, error) {
	return s.result, s.err
}

type stubStats struct{}

func (stubStats) ConnectionCount() int { return 3 }
func (stubStats) SessionCount() int    { return 2 }

func newTestHandler(t *testing.T, runtime *stubRuntime, invoker *stubInvoker) *Handler {
	t.Helper()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	cfg := config.Default()
	cfg.FilesLambdaARN = testFilesARN
	cfg.AgentTimeout = 5 * time.Second

	svc := service.New(repository.NewTestSQLiteStore(t), runtime, invoker, engine, nil, cfg)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return NewHandler(svc, stubStats{})
}
