package agentcore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/stream"
)

// MockRuntime streams a canned pipeline run for local development. It
// deliberately mixes plain, double-encoded and concatenated frames.
type MockRuntime struct {
	// Delay is the pause between frames.
	Delay time.Duration
	now   func() time.Time
}

// Ensure MockRuntime implements Runtime.
var _ Runtime = (*MockRuntime)(nil)

// NewMockRuntime creates a mock runtime.
func NewMockRuntime(delay time.Duration) *MockRuntime {
	return &MockRuntime{Delay: delay, now: time.Now}
}

// Invoke returns a body that produces the canned run.
func (m *MockRuntime) Invoke(ctx context.Context, params stream.StartParams) (io.ReadCloser, error) {
	frames := m.frames(params)
	pr, pw := io.Pipe()

	go func() {
		for _, frame := range frames {
			if m.Delay > 0 {
				select {
				case <-ctx.Done():
					pw.CloseWithError(ctx.Err())
					return
				case <-time.After(m.Delay):
				}
			}
			if _, err := io.WriteString(pw, frame); err != nil {
				return
			}
		}
		pw.Close()
	}()

	return pr, nil
}

func (m *MockRuntime) frames(params stream.StartParams) []string {
	now := m.now
	if now == nil {
		now = time.Now
	}
	ts := func() string { return now().UTC().Format(time.RFC3339Nano) }
	event := func(typ domain.EventType, agent domain.AgentID, data string) string {
		ev := domain.AgentSSEEvent{Type: typ, Agent: string(agent), Timestamp: ts()}
		if typ == domain.EventTypeAgentChunk {
			ev.Data = &data
		}
		b, _ := json.Marshal(ev)
		return string(b)
	}
	plain := func(objs ...string) string {
		out := "data: "
		for _, o := range objs {
			out += o
		}
		return out + "\n\n"
	}
	double := func(obj string) string {
		b, _ := json.Marshal(obj)
		return "data: " + string(b) + "\n\n"
	}

	frames := []string{
		": connected\n\n",
		plain(event(domain.EventTypeAgentStart, domain.AgentCoordinator, "")),
		plain(event(domain.EventTypeAgentChunk, domain.AgentCoordinator,
			fmt.Sprintf("Session %s: routing application through the pipeline.\n", params.SessionID))),
	}
	for _, agent := range domain.AllAgents[1:] {
		frames = append(frames,
			double(event(domain.EventTypeAgentStart, agent, "")),
			plain(
				event(domain.EventTypeAgentChunk, agent, fmt.Sprintf("%s assessment in progress", agent)),
				event(domain.EventTypeAgentChunk, agent, "... done.\n"),
			),
			plain(event(domain.EventTypeAgentEnd, agent, "")),
		)
	}
	frames = append(frames,
		plain(event(domain.EventTypeAgentChunk, domain.AgentCoordinator, "Recommendation: APPROVE\n")),
		plain(event(domain.EventTypeAgentEnd, domain.AgentCoordinator, "")),
	)
	return frames
}
