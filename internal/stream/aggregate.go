package stream

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
)

// Aggregate accumulates each agent's transcript. Buffers only grow while a
// stream is active; Reset empties all of them for a new stream. One
// goroutine applies events while any number may read.
type Aggregate struct {
	mu      sync.RWMutex
	buffers map[domain.AgentID]*strings.Builder
}

// NewAggregate returns an aggregate with an empty buffer for every agent.
func NewAggregate() *Aggregate {
	a := &Aggregate{}
	a.Reset()
	return a
}

// Reset clears every agent buffer.
func (a *Aggregate) Reset() {
	buffers := make(map[domain.AgentID]*strings.Builder, len(domain.AllAgents))
	for _, id := range domain.AllAgents {
		buffers[id] = &strings.Builder{}
	}
	a.mu.Lock()
	a.buffers = buffers
	a.mu.Unlock()
}

// Apply folds ev into the aggregate and reports whether a buffer changed.
// Error and unknown events, and events naming an agent outside the
// pipeline, leave it untouched.
func (a *Aggregate) Apply(ev Event) bool {
	var agent domain.AgentID
	var text string

	switch e := ev.(type) {
	case AgentStart:
		agent, text = e.Agent, StartMarker(e.Timestamp, e.Agent)
	case AgentChunk:
		agent, text = e.Agent, e.Data
	case AgentEnd:
		agent, text = e.Agent, EndMarker(e.Timestamp, e.Agent)
	case ErrorEvent, Unknown:
		return false
	}
	if text == "" {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	buf, ok := a.buffers[agent]
	if !ok {
		return false
	}
	buf.WriteString(text)
	return true
}

// Get returns the transcript accumulated for one agent.
func (a *Aggregate) Get(agent domain.AgentID) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if buf, ok := a.buffers[agent]; ok {
		return buf.String()
	}
	return ""
}

// Snapshot copies every agent's transcript.
func (a *Aggregate) Snapshot() map[domain.AgentID]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[domain.AgentID]string, len(a.buffers))
	for id, buf := range a.buffers {
		out[id] = buf.String()
	}
	return out
}

// StartMarker is the line appended when an agent starts.
func StartMarker(timestamp string, agent domain.AgentID) string {
	return fmt.Sprintf("\n[%s] Agent %s started\n", timestamp, agent)
}

// EndMarker is the line appended when an agent completes.
func EndMarker(timestamp string, agent domain.AgentID) string {
	return fmt.Sprintf("\n[%s] Agent %s completed\n", timestamp, agent)
}
