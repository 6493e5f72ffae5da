package agentcore

import (
	"log"
	"time"
)

const (
	// ModeMock selects the canned runtime instead of the hosted one.
	ModeMock = "MOCK"
)

// NewRuntime returns the hosted runtime client, or a MockRuntime when mode is MOCK.
func NewRuntime(mode, baseURL, agentARN string, timeout time.Duration) Runtime {
	if mode == ModeMock {
		log.Println("INFO: LENDING_MODE=MOCK detected, using mock agent runtime")
		return NewMockRuntime(150 * time.Millisecond)
	}
	return NewClient(baseURL, agentARN, timeout)
}
