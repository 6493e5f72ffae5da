// Package repository persists stream runs and their parsed events.
package repository

import (
	"context"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
)

// Store defines the persistence interface.
type Store interface {
	// Run operations
	CreateStreamRun(ctx context.Context, run *domain.StreamRun) error
	GetStreamRun(ctx context.Context, runID string) (*domain.StreamRun, error)
	GetLatestRunForSession(ctx context.Context, sessionID string) (*domain.StreamRun, error)
	ListStreamRuns(ctx context.Context, sessionID string, limit int) ([]domain.StreamRun, error)
	UpdateStreamRunCompleted(ctx context.Context, runID string, status domain.StreamStatus, errMsg string, agents map[domain.AgentID]string) error

	// Event operations
	CreateStreamEvent(ctx context.Context, event *domain.StreamEventRecord) error
	GetStreamEvents(ctx context.Context, runID string, afterSeq int64, limit int) ([]domain.StreamEventRecord, error)

	Close() error
}
