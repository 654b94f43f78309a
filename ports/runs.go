package ports

import (
	"context"
	"time"

	"difcregistry/domain/core"
)

// RunStatus is the terminal state of an export run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the audit entry persisted for one completed export run.
// It records what happened, never pipeline state: nothing is resumed from it.
type RunRecord struct {
	ID            core.RunID
	TargetCount   int
	CompanyType   string
	FetchedCount  int
	FilteredCount int
	DetailCount   int
	Status        RunStatus
	StartedAt     time.Time
	CompletedAt   time.Time
}

// RunRepository persists run history for audit display.
type RunRepository interface {
	RecordRun(ctx context.Context, rec RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
