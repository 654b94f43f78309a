package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"difcregistry/app"
	"difcregistry/domain/core"
	"difcregistry/internal"
	"difcregistry/internal/errors"
	"difcregistry/internal/report"
	"difcregistry/ports"
)

// RunState describes where an export run is in its lifecycle.
type RunState string

const (
	StatePending   RunState = "pending"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateFailed    RunState = "failed"
)

// Operator input bounds for the target record count.
const (
	MinTargetCount = 10
	MaxTargetCount = 5000
)

// Run is the in-memory state of one export run, including its artifacts.
type Run struct {
	ID          core.RunID
	TargetCount int
	CompanyType string

	State      RunState
	Phase      string // "step1" or "step2"
	Progress   float64
	StatusText string
	Error      string

	Step1         []byte
	Step2         []byte
	FilteredCount int
	DetailCount   int
	Summary       *report.Summary

	StartedAt   time.Time
	CompletedAt time.Time
}

// Step1Ready reports whether the Step 1 workbook can be downloaded.
func (r *Run) Step1Ready() bool { return len(r.Step1) > 0 }

// Step2Ready reports whether the Step 2 workbook can be downloaded.
func (r *Run) Step2Ready() bool { return len(r.Step2) > 0 }

// Finished reports whether the run reached a terminal state.
func (r *Run) Finished() bool { return r.State == StateCompleted || r.State == StateFailed }

// RunManager owns all in-memory runs and executes them in background
// goroutines, one per run. Workbook blobs live here until the process
// exits; nothing is persisted except the optional history entry.
type RunManager struct {
	mu   sync.RWMutex
	runs map[core.RunID]*Run

	lister   *app.ListerService
	detailer *app.DetailService
	history  ports.RunRepository // nil when run history is disabled
	hub      *EventHub
	logger   *internal.Logger
}

// NewRunManager creates a run manager. history may be nil.
func NewRunManager(lister *app.ListerService, detailer *app.DetailService, history ports.RunRepository, hub *EventHub, logger *internal.Logger) *RunManager {
	return &RunManager{
		runs:     make(map[core.RunID]*Run),
		lister:   lister,
		detailer: detailer,
		history:  history,
		hub:      hub,
		logger:   logger,
	}
}

// Start validates the operator inputs and launches a run in the background.
func (m *RunManager) Start(targetCount int, companyType string) (core.RunID, error) {
	if targetCount < MinTargetCount || targetCount > MaxTargetCount {
		return "", errors.InvalidInput(fmt.Sprintf("record count must be between %d and %d", MinTargetCount, MaxTargetCount))
	}

	run := &Run{
		ID:          core.NewRunID(),
		TargetCount: targetCount,
		CompanyType: companyType,
		State:       StatePending,
		Phase:       "step1",
		StartedAt:   time.Now(),
	}

	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()

	go m.execute(run.ID)
	return run.ID, nil
}

// Get returns a snapshot of one run.
func (m *RunManager) Get(id core.RunID) (Run, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// Recent returns snapshots of all in-memory runs, newest first.
func (m *RunManager) Recent() []Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Run, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, *run)
	}
	sortRunsNewestFirst(out)
	return out
}

func sortRunsNewestFirst(runs []Run) {
	for i := 1; i < len(runs); i++ {
		for j := i; j > 0 && runs[j].StartedAt.After(runs[j-1].StartedAt); j-- {
			runs[j], runs[j-1] = runs[j-1], runs[j]
		}
	}
}

// update mutates a run under lock and broadcasts the new state.
func (m *RunManager) update(id core.RunID, fn func(*Run)) {
	m.mu.Lock()
	run, ok := m.runs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	fn(run)
	event := RunEvent{
		RunID:     run.ID.String(),
		Phase:     run.Phase,
		State:     string(run.State),
		Progress:  run.Progress,
		Status:    run.StatusText,
		Timestamp: time.Now(),
	}
	m.mu.Unlock()

	m.hub.Publish(event)
}

// sink builds a ProgressSink wired to one run. Safe for concurrent workers:
// all mutation funnels through update's lock.
func (m *RunManager) sink(id core.RunID) ports.ProgressSink {
	return ports.ProgressFuncs{
		OnProgress: func(fraction float64) {
			m.update(id, func(r *Run) { r.Progress = fraction })
		},
		OnStatus: func(message string) {
			m.logger.Info("run %s: %s", id, message)
			m.update(id, func(r *Run) { r.StatusText = message })
		},
	}
}

// execute runs both phases for one run and records the outcome.
func (m *RunManager) execute(id core.RunID) {
	ctx := context.Background()
	snapshot, ok := m.Get(id)
	if !ok {
		return
	}

	sink := m.sink(id)
	m.update(id, func(r *Run) { r.State = StateRunning })

	listResult, err := m.lister.Run(ctx, snapshot.TargetCount, snapshot.CompanyType, sink)
	if err != nil {
		m.fail(id, err)
		return
	}

	flatSummary := report.Summarize(listResult.Flattened, len(listResult.Filtered))
	m.update(id, func(r *Run) {
		r.Step1 = listResult.Workbook
		r.FilteredCount = len(listResult.Filtered)
		r.Summary = &flatSummary
		r.Phase = "step2"
		r.Progress = 0
	})

	if len(listResult.Filtered) > 0 {
		detailResult, err := m.detailer.Run(ctx, listResult.Filtered, sink)
		if err != nil {
			m.fail(id, err)
			return
		}
		m.update(id, func(r *Run) {
			r.Step2 = detailResult.Workbook
			r.DetailCount = detailResult.Fetched
		})
	} else {
		sink.Status("No companies matched the selected category; skipping detail fetch")
	}

	m.update(id, func(r *Run) {
		r.State = StateCompleted
		r.Progress = 1
		r.CompletedAt = time.Now()
	})
	m.recordHistory(id, ports.RunCompleted)
}

func (m *RunManager) fail(id core.RunID, err error) {
	m.logger.Error("run %s failed: %v", id, err)
	m.update(id, func(r *Run) {
		r.State = StateFailed
		r.Error = err.Error()
		r.CompletedAt = time.Now()
	})
	m.recordHistory(id, ports.RunFailed)
}

func (m *RunManager) recordHistory(id core.RunID, status ports.RunStatus) {
	if m.history == nil {
		return
	}
	run, ok := m.Get(id)
	if !ok {
		return
	}

	rec := ports.RunRecord{
		ID:            run.ID,
		TargetCount:   run.TargetCount,
		CompanyType:   run.CompanyType,
		FilteredCount: run.FilteredCount,
		DetailCount:   run.DetailCount,
		Status:        status,
		StartedAt:     run.StartedAt,
		CompletedAt:   run.CompletedAt,
	}
	if run.Summary != nil {
		rec.FetchedCount = run.Summary.TotalFetched
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.history.RecordRun(ctx, rec); err != nil {
		m.logger.Warn("failed to record run history for %s: %v", id, err)
	}
}
