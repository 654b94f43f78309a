package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"difcregistry/domain/core"
	"difcregistry/internal/errors"
	"difcregistry/ports"
)

// RunRepository persists export-run history. It is an audit trail only:
// the pipeline never reads it back for resumption or caching.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a run history repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS export_runs (
	id             TEXT PRIMARY KEY,
	target_count   INTEGER NOT NULL,
	company_type   TEXT NOT NULL,
	fetched_count  INTEGER NOT NULL,
	filtered_count INTEGER NOT NULL,
	detail_count   INTEGER NOT NULL,
	status         TEXT NOT NULL,
	started_at     TIMESTAMPTZ NOT NULL,
	completed_at   TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the export_runs table if it does not exist
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to ensure export_runs schema")
	}
	return nil
}

// runRow maps a run record to its table shape
type runRow struct {
	ID            string    `db:"id"`
	TargetCount   int       `db:"target_count"`
	CompanyType   string    `db:"company_type"`
	FetchedCount  int       `db:"fetched_count"`
	FilteredCount int       `db:"filtered_count"`
	DetailCount   int       `db:"detail_count"`
	Status        string    `db:"status"`
	StartedAt     time.Time `db:"started_at"`
	CompletedAt   time.Time `db:"completed_at"`
}

// RecordRun inserts one completed run
func (r *RunRepository) RecordRun(ctx context.Context, rec ports.RunRecord) error {
	row := runRow{
		ID:            rec.ID.String(),
		TargetCount:   rec.TargetCount,
		CompanyType:   rec.CompanyType,
		FetchedCount:  rec.FetchedCount,
		FilteredCount: rec.FilteredCount,
		DetailCount:   rec.DetailCount,
		Status:        string(rec.Status),
		StartedAt:     rec.StartedAt,
		CompletedAt:   rec.CompletedAt,
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO export_runs
			(id, target_count, company_type, fetched_count, filtered_count, detail_count, status, started_at, completed_at)
		VALUES
			(:id, :target_count, :company_type, :fetched_count, :filtered_count, :detail_count, :status, :started_at, :completed_at)`,
		row)
	if err != nil {
		return errors.Wrap(err, "failed to record run")
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, target_count, company_type, fetched_count, filtered_count, detail_count, status, started_at, completed_at
		FROM export_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}

	records := make([]ports.RunRecord, len(rows))
	for i, row := range rows {
		records[i] = ports.RunRecord{
			ID:            core.RunID(row.ID),
			TargetCount:   row.TargetCount,
			CompanyType:   row.CompanyType,
			FetchedCount:  row.FetchedCount,
			FilteredCount: row.FilteredCount,
			DetailCount:   row.DetailCount,
			Status:        ports.RunStatus(row.Status),
			StartedAt:     row.StartedAt,
			CompletedAt:   row.CompletedAt,
		}
	}
	return records, nil
}
