package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"difcregistry/adapters/excel"
	"difcregistry/domain/registry"
	"difcregistry/internal/errors"
	"difcregistry/ports"
)

// ListerService runs the first phase: page through the register's list
// endpoint until the target count is reached, flatten, filter, and export
// the Step 1 workbook. Fetching is strictly sequential with a fixed delay
// between pages.
type ListerService struct {
	client   ports.RegistryClient
	pageSize int
	delay    time.Duration
}

// ListerConfig holds paging and pacing settings for the list phase.
type ListerConfig struct {
	PageSize     int
	RequestDelay time.Duration
}

// ListResult is the Step 1 output: the filtered record list handed to the
// detail phase, the workbook blob, and the raw accumulation counts.
type ListResult struct {
	Fetched   []registry.Record // accumulated summary records, truncated to target
	Flattened []registry.Record // every fetched record with derived fields added
	Filtered  []registry.Record // flattened records surviving the category filter
	Workbook  []byte
}

// NewListerService creates the list phase service.
func NewListerService(client ports.RegistryClient, config ListerConfig) *ListerService {
	if config.PageSize <= 0 {
		config.PageSize = 200
	}
	return &ListerService{
		client:   client,
		pageSize: config.PageSize,
		delay:    config.RequestDelay,
	}
}

// Run executes the list phase. Any page-fetch failure stops paging and
// keeps what was gathered; partial results are always preferred over an
// error. Run itself fails only on invalid input, cancellation, or a
// workbook render failure.
func (s *ListerService) Run(ctx context.Context, targetCount int, companyType string, sink ports.ProgressSink) (*ListResult, error) {
	if targetCount <= 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("target count must be positive, got %d", targetCount))
	}
	if !registry.ValidCompanyType(companyType) {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown company type %q", companyType))
	}

	sink.Status("Step 1 - fetching raw company data")

	var accumulated []registry.Record
	offset := 0
	for len(accumulated) < targetCount {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sink.Status(fmt.Sprintf("Fetching records starting from offset %d", offset))
		page, err := s.client.FetchPage(ctx, offset)
		if err != nil {
			sink.Status(fmt.Sprintf("No data returned for offset %d, stopping: %v", offset, err))
			break
		}
		if len(page) == 0 {
			sink.Status("No companies returned, stopping fetch")
			break
		}

		accumulated = append(accumulated, page...)
		sink.Progress(math.Min(float64(len(accumulated))/float64(targetCount), 1.0))

		if len(accumulated) >= targetCount {
			break
		}
		offset += s.pageSize
		if !sleepCtx(ctx, s.delay) {
			return nil, ctx.Err()
		}
	}

	// Never hand over more than asked for.
	if len(accumulated) > targetCount {
		accumulated = accumulated[:targetCount]
	}

	flattened := make([]registry.Record, len(accumulated))
	for i, rec := range accumulated {
		flattened[i] = registry.Flatten(rec)
	}
	filtered := registry.FilterByType(flattened, companyType)

	wb := excel.NewWorkbook()
	wb.AddSheet("RawData", toRows(accumulated), nil)
	wb.AddSheet("FilteredData", toRows(filtered), nil)
	blob, err := wb.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build step 1 workbook")
	}

	sink.Status(fmt.Sprintf("Step 1 done: %d fetched, %d after %q filter",
		len(accumulated), len(filtered), companyType))

	return &ListResult{
		Fetched:   accumulated,
		Flattened: flattened,
		Filtered:  filtered,
		Workbook:  blob,
	}, nil
}

func toRows(records []registry.Record) []excel.Row {
	rows := make([]excel.Row, len(records))
	for i, rec := range records {
		rows[i] = excel.Row(rec)
	}
	return rows
}

// sleepCtx waits for the delay or context cancellation, reporting whether
// the full delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
