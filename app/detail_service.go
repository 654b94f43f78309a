package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"difcregistry/adapters/excel"
	"difcregistry/domain/registry"
	"difcregistry/internal/errors"
	"difcregistry/ports"
)

// DetailService runs the second phase: fetch the full detail record for
// each filtered company and export the Step 2 workbook. A failed or
// shapeless detail fetch skips the record entirely; no partial row is ever
// emitted for either sheet.
type DetailService struct {
	client  ports.RegistryClient
	delay   time.Duration
	workers int
}

// DetailConfig holds pacing settings for the detail phase. Workers above 1
// enables bounded-concurrency fetching; output row order stays the input
// order either way.
type DetailConfig struct {
	RequestDelay time.Duration
	Workers      int
}

// DetailResult is the Step 2 output.
type DetailResult struct {
	Workbook []byte
	Fetched  int // records that produced rows
	Skipped  int // records skipped (missing Id, fetch failure, missing item)
}

// detailRows holds both row shapes for one successfully fetched record.
type detailRows struct {
	raw        excel.Row
	normalized excel.Row
}

// NewDetailService creates the detail phase service.
func NewDetailService(client ports.RegistryClient, config DetailConfig) *DetailService {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &DetailService{
		client:  client,
		delay:   config.RequestDelay,
		workers: config.Workers,
	}
}

// Run executes the detail phase over the filtered records in order.
// Progress counts every input record, skipped or not, against the full
// input length. Run fails only on cancellation or a workbook render
// failure; per-record failures are reported through the sink and skipped.
func (s *DetailService) Run(ctx context.Context, records []registry.Record, sink ports.ProgressSink) (*DetailResult, error) {
	sink.Status(fmt.Sprintf("Step 2 - fetching detailed info for %d companies", len(records)))

	// Results are indexed by input position so concurrent fetching cannot
	// reorder the output rows.
	slots := make([]*detailRows, len(records))

	var err error
	if s.workers > 1 {
		err = s.fetchConcurrent(ctx, records, slots, sink)
	} else {
		err = s.fetchSequential(ctx, records, slots, sink)
	}
	if err != nil {
		return nil, err
	}

	rawRows := make([]excel.Row, 0, len(records))
	normalizedRows := make([]excel.Row, 0, len(records))
	for _, slot := range slots {
		if slot == nil {
			continue
		}
		rawRows = append(rawRows, slot.raw)
		normalizedRows = append(normalizedRows, slot.normalized)
	}

	wb := excel.NewWorkbook()
	wb.AddSheet("RawData", rawRows, []string{"ID"})
	wb.AddSheet("FilteredData", normalizedRows, registry.NormalizedColumns)
	blob, err := wb.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build step 2 workbook")
	}

	fetched := len(rawRows)
	sink.Status(fmt.Sprintf("Step 2 done: %d detailed, %d skipped", fetched, len(records)-fetched))

	return &DetailResult{
		Workbook: blob,
		Fetched:  fetched,
		Skipped:  len(records) - fetched,
	}, nil
}

func (s *DetailService) fetchSequential(ctx context.Context, records []registry.Record, slots []*detailRows, sink ports.ProgressSink) error {
	total := len(records)
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		id := rec.ID()
		if id == "" {
			// Missing identifier: skip silently, but the record still
			// counts toward progress.
			sink.Progress(float64(i+1) / float64(total))
			continue
		}

		sink.Status(fmt.Sprintf("Fetching details: %s", id))
		s.fetchInto(ctx, id, i, slots, sink)
		sink.Progress(float64(i+1) / float64(total))

		if i < total-1 && !sleepCtx(ctx, s.delay) {
			return ctx.Err()
		}
	}
	return nil
}

func (s *DetailService) fetchConcurrent(ctx context.Context, records []registry.Record, slots []*detailRows, sink ports.ProgressSink) error {
	total := len(records)
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if id := rec.ID(); id != "" {
				sink.Status(fmt.Sprintf("Fetching details: %s", id))
				s.fetchInto(gctx, id, i, slots, sink)
				// Per-worker pacing keeps the self-imposed rate limit
				// proportional under concurrency.
				sleepCtx(gctx, s.delay)
			}
			sink.Progress(float64(processed.Add(1)) / float64(total))
			return nil
		})
	}
	return g.Wait()
}

// fetchInto fetches one detail record and fills its result slot. Failures
// leave the slot nil so neither sheet gains a row for this record.
func (s *DetailService) fetchInto(ctx context.Context, id string, idx int, slots []*detailRows, sink ports.ProgressSink) {
	item, err := s.client.FetchDetail(ctx, id)
	if err != nil {
		sink.Status(fmt.Sprintf("Skipping %s: %v", id, err))
		return
	}
	slots[idx] = &detailRows{
		raw:        excel.Row(registry.ExtractRaw(item, id)),
		normalized: excel.Row(registry.ExtractNormalized(item, id)),
	}
}
