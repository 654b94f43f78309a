package app

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"difcregistry/domain/registry"
	"difcregistry/internal/errors"
	"difcregistry/ports"
)

// fakeClient serves canned pages and detail records, recording calls.
type fakeClient struct {
	pages       [][]registry.Record
	pageErr     map[int]error // keyed by call index
	pageOffsets []int

	details    map[string]registry.Record
	detailErr  map[string]error
	detailIDs  []string
	pageCalls  int
	detailCall int
}

func (f *fakeClient) FetchPage(ctx context.Context, offset int) ([]registry.Record, error) {
	call := f.pageCalls
	f.pageCalls++
	f.pageOffsets = append(f.pageOffsets, offset)
	if err := f.pageErr[call]; err != nil {
		return nil, err
	}
	if call >= len(f.pages) {
		return nil, nil
	}
	return f.pages[call], nil
}

func (f *fakeClient) FetchDetail(ctx context.Context, recordID string) (registry.Record, error) {
	f.detailCall++
	f.detailIDs = append(f.detailIDs, recordID)
	if err := f.detailErr[recordID]; err != nil {
		return nil, err
	}
	item, ok := f.details[recordID]
	if !ok {
		return nil, errors.ShapeError("no PublicRegistry entry for record " + recordID)
	}
	return item, nil
}

// progressRecorder captures sink calls for assertions.
type progressRecorder struct {
	fractions []float64
	statuses  []string
}

func (p *progressRecorder) Progress(f float64) { p.fractions = append(p.fractions, f) }
func (p *progressRecorder) Status(s string)    { p.statuses = append(p.statuses, s) }

func page(n int, companyType string, start int) []registry.Record {
	recs := make([]registry.Record, n)
	for i := range recs {
		recs[i] = registry.Record{
			"Id":              fmt.Sprintf("C%04d", start+i),
			"Company_Type__c": companyType,
		}
	}
	return recs
}

func newLister(client ports.RegistryClient, pageSize int) *ListerService {
	// Zero delay keeps the paging loop fast under test.
	return NewListerService(client, ListerConfig{PageSize: pageSize})
}

func TestLister_TruncatesToTarget(t *testing.T) {
	client := &fakeClient{pages: [][]registry.Record{
		page(200, registry.TypeFinancial, 0),
		page(200, registry.TypeFinancial, 200),
	}}

	result, err := newLister(client, 200).Run(context.Background(), 250, registry.TypeAll, ports.NopProgress)
	require.NoError(t, err)

	assert.Len(t, result.Fetched, 250)
	assert.Len(t, result.Filtered, 250)
	assert.Equal(t, []int{0, 200}, client.pageOffsets)
}

func TestLister_StopsWhenUpstreamRunsDry(t *testing.T) {
	client := &fakeClient{pages: [][]registry.Record{
		page(200, registry.TypeFinancial, 0),
		page(37, registry.TypeFinancial, 200),
		{}, // register exhausted
	}}

	result, err := newLister(client, 200).Run(context.Background(), 1000, registry.TypeAll, ports.NopProgress)
	require.NoError(t, err)

	// min(target, what the upstream actually had).
	assert.Len(t, result.Fetched, 237)
	assert.Equal(t, 3, client.pageCalls)
}

func TestLister_FetchFailureKeepsPartialResults(t *testing.T) {
	client := &fakeClient{
		pages:   [][]registry.Record{page(200, registry.TypeFinancial, 0)},
		pageErr: map[int]error{1: errors.ExternalServiceError("register", fmt.Errorf("status 502"))},
	}

	rec := &progressRecorder{}
	result, err := newLister(client, 200).Run(context.Background(), 500, registry.TypeAll, rec)
	require.NoError(t, err, "a page failure must not fail the phase")

	assert.Len(t, result.Fetched, 200)
	assert.NotEmpty(t, result.Workbook)

	var warned bool
	for _, s := range rec.statuses {
		if strings.Contains(s, "offset 200") {
			warned = true
		}
	}
	assert.True(t, warned, "operator should be told which offset failed, statuses: %v", rec.statuses)
}

func TestLister_ProgressPerPage(t *testing.T) {
	client := &fakeClient{pages: [][]registry.Record{
		page(200, registry.TypeFinancial, 0),
		page(200, registry.TypeFinancial, 200),
	}}

	rec := &progressRecorder{}
	_, err := newLister(client, 200).Run(context.Background(), 400, registry.TypeAll, rec)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.5, 1.0}, rec.fractions)
}

func TestLister_ProgressCapsAtOne(t *testing.T) {
	client := &fakeClient{pages: [][]registry.Record{page(200, registry.TypeFinancial, 0)}}

	rec := &progressRecorder{}
	_, err := newLister(client, 200).Run(context.Background(), 150, registry.TypeAll, rec)
	require.NoError(t, err)

	require.Len(t, rec.fractions, 1)
	assert.Equal(t, 1.0, rec.fractions[0])
}

func TestLister_FilterScenario(t *testing.T) {
	client := &fakeClient{pages: [][]registry.Record{{
		{"Id": "A", "Company_Type__c": registry.TypeFinancial},
		{"Id": "B", "Company_Type__c": registry.TypeNonFinancial},
		{"Id": "C", "Company_Type__c": registry.TypeFinancial},
	}}}

	rec := &progressRecorder{}
	result, err := newLister(client, 200).Run(context.Background(), 3, registry.TypeFinancial, rec)
	require.NoError(t, err)

	require.Len(t, result.Filtered, 2)
	assert.Equal(t, "A", result.Filtered[0].ID())
	assert.Equal(t, "C", result.Filtered[1].ID())
	// Progress is reported during paging only, never during filtering.
	assert.Equal(t, []float64{1.0}, rec.fractions)
}

func TestLister_NoFilterMatchesIsValid(t *testing.T) {
	client := &fakeClient{pages: [][]registry.Record{page(5, registry.TypeFinancial, 0)}}

	result, err := newLister(client, 200).Run(context.Background(), 5, registry.TypeWealthAsset, ports.NopProgress)
	require.NoError(t, err)
	assert.Empty(t, result.Filtered)
	assert.NotEmpty(t, result.Workbook)
}

func TestLister_WorkbookSheets(t *testing.T) {
	client := &fakeClient{pages: [][]registry.Record{{
		{"Id": "A", "Company_Type__c": registry.TypeFinancial},
		{"Id": "B", "Company_Type__c": registry.TypeNonFinancial},
	}}}

	result, err := newLister(client, 200).Run(context.Background(), 2, registry.TypeFinancial, ports.NopProgress)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(result.Workbook))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"RawData", "FilteredData"}, f.GetSheetList())

	raw, err := f.GetRows("RawData")
	require.NoError(t, err)
	assert.Len(t, raw, 3) // header + both records, unfiltered

	filtered, err := f.GetRows("FilteredData")
	require.NoError(t, err)
	require.Len(t, filtered, 2) // header + the one financial record
	// Flattened sheet carries the derived columns.
	assert.Contains(t, filtered[0], "License_Activities")
	assert.Contains(t, filtered[0], "DIFC_URL")
}

func TestLister_RejectsInvalidInput(t *testing.T) {
	client := &fakeClient{}
	svc := newLister(client, 200)

	_, err := svc.Run(context.Background(), 0, registry.TypeAll, ports.NopProgress)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.Run(context.Background(), 10, "Bogus Category", ports.NopProgress)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Zero(t, client.pageCalls)
}
