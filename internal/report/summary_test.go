package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"difcregistry/domain/registry"
)

func flatRecord(companyType, activities string) registry.Record {
	return registry.Record{
		"Company_Type__c":    companyType,
		"License_Activities": activities,
	}
}

func TestSummarize(t *testing.T) {
	records := []registry.Record{
		flatRecord(registry.TypeFinancial, "Banking; Custody"),
		flatRecord(registry.TypeFinancial, "Advisory"),
		flatRecord(registry.TypeNonFinancial, ""),
		flatRecord("", "Banking; Custody; Advisory"),
	}

	s := Summarize(records, 2)

	assert.Equal(t, 4, s.TotalFetched)
	assert.Equal(t, 2, s.TotalFiltered)
	assert.Equal(t, map[string]int{
		registry.TypeFinancial:    2,
		registry.TypeNonFinancial: 1,
		"Unknown":                 1,
	}, s.CategoryCounts)

	// Activity counts are 2, 1, 0, 3.
	assert.InDelta(t, 1.5, s.ActivityMean, 1e-9)
	assert.InDelta(t, 1.5, s.ActivityMedian, 1e-9)
	assert.Greater(t, s.ActivityStdDev, 0.0)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, 0)
	assert.Zero(t, s.TotalFetched)
	assert.Zero(t, s.ActivityMean)
	assert.Empty(t, s.CategoryCounts)
}
