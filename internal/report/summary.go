// Package report computes run summaries from flattened register records.
// The numbers feed the completion panel and run history, never the
// exported workbooks, which keep their fixed two-sheet shape.
package report

import (
	"strings"

	"github.com/montanaflynn/stats"

	"difcregistry/domain/registry"
)

// Summary describes one completed list phase.
type Summary struct {
	TotalFetched   int
	TotalFiltered  int
	CategoryCounts map[string]int

	// Descriptive stats over license activities per company.
	ActivityMean   float64
	ActivityMedian float64
	ActivityStdDev float64
}

// Summarize computes a Summary over the flattened (pre-filter) records.
// TotalFiltered is set separately by the caller since filtering happens
// after flattening.
func Summarize(flattened []registry.Record, filteredCount int) Summary {
	s := Summary{
		TotalFetched:   len(flattened),
		TotalFiltered:  filteredCount,
		CategoryCounts: make(map[string]int),
	}

	samples := make([]float64, 0, len(flattened))
	for _, rec := range flattened {
		category := rec.CompanyType()
		if category == "" {
			category = "Unknown"
		}
		s.CategoryCounts[category]++
		samples = append(samples, float64(activityCount(rec)))
	}

	// The stats library errors on empty input; a zero summary is fine then.
	if len(samples) > 0 {
		s.ActivityMean, _ = stats.Mean(samples)
		s.ActivityMedian, _ = stats.Median(samples)
		s.ActivityStdDev, _ = stats.StandardDeviation(samples)
	}
	return s
}

// activityCount counts entries in the derived License_Activities field.
func activityCount(rec registry.Record) int {
	joined, _ := rec["License_Activities"].(string)
	if joined == "" {
		return 0
	}
	return strings.Count(joined, ";") + 1
}
