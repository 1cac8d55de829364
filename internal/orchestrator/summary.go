package orchestrator

import (
	"time"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// RunSummary aggregates metrics over one run's results.
type RunSummary struct {
	// TaskCount is the number of results produced.
	TaskCount int
	// Successful counts tasks that reached complete status.
	Successful int
	// Failed counts tasks that reached failed status.
	Failed int
	// TotalTime is the sum of per-task processing durations.
	TotalTime time.Duration
	// TotalTokens is the sum of model tokens consumed.
	TotalTokens int64
	// TotalCost is the estimated total cost in USD.
	TotalCost float64
}

// Summarize computes aggregate metrics for a set of results.
func Summarize(results []*models.TaskResult) RunSummary {
	var s RunSummary
	s.TaskCount = len(results)
	for _, r := range results {
		switch r.Status {
		case models.TaskStatusComplete:
			s.Successful++
		case models.TaskStatusFailed:
			s.Failed++
		}
		s.TotalTime += r.ProcessingTime
		s.TotalTokens += r.TokensUsed
		s.TotalCost += r.Cost
	}
	return s
}
