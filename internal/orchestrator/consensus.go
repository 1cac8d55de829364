package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// runConsensus dispatches one task concurrently to every registered worker
// and selects a single winner by confidence score.
//
// All workers finish (success or failure) before a decision is made. The
// cache is bypassed: consensus exists to collect independent attempts, and
// a shared memo would collapse them into one.
func (e *Engine) runConsensus(ctx context.Context, runID string, task *models.Task) ([]*models.TaskResult, error) {
	workers := e.registry.All()
	attempts := make([]*models.TaskResult, len(workers))

	var wg sync.WaitGroup
	wg.Add(len(workers))
	for i := range workers {
		go func(i int) {
			defer wg.Done()
			attempts[i] = e.executeWith(ctx, runID, workers[i], task, false)
		}(i)
	}
	wg.Wait()

	var scores []float64
	successful := 0
	best := -1
	for i, attempt := range attempts {
		if !attempt.Succeeded() {
			continue
		}
		successful++
		scores = append(scores, attempt.Confidence)
		// Strictly-greater comparison breaks ties by worker order.
		if best < 0 || attempt.Confidence > attempts[best].Confidence {
			best = i
		}
	}

	if best < 0 {
		failure := models.NewFailedResult(task.ID, models.ErrorKindNoWorkersSucceeded, ErrNoWorkersSucceeded.Error())
		failure.Metadata = map[string]any{"attempted_agents": len(workers)}
		e.logger.Log("[engine] run %s: consensus failed, %d workers all failed", runID, len(workers))
		return []*models.TaskResult{failure}, ErrNoWorkersSucceeded
	}

	winner := attempts[best]
	if winner.Metadata == nil {
		winner.Metadata = make(map[string]any)
	}
	winner.Metadata["consensus"] = map[string]any{
		"total_agents":      len(workers),
		"successful_agents": successful,
		"confidence_scores": scores,
	}

	e.emitter.Emit(Event{
		Type:       EventConsensusDecided,
		RunID:      runID,
		TaskID:     task.ID,
		WorkerName: workers[best].Name(),
		Message:    fmt.Sprintf("confidence=%.2f successful=%d/%d", winner.Confidence, successful, len(workers)),
	})
	e.logger.Log("[engine] run %s: consensus winner %s with confidence %.2f", runID, workers[best].Name(), winner.Confidence)

	return []*models.TaskResult{winner}, nil
}
