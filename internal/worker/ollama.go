package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// OllamaWorker executes tasks against a local Ollama server. It speaks the
// same structured-JSON protocol as ClaudeWorker, so the two are
// interchangeable behind the Worker interface (and in consensus runs).
type OllamaWorker struct {
	name       string
	capability models.Capability
	client     *api.Client
	model      string
}

// NewOllamaWorker creates a worker for the given model, connecting to the
// server named by OLLAMA_HOST (default localhost).
func NewOllamaWorker(name string, capability models.Capability, model string) (*OllamaWorker, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	if name == "" {
		name = "ollama-" + string(capability)
	}
	return &OllamaWorker{
		name:       name,
		capability: capability,
		client:     client,
		model:      model,
	}, nil
}

// Name implements Worker.
func (w *OllamaWorker) Name() string { return w.name }

// Capability implements Worker.
func (w *OllamaWorker) Capability() models.Capability { return w.capability }

// Execute implements Worker.
func (w *OllamaWorker) Execute(ctx context.Context, task *models.Task) (*models.TaskResult, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  w.model,
		System: systemPrompt,
		Prompt: buildPrompt(w.capability, task),
		Stream: &stream,
	}

	start := time.Now()
	var text strings.Builder
	var promptTokens, evalTokens int
	err := w.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		text.WriteString(resp.Response)
		if resp.Done {
			promptTokens = resp.PromptEvalCount
			evalTokens = resp.EvalCount
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}

	payload, confidence, err := parseStructuredResponse(text.String())
	if err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	result := models.NewResult(task.ID, payload)
	result.Confidence = confidence
	result.ProcessingTime = time.Since(start)
	result.TokensUsed = int64(promptTokens + evalTokens)
	result.Metadata = map[string]any{
		"worker":     w.name,
		"capability": string(w.capability),
		"model":      w.model,
	}
	return result, nil
}
