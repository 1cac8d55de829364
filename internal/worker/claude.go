package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// Approximate Sonnet pricing per million tokens.
const (
	inputCostPerMTok  = 3.0
	outputCostPerMTok = 15.0
)

// ClaudeConfig configures a ClaudeWorker.
type ClaudeConfig struct {
	// Name identifies the worker; defaults to "claude-<capability>".
	Name string
	// Capability is the label this worker advertises.
	Capability models.Capability
	// Model is the Claude model to use.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// MaxTokens caps the response length. Defaults to 2048.
	MaxTokens int64
	// UseAWSBedrock routes calls through AWS Bedrock instead of the API.
	UseAWSBedrock bool
	// AWSRegion is the Bedrock region (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name.
	AWSProfile string
}

// ClaudeWorker executes tasks through the Anthropic API. The worker is
// stateless: each Execute call is an independent request built from the
// task alone.
type ClaudeWorker struct {
	name       string
	capability models.Capability
	client     anthropic.Client
	model      anthropic.Model
	maxTokens  int64
}

// NewClaudeWorker creates a worker backed by the Anthropic API or Bedrock.
func NewClaudeWorker(cfg ClaudeConfig) (*ClaudeWorker, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	name := cfg.Name
	if name == "" {
		name = "claude-" + string(cfg.Capability)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	return &ClaudeWorker{
		name:       name,
		capability: cfg.Capability,
		client:     anthropic.NewClient(opts...),
		model:      model,
		maxTokens:  maxTokens,
	}, nil
}

// Name implements Worker.
func (w *ClaudeWorker) Name() string { return w.name }

// Capability implements Worker.
func (w *ClaudeWorker) Capability() models.Capability { return w.capability }

// Execute implements Worker. The model is asked for a structured JSON
// object carrying the result payload and a confidence score.
func (w *ClaudeWorker) Execute(ctx context.Context, task *models.Task) (*models.TaskResult, error) {
	prompt := buildPrompt(w.capability, task)

	start := time.Now()
	reply, usage, err := w.complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	payload, confidence, err := parseStructuredResponse(reply)
	if err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	result := models.NewResult(task.ID, payload)
	result.Confidence = confidence
	result.ProcessingTime = time.Since(start)
	result.TokensUsed = usage.InputTokens + usage.OutputTokens
	result.Cost = float64(usage.InputTokens)/1_000_000*inputCostPerMTok +
		float64(usage.OutputTokens)/1_000_000*outputCostPerMTok
	result.Metadata = map[string]any{
		"worker":     w.name,
		"capability": string(w.capability),
		"model":      string(w.model),
	}
	return result, nil
}

// Complete sends one free-form prompt through the model and returns the
// text reply. Used by callers that want raw completions, like the planner.
func (w *ClaudeWorker) Complete(ctx context.Context, system, prompt string) (string, error) {
	reply, _, err := w.complete(ctx, system, prompt)
	return reply, err
}

// complete issues one message request and concatenates the text blocks of
// the reply.
func (w *ClaudeWorker) complete(ctx context.Context, system, prompt string) (string, anthropic.Usage, error) {
	resp, err := w.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     w.model,
		MaxTokens: w.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", anthropic.Usage{}, fmt.Errorf("anthropic API call: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}
	return text.String(), resp.Usage, nil
}

const systemPrompt = `You are a specialized task worker. Respond ONLY with a single JSON object:
{"result": {...}, "confidence": <float 0..1>, "confidence_reasoning": "<short>"}
No prose outside the JSON object.`

// buildPrompt renders the task into a worker prompt.
func buildPrompt(capability models.Capability, task *models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Capability: %s\nObjective: %s\n", capability, task.Objective)
	if len(task.Data) > 0 {
		if data, err := json.Marshal(task.Data); err == nil {
			fmt.Fprintf(&b, "Data: %s\n", data)
		}
	}
	if len(task.Constraints.Dependencies) > 0 {
		fmt.Fprintf(&b, "Prerequisite task IDs: %s\n", strings.Join(task.Constraints.Dependencies, ", "))
	}
	return b.String()
}

// parseStructuredResponse extracts the result payload and confidence score
// from the model's JSON reply. Replies wrapped in markdown fences are
// unwrapped first.
func parseStructuredResponse(raw string) (map[string]any, float64, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed struct {
		Result     map[string]any `json:"result"`
		Confidence *float64       `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, 0, fmt.Errorf("invalid JSON: %w", err)
	}

	confidence := 1.0
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}
	if confidence < 0 || confidence > 1 {
		return nil, 0, fmt.Errorf("confidence %f out of range [0,1]", confidence)
	}

	return parsed.Result, confidence, nil
}
