// Package summary turns a finished call transcript into a short note for the
// dispatcher. It plays no part in understanding the customer during the call.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/llm"
	promptx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/prompt"
	openrouterx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/pkg/openrouter"
)

type Backend string

const (
	BackendNone      Backend = "none"
	BackendChatModel Backend = "eino"
	BackendOpenAI    Backend = "openai"
)

type llmOutput struct {
	Summary        string `json:"summary"`
	FollowUpNeeded bool   `json:"follow_up_needed"`
}

// New builds the summarizer for backend. BackendNone returns (nil, nil).
func New(ctx context.Context, backend Backend, cfg llm.Config) (contractx.Summarizer, error) {
	switch backend {
	case "", BackendNone:
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	orCfg := cfg.OpenRouterForSummary()

	switch backend {
	case BackendChatModel:
		chatModel, err := orCfg.New(ctx)
		if err != nil {
			return nil, err
		}
		return NewChatModelSummarizer(ctx, chatModel, prompts.CallSummary)
	case BackendOpenAI:
		client, err := openrouterx.NewClient(orCfg)
		if err != nil {
			return nil, err
		}
		return NewCompletionsSummarizer(client, orCfg.Model, prompts.CallSummary,
			WithTemperature(float64(orCfg.Temperature)))
	default:
		return nil, fmt.Errorf("%w: unknown summary backend %q", contractx.ErrValidation, backend)
	}
}

func buildInput(req contractx.SummaryRequest) (string, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return "", fmt.Errorf("%w: order id is required", contractx.ErrValidation)
	}
	if req.Turns == nil {
		req.Turns = []contractx.Turn{}
	}
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: marshal summary payload: %v", contractx.ErrValidation, err)
	}
	return string(b), nil
}

func toResponse(out llmOutput) (contractx.SummaryResponse, error) {
	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		return contractx.SummaryResponse{}, fmt.Errorf("%w: summary is empty", contractx.ErrSchemaViolation)
	}
	return contractx.SummaryResponse{Summary: summary, FollowUpNeeded: out.FollowUpNeeded}, nil
}
