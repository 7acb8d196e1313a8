package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
)

var _ contractx.Summarizer = (*CompletionsSummarizer)(nil)

type CompletionsOption func(*CompletionsSummarizer)

func WithTemperature(t float64) CompletionsOption {
	return func(s *CompletionsSummarizer) {
		if t >= 0 {
			s.temperature = t
		}
	}
}

// CompletionsSummarizer calls the chat completions endpoint directly through
// openai-go.
type CompletionsSummarizer struct {
	client       *openai.Client
	model        string
	systemPrompt string
	temperature  float64
}

func NewCompletionsSummarizer(client *openai.Client, model, systemPrompt string, opts ...CompletionsOption) (*CompletionsSummarizer, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, contractx.ErrPromptMissing
	}

	s := &CompletionsSummarizer{
		client:       client,
		model:        strings.TrimSpace(model),
		systemPrompt: systemPrompt,
		temperature:  0.2,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *CompletionsSummarizer) Summarize(ctx context.Context, req contractx.SummaryRequest) (contractx.SummaryResponse, error) {
	input, err := buildInput(req)
	if err != nil {
		return contractx.SummaryResponse{}, err
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.systemPrompt),
			openai.UserMessage(input),
		},
		Temperature: openai.Float(s.temperature),
	})
	if err != nil {
		return contractx.SummaryResponse{}, fmt.Errorf("%w: chat completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return contractx.SummaryResponse{}, fmt.Errorf("%w: no choices returned", contractx.ErrSchemaViolation)
	}

	var out llmOutput
	content := stripCodeFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return contractx.SummaryResponse{}, fmt.Errorf("%w: decode summary: %v", contractx.ErrSchemaViolation, err)
	}
	return toResponse(out)
}

// stripCodeFence removes a surrounding ```json fence some models add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
