package summary

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
)

var _ contractx.Summarizer = (*ChatModelSummarizer)(nil)

// ChatModelSummarizer runs prompt -> model -> JSON parse as an eino graph.
type ChatModelSummarizer struct {
	runner compose.Runnable[map[string]any, llmOutput]
}

func NewChatModelSummarizer(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*ChatModelSummarizer, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, contractx.ErrPromptMissing
	}

	runner, err := compileSummaryGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile summary graph: %v", contractx.ErrModelInvoke, err)
	}
	return &ChatModelSummarizer{runner: runner}, nil
}

func (s *ChatModelSummarizer) Summarize(ctx context.Context, req contractx.SummaryRequest) (contractx.SummaryResponse, error) {
	input, err := buildInput(req)
	if err != nil {
		return contractx.SummaryResponse{}, err
	}

	out, err := s.runner.Invoke(ctx, map[string]any{"input": input})
	if err != nil {
		return contractx.SummaryResponse{}, fmt.Errorf("%w: summary invoke: %v", contractx.ErrModelInvoke, err)
	}
	return toResponse(out)
}

func compileSummaryGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, llmOutput], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)
	parser := schema.NewMessageJSONParser[llmOutput](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, llmOutput]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add summary prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add summary model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add summary parser node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add summary edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add summary edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", "parse_json"); err != nil {
		return nil, fmt.Errorf("add summary edge model->parse: %w", err)
	}
	if err := graph.AddEdge("parse_json", compose.END); err != nil {
		return nil, fmt.Errorf("add summary edge parse->end: %w", err)
	}

	return graph.Compile(ctx, compose.WithGraphName("summary.call_graph"))
}
