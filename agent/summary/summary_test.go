package summary

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/llm"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func sampleRequest() contractx.SummaryRequest {
	return contractx.SummaryRequest{
		OrderID:      "ORD-1",
		CustomerName: "Rahul",
		FinalState:   "CLOSE",
		OrderStatus:  "scheduled",
		Turns: []contractx.Turn{
			{Role: contractx.RoleAgent, Text: "Hello, am I speaking with Rahul?"},
			{Role: contractx.RoleUser, Text: "yes"},
		},
	}
}

func TestChatModelSummarizerSuccess(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"summary":"Customer chose the 25th.","follow_up_needed":false}`},
		},
	}
	s, err := NewChatModelSummarizer(context.Background(), fake, "summary prompt")
	if err != nil {
		t.Fatalf("NewChatModelSummarizer() error = %v", err)
	}

	out, err := s.Summarize(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if out.Summary != "Customer chose the 25th." {
		t.Fatalf("unexpected summary: %q", out.Summary)
	}
	if out.FollowUpNeeded {
		t.Fatal("expected no follow up")
	}

	if len(fake.inputs) != 1 || len(fake.inputs[0]) != 2 {
		t.Fatalf("unexpected model input: %#v", fake.inputs)
	}
	if fake.inputs[0][0].Content != "summary prompt" {
		t.Fatalf("unexpected system prompt: %q", fake.inputs[0][0].Content)
	}
	var payload contractx.SummaryRequest
	if err := json.Unmarshal([]byte(fake.inputs[0][1].Content), &payload); err != nil {
		t.Fatalf("user message is not the JSON payload: %v", err)
	}
	if payload.OrderID != "ORD-1" || len(payload.Turns) != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestChatModelSummarizerSchemaFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{{Content: `{"summary":"  ","follow_up_needed":true}`}},
	}
	s, err := NewChatModelSummarizer(context.Background(), fake, "summary prompt")
	if err != nil {
		t.Fatalf("NewChatModelSummarizer() error = %v", err)
	}

	_, err = s.Summarize(context.Background(), sampleRequest())
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestChatModelSummarizerModelFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("upstream 503")}
	s, err := NewChatModelSummarizer(context.Background(), fake, "summary prompt")
	if err != nil {
		t.Fatalf("NewChatModelSummarizer() error = %v", err)
	}

	_, err = s.Summarize(context.Background(), sampleRequest())
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestChatModelSummarizerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewChatModelSummarizer(context.Background(), &fakeToolCallingModel{}, " "); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}

	s, err := NewChatModelSummarizer(context.Background(), &fakeToolCallingModel{}, "summary prompt")
	if err != nil {
		t.Fatalf("NewChatModelSummarizer() error = %v", err)
	}
	req := sampleRequest()
	req.OrderID = ""
	if _, err := s.Summarize(context.Background(), req); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func newCompletionsServer(t *testing.T, content string, status int) (*httptest.Server, *[]map[string]any) {
	t.Helper()

	var requests []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", got)
		}
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(body, &req)
		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestClient(baseURL string) *openai.Client {
	client := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)
	return &client
}

func TestCompletionsSummarizerSuccess(t *testing.T) {
	t.Parallel()

	srv, requests := newCompletionsServer(t, "```json\n{\"summary\":\"Parcel goes to neighbor Priya.\",\"follow_up_needed\":true}\n```", http.StatusOK)
	s, err := NewCompletionsSummarizer(newTestClient(srv.URL), "test-model", "summary prompt", WithTemperature(0))
	if err != nil {
		t.Fatalf("NewCompletionsSummarizer() error = %v", err)
	}

	out, err := s.Summarize(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if out.Summary != "Parcel goes to neighbor Priya." || !out.FollowUpNeeded {
		t.Fatalf("unexpected response: %+v", out)
	}

	if len(*requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*requests))
	}
	req := (*requests)[0]
	if req["model"] != "test-model" {
		t.Fatalf("unexpected model: %v", req["model"])
	}
	if req["temperature"] != float64(0) {
		t.Fatalf("unexpected temperature: %v", req["temperature"])
	}
	messages, _ := req["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(messages))
	}
}

func TestCompletionsSummarizerBadJSON(t *testing.T) {
	t.Parallel()

	srv, _ := newCompletionsServer(t, "the customer said yes", http.StatusOK)
	s, err := NewCompletionsSummarizer(newTestClient(srv.URL), "test-model", "summary prompt")
	if err != nil {
		t.Fatalf("NewCompletionsSummarizer() error = %v", err)
	}

	_, err = s.Summarize(context.Background(), sampleRequest())
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestCompletionsSummarizerHTTPError(t *testing.T) {
	t.Parallel()

	srv, _ := newCompletionsServer(t, "", http.StatusBadRequest)
	s, err := NewCompletionsSummarizer(newTestClient(srv.URL), "test-model", "summary prompt")
	if err != nil {
		t.Fatalf("NewCompletionsSummarizer() error = %v", err)
	}

	_, err = s.Summarize(context.Background(), sampleRequest())
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
	}
	for in, want := range tests {
		if got := stripCodeFence(in); got != want {
			t.Fatalf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewBackends(t *testing.T) {
	t.Parallel()

	s, err := New(context.Background(), BackendNone, llm.Config{})
	if err != nil || s != nil {
		t.Fatalf("expected nil summarizer for none, got %v, %v", s, err)
	}

	cfg := llm.Config{APIKey: "key", Model: "openai/gpt-4o-mini", SummaryTemperature: -1}
	s, err = New(context.Background(), BackendOpenAI, cfg)
	if err != nil {
		t.Fatalf("New(openai) error = %v", err)
	}
	if _, ok := s.(*CompletionsSummarizer); !ok {
		t.Fatalf("expected *CompletionsSummarizer, got %T", s)
	}

	if _, err := New(context.Background(), Backend("bogus"), cfg); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown backend, got %v", err)
	}
	if _, err := New(context.Background(), BackendOpenAI, llm.Config{}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty config, got %v", err)
	}
}
