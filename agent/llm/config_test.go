package llm

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{APIKey: "k", Model: "m"}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := (Config{Model: "m"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing key, got %v", err)
	}
	if err := (Config{APIKey: "k", Model: "  "}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing model, got %v", err)
	}
}

func TestOpenRouterForSummary(t *testing.T) {
	t.Parallel()

	base := Config{
		BaseURL:            " https://openrouter.ai/api/v1 ",
		APIKey:             " key ",
		Model:              "openai/gpt-4o-mini",
		MaxCompletionToken: 400,
		Temperature:        0.5,
		Timeout:            15 * time.Second,
		SummaryTemperature: -1,
	}

	got := base.OpenRouterForSummary()
	if got.Model != "openai/gpt-4o-mini" {
		t.Fatalf("unexpected model: %s", got.Model)
	}
	if got.Temperature != 0.5 {
		t.Fatalf("unexpected temperature: %v", got.Temperature)
	}
	if got.APIKey != "key" || got.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("config not trimmed: %+v", got)
	}
	if got.MaxCompletionToken == nil || *got.MaxCompletionToken != 400 {
		t.Fatalf("unexpected max tokens: %v", got.MaxCompletionToken)
	}

	override := base
	override.SummaryModel = "anthropic/claude-haiku"
	override.SummaryTemperature = 0
	got = override.OpenRouterForSummary()
	if got.Model != "anthropic/claude-haiku" {
		t.Fatalf("summary model override ignored: %s", got.Model)
	}
	if got.Temperature != 0 {
		t.Fatalf("summary temperature override ignored: %v", got.Temperature)
	}
}
