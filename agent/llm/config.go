package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/pkg/openrouter"
)

// Config is read with the OPENROUTER prefix. The summary overrides fall back
// to the default model and temperature when unset.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"400"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	SummaryModel       string  `envconfig:"SUMMARY_MODEL" split_words:"true"`
	SummaryTemperature float32 `envconfig:"SUMMARY_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// SummaryModelName is the model name the summarizer should call.
func (c Config) SummaryModelName() string {
	if v := strings.TrimSpace(c.SummaryModel); v != "" {
		return v
	}
	return strings.TrimSpace(c.Model)
}

func (c Config) SummaryTemp() float32 {
	if c.SummaryTemperature >= 0 {
		return c.SummaryTemperature
	}
	return c.Temperature
}

// OpenRouterForSummary resolves the client config used by the post-call
// summarizer.
func (c Config) OpenRouterForSummary() openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              c.SummaryModelName(),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.SummaryTemp(),
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
