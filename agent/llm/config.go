package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/cloud-pricing-assistant/agent/contract"
	copilotx "github.com/tanpawarit/cloud-pricing-assistant/agent/copilot"
	openrouterx "github.com/tanpawarit/cloud-pricing-assistant/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	// Streaming selects the event-driven backend; false uses blocking Chat
	// Completions with server-side storage.
	Streaming       bool          `envconfig:"STREAMING" split_words:"true" default:"true"`
	ResponseTimeout time.Duration `envconfig:"RESPONSE_TIMEOUT" split_words:"true" default:"60s"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenRouter() openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(c.Model),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// NewBackend builds the model backend selected by c.Streaming.
func NewBackend(ctx context.Context, c Config) (copilotx.Backend, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	orCfg := c.OpenRouter()

	if c.Streaming {
		chatModel, err := openrouterx.NewChatModel(ctx, orCfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contractx.ErrConfig, err)
		}
		backend, err := copilotx.NewStreamingBackend(chatModel)
		if err != nil {
			return nil, err
		}
		return backend, nil
	}

	client, err := openrouterx.NewClient(orCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrConfig, err)
	}
	backend, err := copilotx.NewSyncBackend(client, copilotx.SyncOptions{
		Model:               orCfg.Model,
		Temperature:         c.Temperature,
		MaxCompletionTokens: c.MaxCompletionToken,
	})
	if err != nil {
		return nil, err
	}
	return backend, nil
}
