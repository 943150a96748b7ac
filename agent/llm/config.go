package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/nravee/Roamly-Travel-Concierge/agent/contract"
	openrouterx "github.com/nravee/Roamly-Travel-Concierge/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	// Per-capability overrides. An empty model falls back to Model; a
	// negative temperature falls back to Temperature.
	OrchestratorModel       string  `envconfig:"ORCHESTRATOR_MODEL" split_words:"true"`
	SpecialistModel         string  `envconfig:"SPECIALIST_MODEL" split_words:"true"`
	ItineraryModel          string  `envconfig:"ITINERARY_MODEL" split_words:"true"`
	SummarizerModel         string  `envconfig:"SUMMARIZER_MODEL" split_words:"true"`
	OrchestratorTemperature float32 `envconfig:"ORCHESTRATOR_TEMPERATURE" split_words:"true" default:"-1"`
	SpecialistTemperature   float32 `envconfig:"SPECIALIST_TEMPERATURE" split_words:"true" default:"-1"`
	ItineraryTemperature    float32 `envconfig:"ITINERARY_TEMPERATURE" split_words:"true" default:"-1"`
	SummarizerTemperature   float32 `envconfig:"SUMMARIZER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrInvalidArgument)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrInvalidArgument)
	}
	return nil
}

// OpenRouterFor resolves the model settings for one capability. The hotel,
// dining, and activity specialists share the specialist override; the
// orchestrator, itinerary planner, and summarizer each have their own.
func (c Config) OpenRouterFor(capability contractx.CapabilityType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch capability {
	case contractx.CapabilityOrchestrator:
		if v := strings.TrimSpace(c.OrchestratorModel); v != "" {
			modelName = v
		}
		if c.OrchestratorTemperature >= 0 {
			temp = c.OrchestratorTemperature
		}
	case contractx.CapabilityHotel, contractx.CapabilityDining, contractx.CapabilityActivity:
		if v := strings.TrimSpace(c.SpecialistModel); v != "" {
			modelName = v
		}
		if c.SpecialistTemperature >= 0 {
			temp = c.SpecialistTemperature
		}
	case contractx.CapabilityItinerary:
		if v := strings.TrimSpace(c.ItineraryModel); v != "" {
			modelName = v
		}
		if c.ItineraryTemperature >= 0 {
			temp = c.ItineraryTemperature
		}
	case contractx.CapabilitySummarizer:
		if v := strings.TrimSpace(c.SummarizerModel); v != "" {
			modelName = v
		}
		if c.SummarizerTemperature >= 0 {
			temp = c.SummarizerTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
