package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
	openrouterx "github.com/tanpawarit/paper-supply-agents/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	CheckModel         bool          `envconfig:"CHECK_MODEL" split_words:"true" default:"false"`

	MatcherModel         string  `envconfig:"MATCHER_MODEL" split_words:"true"`
	InventoryModel       string  `envconfig:"INVENTORY_MODEL" split_words:"true"`
	QuotingModel         string  `envconfig:"QUOTING_MODEL" split_words:"true"`
	SalesModel           string  `envconfig:"SALES_MODEL" split_words:"true"`
	MatcherTemperature   float32 `envconfig:"MATCHER_TEMPERATURE" split_words:"true" default:"-1"`
	InventoryTemperature float32 `envconfig:"INVENTORY_TEMPERATURE" split_words:"true" default:"-1"`
	QuotingTemperature   float32 `envconfig:"QUOTING_TEMPERATURE" split_words:"true" default:"-1"`
	SalesTemperature     float32 `envconfig:"SALES_TEMPERATURE" split_words:"true" default:"-1"`
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

// OpenRouterFor applies the per-agent overrides on top of the defaults.
func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(name string, t float32) {
		if v := strings.TrimSpace(name); v != "" {
			modelName = v
		}
		if t >= 0 {
			temp = t
		}
	}

	switch agentType {
	case contractx.AgentTypeMatcher:
		override(c.MatcherModel, c.MatcherTemperature)
	case contractx.AgentTypeInventory:
		override(c.InventoryModel, c.InventoryTemperature)
	case contractx.AgentTypeQuoting:
		override(c.QuotingModel, c.QuotingTemperature)
	case contractx.AgentTypeSales:
		override(c.SalesModel, c.SalesTemperature)
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
