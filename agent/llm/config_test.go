package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

func TestOpenRouterForOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:             " key ",
		Model:              "openai/gpt-4o-mini",
		Temperature:        0.2,
		MaxCompletionToken: 500,
		MatcherModel:       "openai/gpt-4.1-nano",
		MatcherTemperature: 0,
		SalesTemperature:   -1,
		QuotingTemperature: 0.7,
	}

	matcher := cfg.OpenRouterFor(contractx.AgentTypeMatcher)
	if matcher.Model != "openai/gpt-4.1-nano" || matcher.Temperature != 0 {
		t.Fatalf("unexpected matcher config: %+v", matcher)
	}
	if matcher.APIKey != "key" || *matcher.MaxCompletionToken != 500 {
		t.Fatalf("defaults not carried: %+v", matcher)
	}

	sales := cfg.OpenRouterFor(contractx.AgentTypeSales)
	if sales.Model != "openai/gpt-4o-mini" || sales.Temperature != 0.2 {
		t.Fatalf("unexpected sales config: %+v", sales)
	}

	quoting := cfg.OpenRouterFor(contractx.AgentTypeQuoting)
	if quoting.Temperature != 0.7 {
		t.Fatalf("unexpected quoting temperature: %v", quoting.Temperature)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Model: "m"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := (Config{APIKey: "k", Model: "m"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
