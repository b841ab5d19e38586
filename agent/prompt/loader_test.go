package prompt

import (
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if err := set.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	for name, body := range map[string]string{
		"catalog_match": set.CatalogMatch,
		"extract_items": set.ExtractItems,
		"parse_order":   set.ParseOrder,
	} {
		if strings.Contains(strings.ReplaceAll(body, "{{", ""), "{\"") {
			t.Fatalf("%s has an unescaped brace", name)
		}
	}
}

func TestValidateReportsMissingPrompt(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	set.ParseOrder = ""
	if err := set.Validate(); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}
