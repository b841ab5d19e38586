package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

var (
	//go:embed template/catalog_match.txt
	catalogMatchRaw string

	//go:embed template/extract_items.txt
	extractItemsRaw string

	//go:embed template/parse_order.txt
	parseOrderRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	CatalogMatch string
	ExtractItems string
	ParseOrder   string
}

func LoadPromptSet() PromptSet {
	return PromptSet{
		CatalogMatch: strings.TrimSpace(catalogMatchRaw),
		ExtractItems: strings.TrimSpace(extractItemsRaw),
		ParseOrder:   strings.TrimSpace(parseOrderRaw),
	}
}

func (p PromptSet) Validate() error {
	for name, body := range map[string]string{
		"catalog_match": p.CatalogMatch,
		"extract_items": p.ExtractItems,
		"parse_order":   p.ParseOrder,
	} {
		if body == "" {
			return fmt.Errorf("%w: %s", contractx.ErrPromptMissing, name)
		}
	}
	return nil
}
