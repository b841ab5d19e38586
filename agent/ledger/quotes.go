package ledger

import (
	"sort"
	"strings"

	contractx "github.com/tanpawarit/paper-supply-agents/agent/contract"
)

// RankQuotes orders quotes by how many keywords they mention, newest first on
// ties. Quotes that mention none are dropped unless no keywords are given.
func RankQuotes(quotes []contractx.QuoteRecord, keywords []string, limit int) []contractx.QuoteRecord {
	terms := NormalizeKeywords(keywords)
	type scored struct {
		quote contractx.QuoteRecord
		hits  int
	}
	matches := make([]scored, 0, len(quotes))
	for _, q := range quotes {
		haystack := strings.ToLower(strings.Join([]string{q.Explanation, q.JobType, q.EventType, q.OrderSize}, " "))
		hits := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				hits++
			}
		}
		if len(terms) > 0 && hits == 0 {
			continue
		}
		matches = append(matches, scored{quote: q, hits: hits})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].hits != matches[j].hits {
			return matches[i].hits > matches[j].hits
		}
		return matches[i].quote.OrderDate.After(matches[j].quote.OrderDate)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]contractx.QuoteRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.quote)
	}
	return out
}

// NormalizeKeywords lowercases, trims and de-duplicates search keywords.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
