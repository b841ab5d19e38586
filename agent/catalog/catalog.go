// Package catalog holds the immutable product catalog and resolves free-text
// item descriptions to canonical catalog names.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogRaw []byte

var (
	ErrEmptyCatalog  = errors.New("catalog has no items")
	ErrDuplicateItem = errors.New("duplicate catalog item")
	ErrInvalidPrice  = errors.New("catalog price must be positive")
	ErrEmptyName     = errors.New("catalog item name is empty")
)

type Item struct {
	Name      string          `json:"item_name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Category  string          `json:"category,omitempty"`
}

type fileItem struct {
	Name      string `yaml:"name"`
	UnitPrice string `yaml:"unit_price"`
	Category  string `yaml:"category"`
}

type file struct {
	Items []fileItem `yaml:"items"`
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	items  []Item
	byName map[string]int
	byFold map[string]int
}

func New(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		items:  make([]Item, 0, len(items)),
		byName: make(map[string]int, len(items)),
		byFold: make(map[string]int, len(items)),
	}
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		if _, ok := c.byFold[strings.ToLower(name)]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, name)
		}
		if !it.UnitPrice.IsPositive() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, name)
		}
		it.Name = name
		c.byName[name] = len(c.items)
		c.byFold[strings.ToLower(name)] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

func Load(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	items := make([]Item, 0, len(f.Items))
	for _, fi := range f.Items {
		price, err := decimal.NewFromString(strings.TrimSpace(fi.UnitPrice))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPrice, fi.Name, err)
		}
		items = append(items, Item{
			Name:      fi.Name,
			UnitPrice: price,
			Category:  strings.TrimSpace(fi.Category),
		})
	}
	return New(items)
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := Load(defaultCatalogRaw)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it.Name)
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// Lookup finds an item by its exact canonical name.
func (c *Catalog) Lookup(name string) (Item, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return Item{}, false
	}
	return c.items[idx], true
}

// LookupFold finds an item ignoring case and surrounding whitespace.
func (c *Catalog) LookupFold(name string) (Item, bool) {
	idx, ok := c.byFold[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Item{}, false
	}
	return c.items[idx], true
}

// Resolve tags a name that should already be canonical. Exact matches win over
// case-insensitive ones; anything else comes back unresolved.
func (c *Catalog) Resolve(term string) Resolution {
	clean := strings.TrimSpace(term)
	if it, ok := c.Lookup(clean); ok {
		return resolved(term, it.Name, MatchExact)
	}
	if it, ok := c.LookupFold(clean); ok {
		return resolved(term, it.Name, MatchCaseInsensitive)
	}
	return Unresolved(term)
}

// Price returns the unit price of a resolved term. Unresolved terms never price.
func (c *Catalog) Price(res Resolution) (decimal.Decimal, bool) {
	if !res.Resolved {
		return decimal.Zero, false
	}
	it, ok := c.Lookup(res.Name)
	if !ok {
		return decimal.Zero, false
	}
	return it.UnitPrice, true
}
