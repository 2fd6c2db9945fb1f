// Package matcher maps output scores to products from a declarative catalog.
package matcher

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/mansoorceksport/skinsight/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Alias maps a metric name to its canonical issue
type Alias struct {
	Issue    string               `yaml:"issue"`
	Category domain.IssueCategory `yaml:"category"`
}

// Catalog is the matching table: aliases, issue keywords and products
type Catalog struct {
	Aliases  map[string]Alias         `yaml:"aliases"`
	Keywords map[string][]string      `yaml:"keywords"`
	Products []domain.EnhancedProduct `yaml:"products"`
}

// DefaultCatalog parses the embedded catalog
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// ParseCatalog decodes and validates a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	// alias keys are looked up normalized
	aliases := make(map[string]Alias, len(c.Aliases))
	for name, a := range c.Aliases {
		aliases[normalizeName(name)] = a
	}
	c.Aliases = aliases
	return &c, nil
}

// Validate checks that products carry an ID and target at least one issue
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Products))
	for i, p := range c.Products {
		if p.ID == "" {
			return fmt.Errorf("product %d: id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("product %s: duplicate id", p.ID)
		}
		seen[p.ID] = true
		if len(p.TargetIssues) == 0 {
			return fmt.Errorf("product %s: targetIssues is required", p.ID)
		}
	}
	for name, a := range c.Aliases {
		if a.Issue == "" {
			return fmt.Errorf("alias %s: issue is required", name)
		}
	}
	return nil
}

// WithProducts returns a copy of the catalog using products instead of the embedded list
func (c *Catalog) WithProducts(products []domain.EnhancedProduct) *Catalog {
	return &Catalog{
		Aliases:  c.Aliases,
		Keywords: c.Keywords,
		Products: products,
	}
}

// Resolve maps a metric name to its issue. Unknown names become their own
// snake_case issue key in the texture category.
func (c *Catalog) Resolve(name string) Alias {
	if a, ok := c.Aliases[normalizeName(name)]; ok {
		return a
	}
	return Alias{Issue: snakeCase(name), Category: domain.CategoryTexture}
}

// normalizeName lower-cases and drops spaces, dashes and underscores
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == ' ' || r == '-' || r == '_' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// snakeCase turns "poreSize" or "Pore Size" into "pore_size"
func snakeCase(name string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = true
		}
	}
	return b.String()
}
