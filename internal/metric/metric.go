// Package metric defines the catalog of indicators that can be compared and mapped.
package metric

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Definition describes one comparable indicator.
type Definition struct {
	Field    string `yaml:"field" json:"field"`
	Label    string `yaml:"label" json:"label"`
	Code     string `yaml:"code" json:"code"`
	Format   string `yaml:"format" json:"format"`
	DiffUnit string `yaml:"diff_unit,omitempty" json:"diff_unit,omitempty"`
	// MinCoverage is the fraction of countries that must report a value
	// before the metric is shown by default. Zero disables the gate.
	MinCoverage float64 `yaml:"min_coverage,omitempty" json:"min_coverage,omitempty"`
	Category    string  `yaml:"category,omitempty" json:"category,omitempty"`
}

// Catalog is an ordered list of metric definitions.
type Catalog struct {
	Metrics []Definition `yaml:"metrics" json:"metrics"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(eris.Wrap(err, "metric: embedded catalog"))
	}
	return c
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "metric: read catalog %s", path)
	}
	return Parse(data)
}

// LoadOrDefault loads path when set, otherwise the embedded catalog.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "metric: parse catalog")
	}
	for i := range c.Metrics {
		c.Metrics[i].Field = strings.TrimSpace(c.Metrics[i].Field)
		c.Metrics[i].Code = strings.TrimSpace(c.Metrics[i].Code)
		if c.Metrics[i].Label == "" {
			c.Metrics[i].Label = c.Metrics[i].Field
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects empty catalogs, missing or duplicate fields and codes,
// and coverage fractions outside [0, 1].
func (c *Catalog) Validate() error {
	if len(c.Metrics) == 0 {
		return eris.New("metric: catalog has no metrics")
	}
	fields := make(map[string]bool, len(c.Metrics))
	codes := make(map[string]bool, len(c.Metrics))
	for i, m := range c.Metrics {
		switch {
		case m.Field == "":
			return eris.Errorf("metric: entry %d has no field", i)
		case m.Code == "":
			return eris.Errorf("metric: %s has no indicator code", m.Field)
		case fields[m.Field]:
			return eris.Errorf("metric: duplicate field %s", m.Field)
		case codes[m.Code]:
			return eris.Errorf("metric: duplicate indicator code %s", m.Code)
		case m.MinCoverage < 0 || m.MinCoverage > 1:
			return eris.Errorf("metric: %s min_coverage %v outside [0,1]", m.Field, m.MinCoverage)
		}
		fields[m.Field] = true
		codes[m.Code] = true
	}
	return nil
}

// Lookup returns the definition for field.
func (c *Catalog) Lookup(field string) (Definition, bool) {
	for _, m := range c.Metrics {
		if m.Field == field {
			return m, true
		}
	}
	return Definition{}, false
}

// Fields returns the metric field keys in catalog order.
func (c *Catalog) Fields() []string {
	out := make([]string, len(c.Metrics))
	for i, m := range c.Metrics {
		out[i] = m.Field
	}
	return out
}

// Categories returns category labels in order of first appearance.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range c.Metrics {
		if m.Category == "" || seen[m.Category] {
			continue
		}
		seen[m.Category] = true
		out = append(out, m.Category)
	}
	return out
}

// Visibility pairs a definition with its coverage and default visibility.
type Visibility struct {
	Definition
	Coverage float64 `json:"coverage"`
	Visible  bool    `json:"visible"`
}

// Visible reports each metric's coverage and whether it passes its
// MinCoverage gate.
func (c *Catalog) Visible(coverage func(field string) float64) []Visibility {
	out := make([]Visibility, len(c.Metrics))
	for i, m := range c.Metrics {
		cov := coverage(m.Field)
		out[i] = Visibility{
			Definition: m,
			Coverage:   cov,
			Visible:    m.MinCoverage <= 0 || cov >= m.MinCoverage,
		}
	}
	return out
}
