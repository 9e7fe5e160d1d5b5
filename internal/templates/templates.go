// Package templates provides distribution templates and bonus presets that
// clients can use to prefill their forms.
package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaults []byte

var ErrInvalidCatalog = errors.New("invalid template catalog")

// Template holds the default values for a new distribution.
type Template struct {
	Key          string          `json:"key" example:"quarterly"`
	Title        string          `json:"title" example:"Q4 Performance Bonus"`
	Budget       decimal.Decimal `json:"budget" example:"10"`
	DurationDays int             `json:"durationDays" example:"30"`
}

// Preset is a suggested bonus amount for a role.
type Preset struct {
	Key    string          `json:"key" example:"senior"`
	Title  string          `json:"title" example:"Senior Developer"`
	Amount decimal.Decimal `json:"amount" example:"0.5"`
}

type Catalog struct {
	Distributions []Template `json:"distributions"`
	Presets       []Preset   `json:"presets"`
}

type file struct {
	Distributions []struct {
		Key          string `yaml:"key"`
		Title        string `yaml:"title"`
		Budget       string `yaml:"budget"`
		DurationDays int    `yaml:"durationDays"`
	} `yaml:"distributions"`
	Presets []struct {
		Key    string `yaml:"key"`
		Title  string `yaml:"title"`
		Amount string `yaml:"amount"`
	} `yaml:"presets"`
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaults)
}

// Load reads the catalog from path. An empty path returns the built-in
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read templates file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	catalog := &Catalog{
		Distributions: make([]Template, 0, len(f.Distributions)),
		Presets:       make([]Preset, 0, len(f.Presets)),
	}

	keys := make(map[string]bool)
	for _, d := range f.Distributions {
		key, err := checkKey(keys, d.Key, d.Title)
		if err != nil {
			return nil, err
		}

		budget, err := decimal.NewFromString(strings.TrimSpace(d.Budget))
		if err != nil || !ledger.ValidBudget(budget) {
			return nil, fmt.Errorf("%w: budget of template %q: %w", ErrInvalidCatalog, key, ledger.ErrInvalidBudget)
		}

		if d.DurationDays <= 0 || d.DurationDays > ledger.MaxDurationDays {
			return nil, fmt.Errorf("%w: duration of template %q must be between 1 and %d days", ErrInvalidCatalog, key, ledger.MaxDurationDays)
		}

		catalog.Distributions = append(catalog.Distributions, Template{
			Key:          key,
			Title:        strings.TrimSpace(d.Title),
			Budget:       budget,
			DurationDays: d.DurationDays,
		})
	}

	keys = make(map[string]bool)
	for _, p := range f.Presets {
		key, err := checkKey(keys, p.Key, p.Title)
		if err != nil {
			return nil, err
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(p.Amount))
		if err != nil || !amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount of preset %q must be a positive number", ErrInvalidCatalog, key)
		}

		catalog.Presets = append(catalog.Presets, Preset{
			Key:    key,
			Title:  strings.TrimSpace(p.Title),
			Amount: amount,
		})
	}

	return catalog, nil
}

// checkKey validates the key and title of an entry and records the key.
func checkKey(keys map[string]bool, key, title string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: every entry needs a key", ErrInvalidCatalog)
	}

	if keys[key] {
		return "", fmt.Errorf("%w: duplicate key %q", ErrInvalidCatalog, key)
	}
	keys[key] = true

	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: entry %q needs a title", ErrInvalidCatalog, key)
	}

	return key, nil
}
