// Copyright 2024-2026 Aiku AI

// Package config reads the YAML configuration for placeholders and progress
// bars. User files are layered over the embedded example config.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	up "go.mau.fi/util/configupgrade"
	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// DefaultTickInterval is used when tick-interval is missing or not positive.
const DefaultTickInterval = 50 * time.Millisecond

// Config is the whole configuration file.
type Config struct {
	SymbolPrefix string        `yaml:"symbol-prefix"`
	TickInterval time.Duration `yaml:"tick-interval"`
	// AdminAPIAddr is the listen address for the admin HTTP API. Empty
	// disables it.
	AdminAPIAddr string `yaml:"admin-api-addr"`

	Placeholders Placeholders `yaml:"custom-placeholder"`
	ProgressBars ProgressBars `yaml:"custom-progress"`
}

// Placeholder is one entry under custom-placeholder.
type Placeholder struct {
	ID           string       `yaml:"-"`
	Type         string       `yaml:"type"`
	Value        string       `yaml:"value"`
	Values       []string     `yaml:"values"`
	Interval     int64        `yaml:"interval"`
	Requirements Requirements `yaml:"requirements"`
}

// Templates returns values for multi-valued types and value otherwise,
// falling back to whichever one is set.
func (p *Placeholder) Templates() []string {
	if len(p.Values) > 0 {
		return p.Values
	}
	if p.Value != "" {
		return []string{p.Value}
	}
	return nil
}

// Requirement is one entry under a placeholder's requirements.
type Requirement struct {
	Name   string `yaml:"-"`
	Type   string `yaml:"type"`
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Deny   string `yaml:"deny"`
}

// ProgressBar is one entry under custom-progress.
type ProgressBar struct {
	ID             string `yaml:"-"`
	Symbol         string `yaml:"symbol"`
	CompletedColor string `yaml:"completed-color"`
	ProgressColor  string `yaml:"progress-color"`
	RemainingColor string `yaml:"remaining-color"`
}

// Placeholders keeps the order entries were written in.
type Placeholders []Placeholder

// Requirements keeps the order entries were written in.
type Requirements []Requirement

// ProgressBars keeps the order entries were written in.
type ProgressBars []ProgressBar

func (p *Placeholders) UnmarshalYAML(node *yaml.Node) error {
	items, err := decodeOrdered(node, "id", func(v *Placeholder, key string) { v.ID = key })
	*p = items
	return err
}

func (r *Requirements) UnmarshalYAML(node *yaml.Node) error {
	items, err := decodeOrdered(node, "name", func(v *Requirement, key string) { v.Name = key })
	*r = items
	return err
}

func (b *ProgressBars) UnmarshalYAML(node *yaml.Node) error {
	items, err := decodeOrdered(node, "id", func(v *ProgressBar, key string) { v.ID = key })
	*b = items
	return err
}

// decodeOrdered reads a mapping in document order, handing each key to
// setKey, or a sequence whose entries name themselves with keyField.
func decodeOrdered[T any](node *yaml.Node, keyField string, setKey func(*T, string)) ([]T, error) {
	switch node.Kind {
	case yaml.MappingNode:
		items := make([]T, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var item T
			if err := node.Content[i+1].Decode(&item); err != nil {
				return nil, fmt.Errorf("%s: %w", node.Content[i].Value, err)
			}
			setKey(&item, node.Content[i].Value)
			items = append(items, item)
		}
		return items, nil
	case yaml.SequenceNode:
		items := make([]T, 0, len(node.Content))
		for _, entry := range node.Content {
			key := mappingValue(entry, keyField)
			if key == "" {
				return nil, fmt.Errorf("line %d: sequence entry needs a %q key", entry.Line, keyField)
			}
			var item T
			if err := entry.Decode(&item); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			setKey(&item, key)
			items = append(items, item)
		}
		return items, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("line %d: expected a mapping or a sequence", node.Line)
}

// mappingValue returns the scalar stored under key in a mapping node.
func mappingValue(node *yaml.Node, key string) string {
	if node.Kind != yaml.MappingNode {
		return ""
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key && node.Content[i+1].Kind == yaml.ScalarNode {
			return strings.TrimSpace(node.Content[i+1].Value)
		}
	}
	return ""
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

// PostProcess fills defaults and checks required settings.
func (c *Config) PostProcess() error {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if strings.TrimSpace(c.SymbolPrefix) == "" {
		return errors.New("symbol-prefix must not be empty")
	}
	return nil
}

func upgradeConfig(helper up.Helper) {
	helper.Copy(up.Str, "symbol-prefix")
	helper.Copy(up.Str, "tick-interval")
	helper.Copy(up.Str, "admin-api-addr")
}

// userSections are the parts of a user file taken wholesale rather than
// merged key by key.
type userSections struct {
	Placeholders *Placeholders `yaml:"custom-placeholder"`
	ProgressBars *ProgressBars `yaml:"custom-progress"`
}

// Parse reads a user config. Scalar settings missing from data keep their
// example values; placeholder and progress sections from data replace the
// examples entirely.
func Parse(data []byte) (*Config, error) {
	var base yaml.Node
	if err := yaml.Unmarshal([]byte(ExampleConfig), &base); err != nil {
		return nil, fmt.Errorf("failed to parse example config: %w", err)
	}

	var user yaml.Node
	if err := yaml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var sections userSections
	if user.Kind == yaml.DocumentNode && len(user.Content) > 0 && user.Content[0].Kind == yaml.MappingNode {
		upgradeConfig(up.NewHelper(&base, &user))
		if err := user.Decode(&sections); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	var cfg Config
	if err := base.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if sections.Placeholders != nil {
		cfg.Placeholders = *sections.Placeholders
	}
	if sections.ProgressBars != nil {
		cfg.ProgressBars = *sections.ProgressBars
	}
	if err := cfg.PostProcess(); err != nil {
		return nil, fmt.Errorf("failed to post-process config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path, writing the example config there first if
// the file does not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data = []byte(ExampleConfig)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}
