// Package seed loads the operator-authored sources and category taxonomy
// from YAML and reconciles them into the store on startup.
package seed

import (
	"context"
	"fmt"
	"io"

	"github.com/DjordjeVuckovic/news-pulse/internal/adapter"
	"github.com/DjordjeVuckovic/news-pulse/internal/domain"
	"gopkg.in/yaml.v3"
)

type SourceEntry struct {
	Domain  string            `yaml:"domain"`
	Name    string            `yaml:"name"`
	Adapter string            `yaml:"adapter"`
	Options map[string]string `yaml:"options"`
	Active  *bool             `yaml:"active"`
}

type Config struct {
	Sources    []SourceEntry `yaml:"sources"`
	Categories []string      `yaml:"categories"`
}

type YAMLConfigLoader struct {
	reader io.Reader
}

func NewYAMLConfigLoader(reader io.Reader) *YAMLConfigLoader {
	return &YAMLConfigLoader{
		reader: reader,
	}
}

func (cl *YAMLConfigLoader) Load() (*Config, error) {
	decoder := yaml.NewDecoder(cl.reader)
	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("seed config declares no categories")
	}
	for i, s := range c.Sources {
		if s.Domain == "" {
			return fmt.Errorf("source %d: domain is required", i)
		}
		if s.Name == "" {
			return fmt.Errorf("source %q: name is required", s.Domain)
		}
		if s.Adapter == "" {
			return fmt.Errorf("source %q: adapter is required", s.Domain)
		}
	}
	return nil
}

// AdapterKeys returns the distinct adapter keys the config references, so
// the registry can be checked before any crawl starts.
func (c *Config) AdapterKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, s := range c.Sources {
		if !seen[s.Adapter] {
			seen[s.Adapter] = true
			keys = append(keys, s.Adapter)
		}
	}
	return keys
}

type Sources interface {
	Upsert(ctx context.Context, src domain.Source) error
}

type Categories interface {
	Ensure(ctx context.Context, names []string) ([]domain.Category, error)
}

// Apply validates adapter keys against the registry and writes sources
// and categories to the store. An unknown adapter key fails the whole
// startup rather than silently skipping a source.
func Apply(ctx context.Context, cfg *Config, registry *adapter.Registry, sources Sources, categories Categories) error {
	if err := registry.Validate(cfg.AdapterKeys()); err != nil {
		return fmt.Errorf("seed config references unknown adapter: %w", err)
	}

	if _, err := categories.Ensure(ctx, cfg.Categories); err != nil {
		return fmt.Errorf("failed to ensure categories: %w", err)
	}

	for _, entry := range cfg.Sources {
		active := true
		if entry.Active != nil {
			active = *entry.Active
		}
		err := sources.Upsert(ctx, domain.Source{
			Domain:     entry.Domain,
			Name:       entry.Name,
			AdapterKey: entry.Adapter,
			Options:    entry.Options,
			Active:     active,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert source %q: %w", entry.Domain, err)
		}
	}

	return nil
}
