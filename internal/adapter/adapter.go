// Package adapter holds the per-source contract: turn a site's index into
// canonical items and an article page into plain text. Concrete selector
// details live in per-source options; the pipeline only sees this contract.
package adapter

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Item is one canonical sitemap entry. Adapters return items newest-first.
type Item struct {
	URL         string
	Title       string
	PublishedAt time.Time
}

type Adapter interface {
	// SitemapURL is the index the crawler fetches for this source.
	SitemapURL() string

	// ParseSitemap turns the raw index into items, newest first.
	ParseSitemap(ctx context.Context, raw []byte) ([]Item, error)

	// ExtractContent turns an article page into plain text. Empty output
	// means the page carries nothing worth summarizing.
	ExtractContent(pageURL, html string) (string, error)
}

// Options carries the per-source knobs from configuration (feed URL,
// selectors, time formats) into the adapter factory.
type Options map[string]string

func (o Options) Get(key string) string {
	return o[key]
}

func (o Options) Require(key string) (string, error) {
	v, ok := o[key]
	if !ok || v == "" {
		return "", fmt.Errorf("missing required adapter option %q", key)
	}
	return v, nil
}

type Factory func(opts Options) (Adapter, error)

// Registry maps adapter keys to factories. Resolution of an unknown key is
// a configuration error and fails fast, never silently.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

func (r *Registry) Register(key string, factory Factory) {
	r.factories[key] = factory
}

func (r *Registry) Resolve(key string, opts Options) (Adapter, error) {
	factory, ok := r.factories[key]
	if !ok {
		return nil, fmt.Errorf("unknown adapter key %q", key)
	}
	return factory(opts)
}

// Validate checks every configured key at startup so a typo in config
// aborts boot instead of surfacing mid-crawl.
func (r *Registry) Validate(keys []string) error {
	for _, key := range keys {
		if _, ok := r.factories[key]; !ok {
			return fmt.Errorf("unknown adapter key %q", key)
		}
	}
	return nil
}

// DefaultRegistry wires the built-in adapters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("rss", NewRSSAdapter)
	r.Register("newssitemap", NewNewsSitemapAdapter)
	r.Register("htmlindex", NewHTMLIndexAdapter)
	return r
}

func sortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}
