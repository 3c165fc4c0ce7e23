package adapter

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// RSSAdapter reads sources exposing an RSS or Atom feed.
type RSSAdapter struct {
	feedURL string
	parser  *gofeed.Parser
}

func NewRSSAdapter(opts Options) (Adapter, error) {
	feedURL, err := opts.Require("feed_url")
	if err != nil {
		return nil, err
	}
	return &RSSAdapter{
		feedURL: feedURL,
		parser:  gofeed.NewParser(),
	}, nil
}

func (a *RSSAdapter) SitemapURL() string {
	return a.feedURL
}

func (a *RSSAdapter) ParseSitemap(ctx context.Context, raw []byte) ([]Item, error) {
	feed, err := a.parser.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		if fi.Link == "" || fi.PublishedParsed == nil {
			continue
		}
		items = append(items, Item{
			URL:         fi.Link,
			Title:       fi.Title,
			PublishedAt: fi.PublishedParsed.UTC(),
		})
	}

	sortNewestFirst(items)
	return items, nil
}

func (a *RSSAdapter) ExtractContent(pageURL, html string) (string, error) {
	return extractText(pageURL, html)
}
