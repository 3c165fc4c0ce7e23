package adapter

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"
)

// NewsSitemapAdapter reads Google News style XML sitemaps, which carry a
// title and publication date per URL entry.
type NewsSitemapAdapter struct {
	sitemapURL string
}

func NewNewsSitemapAdapter(opts Options) (Adapter, error) {
	sitemapURL, err := opts.Require("sitemap_url")
	if err != nil {
		return nil, err
	}
	return &NewsSitemapAdapter{sitemapURL: sitemapURL}, nil
}

func (a *NewsSitemapAdapter) SitemapURL() string {
	return a.sitemapURL
}

type newsURLSet struct {
	URLs []struct {
		Loc  string `xml:"loc"`
		News struct {
			Title           string `xml:"title"`
			PublicationDate string `xml:"publication_date"`
		} `xml:"news"`
		LastMod string `xml:"lastmod"`
	} `xml:"url"`
}

func (a *NewsSitemapAdapter) ParseSitemap(ctx context.Context, raw []byte) ([]Item, error) {
	var set newsURLSet
	if err := xml.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("failed to parse sitemap xml: %w", err)
	}

	items := make([]Item, 0, len(set.URLs))
	for _, u := range set.URLs {
		if u.Loc == "" {
			continue
		}

		publishedAt, ok := parseSitemapTime(u.News.PublicationDate)
		if !ok {
			publishedAt, ok = parseSitemapTime(u.LastMod)
		}
		if !ok {
			continue
		}

		items = append(items, Item{
			URL:         u.Loc,
			Title:       u.News.Title,
			PublishedAt: publishedAt,
		})
	}

	sortNewestFirst(items)
	return items, nil
}

func (a *NewsSitemapAdapter) ExtractContent(pageURL, html string) (string, error) {
	return extractText(pageURL, html)
}

func parseSitemapTime(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
