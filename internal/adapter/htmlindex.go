package adapter

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// HTMLIndexAdapter scrapes sources without a machine-readable index:
// a listing page walked with configured CSS selectors.
type HTMLIndexAdapter struct {
	indexURL     string
	itemSelector string
	linkSelector string
	timeSelector string
	timeFormat   string
}

func NewHTMLIndexAdapter(opts Options) (Adapter, error) {
	indexURL, err := opts.Require("index_url")
	if err != nil {
		return nil, err
	}
	itemSelector, err := opts.Require("item_selector")
	if err != nil {
		return nil, err
	}
	linkSelector, err := opts.Require("link_selector")
	if err != nil {
		return nil, err
	}
	timeSelector, err := opts.Require("time_selector")
	if err != nil {
		return nil, err
	}

	timeFormat := opts.Get("time_format")
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	return &HTMLIndexAdapter{
		indexURL:     indexURL,
		itemSelector: itemSelector,
		linkSelector: linkSelector,
		timeSelector: timeSelector,
		timeFormat:   timeFormat,
	}, nil
}

func (a *HTMLIndexAdapter) SitemapURL() string {
	return a.indexURL
}

func (a *HTMLIndexAdapter) ParseSitemap(ctx context.Context, raw []byte) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse index html: %w", err)
	}

	base, err := url.Parse(a.indexURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse index url: %w", err)
	}

	var items []Item
	doc.Find(a.itemSelector).Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find(a.linkSelector).First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		absolute := base.ResolveReference(ref).String()

		rawTime := sel.Find(a.timeSelector).First().AttrOr("datetime", "")
		if rawTime == "" {
			rawTime = sel.Find(a.timeSelector).First().Text()
		}
		publishedAt, err := time.Parse(a.timeFormat, rawTime)
		if err != nil {
			return
		}

		items = append(items, Item{
			URL:         absolute,
			Title:       link.Text(),
			PublishedAt: publishedAt.UTC(),
		})
	})

	sortNewestFirst(items)
	return items, nil
}

func (a *HTMLIndexAdapter) ExtractContent(pageURL, html string) (string, error) {
	return extractText(pageURL, html)
}
