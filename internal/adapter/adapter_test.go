package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolveUnknownKeyFails(t *testing.T) {
	registry := DefaultRegistry()

	_, err := registry.Resolve("carrier-pigeon", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestRegistry_ValidateFailsFastOnTypo(t *testing.T) {
	registry := DefaultRegistry()

	assert.NoError(t, registry.Validate([]string{"rss", "newssitemap", "htmlindex"}))
	assert.Error(t, registry.Validate([]string{"rss", "htmlidex"}))
}

func TestOptions_Require(t *testing.T) {
	opts := Options{"feed_url": "https://example-daily.com/rss"}

	v, err := opts.Require("feed_url")
	require.NoError(t, err)
	assert.Equal(t, "https://example-daily.com/rss", v)

	_, err = opts.Require("sitemap_url")
	assert.Error(t, err)
}

func TestNewsSitemapAdapter_ParsesAndSortsNewestFirst(t *testing.T) {
	ad, err := NewNewsSitemapAdapter(Options{"sitemap_url": "https://example-news.com/sitemap-news.xml"})
	require.NoError(t, err)

	raw := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"
        xmlns:news="http://www.google.com/schemas/sitemap-news/0.9">
  <url>
    <loc>https://example-news.com/older</loc>
    <news:news>
      <news:title>Older story</news:title>
      <news:publication_date>2025-06-01T08:00:00Z</news:publication_date>
    </news:news>
  </url>
  <url>
    <loc>https://example-news.com/newer</loc>
    <news:news>
      <news:title>Newer story</news:title>
      <news:publication_date>2025-06-01T11:30:00Z</news:publication_date>
    </news:news>
  </url>
  <url>
    <loc>https://example-news.com/undated</loc>
  </url>
</urlset>`)

	items, err := ad.ParseSitemap(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, items, 2, "entries without a usable date are dropped")

	assert.Equal(t, "https://example-news.com/newer", items[0].URL)
	assert.Equal(t, "Newer story", items[0].Title)
	assert.Equal(t, time.Date(2025, 6, 1, 11, 30, 0, 0, time.UTC), items[0].PublishedAt)
	assert.Equal(t, "https://example-news.com/older", items[1].URL)
}

func TestNewsSitemapAdapter_FallsBackToLastMod(t *testing.T) {
	ad, err := NewNewsSitemapAdapter(Options{"sitemap_url": "https://example-news.com/sitemap.xml"})
	require.NoError(t, err)

	raw := []byte(`<urlset>
  <url>
    <loc>https://example-news.com/story</loc>
    <lastmod>2025-06-01</lastmod>
  </url>
</urlset>`)

	items, err := ad.ParseSitemap(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), items[0].PublishedAt)
}

func TestRSSAdapter_ParsesFeed(t *testing.T) {
	ad, err := NewRSSAdapter(Options{"feed_url": "https://example-daily.com/rss"})
	require.NoError(t, err)

	raw := []byte(`<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Example Daily</title>
    <item>
      <title>Morning story</title>
      <link>https://example-daily.com/morning</link>
      <pubDate>Sun, 01 Jun 2025 08:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Evening story</title>
      <link>https://example-daily.com/evening</link>
      <pubDate>Sun, 01 Jun 2025 18:00:00 GMT</pubDate>
    </item>
    <item>
      <title>No date</title>
      <link>https://example-daily.com/undated</link>
    </item>
  </channel>
</rss>`)

	items, err := ad.ParseSitemap(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://example-daily.com/evening", items[0].URL)
	assert.Equal(t, "https://example-daily.com/morning", items[1].URL)
}

func TestHTMLIndexAdapter_ResolvesRelativeLinks(t *testing.T) {
	ad, err := NewHTMLIndexAdapter(Options{
		"index_url":     "https://example-herald.com/latest",
		"item_selector": "article.story",
		"link_selector": "a.story-link",
		"time_selector": "time",
	})
	require.NoError(t, err)

	raw := []byte(`<html><body>
  <article class="story">
    <a class="story-link" href="/news/local-story">Local story</a>
    <time datetime="2025-06-01T09:00:00Z"></time>
  </article>
  <article class="story">
    <a class="story-link" href="https://example-herald.com/news/absolute">Absolute story</a>
    <time datetime="2025-06-01T10:00:00Z"></time>
  </article>
  <article class="story">
    <a class="story-link" href="/news/no-time">No time</a>
  </article>
</body></html>`)

	items, err := ad.ParseSitemap(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, items, 2, "items without a parsable time are dropped")
	assert.Equal(t, "https://example-herald.com/news/absolute", items[0].URL)
	assert.Equal(t, "https://example-herald.com/news/local-story", items[1].URL)
	assert.Equal(t, "Local story", items[1].Title)
}

func TestExtractText_StripsMarkupAndWhitespace(t *testing.T) {
	html := `<html><head><title>Story</title></head><body>
  <article>
    <h1>The headline</h1>
    <p>First paragraph of the article body, long enough to keep.</p>

    <p>Second paragraph with <b>inline</b> markup.</p>
  </article>
</body></html>`

	text, err := extractText("https://example-news.com/story", html)
	require.NoError(t, err)
	assert.NotContains(t, text, "<")
	assert.Contains(t, text, "First paragraph")
	assert.NotContains(t, text, "\n\n", "blank lines are collapsed")
}
