package crawler

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	fetchTimeout   = 30 * time.Second
	maxBodySize    = 5 << 20
	perDomainDelay = 2 * time.Second
	jitterFraction = 0.5
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// PoliteClient spaces requests per domain, rotates user agents and sends
// browser-like headers so sources treat the crawler as a regular reader.
type PoliteClient struct {
	http *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewPoliteClient() *PoliteClient {
	return &PoliteClient{
		http: &http.Client{
			Timeout: fetchTimeout,
		},
		limiters: map[string]*rate.Limiter{},
	}
}

// Get fetches one URL after waiting out the per-domain delay plus jitter.
func (c *PoliteClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}

	if err := c.limiterFor(parsed.Hostname()).Wait(ctx); err != nil {
		return nil, err
	}
	jitter := time.Duration(rand.Float64() * jitterFraction * float64(perDomainDelay))
	timer := time.NewTimer(jitter)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}
	return body, nil
}

func (c *PoliteClient) limiterFor(domain string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(perDomainDelay), 1)
		c.limiters[domain] = limiter
	}
	return limiter
}
