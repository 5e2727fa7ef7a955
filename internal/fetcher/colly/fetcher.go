// Package collyfetcher implements the document fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/scrape"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements scrape.Fetcher using the Colly collector. The pooled
// transport is shared across requests; per-request state lives on cloned
// collectors, so concurrent fetches do not serialize each other.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher with a pooled HTTP transport.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	// colly v2.1.0's Async option ignores its argument and always enables
	// async mode; the NewCollector default is already synchronous.
	c := colly.NewCollector()
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET. A response with status >= 400 is
// reported as a *scrape.HTTPStatusError so the classifier can scale severity
// with the status code.
func (f *Fetcher) Fetch(ctx context.Context, url string) (scrape.Document, error) {
	var (
		result   scrape.Document
		fetchErr error
	)
	start := time.Now()
	collector := f.baseCollector.Clone()

	collector.OnResponse(func(r *colly.Response) {
		result = scrape.Document{
			URL:        url,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= 400 {
			fetchErr = &scrape.HTTPStatusError{StatusCode: r.StatusCode, URL: url}
			return
		}
		fetchErr = err
	})

	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		return scrape.Document{}, err
	}
	if result.StatusCode == 0 {
		return scrape.Document{}, fmt.Errorf("fetch %s: no response received", url)
	}
	return result, nil
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return *fetchErr
		}
		if err != nil {
			return fmt.Errorf("visit %s: %w", url, err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}
