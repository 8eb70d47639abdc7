// Package fetch provides the synchronous page-retrieval capability the
// crawl is built on: one URL in, raw bytes or a classified failure out.
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-etl-books/config"
	"github.com/aluiziolira/go-etl-books/metrics"
)

// Fetcher retrieves the raw bytes behind a URL. A single attempt, no retry:
// failures surface to the caller for policy decisions.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client implements Fetcher over a colly collector restricted to the
// catalog's host. The collector runs synchronously; the crawl is fully
// sequential by design.
type Client struct {
	collector *colly.Collector
	metrics   *metrics.Metrics

	mu   sync.Mutex
	body []byte
	err  error
}

// New builds a client configured from cfg.
func New(cfg *config.Config, m *metrics.Metrics) (*Client, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if cfg.Delay > 0 {
		if err := collector.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: 1,
			Delay:       cfg.Delay,
		}); err != nil {
			return nil, fmt.Errorf("configure rate limits: %w", err)
		}
	}

	c := &Client{collector: collector, metrics: m}

	collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		c.metrics.IncRequest("started")
	})
	collector.OnResponse(func(r *colly.Response) {
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			c.metrics.ObserveDuration(time.Since(start))
		}
		c.metrics.IncRequest("succeeded")
		body := make([]byte, len(r.Body))
		copy(body, r.Body)
		c.body = body
	})
	collector.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		c.metrics.IncRequest("failed")
		c.err = Classify(err, statusCode)
	})

	return c, nil
}

// WithTransport swaps the HTTP transport, used by tests to mock responses.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.collector.WithTransport(rt)
}

// Fetch issues one blocking request and returns the response body or a
// classified error.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.body, c.err = nil, nil
	visitErr := c.collector.Visit(rawURL)
	c.collector.Wait()

	err := c.err
	if err == nil && visitErr != nil {
		err = Classify(visitErr, 0)
	}
	if err != nil {
		c.metrics.IncError(ErrorLabel(err))
		return nil, err
	}
	if c.body == nil {
		return nil, fmt.Errorf("no response body for %s", rawURL)
	}
	return c.body, nil
}
