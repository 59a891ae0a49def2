// Package websearch collects external evidence for prompt augmentation.
//
// Two tiers are exposed. Shallow returns raw (title, link) pairs used to
// lightly ground a single turn. Deep returns free-text snippets that seed
// the semantic index before it is queried. Both degrade to an empty result
// on any upstream failure: absence of evidence must never abort a request.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultTimeout bounds each upstream search call.
	DefaultTimeout = 10 * time.Second

	// maxBodySize caps search responses to prevent resource exhaustion.
	maxBodySize = 4 << 20 // 4 MB

	// defaultShallowURL is the HTML results endpoint used for shallow
	// lookups when no override is configured.
	defaultShallowURL = "https://html.duckduckgo.com/html/"
)

// Page is one shallow result, in the order returned upstream.
type Page struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Config holds Client construction parameters.
type Config struct {
	// ShallowBaseURL is the HTML search endpoint for shallow lookups.
	// Empty selects the DuckDuckGo HTML endpoint.
	ShallowBaseURL string

	// SearxBaseURL is the SearXNG instance used for deep lookups
	// (e.g. http://localhost:8888). Required for Deep to return results.
	SearxBaseURL string

	// Timeout bounds each request. Zero selects DefaultTimeout.
	Timeout time.Duration
}

// Client queries external search services. It holds no shared mutable
// state and is safe for concurrent use.
type Client struct {
	http       *http.Client
	shallowURL string
	searxURL   string
	logger     *slog.Logger
}

// New creates a search client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	shallow := cfg.ShallowBaseURL
	if shallow == "" {
		shallow = defaultShallowURL
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		shallowURL: shallow,
		searxURL:   strings.TrimSuffix(cfg.SearxBaseURL, "/"),
		logger:     logger,
	}
}

// Shallow performs a general web search and returns (title, link) pairs in
// upstream order, without re-ranking. Any failure — transport error,
// non-2xx status, or no parseable results — yields an empty slice.
func (c *Client) Shallow(ctx context.Context, query string) []Page {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	reqURL := c.shallowURL + "?q=" + url.QueryEscape(query)
	body, err := c.get(ctx, reqURL)
	if err != nil {
		c.logger.Warn("shallow lookup failed", "error", err)
		return nil
	}
	defer func() { _ = body.Close() }()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(body, maxBodySize))
	if err != nil {
		c.logger.Warn("shallow lookup parse failed", "error", err)
		return nil
	}

	var pages []Page
	doc.Find("a.result__a").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Text())
		link, ok := sel.Attr("href")
		if title == "" || !ok || link == "" {
			return
		}
		pages = append(pages, Page{Title: title, Link: resolveRedirect(link)})
	})

	c.logger.Debug("shallow lookup", "query", query, "results", len(pages))
	return pages
}

// searxResponse mirrors the subset of the SearXNG JSON API we read.
type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Deep performs a snippet-oriented search and returns up to maxResults
// free-text snippets, each a "title + body" concatenation summarizing one
// hit. Same graceful-empty policy as Shallow.
func (c *Client) Deep(ctx context.Context, query string, maxResults int) []string {
	if strings.TrimSpace(query) == "" || maxResults <= 0 || c.searxURL == "" {
		return nil
	}

	reqURL := fmt.Sprintf("%s/search?q=%s&format=json", c.searxURL, url.QueryEscape(query))
	body, err := c.get(ctx, reqURL)
	if err != nil {
		c.logger.Warn("deep lookup failed", "error", err)
		return nil
	}
	defer func() { _ = body.Close() }()

	var parsed searxResponse
	if err := json.NewDecoder(io.LimitReader(body, maxBodySize)).Decode(&parsed); err != nil {
		c.logger.Warn("deep lookup decode failed", "error", err)
		return nil
	}

	snippets := make([]string, 0, min(maxResults, len(parsed.Results)))
	for _, r := range parsed.Results {
		if len(snippets) == maxResults {
			break
		}
		snippet := joinSnippet(strings.TrimSpace(r.Title), strings.TrimSpace(r.Content))
		if snippet == "" {
			continue
		}
		snippets = append(snippets, snippet)
	}

	c.logger.Debug("deep lookup", "query", query, "snippets", len(snippets))
	return snippets
}

// joinSnippet concatenates a hit's title and body, omitting whichever is
// missing so no orphaned separator leaks into the snippet.
func joinSnippet(title, content string) string {
	switch {
	case title == "":
		return content
	case content == "":
		return title
	default:
		return title + ". " + content
	}
}

// get issues a GET with context and returns the body for 2xx responses.
func (c *Client) get(ctx context.Context, reqURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "jarvis-assistant/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<target> indirection so
// stored links point at the real page. Unknown shapes pass through as-is.
func resolveRedirect(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return link
}
