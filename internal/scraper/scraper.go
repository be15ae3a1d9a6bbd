// Package scraper fetches web pages for conversion.
//
// A Fetcher retrieves a single HTML page per call, extracts its title and
// meta description, and can locate the element holding the page's main
// content. Requests are rate limited per host and capped in number across
// hosts, so a Fetcher can be shared by concurrent callers such as the MCP
// server.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/dom"
)

// ErrNotHTML is returned when the response is not an HTML document.
var ErrNotHTML = errors.New("not HTML content")

// ErrBodyTooLarge is returned when a page exceeds Config.MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Config holds configuration options for the fetcher.
type Config struct {
	// UserAgent is the User-Agent header value sent with HTTP requests
	UserAgent string `mapstructure:"user_agent"`
	// Timeout bounds a single request, including reading the body
	Timeout time.Duration `mapstructure:"timeout"`
	// RequestDelay specifies the minimum time between requests to the same host
	RequestDelay time.Duration `mapstructure:"request_delay"`
	// MaxConcurrent limits the total number of in-flight requests
	MaxConcurrent int `mapstructure:"max_concurrent"`
	// MaxBodyBytes caps how much of a response body is read
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// DefaultConfig returns a default configuration with reasonable values.
func DefaultConfig() *Config {
	return &Config{
		UserAgent:     "Mozilla/5.0 (compatible; Alchemy/1.0)",
		Timeout:       10 * time.Second,
		RequestDelay:  1 * time.Second,
		MaxConcurrent: 2,
		MaxBodyBytes:  10 << 20,
	}
}

// Page is a fetched HTML document.
type Page struct {
	// URL is the address the page was requested from
	URL string
	// Title is the content of the <title> tag
	Title string
	// Description is the content of the meta description tag
	Description string
	// Document is the parsed page
	Document *html.Node
	// HTML is the response body as received
	HTML string
}

// Fetcher retrieves pages over HTTP.
type Fetcher struct {
	config *Config
	client *http.Client
	// lastRequestTime tracks the last request time per host
	lastRequestTime map[string]time.Time
	// requestSem limits concurrent requests
	requestSem chan struct{}
	mutex      sync.Mutex
}

// New creates a Fetcher. A nil config uses DefaultConfig.
func New(config *Config) *Fetcher {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}

	return &Fetcher{
		config:          config,
		client:          &http.Client{Timeout: config.Timeout},
		lastRequestTime: make(map[string]time.Time),
		requestSem:      make(chan struct{}, config.MaxConcurrent),
	}
}

// waitForRateLimit takes a request slot and waits until RequestDelay has
// passed since the previous request to host. The caller must release the
// slot.
func (f *Fetcher) waitForRateLimit(ctx context.Context, host string) error {
	select {
	case f.requestSem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	f.mutex.Lock()
	var wait time.Duration
	if last, ok := f.lastRequestTime[host]; ok {
		if elapsed := time.Since(last); elapsed < f.config.RequestDelay {
			wait = f.config.RequestDelay - elapsed
		}
	}
	// Reserve the slot now so concurrent callers queue behind it.
	f.lastRequestTime[host] = time.Now().Add(wait)
	f.mutex.Unlock()

	if wait == 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		<-f.requestSem
		return ctx.Err()
	}
}

// Fetch downloads and parses the page at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL %q: scheme must be http or https", rawURL)
	}

	if err := f.waitForRateLimit(ctx, parsedURL.Host); err != nil {
		return nil, err
	}
	defer func() { <-f.requestSem }()

	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, contentType)
	}

	var body io.Reader = resp.Body
	if f.config.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.config.MaxBodyBytes+1)
	}
	bodyBytes, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if f.config.MaxBodyBytes > 0 && int64(len(bodyBytes)) > f.config.MaxBodyBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, f.config.MaxBodyBytes)
	}

	doc, err := html.Parse(bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &Page{
		URL:         rawURL,
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		Document:    doc,
		HTML:        string(bodyBytes),
	}, nil
}

// extractTitle returns the text of the first <title>.
func extractTitle(doc *html.Node) string {
	titles := dom.FindAll(doc, "title")
	if len(titles) == 0 {
		return ""
	}
	return strings.TrimSpace(dom.Text(titles[0]))
}

// extractDescription returns the content of <meta name="description">.
func extractDescription(doc *html.Node) string {
	for _, meta := range dom.FindAll(doc, "meta") {
		name, _ := dom.Attr(meta, "name")
		if !strings.EqualFold(name, "description") {
			continue
		}
		if content, ok := dom.Attr(meta, "content"); ok {
			return strings.TrimSpace(content)
		}
	}
	return ""
}

// MainContent returns the element most likely to hold the page's main
// content: the first <main> or <article>, else the first element with
// id "content" or "main", else <body>. It returns nil only when doc has
// no body.
func MainContent(doc *html.Node) *html.Node {
	var mainNode *html.Node
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "main" || n.Data == "article" {
				mainNode = n
				return
			}
			if id, _ := dom.Attr(n, "id"); id == "content" || id == "main" {
				mainNode = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
			if mainNode != nil {
				return
			}
		}
	}
	f(doc)

	if mainNode == nil {
		if bodies := dom.FindAll(doc, "body"); len(bodies) > 0 {
			mainNode = bodies[0]
		}
	}
	return mainNode
}

// MainContentHTML renders MainContent(doc) back to markup, or the whole
// document when no candidate exists.
func MainContentHTML(doc *html.Node) (string, error) {
	n := MainContent(doc)
	if n == nil {
		n = doc
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render main content: %w", err)
	}
	return buf.String(), nil
}
