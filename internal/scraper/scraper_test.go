package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const samplePage = `<html><head><title> Vitamin C </title>
<meta name="Description" content="Supplement facts"></head>
<body><nav>Menu</nav><main><h1>Vitamin C</h1><p>Daily dose</p></main></body></html>`

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.RequestDelay = 0
	return cfg
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultConfig().UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	page, err := New(testConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, page.URL)
	assert.Equal(t, "Vitamin C", page.Title)
	assert.Equal(t, "Supplement facts", page.Description)
	assert.Equal(t, samplePage, page.HTML)
	require.NotNil(t, page.Document)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}, "unexpected status code: 404"},
		{"content type", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{}`)
		}, "not HTML content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := New(testConfig()).Fetch(context.Background(), srv.URL)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("scheme", func(t *testing.T) {
		_, err := New(testConfig()).Fetch(context.Background(), "file:///etc/passwd")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheme")
	})
}

func TestFetchBodyLimit(t *testing.T) {
	const body = "<p>" + "xxxxxxxxxx" + "</p>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	t.Run("over limit", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxBodyBytes = int64(len(body)) - 1
		_, err := New(cfg).Fetch(context.Background(), srv.URL)
		assert.ErrorIs(t, err, ErrBodyTooLarge)
	})

	t.Run("at limit", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxBodyBytes = int64(len(body))
		page, err := New(cfg).Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, body, page.HTML)
	})
}

func TestFetchRateLimitsPerHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<p>ok</p>")
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RequestDelay = 150 * time.Millisecond
	f := New(cfg)

	start := time.Now()
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), cfg.RequestDelay)
}

func TestFetchCancelledWhileWaiting(t *testing.T) {
	cfg := testConfig()
	cfg.RequestDelay = time.Hour
	f := New(cfg)
	f.lastRequestTime["example.com"] = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, "http://example.com/")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, f.requestSem, 0)
}

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestMainContent(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"main", `<nav>x</nav><main>m</main>`, "main"},
		{"article", `<div><article>a</article></div>`, "article"},
		{"id content", `<div id="content">c</div>`, "div"},
		{"body fallback", `<div>plain</div>`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := MainContent(parse(t, tt.markup))
			require.NotNil(t, n)
			assert.Equal(t, tt.want, n.Data)
		})
	}
}

func TestMainContentHTML(t *testing.T) {
	out, err := MainContentHTML(parse(t, samplePage))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<main>"))
	assert.NotContains(t, out, "Menu")
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, &Page{URL: "https://example.com", Title: "Example", HTML: "<p>hi</p>"})
	out := buf.String()
	assert.Contains(t, out, "Example")
	assert.Contains(t, out, "https://example.com")
	assert.Contains(t, out, "9")
}

func TestStartSpinner(t *testing.T) {
	var buf bytes.Buffer
	stop := StartSpinner(&buf, "Fetching")
	stop(true)
	stop(false)
	assert.Contains(t, buf.String(), "Fetching")
	assert.Contains(t, buf.String(), "✔")
	assert.NotContains(t, buf.String(), "✘")
}
