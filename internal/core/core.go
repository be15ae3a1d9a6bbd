// Package core exposes the converters as MCP tools.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/luminnexus/alchemy/internal/htmlmd"
	"github.com/luminnexus/alchemy/internal/scraper"
	"github.com/luminnexus/alchemy/internal/tablerender"
)

type Core struct {
	config  htmlmd.Config
	fetcher *scraper.Fetcher
	logger  *slog.Logger
}

func New(config htmlmd.Config, fetcher *scraper.Fetcher, logger *slog.Logger) *Core {
	if fetcher == nil {
		fetcher = scraper.New(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Core{config: config, fetcher: fetcher, logger: logger}
}

type HTMLToMarkdownArgs struct {
	HTML     string `json:"html" jsonschema:"the HTML document or fragment to convert"`
	Selector string `json:"selector,omitempty" jsonschema:"CSS selector of the element to convert; the whole document when empty or unmatched"`
	Engine   string `json:"engine,omitempty" jsonschema:"conversion engine: passes (default) or library"`
}

type HTMLToTableArgs struct {
	HTML string `json:"html" jsonschema:"HTML containing one or more tables"`
}

type URLToMarkdownArgs struct {
	URL      string `json:"url" jsonschema:"http or https address of the page"`
	Selector string `json:"selector,omitempty" jsonschema:"CSS selector of the element to convert"`
	Engine   string `json:"engine,omitempty" jsonschema:"conversion engine: passes (default) or library"`
	Main     bool   `json:"main,omitempty" jsonschema:"convert only the detected main content"`
}

// NewServer builds an MCP server with every tool registered.
func (c *Core) NewServer(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "Alchemy MCP Server", Version: version}, nil)
	c.registerTools(server)
	return server
}

// ServeStdio runs server over stdin/stdout until ctx ends or the client
// disconnects.
func (c *Core) ServeStdio(ctx context.Context, server *mcp.Server) error {
	c.logger.Info("starting MCP server", "transport", "stdio")
	t := &mcp.LoggingTransport{Transport: &mcp.StdioTransport{}, Writer: os.Stderr}
	return server.Run(ctx, t)
}

// ServeHTTP serves the streamable HTTP transport on addr until ctx ends.
func (c *Core) ServeHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	srv := &http.Server{
		Addr:              addr,
		Handler:           loggingHandler(c.logger, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("MCP handler listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (c *Core) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "html_to_markdown",
		Description: "Convert HTML to Markdown, optionally narrowed to the element matching a CSS selector.",
	}, c.htmlToMarkdown)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "html_to_table",
		Description: "Render the tables in an HTML document as a box-drawn text table.",
	}, c.htmlToTable)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "url_to_markdown",
		Description: "Fetch a web page and convert it to Markdown.",
	}, c.urlToMarkdown)
}

func textResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: s}}}
}

func (c *Core) convert(markup, selector, engine string) (string, error) {
	e, err := htmlmd.NewEngine(engine, c.config, htmlmd.WithLogger(c.logger))
	if err != nil {
		return "", err
	}
	return e.ConvertString(markup, selector)
}

func (c *Core) htmlToMarkdown(ctx context.Context, req *mcp.CallToolRequest, args HTMLToMarkdownArgs) (*mcp.CallToolResult, any, error) {
	markdown, err := c.convert(args.HTML, args.Selector, args.Engine)
	if err != nil {
		return nil, nil, err
	}
	return textResult(markdown), nil, nil
}

func (c *Core) htmlToTable(ctx context.Context, req *mcp.CallToolRequest, args HTMLToTableArgs) (*mcp.CallToolResult, any, error) {
	out := tablerender.Render(args.HTML)
	if out == "" {
		return textResult("no table rows found"), nil, nil
	}
	return textResult(out), nil, nil
}

func (c *Core) urlToMarkdown(ctx context.Context, req *mcp.CallToolRequest, args URLToMarkdownArgs) (*mcp.CallToolResult, any, error) {
	page, err := c.fetcher.Fetch(ctx, args.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch %s: %w", args.URL, err)
	}

	markup := page.HTML
	if args.Main {
		if markup, err = scraper.MainContentHTML(page.Document); err != nil {
			return nil, nil, err
		}
	}

	markdown, err := c.convert(markup, args.Selector, args.Engine)
	if err != nil {
		return nil, nil, err
	}
	return textResult(markdown), nil, nil
}
