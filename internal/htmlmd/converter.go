// Package htmlmd converts HTML into Markdown.
//
// Conversion is a fixed sequence of passes over a golang.org/x/net/html
// tree. Each pass looks for the tags it owns and replaces every match with
// a literal text node holding the rendered Markdown, so later passes only
// see text where earlier ones already ran. The final document text is then
// normalised by a cleanup step.
package htmlmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/dom"
)

// Logger is the logging capability the converter needs. *slog.Logger
// satisfies it.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Option customises a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for recoverable warnings and internal
// errors. A nil logger is ignored.
func WithLogger(l Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// Converter converts HTML to Markdown. It holds no per-call state and is
// safe for concurrent use.
type Converter struct {
	config Config
	logger Logger
}

// New creates a Converter from cfg. Empty enum and marker fields fall back
// to DefaultConfig values.
func New(cfg Config, opts ...Option) (*Converter, error) {
	cfg = cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversion config: %w", err)
	}

	c := &Converter{
		config: cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns a copy of the converter configuration.
func (c *Converter) Config() Config {
	return c.config
}

// Convert turns in into Markdown. When containerSelector is non-empty and
// matches an element, only that element is converted; otherwise the whole
// document is.
func (c *Converter) Convert(in Input, containerSelector string) (md string, err error) {
	var doc *html.Node
	switch v := in.(type) {
	case RawMarkup:
		doc, err = html.Parse(strings.NewReader(string(v)))
		if err != nil {
			c.logger.Error("error parsing html", "error", err)
			return "", fmt.Errorf("failed to parse html: %w", err)
		}
	case ParsedTree:
		if v.Node == nil {
			c.logger.Error("error converting html", "error", ErrInvalidInputKind)
			return "", fmt.Errorf("nil parsed tree: %w", ErrInvalidInputKind)
		}
		doc = dom.Clone(v.Node)
	default:
		c.logger.Error("error converting html", "error", ErrInvalidInputKind, "type", fmt.Sprintf("%T", in))
		return "", fmt.Errorf("%T: %w", in, ErrInvalidInputKind)
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("error converting html", "panic", r)
			md, err = "", fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	root := c.selectContainer(doc, containerSelector)

	if c.config.PreserveStructure {
		c.convertStructure(root)
	}
	c.convertInline(root)
	// Paragraphs go last so the markers written by the inline pass survive.
	c.convertParagraphs(root)

	return cleanup(dom.Text(root)), nil
}

// ConvertString converts an HTML string.
func (c *Converter) ConvertString(markup, containerSelector string) (string, error) {
	return c.Convert(RawMarkup(markup), containerSelector)
}

// selectContainer narrows doc to the first element matching selector. An
// unmatched or invalid selector falls back to doc.
func (c *Converter) selectContainer(doc *html.Node, selector string) *html.Node {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return doc
	}

	group, err := cascadia.ParseGroup(selector)
	if err != nil {
		c.logger.Warn("invalid container selector, converting whole document", "selector", selector, "error", err)
		return doc
	}
	if n := cascadia.Query(doc, group); n != nil {
		return n
	}
	return doc
}

func (c *Converter) convertStructure(root *html.Node) {
	c.convertHeadings(root)
	c.convertLists(root)
	if c.config.PreserveTables {
		c.convertTables(root)
	}
	c.convertCodeBlocks(root)
	c.convertBlockquotes(root)
	c.convertRules(root)
}

// ConvertHTMLToMarkdown converts markup with cfg, or DefaultConfig when cfg
// is nil.
func ConvertHTMLToMarkdown(markup, containerSelector string, cfg *Config) (string, error) {
	config := DefaultConfig()
	if cfg != nil {
		config = *cfg
	}
	c, err := New(config)
	if err != nil {
		return "", err
	}
	return c.ConvertString(markup, containerSelector)
}
