package htmlmd

import (
	"bytes"
	"fmt"
	"strings"

	htm "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// Engine names accepted by NewEngine.
const (
	EnginePasses  = "passes"
	EngineLibrary = "library"
)

// Engine converts an HTML string to Markdown.
type Engine interface {
	ConvertString(markup, containerSelector string) (string, error)
}

// NewEngine returns the engine registered under name. An empty name
// selects EnginePasses.
func NewEngine(name string, cfg Config, opts ...Option) (Engine, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EnginePasses:
		return c, nil
	case EngineLibrary:
		return &LibraryEngine{conv: c}, nil
	default:
		return nil, fmt.Errorf("%w %q (allowed: %s, %s)", ErrUnknownEngine, name, EnginePasses, EngineLibrary)
	}
}

// LibraryEngine delegates conversion to html-to-markdown. It honours the
// container selector and the cleanup step of the pass engine, but none of
// its style options.
type LibraryEngine struct {
	conv *Converter
}

// ConvertString converts HTML content to Markdown format.
func (e *LibraryEngine) ConvertString(markup, containerSelector string) (string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, e.conv.selectContainer(doc, containerSelector)); err != nil {
		return "", fmt.Errorf("failed to render container: %w", err)
	}

	markdown, err := htm.ConvertString(buf.String())
	if err != nil {
		e.conv.logger.Error("error converting html", "engine", EngineLibrary, "error", err)
		return "", err
	}
	return cleanup(markdown), nil
}
