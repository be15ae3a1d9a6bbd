package htmlmd

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/dom"
)

// convertHeadings rewrites h6 down to h1 so a heading nested in another is
// rendered before its parent flattens it.
func (c *Converter) convertHeadings(root *html.Node) {
	for level := 6; level >= 1; level-- {
		for _, h := range dom.FindAll(root, fmt.Sprintf("h%d", level)) {
			text := strings.TrimSpace(dom.Text(h))
			dom.ReplaceWithText(h, c.heading(level, text))
		}
	}
}

func (c *Converter) heading(level int, text string) string {
	if c.config.HeadingStyle == HeadingATX {
		return "\n" + strings.Repeat("#", level) + " " + text + "\n"
	}

	underline := "-"
	if level == 1 {
		underline = "="
	}
	return "\n" + text + "\n" + strings.Repeat(underline, utf8.RuneCountInString(text)) + "\n"
}
