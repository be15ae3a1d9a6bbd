package htmlmd

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/dom"
)

// convertParagraphs joins the trimmed text fragments of each <p> with
// single spaces and separates paragraphs by a blank line.
func (c *Converter) convertParagraphs(root *html.Node) {
	for _, p := range dom.FindAll(root, "p") {
		var parts []string
		for _, s := range dom.Strings(p) {
			if s = strings.TrimSpace(s); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			continue
		}
		dom.ReplaceWithText(p, "\n"+strings.Join(parts, " ")+"\n\n")
	}
}
