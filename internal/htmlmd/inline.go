package htmlmd

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/dom"
)

// convertInline rewrites bold, italic, strikethrough, inline code and
// links below root. It runs once per table and once over the whole
// document.
func (c *Converter) convertInline(root *html.Node) {
	strong := strings.Repeat(c.config.EmphasisMarker, 2)
	c.wrapAll(root, strong, strong, "strong", "b")
	c.wrapAll(root, c.config.EmphasisMarker, c.config.EmphasisMarker, "em", "i")
	c.wrapAll(root, "~~", "~~", "s", "del")
	c.wrapAll(root, "`", "`", "code")

	if !c.config.PreserveLinks {
		return
	}
	for _, a := range dom.FindAll(root, "a") {
		href, _ := dom.Attr(a, "href")
		text := strings.TrimSpace(dom.Text(a))
		switch c.config.LinkStyle {
		case LinkInline:
			dom.ReplaceWithText(a, "["+text+"]("+href+")")
		case LinkReference:
			// TODO: emit [text][n] with a trailing reference list.
		}
	}
}

func (c *Converter) wrapAll(root *html.Node, opening, closing string, tags ...string) {
	for _, n := range dom.FindAll(root, tags...) {
		dom.ReplaceWithText(n, opening+strings.TrimSpace(dom.Text(n))+closing)
	}
}
