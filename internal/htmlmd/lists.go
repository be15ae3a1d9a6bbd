package htmlmd

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/dom"
)

// convertLists renders ordered lists first, then unordered ones. Only the
// direct <li> children are itemised; anything nested inside an item is
// flattened into that item's text.
func (c *Converter) convertLists(root *html.Node) {
	for _, ol := range dom.FindAll(root, "ol") {
		var items []string
		for i, li := range dom.Children(ol, "li") {
			items = append(items, strconv.Itoa(i+1)+". "+strings.TrimSpace(dom.Text(li)))
		}
		dom.ReplaceWithText(ol, "\n"+strings.Join(items, "\n")+"\n\n")
	}

	for _, ul := range dom.FindAll(root, "ul") {
		var items []string
		for _, li := range dom.Children(ul, "li") {
			items = append(items, c.config.BulletMarker+" "+strings.TrimSpace(dom.Text(li)))
		}
		dom.ReplaceWithText(ul, "\n"+strings.Join(items, "\n")+"\n\n")
	}
}
