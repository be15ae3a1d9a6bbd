package htmlmd

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/dom"
)

// maxSpan is the largest colspan browsers honour.
const maxSpan = 1000

// spanOf returns the number of columns cell occupies. Anything but a clean
// positive integer counts as 1, so a cell's text is never lost to a
// malformed attribute.
func (c *Converter) spanOf(cell *html.Node) int {
	raw, ok := dom.Attr(cell, "colspan")
	if !ok {
		return 1
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		c.logger.Warn("malformed span attribute, using 1", "attribute", "colspan", "value", raw)
		return 1
	}
	if n > maxSpan {
		return maxSpan
	}
	return n
}

// expandCells returns the trimmed text of each cell followed by one empty
// placeholder per extra column it spans.
func (c *Converter) expandCells(cells []*html.Node) []string {
	var out []string
	for _, cell := range cells {
		out = append(out, strings.TrimSpace(dom.Text(cell)))
		span := c.spanOf(cell)
		for i := 1; i < span; i++ {
			out = append(out, "")
		}
	}
	return out
}
