package htmlmd

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/dom"
)

// convertCodeBlocks keeps the text of each <pre> as is and wraps it in a
// fence or indents it.
func (c *Converter) convertCodeBlocks(root *html.Node) {
	for _, pre := range dom.FindAll(root, "pre") {
		code := strings.TrimSpace(dom.Text(pre))

		if c.config.CodeBlockStyle == CodeFenced {
			fence := strings.Repeat(c.config.FenceChar, 3)
			dom.ReplaceWithText(pre, "\n"+fence+"\n"+code+"\n"+fence+"\n")
			continue
		}
		dom.ReplaceWithText(pre, "\n"+prefixLines(code, "    ")+"\n")
	}
}

func (c *Converter) convertBlockquotes(root *html.Node) {
	for _, bq := range dom.FindAll(root, "blockquote") {
		quoted := prefixLines(strings.TrimSpace(dom.Text(bq)), "> ")
		dom.ReplaceWithText(bq, "\n"+quoted+"\n")
	}
}

func (c *Converter) convertRules(root *html.Node) {
	for _, hr := range dom.FindAll(root, "hr") {
		dom.ReplaceWithText(hr, "\n---\n")
	}
}

func prefixLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
