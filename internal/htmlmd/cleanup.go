package htmlmd

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	blankLinesRe = regexp.MustCompile(`\n[\s\v\x{1c}-\x{1f}\p{Z}\x{85}]*\n`)
	spaceRunRe   = regexp.MustCompile(` +`)
)

// cleanup collapses blank-line runs to a single blank line and space runs
// to one space, decodes entities, trims, and ends the text with exactly
// one newline.
func cleanup(text string) string {
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	return strings.TrimSpace(text) + "\n"
}
