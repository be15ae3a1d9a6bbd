// Package tablerender draws HTML tables as box-drawn terminal tables.
package tablerender

import (
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/dom"
)

// WrapWidth is the number of characters after which cell text wraps.
const WrapWidth = 200

// Render draws every <tr> found in markup, across all tables, as one
// terminal table. Rows are padded to the widest row. It returns "" when
// markup is empty or has no rows.
func Render(markup string) string {
	if markup == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	var rows [][]string
	columns := 0
	for _, tr := range dom.FindAll(doc, "tr") {
		var row []string
		for _, cell := range dom.FindAll(tr, "td", "th") {
			row = append(row, cellText(cell))
		}
		columns = max(columns, len(row))
		rows = append(rows, row)
	}
	if len(rows) == 0 || columns == 0 {
		return ""
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = true

	configs := make([]table.ColumnConfig, columns)
	for i := range configs {
		configs[i] = table.ColumnConfig{
			Number: i + 1,
			Align:  text.AlignLeft,
		}
	}
	t.SetColumnConfigs(configs)

	for _, cells := range rows {
		row := make(table.Row, columns)
		for i := range row {
			row[i] = ""
			if i < len(cells) {
				row[i] = cells[i]
			}
		}
		t.AppendRow(row)
	}
	return t.Render() + "\n"
}

// cellText joins the cell's text fragments with single spaces.
func cellText(cell *html.Node) string {
	var words []string
	for _, s := range dom.Strings(cell) {
		words = append(words, strings.Fields(s)...)
	}
	return wrapRunes(words, WrapWidth)
}

// wrapRunes joins words into lines of at most width runes, breaking words
// that are longer than a line. Width is counted in characters, not
// terminal cells, so CJK text wraps at the same length as Latin text.
func wrapRunes(words []string, width int) string {
	var (
		lines []string
		line  strings.Builder
		n     int
	)
	flush := func() {
		if n > 0 {
			lines = append(lines, line.String())
			line.Reset()
			n = 0
		}
	}

	for _, w := range words {
		wn := utf8.RuneCountInString(w)
		if n > 0 && n+1+wn <= width {
			line.WriteByte(' ')
			line.WriteString(w)
			n += 1 + wn
			continue
		}
		flush()
		for wn > width {
			runes := []rune(w)
			lines = append(lines, string(runes[:width]))
			w = string(runes[width:])
			wn -= width
		}
		line.WriteString(w)
		n = wn
	}
	flush()
	return strings.Join(lines, "\n")
}
