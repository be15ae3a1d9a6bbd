package htmlmd

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/dom"
)

// convertTables renders every table as a pipe table.
func (c *Converter) convertTables(root *html.Node) {
	for _, table := range dom.FindAll(root, "table") {
		// Cell text must already carry inline markers before it is
		// flattened into rows.
		c.convertInline(table)
		dom.ReplaceWithText(table, "\n"+strings.Join(c.tableLines(table), "\n")+"\n")
	}
}

func (c *Converter) tableLines(table *html.Node) []string {
	rows := dom.FindAll(table, "tr")
	headerRow := -1
	var header []string

	for i, tr := range rows {
		if th := dom.FindAll(tr, "th"); len(th) > 0 {
			headerRow = i
			header = c.expandCells(th)
			break
		}
	}

	// Without <th>, the first multi-cell row where no cell spans extra
	// columns is taken as the header. Rows spanning the full width are
	// usually captions.
	if header == nil {
		for i, tr := range rows {
			td := dom.FindAll(tr, "td")
			if len(td) > 1 && c.spanTotal(td) == len(td) {
				headerRow = i
				header = c.expandCells(td)
				break
			}
		}
	}

	var lines []string
	if len(header) > 0 {
		sep := make([]string, len(header))
		for i := range sep {
			sep[i] = "---"
		}
		lines = append(lines, pipeRow(header), pipeRow(sep))
	}

	for i, tr := range rows {
		if i == headerRow {
			continue
		}
		// Rows made only of <th> cells have nothing left to emit.
		td := dom.FindAll(tr, "td")
		if len(td) == 0 {
			continue
		}
		lines = append(lines, pipeRow(c.expandCells(td)))
	}
	return lines
}

func (c *Converter) spanTotal(cells []*html.Node) int {
	total := 0
	for _, cell := range cells {
		total += c.spanOf(cell)
	}
	return total
}

func pipeRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
