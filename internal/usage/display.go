package usage

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nao1215/markdown"
)

// Format selects how a Report is printed.
type Format string

const (
	FormatPretty   Format = "pretty"
	FormatSimple   Format = "simple"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

const (
	prettyBarWidth = 20
	simpleBarWidth = 30
)

// Write prints r to w in the given format.
func Write(w io.Writer, r *Report, format Format, now time.Time) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatSimple:
		return writeSimple(w, r, now)
	case FormatMarkdown:
		return writeMarkdown(w, r, now)
	case FormatPretty, "":
		return writePretty(w, r, now)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func levelColor(l Level) *color.Color {
	switch l {
	case LevelCritical:
		return color.New(color.FgRed)
	case LevelWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func writePretty(w io.Writer, r *Report, now time.Time) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(w, "\n%s\n\n", cyan("═══ Claude subscription usage ═══"))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Period", "Used", "Remaining", "Progress", "Resets"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignLeft},
		{Number: 5, Align: text.AlignLeft},
	})

	green := color.New(color.FgGreen).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	for _, p := range r.Periods() {
		if p.Window == nil {
			t.AppendRow(table.Row{p.Name, "N/A", "N/A", "", "N/A"})
			continue
		}
		filled, empty := Bar(p.Window.Utilization, prettyBarWidth)
		t.AppendRow(table.Row{
			p.Name,
			fmt.Sprintf("%.1f%%", p.Window.Utilization),
			green(fmt.Sprintf("%.1f%%", p.Window.Remaining())),
			levelColor(p.Window.Level()).Sprint(filled) + faint(empty),
			FormatResetTime(p.Window.ResetsAt, now),
		})
	}
	t.Render()
	fmt.Fprintln(w)
	return nil
}

func writeSimple(w io.Writer, r *Report, now time.Time) error {
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(w, "\n%s\n        Claude subscription usage\n%s\n", rule, rule)

	for _, p := range r.Periods() {
		fmt.Fprintf(w, "\n%s window:\n", p.Name)
		if p.Window == nil {
			fmt.Fprintln(w, "   no data")
			continue
		}

		status := "OK  "
		switch p.Window.Level() {
		case LevelCritical:
			status = "HIGH"
		case LevelWarning:
			status = "WARN"
		}
		filled, empty := Bar(p.Window.Utilization, simpleBarWidth)
		fmt.Fprintf(w, "   %s used: %.1f%% | remaining: %.1f%%\n", status, p.Window.Utilization, p.Window.Remaining())
		fmt.Fprintf(w, "   [%s%s]\n", filled, empty)
		fmt.Fprintf(w, "   resets: %s\n", FormatResetTime(p.Window.ResetsAt, now))
	}

	fmt.Fprintf(w, "\n%s\n\n", rule)
	return nil
}

func writeJSON(w io.Writer, r *Report) error {
	var doc any = r
	if len(r.Raw) > 0 {
		doc = r.Raw
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode usage: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeMarkdown(w io.Writer, r *Report, now time.Time) error {
	md := markdown.NewMarkdown(w)
	md.H2("Claude subscription usage")
	md.PlainText("")

	rows := make([][]string, 0, 2)
	for _, p := range r.Periods() {
		if p.Window == nil {
			rows = append(rows, []string{p.Name, "N/A", "N/A", "N/A"})
			continue
		}
		rows = append(rows, []string{
			p.Name,
			fmt.Sprintf("%.1f%%", p.Window.Utilization),
			fmt.Sprintf("%.1f%%", p.Window.Remaining()),
			FormatResetTime(p.Window.ResetsAt, now),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Period", "Used", "Remaining", "Resets"},
		Rows:   rows,
	})
	return md.Build()
}
