package scraper

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WriteSummary prints the page metadata as a two-column table.
func WriteSummary(w io.Writer, p *Page) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, WidthMax: 20},
		{Number: 2, Align: text.AlignLeft, WidthMax: 80},
	})

	t.AppendRow(table.Row{"URL", p.URL})
	t.AppendRow(table.Row{"Title", p.Title})
	t.AppendRow(table.Row{"Description", p.Description})
	t.AppendRow(table.Row{"HTML Length", strconv.Itoa(len(p.HTML))})
	t.Style().Options.SeparateRows = true
	t.Render()
}

// StartSpinner animates message on w until the returned function is
// called. stop(true) marks the step done, stop(false) failed.
func StartSpinner(w io.Writer, message string) (stop func(ok bool)) {
	done := make(chan bool)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		spinner := `|/-\`
		i := 0
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s... [%s]", color.YellowString("%s", message), string(spinner[i]))
				i = (i + 1) % len(spinner)
			case ok := <-done:
				if ok {
					fmt.Fprintf(w, "\r%s... [%s]\n", color.GreenString("%s", message), "✔")
				} else {
					fmt.Fprintf(w, "\r%s... [%s]\n", color.RedString("%s", message), "✘")
				}
				return
			}
		}
	}()

	var once sync.Once
	return func(ok bool) {
		once.Do(func() {
			done <- ok
			wg.Wait()
		})
	}
}
