package htmlmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/dom"
)

type recordingLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprint(append([]any{msg}, args...)...))
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprint(append([]any{msg}, args...)...))
}

func convert(t *testing.T, markup string) string {
	t.Helper()
	out, err := ConvertHTMLToMarkdown(markup, "", nil)
	require.NoError(t, err)
	return out
}

func convertWith(t *testing.T, cfg Config, markup string) string {
	t.Helper()
	out, err := ConvertHTMLToMarkdown(markup, "", &cfg)
	require.NoError(t, err)
	return out
}

func TestConvertInline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paragraph", "<p>Hello World</p>", "Hello World"},
		{"bold", "<p>Hello <strong>World</strong></p>", "Hello **World**"},
		{"b tag", "<p><b>bold</b></p>", "**bold**"},
		{"italic", "<p>Hello <em>World</em></p>", "Hello *World*"},
		{"i tag", "<p><i>it</i></p>", "*it*"},
		{"strike", "<p><del>gone</del> and <s>old</s></p>", "~~gone~~ and ~~old~~"},
		{"inline code", "<p>run <code>go test</code></p>", "run `go test`"},
		{"link", `<a href="https://example.com">Click here</a>`, "[Click here](https://example.com)"},
		{"link without href", `<a>bare</a>`, "[bare]()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, convert(t, tt.in), tt.want)
		})
	}
}

func TestConvertHeadings(t *testing.T) {
	out := convert(t, "<h1>Title</h1><h3> Sub </h3>")
	assert.Equal(t, "# Title\n\n### Sub\n", out)
}

func TestConvertSetextHeadings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeadingStyle = HeadingSetext

	out := convertWith(t, cfg, "<h1>Title</h1><h2>Café</h2>")
	assert.Equal(t, "Title\n=====\n\nCafé\n----\n", out)
}

func TestConvertNestedHeading(t *testing.T) {
	out := convert(t, "<h1>Outer <h2>Inner</h2></h1>")
	assert.Contains(t, out, "## Inner")
}

func TestConvertLists(t *testing.T) {
	t.Run("unordered", func(t *testing.T) {
		out := convert(t, "<ul><li>Item 1</li><li>Item 2</li></ul>")
		assert.Equal(t, "- Item 1\n- Item 2\n", out)
	})

	t.Run("ordered", func(t *testing.T) {
		out := convert(t, "<ol><li>First</li><li>Second</li></ol>")
		assert.Equal(t, "1. First\n2. Second\n", out)
	})

	t.Run("custom bullet", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.BulletMarker = "*"
		assert.Contains(t, convertWith(t, cfg, "<ul><li>Item</li></ul>"), "* Item")
	})

	t.Run("nested list flattened into item", func(t *testing.T) {
		out := convert(t, "<ol><li>a<ul><li>b</li></ul></li><li>c</li></ol>")
		assert.Contains(t, out, "1. ab")
		assert.Contains(t, out, "2. c")
		assert.NotContains(t, out, "- b")
	})
}

func TestConvertTableWithHeader(t *testing.T) {
	out := convert(t, `<table><tr><th>Name</th><th>Age</th></tr><tr><td>Alice</td><td>30</td></tr></table>`)
	assert.Equal(t, "| Name | Age |\n| --- | --- |\n| Alice | 30 |\n", out)
}

func TestConvertTableWithTheadTbody(t *testing.T) {
	out := convert(t, `
		<table>
			<thead><tr><th>Product</th><th>Price</th></tr></thead>
			<tbody>
				<tr><td>Apple</td><td>$1.00</td></tr>
				<tr><td>Orange</td><td>$1.50</td></tr>
			</tbody>
		</table>`)

	assert.Contains(t, out, "| Product | Price |\n| --- | --- |\n| Apple | $1.00 |\n| Orange | $1.50 |")
}

func TestConvertTableSyntheticHeader(t *testing.T) {
	out := convert(t, `
		<table>
			<tr><td colspan="2">Supplement Facts</td></tr>
			<tr><td>Serving Size</td><td>2 Gummies</td></tr>
			<tr><td>Calories</td><td>15</td></tr>
		</table>`)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| Serving Size | 2 Gummies |", lines[0])
	assert.Equal(t, "| --- | --- |", lines[1])
	assert.Equal(t, "| Supplement Facts | |", lines[2])
	assert.Equal(t, "| Calories | 15 |", lines[3])
}

func TestConvertTableWithoutHeaderCandidate(t *testing.T) {
	out := convert(t, `<table><tr><td>only</td></tr><tr><td colspan="2">wide</td></tr></table>`)
	assert.Equal(t, "| only |\n| wide | |\n", out)
}

func TestConvertTableColspanExpansion(t *testing.T) {
	out := convert(t, `
		<table>
			<tr><td colspan="3">Title Spanning 3 Columns</td></tr>
			<tr><th>Col1</th><th>Col2</th><th>Col3</th></tr>
			<tr><td>A</td><td>B</td><td>C</td></tr>
		</table>`)

	assert.Contains(t, out, "| Col1 | Col2 | Col3 |\n| --- | --- | --- |")
	assert.Contains(t, out, "| Title Spanning 3 Columns | | |")
	assert.Contains(t, out, "| A | B | C |")
}

func TestConvertTableHeaderColspan(t *testing.T) {
	out := convert(t, `<table><tr><th colspan="2">Amount</th><th>%DV</th></tr><tr><td>a</td><td>b</td><td>c</td></tr></table>`)
	assert.Contains(t, out, "| Amount | | %DV |\n| --- | --- | --- |\n| a | b | c |")
}

func TestConvertTableMixedRowKeepsDataCells(t *testing.T) {
	out := convert(t, `<table><tr><th>K</th><th>V</th></tr><tr><th>row</th><td>value</td></tr><tr><th>only</th><th>header</th></tr></table>`)
	assert.Contains(t, out, "| value |")
	assert.NotContains(t, out, "| only |")
}

func TestConvertTableEmptyCells(t *testing.T) {
	out := convert(t, `
		<table>
			<tr><th>Name</th><th>Value</th></tr>
			<tr><td>Item1</td><td></td></tr>
			<tr><td></td><td>Value2</td></tr>
		</table>`)

	assert.Contains(t, out, "| Name | Value |")
	assert.Contains(t, out, "| Item1 |")
	assert.Contains(t, out, "| Value2 |")
}

func TestConvertTableNestedFormatting(t *testing.T) {
	out := convert(t, `
		<table>
			<tr><th>Product</th><th>Details</th></tr>
			<tr><td><strong>Bold Item</strong></td><td><a href="http://example.com">Link</a></td></tr>
		</table>`)

	assert.Contains(t, out, "| **Bold Item** | [Link](http://example.com) |")
}

func TestConvertTablesDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreserveTables = false

	out := convertWith(t, cfg, `<table><tr><th>Name</th></tr><tr><td>Alice</td></tr></table>`)
	assert.NotContains(t, out, "|")
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "Alice")
}

func TestMalformedSpansNeverDropText(t *testing.T) {
	values := []string{
		`27'height=colspan='3'`,
		`abc123`,
		`5abc`,
		`abc5`,
		`a5b`,
		`5.5`,
		``,
		`0`,
		`-2`,
		`"`,
	}
	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			log := &recordingLogger{}
			c, err := New(DefaultConfig(), WithLogger(log))
			require.NoError(t, err)

			markup := fmt.Sprintf(`<table><tr><td colspan="%s"><strong>Supplement Facts</strong></td><td rowspan="%s">Content B</td></tr><tr><td>Content C</td></tr></table>`, v, v)
			out, err := c.ConvertString(markup, "")
			require.NoError(t, err)
			assert.Contains(t, out, "Supplement Facts")
			assert.Contains(t, out, "Content B")
			assert.Contains(t, out, "Content C")
			assert.NotEmpty(t, log.warns)
			assert.Empty(t, log.errors)
		})
	}
}

func TestMalformedQuotingEndToEnd(t *testing.T) {
	tests := []string{
		`<td colspan="27'height=colspan='3'">Supplement Facts</td>`,
		`<td colspan="abc123">Content</td>`,
		`<table><tr><td colspan="27" height="colspan="><strong>Supplement Facts&nbsp;</strong></td></tr></table>`,
		`<table><tbody>
			<tr><td colspan="27" height="colspan="><strong>Serving Size:</strong>2 Tablets</td></tr>
			<tr><td colspan="27" height="colspan="><strong>Servings Per Container:</strong>45</td></tr>
		</tbody></table>`,
	}
	for _, in := range tests {
		out := convert(t, in)
		assert.NotEmpty(t, strings.TrimSpace(out))
	}

	assert.Contains(t, convert(t, tests[0]), "Supplement Facts")
	assert.Contains(t, convert(t, tests[1]), "Content")
	assert.Contains(t, convert(t, tests[2]), "Supplement Facts")
	multi := convert(t, tests[3])
	for _, want := range []string{"Serving Size", "2 Tablets", "Servings Per Container", "45"} {
		assert.Contains(t, multi, want)
	}
}

func TestValidSpansHonoured(t *testing.T) {
	for _, span := range []int{1, 2, 3, 10, 100} {
		t.Run(fmt.Sprint(span), func(t *testing.T) {
			markup := fmt.Sprintf(`<table><tr><td colspan="%d">X</td></tr></table>`, span)
			out := strings.TrimSpace(convert(t, markup))
			assert.Equal(t, span+1, strings.Count(out, "|"), out)
		})
	}
}

func TestHugeSpanIsCapped(t *testing.T) {
	out := convert(t, `<table><tr><td colspan="99999999">X</td></tr></table>`)
	assert.Equal(t, maxSpan+1, strings.Count(out, "|"))
}

func TestConvertCodeBlocks(t *testing.T) {
	t.Run("fenced", func(t *testing.T) {
		out := convert(t, "<pre>x = 1\ny = 2</pre>")
		assert.Equal(t, "```\nx = 1\ny = 2\n```\n", out)
	})

	t.Run("tilde fence", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FenceChar = "~"
		assert.Equal(t, "~~~\ncode\n~~~\n", convertWith(t, cfg, "<pre>code</pre>"))
	})

	t.Run("indented", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CodeBlockStyle = CodeIndented
		// Cleanup collapses space runs, so the indent shrinks to one space.
		out := convertWith(t, cfg, "<p>before</p><pre>a\nb</pre>")
		assert.Contains(t, out, "before\n\n a\n b")
	})

	t.Run("code inside pre is verbatim", func(t *testing.T) {
		out := convert(t, "<pre><code>fmt.Println()</code></pre>")
		assert.Contains(t, out, "```\nfmt.Println()\n```")
		assert.NotContains(t, out, "`fmt")
	})
}

func TestConvertBlockquoteAndRule(t *testing.T) {
	out := convert(t, "<blockquote>line one\nline two</blockquote><hr><p>after</p>")
	assert.Equal(t, "> line one\n> line two\n\n---\n\nafter\n", out)
}

func TestConvertEmphasisMarker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmphasisMarker = "_"
	out := convertWith(t, cfg, "<p><b>strong</b> <em>soft</em></p>")
	assert.Equal(t, "__strong__ _soft_\n", out)
}

func TestConvertLinks(t *testing.T) {
	markup := `<p>see <a href="/docs">docs</a></p>`

	t.Run("disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.PreserveLinks = false
		assert.Equal(t, "see docs\n", convertWith(t, cfg, markup))
	})

	t.Run("reference style leaves text", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LinkStyle = LinkReference
		assert.Equal(t, "see docs\n", convertWith(t, cfg, markup))
	})
}

func TestPreserveStructureOff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreserveStructure = false

	out := convertWith(t, cfg, "<h1>Title</h1><ul><li><b>x</b></li></ul>")
	assert.NotContains(t, out, "#")
	assert.NotContains(t, out, "- ")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "**x**")
}

func TestCleanup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb\n"},
		{"whitespace lines", "a\n   \n\t\n  \nb", "a\n\nb\n"},
		{"control whitespace lines", "a\n\v\n\x1c\x1d\n\x1e\x1f\nb", "a\n\nb\n"},
		{"next line character", "a\n\u0085\nb", "a\n\nb\n"},
		{"space runs", "a     b", "a b\n"},
		{"entities", "Fish &amp; Chips &lt;3", "Fish & Chips <3\n"},
		{"trim", "\n\n  text  \n\n", "text\n"},
		{"empty", "", "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanup(tt.in))
		})
	}
}

func TestPlainTextRoundTrip(t *testing.T) {
	for _, text := range []string{"Hello world", "Just one line.", "Multi\nline\ntext"} {
		assert.Equal(t, text+"\n", convert(t, text))
	}
}

func TestEntitiesDecoded(t *testing.T) {
	out := convert(t, "<p>Fish &amp; Chips&nbsp;&copy; 2024</p>")
	assert.Contains(t, out, "Fish & Chips")
	assert.Contains(t, out, "©")
	assert.NotContains(t, out, "&amp;")
}

func TestDeterministic(t *testing.T) {
	markup := `<h2>Facts</h2><table><tr><th>a</th><th>b</th></tr><tr><td><em>1</em></td><td>2</td></tr></table><p>end <b>now</b></p>`
	first := convert(t, markup)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, convert(t, markup))
	}
}

func TestContainerSelector(t *testing.T) {
	markup := `<div id="nav">Menu</div><div class="content"><p>Body <b>text</b></p></div>`
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	t.Run("match", func(t *testing.T) {
		out, err := c.ConvertString(markup, "div.content")
		require.NoError(t, err)
		assert.Equal(t, "Body **text**\n", out)
	})

	t.Run("no match falls back", func(t *testing.T) {
		out, err := c.ConvertString(markup, "#missing")
		require.NoError(t, err)
		assert.Contains(t, out, "Menu")
		assert.Contains(t, out, "Body **text**")
	})

	t.Run("invalid selector falls back", func(t *testing.T) {
		log := &recordingLogger{}
		c, err := New(DefaultConfig(), WithLogger(log))
		require.NoError(t, err)

		out, err := c.ConvertString(markup, "div[")
		require.NoError(t, err)
		assert.Contains(t, out, "Menu")
		assert.Len(t, log.warns, 1)
	})
}

func TestConvertParsedTreeLeavesInputUntouched(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<p>Hello <strong>World</strong></p>`))
	require.NoError(t, err)

	var before bytes.Buffer
	require.NoError(t, html.Render(&before, doc))

	c, err := New(DefaultConfig())
	require.NoError(t, err)
	out, err := c.Convert(ParsedTree{Node: doc}, "")
	require.NoError(t, err)
	assert.Equal(t, "Hello **World**\n", out)

	var after bytes.Buffer
	require.NoError(t, html.Render(&after, doc))
	assert.Equal(t, before.String(), after.String())
	assert.Len(t, dom.FindAll(doc, "strong"), 1)
}

func TestConvertInvalidInput(t *testing.T) {
	log := &recordingLogger{}
	c, err := New(DefaultConfig(), WithLogger(log))
	require.NoError(t, err)

	_, err = c.Convert(nil, "")
	assert.True(t, errors.Is(err, ErrInvalidInputKind))

	_, err = c.Convert(ParsedTree{}, "")
	assert.True(t, errors.Is(err, ErrInvalidInputKind))

	assert.Len(t, log.errors, 2)
}

type panickingLogger struct {
	recordingLogger
}

func (l *panickingLogger) Warn(string, ...any) { panic("warn sink closed") }

func TestConvertRecoversInternalFailure(t *testing.T) {
	log := &panickingLogger{}
	c, err := New(DefaultConfig(), WithLogger(log))
	require.NoError(t, err)

	out, err := c.ConvertString("<p>text</p>", "div[")
	assert.Empty(t, out)
	assert.True(t, errors.Is(err, ErrInternal))
	assert.Len(t, log.errors, 1)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.PreserveStructure)
	assert.True(t, cfg.PreserveTables)
	assert.True(t, cfg.PreserveLinks)
	assert.Equal(t, HeadingATX, cfg.HeadingStyle)
	assert.Equal(t, LinkInline, cfg.LinkStyle)
	assert.Equal(t, "-", cfg.BulletMarker)
	assert.Equal(t, CodeFenced, cfg.CodeBlockStyle)
	assert.Equal(t, "`", cfg.FenceChar)
	assert.Equal(t, "*", cfg.EmphasisMarker)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.HeadingStyle = "underline"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.BulletMarker = "--"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.CodeBlockStyle = "tabs"
	require.Error(t, cfg.Validate())

	_, err := New(Config{HeadingStyle: "nope"})
	require.Error(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	c, err := New(Config{PreserveStructure: true})
	require.NoError(t, err)

	cfg := c.Config()
	assert.Equal(t, HeadingATX, cfg.HeadingStyle)
	assert.Equal(t, "-", cfg.BulletMarker)
	assert.False(t, cfg.PreserveTables)
}
