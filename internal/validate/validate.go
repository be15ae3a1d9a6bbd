// Package validate scores how faithfully a Markdown conversion preserves
// its HTML source. The Markdown is rendered back to HTML with goldmark and
// the two documents are compared by their words, tables and headings.
package validate

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"

	"github.com/luminnexus/alchemy/internal/dom"
)

// PassScore is the lowest word recall that can pass.
const PassScore = 0.9

// maxMissingShown bounds the sample of missing words in an issue.
const maxMissingShown = 5

var entityRe = regexp.MustCompile(`&(?:[A-Za-z][A-Za-z0-9]*|#[0-9]+|#[xX][0-9A-Fa-f]+);`)

var engine = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ValidationResult is the assessment of one conversion.
type ValidationResult struct {
	TestName  string   `json:"test_name"`
	Passed    bool     `json:"passed"`
	Score     float64  `json:"score"`
	Feedback  string   `json:"feedback"`
	Issues    []string `json:"issues"`
	Strengths []string `json:"strengths"`
}

// Markdown validates markdown as a conversion of sourceHTML.
func Markdown(name, sourceHTML, markdown string) ValidationResult {
	res := ValidationResult{TestName: name, Issues: []string{}, Strengths: []string{}}

	source, err := html.Parse(strings.NewReader(sourceHTML))
	if err != nil {
		res.Issues = append(res.Issues, fmt.Sprintf("source HTML does not parse: %v", err))
		res.Feedback = "source could not be read"
		return res
	}

	var rendered bytes.Buffer
	if err := engine.Convert([]byte(markdown), &rendered); err != nil {
		res.Issues = append(res.Issues, fmt.Sprintf("markdown does not render: %v", err))
		res.Feedback = "markdown could not be rendered"
		return res
	}
	roundTrip, err := html.Parse(&rendered)
	if err != nil {
		res.Issues = append(res.Issues, fmt.Sprintf("rendered markdown does not parse: %v", err))
		res.Feedback = "markdown could not be rendered"
		return res
	}

	sourceWords := words(source)
	score, missing := recall(sourceWords, words(roundTrip))
	res.Score = score
	res.Feedback = fmt.Sprintf("%d of %d source words preserved (%.0f%%)", len(sourceWords)-len(missing), len(sourceWords), score*100)

	if score >= PassScore {
		res.Strengths = append(res.Strengths, "text content preserved")
	} else {
		res.Issues = append(res.Issues, fmt.Sprintf("%d source words missing, e.g. %s", len(missing), strings.Join(sample(missing), ", ")))
	}

	compare(&res, "tables", len(dom.FindAll(source, "table")), len(dom.FindAll(roundTrip, "table")))
	compare(&res, "headings", countHeadings(source), countHeadings(roundTrip))

	if leaked := entityRe.FindAllString(markdown, -1); len(leaked) > 0 {
		res.Issues = append(res.Issues, fmt.Sprintf("undecoded HTML entities in output: %s", strings.Join(sample(leaked), ", ")))
	} else {
		res.Strengths = append(res.Strengths, "entities decoded")
	}

	res.Passed = res.Score >= PassScore && len(res.Issues) == 0
	return res
}

func compare(res *ValidationResult, what string, want, got int) {
	switch {
	case want == 0:
	case got < want:
		res.Issues = append(res.Issues, fmt.Sprintf("%d of %d %s lost", want-got, want, what))
	default:
		res.Strengths = append(res.Strengths, fmt.Sprintf("all %d %s preserved", want, what))
	}
}

func countHeadings(doc *html.Node) int {
	return len(dom.FindAll(doc, "h1", "h2", "h3", "h4", "h5", "h6"))
}

// words returns the lowercased letter and digit runs of doc's text.
func words(doc *html.Node) []string {
	var out []string
	for _, s := range dom.Strings(doc) {
		for _, w := range strings.FieldsFunc(s, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}) {
			out = append(out, strings.ToLower(w))
		}
	}
	return out
}

// recall reports the share of want found in got, counting repeats, and
// the words that were not found.
func recall(want, got []string) (float64, []string) {
	if len(want) == 0 {
		return 1, nil
	}

	have := make(map[string]int, len(got))
	for _, w := range got {
		have[w]++
	}

	var missing []string
	for _, w := range want {
		if have[w] > 0 {
			have[w]--
			continue
		}
		missing = append(missing, w)
	}
	return float64(len(want)-len(missing)) / float64(len(want)), missing
}

// sample returns up to maxMissingShown distinct values, sorted.
func sample(values []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	if len(out) > maxMissingShown {
		out = out[:maxMissingShown]
	}
	return out
}
