package htmlmd

import "golang.org/x/net/html"

// Input is what Convert accepts: either raw markup or an already parsed
// tree.
type Input interface {
	isInput()
}

// RawMarkup is an HTML document or fragment that still has to be parsed.
type RawMarkup string

func (RawMarkup) isInput() {}

// ParsedTree wraps a node produced by golang.org/x/net/html. Convert works
// on a copy, so the wrapped tree is never modified.
type ParsedTree struct {
	Node *html.Node
}

func (ParsedTree) isInput() {}
