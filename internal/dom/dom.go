// Package dom holds small helpers for walking and rewriting
// golang.org/x/net/html trees.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// skipText reports whether the text below n never reaches the reader.
func skipText(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style")
}

// FindAll returns every descendant element of root whose tag is one of
// names, in document order. root itself is never returned.
func FindAll(root *html.Node, names ...string) []*html.Node {
	var found []*html.Node
	if root == nil {
		return found
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && matches(c.Data, names) {
				found = append(found, c)
			}
			walk(c)
		}
	}
	walk(root)
	return found
}

// Children returns the direct element children of n named name.
func Children(n *html.Node, name string) []*html.Node {
	var found []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == name {
			found = append(found, c)
		}
	}
	return found
}

func matches(tag string, names []string) bool {
	for _, name := range names {
		if tag == name {
			return true
		}
	}
	return false
}

// Text concatenates every descendant text node of n, skipping comments,
// scripts and stylesheets.
func Text(n *html.Node) string {
	var sb strings.Builder
	for _, s := range Strings(n) {
		sb.WriteString(s)
	}
	return sb.String()
}

// Strings returns the raw text nodes below n in document order.
func Strings(n *html.Node) []string {
	var out []string
	if n == nil {
		return out
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			out = append(out, n.Data)
			return
		}
		if skipText(n) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Attr returns the value of the attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// ReplaceWithText swaps n for a single text node holding text. Nodes that
// are already detached are left alone.
func ReplaceWithText(n *html.Node, text string) {
	if n.Parent == nil {
		return
	}
	n.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text}, n)
	n.Parent.RemoveChild(n)
}

// Clone returns a deep copy of n and its descendants. The copy has no
// parent or siblings.
func Clone(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	cp := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		cp.Attr = make([]html.Attribute, len(n.Attr))
		copy(cp.Attr, n.Attr)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cp.AppendChild(Clone(c))
	}
	return cp
}
