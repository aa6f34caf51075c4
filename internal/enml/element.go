// Package enml models ENML note content as an ordered element tree and
// provides the tag remapping engine used during rendering.
package enml

import (
	"fmt"
	"sort"
	"strings"
)

// Element is one node of a content tree.
//
// Text is the character data immediately inside the element, before its
// first child. Tail is the character data that follows the element's
// closing tag but still belongs to the element's parent. Keeping tails
// on the element itself means a node can be replaced without losing the
// text adjacency of its siblings.
type Element struct {
	Tag      string
	Attr     map[string]string
	Text     string
	Tail     string
	Children []*Element
}

// NewElement returns an element with an initialized attribute map.
func NewElement(tag string) *Element {
	return &Element{Tag: tag, Attr: make(map[string]string)}
}

// FindAll returns every element in the tree with the given tag name,
// in document order. The receiver itself is included when it matches.
func (e *Element) FindAll(tag string) []*Element {
	var out []*Element
	e.walk(func(el *Element) {
		if el.Tag == tag {
			out = append(out, el)
		}
	})
	return out
}

// walk visits the receiver and every descendant in document order.
func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.Children {
		c.walk(fn)
	}
}

// TextContent returns the concatenation of all character data inside
// the element: its own text plus the text and tails of all descendants.
func (e *Element) TextContent() string {
	var b strings.Builder
	b.WriteString(e.Text)
	for _, c := range e.Children {
		b.WriteString(c.TextContent())
		b.WriteString(c.Tail)
	}
	return b.String()
}

// String renders a short single-tag description used in log output.
func (e *Element) String() string {
	if len(e.Attr) == 0 {
		return fmt.Sprintf("<%s>", e.Tag)
	}
	keys := make([]string, 0, len(e.Attr))
	for k := range e.Attr {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(e.Tag)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%q", k, e.Attr[k])
	}
	b.WriteByte('>')
	return b.String()
}

// parentIndex maps every element in the tree to its parent. The root
// maps to nil. The index is a transient view: it reflects the tree at
// the moment it was built and is not updated by later mutations.
func parentIndex(root *Element) map[*Element]*Element {
	parents := map[*Element]*Element{root: nil}
	root.walk(func(el *Element) {
		for _, c := range el.Children {
			parents[c] = el
		}
	})
	return parents
}
