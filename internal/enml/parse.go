package enml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Parse reads a markup document and builds its element tree.
//
// The decoder runs in non-strict mode with HTML entities and auto-close
// rules enabled, so the ENML exported by real clients (which is XHTML
// in spirit but not always in practice) still parses. Character data
// before an element's first child becomes that element's Text; character
// data after a child becomes the child's Tail.
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var root *Element
	var stack []*Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("enml: parse: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Tag: t.Name.Local, Attr: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				el.Attr[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("enml: parse: content after root element")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if len(stack) == 0 {
				continue // whitespace around the root
			}
			cur := stack[len(stack)-1]
			if n := len(cur.Children); n > 0 {
				cur.Children[n-1].Tail += string(t)
			} else {
				cur.Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("enml: parse: no root element")
	}
	return root, nil
}

// ParseString is a convenience wrapper over Parse.
func ParseString(s string) (*Element, error) {
	return Parse(strings.NewReader(s))
}
