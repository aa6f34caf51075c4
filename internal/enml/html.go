package enml

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"unicode/utf8"
)

// voidTags are HTML elements that never carry children and are written
// without a closing tag.
var voidTags = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {},
	"hr": {}, "img": {}, "input": {}, "link": {}, "meta": {},
	"source": {}, "track": {}, "wbr": {},
}

// RenderHTML serializes the tree rooted at el to an HTML fragment.
// The root element's tail is not included. Output that is not valid
// UTF-8 is rejected so a broken note cannot corrupt the batch output.
func RenderHTML(el *Element) (string, error) {
	var b strings.Builder
	writeElement(&b, el)
	out := b.String()
	if !utf8.ValidString(out) {
		return "", fmt.Errorf("enml: serialize %s: invalid UTF-8", el.Tag)
	}
	return out, nil
}

func writeElement(b *strings.Builder, el *Element) {
	b.WriteByte('<')
	b.WriteString(el.Tag)
	writeAttrs(b, el.Attr)

	if _, void := voidTags[el.Tag]; void {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')

	b.WriteString(html.EscapeString(el.Text))
	for _, c := range el.Children {
		writeElement(b, c)
		b.WriteString(html.EscapeString(c.Tail))
	}

	b.WriteString("</")
	b.WriteString(el.Tag)
	b.WriteByte('>')
}

// writeAttrs emits attributes in sorted key order for stable output.
func writeAttrs(b *strings.Builder, attrs map[string]string) {
	if len(attrs) == 0 {
		return
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(attrs[k]))
		b.WriteByte('"')
	}
}
