// Copyright 2024-2026 Aiku AI

package component

import "strings"

// ToMarkup serializes the tree to tag markup.
//
// A node with text is wrapped, outermost first, in its colour, bold, italic,
// underlined, strikethrough, obfuscated, click and hover tags, and the
// closing tags mirror that order exactly. A node without text emits no tags.
// Children follow as siblings of the wrapped text.
func ToMarkup(n *Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	writeMarkup(&b, n)
	return b.String()
}

func writeMarkup(b *strings.Builder, n *Node) {
	if n.Text != "" {
		if n.Color != "" {
			b.WriteString("<" + n.Color + ">")
		}
		for _, d := range decorationOrder {
			if n.Decorations.Has(d) {
				b.WriteString("<" + d.Name() + ">")
			}
		}
		if n.Click != nil {
			b.WriteString(n.Click.openTag())
		}
		if n.Hover != nil {
			b.WriteString(n.Hover.openTag())
		}

		b.WriteString(n.Text)

		if n.Hover != nil {
			b.WriteString("</hover>")
		}
		if n.Click != nil {
			b.WriteString("</click>")
		}
		for i := len(decorationOrder) - 1; i >= 0; i-- {
			if d := decorationOrder[i]; n.Decorations.Has(d) {
				b.WriteString("</" + d.Name() + ">")
			}
		}
		if n.Color != "" {
			b.WriteString("</" + n.Color + ">")
		}
	}

	for _, c := range n.Children {
		if c != nil {
			writeMarkup(b, c)
		}
	}
}

func (c *ClickEvent) openTag() string {
	return `<click:` + c.Action + `:"` + quoteEscaper.Replace(c.Value) + `">`
}

func (h *HoverEvent) openTag() string {
	return `<hover:` + h.Action + `:"` + quoteEscaper.Replace(h.Value) + `">`
}

// quoteEscaper escapes the characters that would end a quoted tag argument.
var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
