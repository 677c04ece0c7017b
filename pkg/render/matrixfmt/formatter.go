// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package matrixfmt converts styled chat components to Matrix HTML.
package matrixfmt

import (
	"html"
	"strings"

	"maunium.net/go/mautrix/event"

	"github.com/aiku/chatmarkup/pkg/component"
)

// decorationTags maps each decoration to its Matrix HTML element, in the
// order they are opened.
var decorationTags = []struct {
	flag component.Decoration
	open string
	end  string
}{
	{component.Bold, "<strong>", "</strong>"},
	{component.Italic, "<em>", "</em>"},
	{component.Underlined, "<u>", "</u>"},
	{component.Strikethrough, "<del>", "</del>"},
	{component.Obfuscated, "<span data-mx-spoiler>", "</span>"},
}

// Render converts the nodes to one Matrix notice. Each node becomes one line.
// Content without any styling is sent as a plain body.
func Render(nodes ...*component.Node) *event.MessageEventContent {
	var body, formatted []string
	styled := false
	for _, n := range nodes {
		if n == nil {
			continue
		}
		body = append(body, component.PlainText(n))
		var b strings.Builder
		if writeHTML(&b, n) {
			styled = true
		}
		formatted = append(formatted, b.String())
	}

	content := &event.MessageEventContent{
		MsgType: event.MsgNotice,
		Body:    strings.Join(body, "\n"),
	}
	if styled {
		content.Format = event.FormatHTML
		content.FormattedBody = strings.Join(formatted, "<br/>")
	}
	return content
}

// writeHTML writes n and its children and reports whether any markup other
// than line breaks was produced.
func writeHTML(b *strings.Builder, n *component.Node) bool {
	styled := false
	if n.Text != "" {
		var closers []string
		if hex := component.HexColor(n.Color); hex != "" {
			b.WriteString(`<font color="` + hex + `">`)
			closers = append(closers, "</font>")
		}
		for _, d := range decorationTags {
			if n.Decorations.Has(d.flag) {
				b.WriteString(d.open)
				closers = append(closers, d.end)
			}
		}
		if href, ok := safeLink(n.Click); ok {
			b.WriteString(`<a href="` + html.EscapeString(href) + `">`)
			closers = append(closers, "</a>")
		}
		styled = len(closers) > 0
		b.WriteString(strings.ReplaceAll(html.EscapeString(n.Text), "\n", "<br/>"))
		for i := len(closers) - 1; i >= 0; i-- {
			b.WriteString(closers[i])
		}
	}
	for _, c := range n.Children {
		if c != nil && writeHTML(b, c) {
			styled = true
		}
	}
	return styled
}

// safeLink returns the target of an open_url click if it uses a safe scheme.
func safeLink(click *component.ClickEvent) (string, bool) {
	if click == nil || click.Action != "open_url" {
		return "", false
	}
	lower := strings.ToLower(strings.TrimSpace(click.Value))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "mailto:") {
		return click.Value, true
	}
	return "", false
}
