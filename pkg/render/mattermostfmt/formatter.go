// Copyright 2024-2026 Aiku AI

// Package mattermostfmt converts styled chat components to Mattermost
// markdown posts.
package mattermostfmt

import (
	"strings"

	"github.com/mattermost/mattermost/server/public/model"

	"github.com/aiku/chatmarkup/pkg/component"
)

// markdownEscaper escapes characters that would start markdown formatting.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	">", `\>`,
)

// Render converts the nodes to the message of one post, one node per line.
// Colour, underline and obfuscation have no markdown form and are dropped.
func Render(nodes ...*component.Node) *model.Post {
	var lines []string
	for _, n := range nodes {
		if n == nil {
			continue
		}
		var b strings.Builder
		writeMarkdown(&b, n)
		lines = append(lines, b.String())
	}
	return &model.Post{Message: strings.Join(lines, "\n")}
}

func writeMarkdown(b *strings.Builder, n *component.Node) {
	if n.Text != "" {
		text := markdownEscaper.Replace(n.Text)
		// Markdown emphasis cannot wrap surrounding whitespace.
		lead := len(text) - len(strings.TrimLeft(text, " \t\n"))
		trail := len(text) - len(strings.TrimRight(text, " \t\n"))
		inner := strings.TrimSpace(text)
		if inner == "" {
			b.WriteString(text)
		} else {
			b.WriteString(text[:lead])
			b.WriteString(style(n, inner))
			b.WriteString(text[len(text)-trail:])
		}
	}
	for _, c := range n.Children {
		if c != nil {
			writeMarkdown(b, c)
		}
	}
}

func style(n *component.Node, s string) string {
	if n.Decorations.Has(component.Strikethrough) {
		s = "~~" + s + "~~"
	}
	if n.Decorations.Has(component.Italic) {
		s = "_" + s + "_"
	}
	if n.Decorations.Has(component.Bold) {
		s = "**" + s + "**"
	}
	if n.Click != nil && n.Click.Action == "open_url" && safeURL(n.Click.Value) {
		s = "[" + s + "](" + n.Click.Value + ")"
	}
	return s
}

func safeURL(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "mailto:")
}
