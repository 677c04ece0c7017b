// Copyright 2024-2026 Aiku AI

// Package component models styled chat text as a tree of nodes and converts
// it to and from the JSON chat payload and the tag markup format.
package component

import (
	"regexp"
	"strings"
)

// Decoration is a bit set of text decorations.
type Decoration uint8

const (
	Bold Decoration = 1 << iota
	Italic
	Underlined
	Strikethrough
	Obfuscated
)

// decorationOrder is the opening order used by the serializer. Closing tags
// are emitted in reverse.
var decorationOrder = []Decoration{Bold, Italic, Underlined, Strikethrough, Obfuscated}

// Name returns the markup tag name of a single decoration.
func (d Decoration) Name() string {
	switch d {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Underlined:
		return "underlined"
	case Strikethrough:
		return "strikethrough"
	case Obfuscated:
		return "obfuscated"
	}
	return ""
}

// Has reports whether every bit of flag is set.
func (d Decoration) Has(flag Decoration) bool {
	return d&flag == flag && flag != 0
}

// ClickEvent is the action run when the text is clicked.
type ClickEvent struct {
	Action string
	Value  string
}

// HoverEvent is shown when the text is hovered. Value is already flattened to
// a string: markup for show_text, an identifier for show_item/show_entity.
type HoverEvent struct {
	Action string
	Value  string
}

// Node is one styled text node. Children are rendered after the node's own
// text, not inside its styling.
type Node struct {
	Text        string
	Color       string
	Decorations Decoration
	Click       *ClickEvent
	Hover       *HoverEvent
	Children    []*Node
}

// Text returns a leaf node without styling.
func Text(s string) *Node {
	return &Node{Text: s}
}

// Append adds children in order and returns the node.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Known click actions. Anything else is dropped when building a tree.
var clickActions = map[string]struct{}{
	"open_url":          {},
	"open_file":         {},
	"run_command":       {},
	"suggest_command":   {},
	"change_page":       {},
	"copy_to_clipboard": {},
}

// Known hover actions.
const (
	HoverShowText        = "show_text"
	HoverShowAchievement = "show_achievement"
	HoverShowItem        = "show_item"
	HoverShowEntity      = "show_entity"
)

// IsClickAction reports whether action is a supported click action.
func IsClickAction(action string) bool {
	_, ok := clickActions[action]
	return ok
}

// IsHoverAction reports whether action is a supported hover action.
func IsHoverAction(action string) bool {
	switch action {
	case HoverShowText, HoverShowAchievement, HoverShowItem, HoverShowEntity:
		return true
	}
	return false
}

// colorCodeRe matches a legacy colour sigil followed by exactly one
// alphanumeric character. Longer hex sequences are only partially stripped.
var colorCodeRe = regexp.MustCompile(`[§&][a-zA-Z0-9]`)

// StripColorCodes removes legacy colour markers from s.
func StripColorCodes(s string) string {
	return colorCodeRe.ReplaceAllString(s, "")
}

// PlainText concatenates the text of n and all descendants, depth first.
func PlainText(n *Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	writePlain(&b, n)
	return b.String()
}

func writePlain(b *strings.Builder, n *Node) {
	b.WriteString(n.Text)
	for _, c := range n.Children {
		if c != nil {
			writePlain(b, c)
		}
	}
}

// NamedColors are the sixteen named chat colours.
var NamedColors = map[string]string{
	"black":        "#000000",
	"dark_blue":    "#0000aa",
	"dark_green":   "#00aa00",
	"dark_aqua":    "#00aaaa",
	"dark_red":     "#aa0000",
	"dark_purple":  "#aa00aa",
	"gold":         "#ffaa00",
	"gray":         "#aaaaaa",
	"dark_gray":    "#555555",
	"blue":         "#5555ff",
	"green":        "#55ff55",
	"aqua":         "#55ffff",
	"red":          "#ff5555",
	"light_purple": "#ff55ff",
	"yellow":       "#ffff55",
	"white":        "#ffffff",
}

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// IsColor reports whether s is a named colour or a #rrggbb hex colour.
func IsColor(s string) bool {
	if _, ok := NamedColors[strings.ToLower(s)]; ok {
		return true
	}
	return hexColorRe.MatchString(s)
}

// HexColor returns the #rrggbb form of a named or hex colour, or "" when s
// is not a colour.
func HexColor(s string) string {
	if hex, ok := NamedColors[strings.ToLower(s)]; ok {
		return hex
	}
	if hexColorRe.MatchString(s) {
		return strings.ToLower(s)
	}
	return ""
}
