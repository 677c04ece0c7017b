// Copyright 2024-2026 Aiku AI

package markup

import (
	"strings"

	"github.com/aiku/chatmarkup/pkg/component"
)

type style struct {
	color       string
	decorations component.Decoration
	click       *component.ClickEvent
	hover       *component.HoverEvent
}

type frame struct {
	key  string
	prev style
}

var decorationAliases = map[string]component.Decoration{
	"bold":          component.Bold,
	"b":             component.Bold,
	"italic":        component.Italic,
	"i":             component.Italic,
	"em":            component.Italic,
	"underlined":    component.Underlined,
	"u":             component.Underlined,
	"strikethrough": component.Strikethrough,
	"st":            component.Strikethrough,
	"obfuscated":    component.Obfuscated,
	"obf":           component.Obfuscated,
}

var legacyColors = map[byte]string{
	'0': "black", '1': "dark_blue", '2': "dark_green", '3': "dark_aqua",
	'4': "dark_red", '5': "dark_purple", '6': "gold", '7': "gray",
	'8': "dark_gray", '9': "blue", 'a': "green", 'b': "aqua",
	'c': "red", 'd': "light_purple", 'e': "yellow", 'f': "white",
}

var legacyDecorations = map[byte]component.Decoration{
	'k': component.Obfuscated,
	'l': component.Bold,
	'm': component.Strikethrough,
	'n': component.Underlined,
	'o': component.Italic,
}

type parser struct {
	root   *component.Node
	text   strings.Builder
	cur    style
	frames []frame
}

// Parse reads markup into a flat tree: an unstyled root whose children are
// styled leaves. Unknown tags are kept as literal text and unmatched closing
// tags are ignored. Legacy '&'/'§' colour codes are understood as well.
func Parse(s string) *component.Node {
	p := &parser{root: &component.Node{}}
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s) && (s[i+1] == '<' || s[i+1] == '\\'):
			p.text.WriteByte(s[i+1])
			i += 2
		case c == '<':
			tag, ok := scanTag(s, i)
			if ok && p.apply(tag) {
				i = tag.End
				continue
			}
			p.text.WriteByte(c)
			i++
		case c == '&' && i+1 < len(s) && p.legacy(s[i+1]):
			i += 2
		case strings.HasPrefix(s[i:], "§") && i+2 < len(s) && p.legacy(s[i+2]):
			i += 3
		default:
			p.text.WriteByte(c)
			i++
		}
	}
	p.flush()
	return p.root
}

func (p *parser) flush() {
	if p.text.Len() == 0 {
		return
	}
	p.root.Children = append(p.root.Children, &component.Node{
		Text:        p.text.String(),
		Color:       p.cur.color,
		Decorations: p.cur.decorations,
		Click:       p.cur.click,
		Hover:       p.cur.hover,
	})
	p.text.Reset()
}

func (p *parser) push(key string) {
	p.frames = append(p.frames, frame{key: key, prev: p.cur})
}

// apply handles one tag, returning false when the tag is not part of the
// grammar and should be treated as text.
func (p *parser) apply(tag Tag) bool {
	name := strings.ToLower(tag.Name)
	if tag.Closing {
		return p.close(name)
	}

	args := tag.Arguments()
	switch {
	case name == "reset":
		p.flush()
		p.cur = style{}
		p.frames = p.frames[:0]
	case name == "newline" || name == "br":
		p.text.WriteByte('\n')
	case component.IsColor(name) && len(args) == 0:
		p.flush()
		p.push("color")
		p.cur.color = canonicalColor(tag.Name)
	case name == "color" || name == "colour" || name == "c":
		if len(args) != 1 || !component.IsColor(args[0]) {
			return false
		}
		p.flush()
		p.push("color")
		p.cur.color = canonicalColor(args[0])
	case name == "click":
		if len(args) < 2 || !component.IsClickAction(args[0]) {
			return false
		}
		p.flush()
		p.push("click")
		p.cur.click = &component.ClickEvent{Action: args[0], Value: strings.Join(args[1:], ":")}
	case name == "hover":
		if len(args) < 2 || !component.IsHoverAction(args[0]) {
			return false
		}
		p.flush()
		p.push("hover")
		p.cur.hover = &component.HoverEvent{Action: args[0], Value: strings.Join(args[1:], ":")}
	default:
		negate := strings.HasPrefix(name, "!")
		d, ok := decorationAliases[strings.TrimPrefix(name, "!")]
		if !ok {
			return false
		}
		p.flush()
		p.push(d.Name())
		if negate {
			p.cur.decorations &^= d
		} else {
			p.cur.decorations |= d
		}
	}
	return true
}

func (p *parser) close(name string) bool {
	key := name
	switch {
	case component.IsColor(name) || name == "color" || name == "colour" || name == "c":
		key = "color"
	case name == "click" || name == "hover" || name == "reset":
	default:
		d, ok := decorationAliases[strings.TrimPrefix(name, "!")]
		if !ok {
			return false
		}
		key = d.Name()
	}

	for i := len(p.frames) - 1; i >= 0; i-- {
		if p.frames[i].key == key {
			p.flush()
			p.cur = p.frames[i].prev
			p.frames = p.frames[:i]
			return true
		}
	}
	// Unmatched closing tags of known kinds are dropped.
	return true
}

// legacy applies a legacy format code. Colour codes clear decorations.
func (p *parser) legacy(code byte) bool {
	code = lower(code)
	if color, ok := legacyColors[code]; ok {
		p.flush()
		p.cur.color = color
		p.cur.decorations = 0
		return true
	}
	if d, ok := legacyDecorations[code]; ok {
		p.flush()
		p.cur.decorations |= d
		return true
	}
	if code == 'r' {
		p.flush()
		p.cur = style{}
		p.frames = p.frames[:0]
		return true
	}
	return false
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func canonicalColor(s string) string {
	if strings.HasPrefix(s, "#") {
		return s
	}
	return strings.ToLower(s)
}
