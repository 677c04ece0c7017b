// Copyright 2024-2026 Aiku AI

package component

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedPayload is returned when a chat payload is not a JSON object.
var ErrMalformedPayload = errors.New("malformed chat payload")

// Decode parses a JSON chat payload into a tree. Every attribute is optional
// and defaults to its zero value. Events with unknown actions are dropped.
func Decode(data []byte) (*Node, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: root is %s, not an object", ErrMalformedPayload, jsonKind(raw))
	}
	return decodeObject(obj), nil
}

func decodeObject(obj map[string]any) *Node {
	n := &Node{
		Text:  asString(obj["text"]),
		Color: asString(obj["color"]),
	}
	for _, d := range decorationOrder {
		if asBool(obj[d.Name()]) {
			n.Decorations |= d
		}
	}

	if click, ok := obj["clickEvent"].(map[string]any); ok {
		action := asString(click["action"])
		if IsClickAction(action) {
			n.Click = &ClickEvent{Action: action, Value: asString(click["value"])}
		}
	}

	if hover, ok := obj["hoverEvent"].(map[string]any); ok {
		action := asString(hover["action"])
		raw, ok := hover["contents"]
		if !ok {
			raw = hover["value"]
		}
		if value, ok := hoverValue(action, raw); ok {
			n.Hover = &HoverEvent{Action: action, Value: value}
		}
	}

	if extra, ok := obj["extra"].([]any); ok {
		n.Children = decodeList(extra)
	}
	return n
}

func decodeList(list []any) []*Node {
	nodes := make([]*Node, 0, len(list))
	for _, elem := range list {
		switch v := elem.(type) {
		case map[string]any:
			nodes = append(nodes, decodeObject(v))
		case string:
			nodes = append(nodes, Text(v))
		}
	}
	return nodes
}

// hoverValue flattens a hover payload to the string carried in markup.
func hoverValue(action string, raw any) (string, bool) {
	switch action {
	case HoverShowText:
		switch v := raw.(type) {
		case map[string]any:
			return ToMarkup(decodeObject(v)), true
		case []any:
			return ToMarkup(&Node{Children: decodeList(v)}), true
		default:
			return asString(v), true
		}
	case HoverShowAchievement:
		if s, ok := raw.(string); ok {
			return s, true
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return "", false
		}
		return string(b), true
	case HoverShowItem:
		return identifierField(raw, "id"), true
	case HoverShowEntity:
		return identifierField(raw, "type", "id"), true
	}
	return "", false
}

func identifierField(raw any, keys ...string) string {
	obj, ok := raw.(map[string]any)
	if !ok {
		return asString(raw)
	}
	for _, k := range keys {
		if s := asString(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func asBool(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	}
	return fmt.Sprintf("%T", v)
}

type payloadEvent struct {
	Action string `json:"action"`
	Value  string `json:"value"`
}

type payloadNode struct {
	Text          string         `json:"text"`
	Color         string         `json:"color,omitempty"`
	Bold          bool           `json:"bold,omitempty"`
	Italic        bool           `json:"italic,omitempty"`
	Underlined    bool           `json:"underlined,omitempty"`
	Strikethrough bool           `json:"strikethrough,omitempty"`
	Obfuscated    bool           `json:"obfuscated,omitempty"`
	ClickEvent    *payloadEvent  `json:"clickEvent,omitempty"`
	HoverEvent    *payloadEvent  `json:"hoverEvent,omitempty"`
	Extra         []*payloadNode `json:"extra,omitempty"`
}

func toPayload(n *Node) *payloadNode {
	p := &payloadNode{
		Text:          n.Text,
		Color:         n.Color,
		Bold:          n.Decorations.Has(Bold),
		Italic:        n.Decorations.Has(Italic),
		Underlined:    n.Decorations.Has(Underlined),
		Strikethrough: n.Decorations.Has(Strikethrough),
		Obfuscated:    n.Decorations.Has(Obfuscated),
	}
	if n.Click != nil {
		p.ClickEvent = &payloadEvent{Action: n.Click.Action, Value: n.Click.Value}
	}
	if n.Hover != nil {
		p.HoverEvent = &payloadEvent{Action: n.Hover.Action, Value: n.Hover.Value}
	}
	for _, c := range n.Children {
		if c != nil {
			p.Extra = append(p.Extra, toPayload(c))
		}
	}
	return p
}

// Marshal encodes the tree as a JSON chat payload accepted by Decode.
func Marshal(n *Node) ([]byte, error) {
	if n == nil {
		n = &Node{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(toPayload(n)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
