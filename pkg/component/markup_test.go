// Copyright 2024-2026 Aiku AI

package component

import "testing"

func TestToMarkupNil(t *testing.T) {
	t.Parallel()
	if got := ToMarkup(nil); got != "" {
		t.Errorf("nil node: got %q, want empty", got)
	}
}

func TestToMarkupPlain(t *testing.T) {
	t.Parallel()
	if got := ToMarkup(Text("hello")); got != "hello" {
		t.Errorf("plain: got %q, want %q", got, "hello")
	}
}

func TestToMarkupNestingOrder(t *testing.T) {
	t.Parallel()
	n := &Node{
		Text:        "hi",
		Color:       "#ff0000",
		Decorations: Bold,
		Click:       &ClickEvent{Action: "run_command", Value: "/test"},
	}
	want := `<#ff0000><bold><click:run_command:"/test">hi</click></bold></#ff0000>`
	if got := ToMarkup(n); got != want {
		t.Errorf("nesting order:\n got %s\nwant %s", got, want)
	}
}

func TestToMarkupAllDecorations(t *testing.T) {
	t.Parallel()
	n := &Node{
		Text:        "x",
		Color:       "red",
		Decorations: Bold | Italic | Underlined | Strikethrough | Obfuscated,
		Click:       &ClickEvent{Action: "open_url", Value: "https://example.com"},
		Hover:       &HoverEvent{Action: HoverShowText, Value: "tip"},
	}
	want := `<red><bold><italic><underlined><strikethrough><obfuscated>` +
		`<click:open_url:"https://example.com"><hover:show_text:"tip">x</hover></click>` +
		`</obfuscated></strikethrough></underlined></italic></bold></red>`
	if got := ToMarkup(n); got != want {
		t.Errorf("all decorations:\n got %s\nwant %s", got, want)
	}
}

func TestToMarkupEmptyTextEmitsNoTags(t *testing.T) {
	t.Parallel()
	n := &Node{
		Color:       "#00ff00",
		Decorations: Bold | Italic,
		Click:       &ClickEvent{Action: "run_command", Value: "/x"},
	}
	if got := ToMarkup(n); got != "" {
		t.Errorf("empty styled node: got %q, want empty", got)
	}

	n.Append(Text("a"), &Node{Text: "b", Decorations: Italic})
	if got, want := ToMarkup(n), "a<italic>b</italic>"; got != want {
		t.Errorf("empty node with children: got %q, want %q", got, want)
	}
}

func TestToMarkupChildrenAreSiblings(t *testing.T) {
	t.Parallel()
	n := &Node{Text: "parent", Decorations: Bold}
	n.Append(&Node{Text: "child", Color: "gold"}, &Node{Text: "deep"})
	n.Children[0].Append(Text("!"))
	want := "<bold>parent</bold><gold>child</gold>!deep"
	if got := ToMarkup(n); got != want {
		t.Errorf("children:\n got %s\nwant %s", got, want)
	}
}

func TestStripColorCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"&aHello", "Hello"},
		{"§lBold §r&cred", "Bold red"},
		{"no codes", "no codes"},
		// Only a single alphanumeric after the sigil is a marker.
		{"&#ff0000x", "&#ff0000x"},
		{"&ff0000", "f0000"},
		{"&x&1&2", ""},
		{"& space", "& space"},
	}
	for _, tt := range tests {
		if got := StripColorCodes(tt.in); got != tt.want {
			t.Errorf("StripColorCodes(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlainText(t *testing.T) {
	t.Parallel()
	n := &Node{Text: "a", Decorations: Bold}
	n.Append(Text("b").Append(Text("c")), nil, Text("d"))
	if got := PlainText(n); got != "abcd" {
		t.Errorf("PlainText: got %q, want %q", got, "abcd")
	}
}

func TestHexColor(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"red":     "#ff5555",
		"GOLD":    "#ffaa00",
		"#A0B0C0": "#a0b0c0",
		"#abc":    "",
		"nope":    "",
	}
	for in, want := range tests {
		if got := HexColor(in); got != want {
			t.Errorf("HexColor(%q): got %q, want %q", in, got, want)
		}
		if IsColor(in) != (want != "") {
			t.Errorf("IsColor(%q): got %v", in, IsColor(in))
		}
	}
}
