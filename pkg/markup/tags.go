// Copyright 2024-2026 Aiku AI

// Package markup scans and parses the angle-bracket tag markup used for
// styled chat text.
package markup

import (
	"iter"
	"slices"
	"strings"
)

// Tag is one opening or closing tag found in a markup string.
type Tag struct {
	Name    string
	Args    string // raw text after the first ':', quotes intact
	Closing bool
	Start   int // byte offset of '<'
	End     int // byte offset just past '>'
}

// Arguments splits Args on ':' outside quotes and unquotes each part.
func (t Tag) Arguments() []string {
	if t.Args == "" {
		return nil
	}
	return splitArgs(t.Args)
}

// Is reports whether the tag has the given name, ignoring case.
func (t Tag) Is(name string) bool {
	return strings.EqualFold(t.Name, name)
}

// Scan yields every well-formed tag in s, left to right. The sequence holds
// no state of its own, so it can be ranged over any number of times.
func Scan(s string) iter.Seq[Tag] {
	return func(yield func(Tag) bool) {
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '\\':
				i++
			case '<':
				tag, ok := scanTag(s, i)
				if !ok {
					continue
				}
				if !yield(tag) {
					return
				}
				i = tag.End - 1
			}
		}
	}
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '-' || c == '#' || c == '!' || c == '.'
}

// scanTag reads a tag starting at s[start] == '<'.
func scanTag(s string, start int) (Tag, bool) {
	tag := Tag{Start: start}
	i := start + 1
	if i < len(s) && s[i] == '/' {
		tag.Closing = true
		i++
	}
	nameStart := i
	for i < len(s) && isNameByte(s[i]) {
		i++
	}
	if i == nameStart || i >= len(s) {
		return Tag{}, false
	}
	tag.Name = s[nameStart:i]

	switch s[i] {
	case '>':
		tag.End = i + 1
		return tag, true
	case ':':
		argStart := i + 1
		var quote byte
		for i = argStart; i < len(s); i++ {
			c := s[i]
			switch {
			case quote != 0 && c == '\\':
				i++
			case quote != 0 && c == quote:
				quote = 0
			case quote == 0 && (c == '"' || c == '\''):
				quote = c
			case quote == 0 && c == '>':
				tag.Args = s[argStart:i]
				tag.End = i + 1
				return tag, true
			}
		}
	}
	return Tag{}, false
}

func splitArgs(args string) []string {
	var (
		parts []string
		cur   strings.Builder
		quote byte
	)
	for i := 0; i < len(args); i++ {
		c := args[i]
		switch {
		case quote != 0 && c == '\\' && i+1 < len(args):
			i++
			cur.WriteByte(args[i])
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
		case quote == 0 && c == ':':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(parts, cur.String())
}

// Tags returns the lower-cased names of the opening tags in s, in order of
// first appearance, without duplicates.
func Tags(s string) []string {
	var names []string
	seen := make(map[string]struct{})
	for tag := range Scan(s) {
		if tag.Closing {
			continue
		}
		name := strings.ToLower(tag.Name)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// span locates the first open tag called name and its first matching close.
// end is the offset just past the close tag, or past the open tag for the
// self-closing form, or len(s) when the tag runs to the end of the string.
type span struct {
	open, close Tag
	closed      bool
	start, end  int
}

func findSpan(s, name string, from int) (span, bool) {
	var sp span
	found := false
	for tag := range Scan(s[from:]) {
		tag.Start += from
		tag.End += from
		if !found {
			if !tag.Closing && tag.Is(name) {
				sp.open, sp.start = tag, tag.Start
				found = true
			}
			continue
		}
		if tag.Closing && tag.Is(name) {
			sp.close, sp.closed, sp.end = tag, true, tag.End
			return sp, true
		}
	}
	if !found {
		return span{}, false
	}
	if sp.open.Args != "" {
		sp.end = sp.open.End
	} else {
		sp.end = len(s)
	}
	return sp, true
}

// Content returns the text between the first <name> tag and its first
// matching </name>. An unclosed tag with arguments yields its argument text;
// an unclosed tag without arguments yields the rest of the string.
func Content(name, s string) (string, bool) {
	sp, ok := findSpan(s, name, 0)
	if !ok {
		return "", false
	}
	switch {
	case sp.closed:
		return s[sp.open.End:sp.close.Start], true
	case sp.open.Args != "":
		return strings.Join(sp.open.Arguments(), ":"), true
	default:
		return s[sp.open.End:], true
	}
}

// TextsWithout cuts every span of the named tags out of s and returns the
// remaining segments that contain more than whitespace.
func TextsWithout(s string, names ...string) []string {
	var texts []string
	pos := 0
	for pos < len(s) {
		best := span{start: -1}
		for _, name := range names {
			sp, ok := findSpan(s, name, pos)
			if ok && (best.start < 0 || sp.start < best.start) {
				best = sp
			}
		}
		if best.start < 0 {
			break
		}
		if seg := s[pos:best.start]; strings.TrimSpace(seg) != "" {
			texts = append(texts, seg)
		}
		pos = best.end
	}
	if pos < len(s) {
		if seg := s[pos:]; strings.TrimSpace(seg) != "" {
			texts = append(texts, seg)
		}
	}
	return texts
}

// StripPrefix removes the first occurrence of prefix that lies outside any
// tag. Tags before it are kept.
func StripPrefix(s, prefix string) string {
	if prefix == "" {
		return s
	}
	pos := 0
	for tag := range Scan(s) {
		if i := strings.Index(s[pos:tag.Start], prefix); i >= 0 {
			return s[:pos+i] + s[pos+i+len(prefix):]
		}
		pos = tag.End
	}
	if i := strings.Index(s[pos:], prefix); i >= 0 {
		return s[:pos+i] + s[pos+i+len(prefix):]
	}
	return s
}

// RemoveTags deletes every opening and closing tag with one of the given
// names, keeping the text between them.
func RemoveTags(s string, names ...string) string {
	if len(names) == 0 {
		return s
	}
	var b strings.Builder
	pos := 0
	for tag := range Scan(s) {
		if !slices.ContainsFunc(names, tag.Is) {
			continue
		}
		b.WriteString(s[pos:tag.Start])
		pos = tag.End
	}
	if pos == 0 {
		return s
	}
	b.WriteString(s[pos:])
	return b.String()
}
