// Copyright 2024-2026 Aiku AI

// Package progress renders configured progress-bar widgets as markup. It is
// the model producer for <progress> tags.
package progress

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/aiku/chatmarkup/pkg/component"
)

// TagName is the model tag handled by Model.
const TagName = "progress"

// PercentTag, when present in the same message, appends the percentage.
const PercentTag = "percent"

// DefaultLength is the number of symbols in a bar.
const DefaultLength = 20

// Bar is one configured progress bar.
type Bar struct {
	ID             string
	Symbol         string
	CompletedColor string
	ProgressColor  string
	RemainingColor string
}

// Validate checks the bar is usable.
func (b *Bar) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("progress bar identifier is empty")
	}
	if b.Symbol == "" {
		return fmt.Errorf("progress bar %q: symbol is empty", b.ID)
	}
	return nil
}

// Render draws current out of total in length symbols. Filled cells use the
// completed colour, the cell being filled uses the progress colour and the
// rest use the remaining colour.
func (b *Bar) Render(current, total float64, length int) string {
	if length <= 0 {
		length = DefaultLength
	}
	ratio := 0.0
	if r := current / total; total > 0 && !math.IsNaN(r) {
		ratio = min(max(r, 0), 1)
	}
	done := min(max(int(ratio*float64(length)), 0), length)
	active := 0
	if done < length && ratio > 0 {
		active = 1
	}
	rest := length - done - active

	var sb strings.Builder
	sb.WriteString(colorize(b.CompletedColor, strings.Repeat(b.Symbol, done)))
	sb.WriteString(colorize(b.ProgressColor, strings.Repeat(b.Symbol, active)))
	sb.WriteString(colorize(b.RemainingColor, strings.Repeat(b.Symbol, rest)))
	return sb.String()
}

// colorize wraps s in a colour tag, or prefixes it with a legacy colour code.
func colorize(color, s string) string {
	switch {
	case s == "" || color == "":
		return s
	case component.IsColor(color):
		return "<" + color + ">" + s + "</" + color + ">"
	case strings.HasPrefix(color, "<"):
		return color + s + "<reset>"
	default:
		return color + s + "&r"
	}
}

// Model renders <progress> tags against a fixed set of bars.
type Model struct {
	bars   map[string]*Bar
	Length int
}

// NewModel indexes bars by lower-cased identifier.
func NewModel(bars []*Bar) *Model {
	m := &Model{bars: make(map[string]*Bar, len(bars)), Length: DefaultLength}
	for _, b := range bars {
		m.bars[strings.ToLower(b.ID)] = b
	}
	return m
}

// Bar returns the bar called id.
func (m *Model) Bar(id string) (*Bar, bool) {
	b, ok := m.bars[strings.ToLower(id)]
	return b, ok
}

// Modifiers returns the tags the model reads from the rest of the message.
func (m *Model) Modifiers() []string {
	return []string{PercentTag}
}

// Render reads content of the form "id:current/max" and draws the bar.
func (m *Model) Render(content string, tags []string) (string, error) {
	id, value, ok := strings.Cut(strings.TrimSpace(content), ":")
	if !ok {
		return "", fmt.Errorf("progress %q: want id:current/max", content)
	}
	bar, ok := m.Bar(id)
	if !ok {
		return "", fmt.Errorf("progress bar %q is not configured", id)
	}
	cur, total, ok := strings.Cut(value, "/")
	if !ok {
		return "", fmt.Errorf("progress %q: want id:current/max", content)
	}
	current, err := strconv.ParseFloat(strings.TrimSpace(cur), 64)
	if err != nil {
		return "", fmt.Errorf("progress %q: current: %w", content, err)
	}
	maximum, err := strconv.ParseFloat(strings.TrimSpace(total), 64)
	if err != nil {
		return "", fmt.Errorf("progress %q: max: %w", content, err)
	}
	if !finite(current) || !finite(maximum) {
		return "", fmt.Errorf("progress %q: values must be finite", content)
	}
	if maximum < 0 {
		return "", fmt.Errorf("progress %q: max is negative", content)
	}

	out := bar.Render(current, maximum, m.Length)
	if slices.Contains(tags, PercentTag) {
		pct := 0.0
		if maximum > 0 {
			pct = min(max(current/maximum, 0), 1) * 100
		}
		out += " " + strconv.FormatFloat(pct, 'f', 0, 64) + "%"
	}
	return out, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
