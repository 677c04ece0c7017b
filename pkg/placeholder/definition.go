// Copyright 2024-2026 Aiku AI

// Package placeholder holds named placeholder definitions and resolves them
// to text, running each definition's requirement chain and filling its
// positional {N} arguments.
package placeholder

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/aiku/chatmarkup/pkg/component"
	"github.com/aiku/chatmarkup/pkg/requirement"
)

// Kind selects how a definition picks its template.
type Kind int

const (
	KindString Kind = iota
	KindColor
	KindRandom
	KindAnimated
)

func (k Kind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindRandom:
		return "random"
	case KindAnimated:
		return "animated"
	}
	return "string"
}

// ParseKind reads a configured type name. Unknown names yield KindString
// and false.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string":
		return KindString, true
	case "color", "colour":
		return KindColor, true
	case "random":
		return KindRandom, true
	case "animated", "animation":
		return KindAnimated, true
	}
	return KindString, false
}

var argumentRe = regexp.MustCompile(`\{([0-9]+)}`)

// Definition is one placeholder. It is not modified after NewDefinition.
type Definition struct {
	ID        string
	Kind      Kind
	Templates []string
	// Interval is the number of ticks each animated frame stays visible.
	Interval     int64
	Requirements requirement.Chain

	slots []int
}

// NewDefinition validates the templates for kind and records every argument
// slot referenced by the templates and the requirement rules.
func NewDefinition(id string, kind Kind, templates []string, interval int64, reqs requirement.Chain) (*Definition, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("placeholder identifier is empty")
	}
	switch kind {
	case KindString, KindColor:
		if len(templates) != 1 {
			return nil, fmt.Errorf("placeholder %q: %s needs exactly one value, got %d", id, kind, len(templates))
		}
		if kind == KindColor && !argumentRe.MatchString(templates[0]) && !component.IsColor(templates[0]) {
			return nil, fmt.Errorf("placeholder %q: %q is not a color", id, templates[0])
		}
	case KindRandom, KindAnimated:
		if len(templates) == 0 {
			return nil, fmt.Errorf("placeholder %q: %s needs at least one value", id, kind)
		}
	default:
		return nil, fmt.Errorf("placeholder %q: unknown kind %d", id, kind)
	}
	if interval <= 0 {
		interval = 1
	}

	d := &Definition{
		ID:           id,
		Kind:         kind,
		Templates:    slices.Clone(templates),
		Interval:     interval,
		Requirements: reqs,
	}
	seen := make(map[int]struct{})
	scan := func(s string) {
		for _, m := range argumentRe.FindAllStringSubmatch(s, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				d.slots = append(d.slots, n)
			}
		}
	}
	for _, t := range templates {
		scan(t)
	}
	for _, r := range reqs {
		scan(r.Input)
		scan(r.Output)
		scan(r.Deny)
	}
	slices.Sort(d.slots)
	return d, nil
}

// Slots returns the argument indexes referenced by the definition.
func (d *Definition) Slots() []int {
	return slices.Clone(d.slots)
}

// template picks the template for this invocation.
func (d *Definition) template(tick int64) string {
	switch d.Kind {
	case KindRandom:
		return d.Templates[rand.IntN(len(d.Templates))]
	case KindAnimated:
		return d.Frame(tick)
	}
	return d.Templates[0]
}

// Frame returns the animated frame shown at tick.
func (d *Definition) Frame(tick int64) string {
	if tick < 0 {
		tick = 0
	}
	n := int64(len(d.Templates))
	return d.Templates[(tick/d.Interval)%n]
}

// Substitute fills {N} with params[N+1] in one pass, so slot tokens inside
// the parameters stay literal. params[0] is the invocation context and is
// never substituted. Slots without a parameter are left as written.
func (d *Definition) Substitute(s string, params []string) string {
	if len(params) < 2 {
		return s
	}
	return argumentRe.ReplaceAllStringFunc(s, func(slot string) string {
		n, err := strconv.Atoi(slot[1 : len(slot)-1])
		if err != nil || n+1 >= len(params) {
			return slot
		}
		return params[n+1]
	})
}
