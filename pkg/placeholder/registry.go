// Copyright 2024-2026 Aiku AI

package placeholder

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aiku/chatmarkup/pkg/requirement"
)

// ErrUnknownPlaceholder is returned when resolving an identifier that is not
// registered.
var ErrUnknownPlaceholder = errors.New("unknown placeholder")

// Registry maps case-insensitive identifiers to definitions. A registry is
// filled once and then only read; reloads build a new registry instead of
// changing a published one.
type Registry struct {
	clock *Clock
	defs  map[string]*Definition
	order []string
}

// NewRegistry returns an empty registry reading animation ticks from clock.
// A nil clock always reads tick zero.
func NewRegistry(clock *Clock) *Registry {
	return &Registry{
		clock: clock,
		defs:  make(map[string]*Definition),
	}
}

// Register inserts or replaces the definition stored under id.
func (r *Registry) Register(id string, def *Definition) {
	key := strings.ToLower(id)
	if _, ok := r.defs[key]; !ok {
		r.order = append(r.order, key)
	}
	r.defs[key] = def
}

// Lookup returns the definition for id.
func (r *Registry) Lookup(id string) (*Definition, bool) {
	def, ok := r.defs[strings.ToLower(id)]
	return def, ok
}

// IDs returns the registered identifiers in registration order.
func (r *Registry) IDs() []string {
	return slices.Clone(r.order)
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Resolution is the outcome of resolving one placeholder.
type Resolution struct {
	Text  string
	State requirement.State
}

// Resolve renders the placeholder id with params. params[0] is the
// invocation context; {N} in the chosen template is replaced by params[N+1].
func (r *Registry) Resolve(id string, params []string) (Resolution, error) {
	def, ok := r.Lookup(id)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s", ErrUnknownPlaceholder, id)
	}
	return def.resolve(r.clock.Now(), params), nil
}

func (d *Definition) resolve(tick int64, params []string) Resolution {
	tmpl := d.template(tick)
	state := requirement.Passed
	if len(d.Requirements) > 0 {
		subst := func(s string) string { return d.Substitute(s, params) }
		var deny string
		if state, deny = d.Requirements.Evaluate(subst); state == requirement.Denied {
			tmpl = deny
		}
	}
	return Resolution{Text: d.Substitute(tmpl, params), State: state}
}
