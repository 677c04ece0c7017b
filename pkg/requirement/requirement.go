// Copyright 2024-2026 Aiku AI

// Package requirement evaluates the ordered requirement rules attached to a
// placeholder and picks the deny template of the first rule that fails.
package requirement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aiku/chatmarkup/pkg/component"
)

// ErrUnknownPredicate is returned when a rule names a predicate that is not
// registered.
var ErrUnknownPredicate = errors.New("unknown requirement predicate")

// Predicate compares the input and output of a rule.
type Predicate interface {
	Compare(input, output string) bool
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(input, output string) bool

func (f PredicateFunc) Compare(input, output string) bool {
	return f(input, output)
}

// Modifier tokens accepted in a rule identifier.
const (
	IgnoreCase  = "ignorecase"
	IgnoreColor = "ignorecolor"
)

// typeString is the requirement type token. When it is the first token the
// following tokens name predicates, defaulting to equals.
const typeString = "string"

// Predicates is a set of named predicates.
type Predicates struct {
	byName map[string]Predicate
}

// NewPredicates returns a set with equals, contains, startswith and endswith.
func NewPredicates() *Predicates {
	p := &Predicates{byName: make(map[string]Predicate)}
	p.Register("equals", PredicateFunc(func(in, out string) bool { return in == out }))
	p.Register("contains", PredicateFunc(strings.Contains))
	p.Register("startswith", PredicateFunc(strings.HasPrefix))
	p.Register("endswith", PredicateFunc(strings.HasSuffix))
	return p
}

// Register adds or replaces a predicate. Names are case-insensitive.
func (p *Predicates) Register(name string, pred Predicate) {
	p.byName[strings.ToLower(name)] = pred
}

// Lookup returns the predicate called name.
func (p *Predicates) Lookup(name string) (Predicate, bool) {
	pred, ok := p.byName[strings.ToLower(name)]
	return pred, ok
}

// Rule is a requirement as written in configuration.
type Rule struct {
	Identifier string
	Input      string
	Output     string
	Deny       string
}

// Compiled is a rule with its identifier resolved against a predicate set.
type Compiled struct {
	Rule
	predicates  []Predicate
	negate      bool
	ignoreCase  bool
	ignoreColor bool
}

// Compile parses the rule identifier. Modifier tokens may appear anywhere;
// a leading '!' on the remaining identifier negates the result.
func (p *Predicates) Compile(r Rule) (Compiled, error) {
	c := Compiled{Rule: r}
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(r.Identifier)) {
		switch tok {
		case IgnoreCase:
			c.ignoreCase = true
		case IgnoreColor:
			c.ignoreColor = true
		default:
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return Compiled{}, fmt.Errorf("%w: empty identifier %q", ErrUnknownPredicate, r.Identifier)
	}
	if strings.HasPrefix(tokens[0], "!") {
		c.negate = true
		tokens[0] = tokens[0][1:]
	}

	names := tokens
	if tokens[0] == typeString {
		names = tokens[1:]
		if len(names) == 0 {
			names = []string{"equals"}
		}
	}
	for _, name := range names {
		pred, ok := p.Lookup(name)
		if !ok {
			return Compiled{}, fmt.Errorf("%w: %q in %q", ErrUnknownPredicate, name, r.Identifier)
		}
		c.predicates = append(c.predicates, pred)
	}
	return c, nil
}

// Holds reports whether the rule passes for already substituted input and
// output strings.
func (c Compiled) Holds(input, output string) bool {
	if c.ignoreCase {
		input, output = strings.ToLower(input), strings.ToLower(output)
	}
	if c.ignoreColor {
		input, output = component.StripColorCodes(input), component.StripColorCodes(output)
	}
	for _, pred := range c.predicates {
		if c.negate == pred.Compare(input, output) {
			return false
		}
	}
	return true
}
