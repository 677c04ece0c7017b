// Copyright 2024-2026 Aiku AI

package requirement

// State is the outcome of evaluating a chain.
type State int

const (
	Pending State = iota
	Passed
	Denied
)

func (s State) String() string {
	switch s {
	case Passed:
		return "passed"
	case Denied:
		return "denied"
	}
	return "pending"
}

// Chain is an ordered list of compiled rules. Order is evaluation order.
type Chain []Compiled

// Evaluate runs the rules in order. subst fills argument slots in a rule's
// input and output before they are compared. The first failing rule stops
// evaluation and its deny template is returned with Denied; otherwise the
// result is Passed with an empty template.
func (c Chain) Evaluate(subst func(string) string) (State, string) {
	if subst == nil {
		subst = func(s string) string { return s }
	}
	for _, rule := range c {
		if !rule.Holds(subst(rule.Input), subst(rule.Output)) {
			return Denied, rule.Deny
		}
	}
	return Passed, ""
}

// Build compiles rules in order. Rules naming unknown predicates are left
// out and reported in errs; the chain keeps the remaining rules.
func (p *Predicates) Build(rules []Rule) (chain Chain, errs []error) {
	for _, r := range rules {
		c, err := p.Compile(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		chain = append(chain, c)
	}
	return chain, errs
}
