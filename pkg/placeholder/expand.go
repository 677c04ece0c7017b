// Copyright 2024-2026 Aiku AI

package placeholder

import (
	"regexp"
	"strings"
)

// chatRe matches {name} and {name:arg1:arg2} in chat text. Names start with a
// letter, so positional {0} slots never match.
var chatRe = regexp.MustCompile(`\{([a-zA-Z][a-zA-Z0-9_.-]*)((?::[^{}:]*)*)}`)

// Expand resolves every chat placeholder in text with ctx as params[0].
// Identifiers that are not registered stay in the text exactly as written
// and are returned in unknown.
func (r *Registry) Expand(text, ctx string) (out string, unknown []string) {
	out = chatRe.ReplaceAllStringFunc(text, func(match string) string {
		m := chatRe.FindStringSubmatch(match)
		params := []string{ctx}
		if m[2] != "" {
			params = append(params, strings.Split(m[2][1:], ":")...)
		}
		res, err := r.Resolve(m[1], params)
		if err != nil {
			unknown = append(unknown, m[1])
			return match
		}
		return res.Text
	})
	return out, unknown
}
