package style

import "strings"

// ColorPolicy decides whether a slide carries several intentionally
// different text colours. Such slides never receive a font change without an
// explicit confirmation.
type ColorPolicy interface {
	IsMultiColor(textColors []string) bool
}

// ColorPolicyFunc adapts a function to ColorPolicy.
type ColorPolicyFunc func(textColors []string) bool

func (f ColorPolicyFunc) IsMultiColor(textColors []string) bool { return f(textColors) }

// DistinctColorPolicy flags a slide once it uses at least MinDistinct
// different colours after normalisation. Values below 2 behave as 2.
type DistinctColorPolicy struct {
	MinDistinct int
}

func (p DistinctColorPolicy) IsMultiColor(textColors []string) bool {
	limit := p.MinDistinct
	if limit < 2 {
		limit = 2
	}
	seen := make(map[string]struct{}, len(textColors))
	for _, c := range textColors {
		n := NormalizeColor(c)
		if n == "" {
			continue
		}
		seen[n] = struct{}{}
		if len(seen) >= limit {
			return true
		}
	}
	return false
}

// NormalizeColor lower-cases a CSS colour and expands #rgb to #rrggbb so
// equal colours written differently compare equal.
func NormalizeColor(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if len(c) == 4 && c[0] == '#' {
		return "#" + strings.Repeat(c[1:2], 2) + strings.Repeat(c[2:3], 2) + strings.Repeat(c[3:4], 2)
	}
	return c
}
