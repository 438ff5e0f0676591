// Package pathmatch decides whether a request path is exempt from
// authentication, given an ordered set of exemption rules.
package pathmatch

import (
	"fmt"
	"regexp"
	"strings"
)

// Rules holds the exemption rules for a Matcher. All fields are optional.
type Rules struct {
	// ProtectedPrefix scopes authentication to the subtree under it: when
	// set, any path that does not start with the prefix is exempt.
	ProtectedPrefix string `yaml:"protected_prefix"`
	// ExactPaths are exempted on exact string match.
	ExactPaths []string `yaml:"exact_paths"`
	// Patterns are regular expressions, checked in order only after exact
	// matching fails; the first match exempts.
	Patterns []string `yaml:"patterns"`
}

// Matcher is an immutable, side-effect-free path exemption matcher.
// Safe for concurrent use.
type Matcher struct {
	protectedPrefix string
	exact           map[string]struct{}
	patterns        []*regexp.Regexp
}

// New compiles the rules into a Matcher. Invalid patterns are a
// configuration error.
func New(rules Rules) (*Matcher, error) {
	m := &Matcher{
		protectedPrefix: rules.ProtectedPrefix,
		exact:           make(map[string]struct{}, len(rules.ExactPaths)),
	}
	for _, p := range rules.ExactPaths {
		m.exact[p] = struct{}{}
	}
	for _, p := range rules.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exempt pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// Exempt reports whether the path bypasses authentication. Rules are
// evaluated in order and the first decisive rule wins:
//  1. protected prefix set and path outside it
//  2. exact path match
//  3. first matching pattern
func (m *Matcher) Exempt(path string) bool {
	if m.protectedPrefix != "" && !strings.HasPrefix(path, m.protectedPrefix) {
		return true
	}
	if _, ok := m.exact[path]; ok {
		return true
	}
	for _, re := range m.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
