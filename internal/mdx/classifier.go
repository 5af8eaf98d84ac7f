package mdx

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is one include or exclude rule. Literal patterns match as a
// plain substring of the path; regex patterns use Go regexp syntax.
type Pattern struct {
	Value string
	Regex bool
}

// LiteralPatterns wraps raw strings as literal substring patterns.
func LiteralPatterns(values []string) []Pattern {
	patterns := make([]Pattern, 0, len(values))
	for _, v := range values {
		patterns = append(patterns, Pattern{Value: v})
	}
	return patterns
}

// RegexPatterns wraps raw strings as regex patterns.
func RegexPatterns(values []string) []Pattern {
	patterns := make([]Pattern, 0, len(values))
	for _, v := range values {
		patterns = append(patterns, Pattern{Value: v, Regex: true})
	}
	return patterns
}

// matcher is a compiled pattern.
type matcher struct {
	literal string
	re      *regexp.Regexp // nil for literal patterns
}

func (m matcher) match(path string) bool {
	if m.re != nil {
		return m.re.MatchString(path)
	}
	return strings.Contains(path, m.literal)
}

// Filter decides which paths enter the indexing pipeline. It is a pure
// predicate with no side effects.
//
// An exclude match always wins over an include match. An empty include
// set means "include everything not excluded."
type Filter struct {
	include []matcher
	exclude []matcher
}

// NewFilter compiles include and exclude patterns into a Filter.
// Returns an error if any regex pattern fails to compile; literal
// patterns cannot fail.
func NewFilter(include, exclude []Pattern) (*Filter, error) {
	inc, err := compilePatterns(include)
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	exc, err := compilePatterns(exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	return &Filter{include: inc, exclude: exc}, nil
}

func compilePatterns(patterns []Pattern) ([]matcher, error) {
	var matchers []matcher
	for _, p := range patterns {
		if p.Value == "" {
			continue
		}
		if !p.Regex {
			matchers = append(matchers, matcher{literal: p.Value})
			continue
		}
		re, err := regexp.Compile(p.Value)
		if err != nil {
			return nil, fmt.Errorf("compiling %q: %w", p.Value, err)
		}
		matchers = append(matchers, matcher{re: re})
	}
	return matchers, nil
}

// Match reports whether the given path should be included.
// A nil Filter includes everything.
func (f *Filter) Match(path string) bool {
	if f == nil {
		return true
	}
	for _, m := range f.exclude {
		if m.match(path) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, m := range f.include {
		if m.match(path) {
			return true
		}
	}
	return false
}
