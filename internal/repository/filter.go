package repository

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter decides whether repositories take part in a scan.
type Filter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewFilter constructs a Filter from glob patterns matched against "namespace/name"
// and the bare name. Empty include slice means include all (unless excluded).
func NewFilter(includeGlobs, excludeGlobs []string) (*Filter, error) {
	compile := func(globs []string) ([]*regexp.Regexp, error) {
		out := make([]*regexp.Regexp, 0, len(globs))
		for _, g := range globs {
			if strings.TrimSpace(g) == "" {
				continue
			}
			r, err := regexp.Compile(globToRegex(g))
			if err != nil {
				return nil, fmt.Errorf("compile glob %s: %w", g, err)
			}
			out = append(out, r)
		}
		return out, nil
	}
	incs, err := compile(includeGlobs)
	if err != nil {
		return nil, err
	}
	excs, err := compile(excludeGlobs)
	if err != nil {
		return nil, err
	}
	return &Filter{include: incs, exclude: excs}, nil
}

// Include returns true if ref passes the filter, or false with an exclusion reason.
func (f *Filter) Include(ref Ref) (bool, string) {
	if f == nil {
		return true, ""
	}
	matches := func(rx *regexp.Regexp) bool {
		return rx.MatchString(ref.String()) || rx.MatchString(ref.Name)
	}
	// Exclusion precedence first
	for _, rx := range f.exclude {
		if matches(rx) {
			return false, "excluded_by_pattern"
		}
	}
	if len(f.include) == 0 {
		return true, ""
	}
	for _, rx := range f.include {
		if matches(rx) {
			return true, ""
		}
	}
	return false, "not_in_includes"
}

// globToRegex converts a shell-style glob to an anchored regex string.
func globToRegex(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '.', '+', '(', ')', '|', '^', '$', '{', '}', '[', ']', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteString("$")
	return b.String()
}
