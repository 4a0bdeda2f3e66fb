package store

import (
	"regexp"
	"strings"
	"sync"
)

// likeCache maps LIKE patterns to their compiled *regexp.Regexp.
var likeCache sync.Map

// LikeMatch reports whether s matches a SQL LIKE pattern, where % matches any
// run of characters, _ matches one character and \ escapes the next one.
func LikeMatch(pattern, s string) bool {
	return compileLike(pattern).MatchString(s)
}

func compileLike(pattern string) *regexp.Regexp {
	if re, ok := likeCache.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := likeCache.LoadOrStore(pattern, likeRegexp(pattern))
	return re.(*regexp.Regexp)
}

func likeRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(`.*`)
		case r == '_':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		b.WriteString(regexp.QuoteMeta(`\`))
	}
	b.WriteString(`$`)
	return regexp.MustCompile(b.String())
}

// HasWildcards reports whether a LIKE pattern contains unescaped wildcards.
func HasWildcards(pattern string) bool {
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%' || r == '_':
			return true
		}
	}
	return false
}
